package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio del ledger (sin dependencias externas).
// Los mensajes se exponen tal cual al llamador.
var (
	ErrUnauthorized    = errors.New("Usuario no autorizado")
	ErrDuplicateCode   = errors.New("Codigo de producto ya existe")
	ErrNotFound        = errors.New("recurso no encontrado")
	ErrInvalidQuantity = errors.New("Cantidad no puede ser cero")
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrOwnerImmutable  = errors.New("el propietario no puede ser revocado")
	ErrLedgerClosed    = errors.New("ledger detenido")
	ErrCorruptSnapshot = errors.New("estado persistido inconsistente")
)

// Variantes con mensaje propio; errors.Is sigue reconociendo la categoría.
var (
	ErrOnlyOwner           = fmt.Errorf("Solo el propietario puede ejecutar esta funcion: %w", ErrUnauthorized)
	ErrProductNotFound     = fmt.Errorf("Producto no existe: %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("Transaccion no existe: %w", ErrNotFound)
)
