package entity

import (
	"time"

	"github.com/jhoicas/inventario-ledger/pkg/commitment"
)

// Product identidad de un producto en el ledger. Los atributos descriptivos (precio,
// descripción, imágenes) viven fuera; aquí solo queda su digest en DataHash.
// Se crea una sola vez y nunca se modifica.
type Product struct {
	ID        uint64
	Code      string // único entre todos los productos registrados, activos o no
	Name      string
	DataHash  commitment.Digest
	Creator   Principal
	Active    bool
	CreatedAt time.Time
}
