package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/ledger"
)

// ErrAlreadyInitialized Init sobre un store que ya contiene un ledger.
var ErrAlreadyInitialized = errors.New("ledger ya inicializado")

// LedgerStore define el puerto de persistencia del ledger (DIP).
// Funciona como bitácora previa a la escritura: cada Change validado se confirma aquí antes
// de aplicarse en memoria. Si Commit falla, la llamada se revierte por completo.
type LedgerStore interface {
	// Load devuelve el estado persistido, o nil si el ledger aún no fue creado.
	Load(ctx context.Context) (*ledger.Snapshot, error)
	// Init crea el ledger con su propietario. Falla si ya existe.
	Init(ctx context.Context, owner entity.Principal, createdAt time.Time) error
	// Commit persiste atómicamente una transición (registro + autorización) o nada.
	Commit(ctx context.Context, change ledger.Change) error
}
