package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/pkg/commitment"
)

// Nombres de eventos emitidos por el ledger tras cada transición confirmada.
const (
	EventUserAuthorized               = "UserAuthorized"
	EventUserRevoked                  = "UserRevoked"
	EventProductRegistered            = "ProductRegistered"
	EventInventoryTransactionRecorded = "InventoryTransactionRecorded"
)

// Event sobre publicado a los suscriptores. Sequence es global y sin huecos entre los eventos
// de un mismo proceso, lo que permite a un indexador detectar pérdidas.
type Event struct {
	ID         string    `json:"id"`
	Sequence   uint64    `json:"sequence"`
	Name       string    `json:"event"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// UserAuthorized payload de authorizeUser.
type UserAuthorized struct {
	User       Principal `json:"user"`
	Authorizer Principal `json:"authorizer"`
}

// UserRevoked payload de revokeUser.
type UserRevoked struct {
	User    Principal `json:"user"`
	Revoker Principal `json:"revoker"`
}

// ProductRegistered payload de registerProduct.
type ProductRegistered struct {
	ProductID uint64            `json:"product_id"`
	Code      string            `json:"code"`
	Name      string            `json:"name"`
	DataHash  commitment.Digest `json:"data_hash"`
	Creator   Principal         `json:"creator"`
}

// InventoryTransactionRecorded payload de recordInventoryTransaction.
type InventoryTransactionRecorded struct {
	TransactionID   uint64          `json:"transaction_id"`
	ProductID       uint64          `json:"product_id"`
	LocationID      int64           `json:"location_id"`
	Quantity        int64           `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TransactionType string          `json:"transaction_type"`
	Executor        Principal       `json:"executor"`
}
