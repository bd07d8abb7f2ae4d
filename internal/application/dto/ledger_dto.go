package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	domledger "github.com/jhoicas/inventario-ledger/internal/domain/ledger"
)

// RegisterProductRequest body para POST /api/v1/ledger/products.
type RegisterProductRequest struct {
	Code     string `json:"code" validate:"required,max=100"`
	Name     string `json:"name" validate:"required,max=200"`
	DataHash string `json:"data_hash" validate:"required,digest"`
}

// RecordTransactionRequest body para POST /api/v1/ledger/transactions.
// Quantity cero y producto inexistente los rechaza el ledger, no la validación.
type RecordTransactionRequest struct {
	ProductID       uint64          `json:"product_id"`
	LocationID      int64           `json:"location_id"`
	Quantity        int64           `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TransactionType string          `json:"transaction_type" validate:"max=50"`
	ReferenceNumber string          `json:"reference_number" validate:"max=100"`
	DataHash        string          `json:"data_hash" validate:"required,digest"`
}

// VerifyIntegrityRequest body para POST /api/v1/ledger/integrity/verify.
type VerifyIntegrityRequest struct {
	ID        uint64 `json:"id" validate:"required"`
	DataHash  string `json:"data_hash" validate:"required,digest"`
	IsProduct bool   `json:"is_product"`
}

// AddressParam dirección recibida en la ruta.
type AddressParam struct {
	Address string `validate:"required,eth_addr"`
}

// OwnerResponse salida de GET /owner.
type OwnerResponse struct {
	Owner string `json:"owner"`
}

// AuthorizationResponse estado de autorización de una dirección.
type AuthorizationResponse struct {
	Address    string `json:"address"`
	Authorized bool   `json:"authorized"`
}

// RegisterProductResponse id asignado.
type RegisterProductResponse struct {
	ProductID uint64 `json:"product_id"`
}

// RecordTransactionResponse id asignado.
type RecordTransactionResponse struct {
	TransactionID uint64 `json:"transaction_id"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID        uint64    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	DataHash  string    `json:"data_hash"`
	Creator   string    `json:"creator"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// TransactionResponse salida de una transacción.
type TransactionResponse struct {
	ID              uint64          `json:"id"`
	ProductID       uint64          `json:"product_id"`
	LocationID      int64           `json:"location_id"`
	Quantity        int64           `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TransactionType string          `json:"transaction_type"`
	ReferenceNumber string          `json:"reference_number"`
	DataHash        string          `json:"data_hash"`
	Executor        string          `json:"executor"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ProductTransactionsResponse ids en orden de registro.
type ProductTransactionsResponse struct {
	ProductID      uint64   `json:"product_id"`
	TransactionIDs []uint64 `json:"transaction_ids"`
}

// VerifyIntegrityResponse resultado de la comparación.
type VerifyIntegrityResponse struct {
	ID        uint64 `json:"id"`
	IsProduct bool   `json:"is_product"`
	Match     bool   `json:"match"`
}

// StatsResponse contadores y raíz de estado.
type StatsResponse struct {
	TotalProducts     uint64 `json:"total_products"`
	TotalTransactions uint64 `json:"total_transactions"`
	NextProductID     uint64 `json:"next_product_id"`
	NextTransactionID uint64 `json:"next_transaction_id"`
	AuthorizedUsers   int    `json:"authorized_users"`
	StateRoot         string `json:"state_root"`
}

// ToProductResponse mapea la entidad.
func ToProductResponse(p entity.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Code:      p.Code,
		Name:      p.Name,
		DataHash:  p.DataHash.String(),
		Creator:   p.Creator.String(),
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
	}
}

// ToTransactionResponse mapea la entidad.
func ToTransactionResponse(t entity.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              t.ID,
		ProductID:       t.ProductID,
		LocationID:      t.LocationID,
		Quantity:        t.Quantity,
		UnitPrice:       t.UnitPrice,
		TransactionType: t.TransactionType,
		ReferenceNumber: t.ReferenceNumber,
		DataHash:        t.DataHash.String(),
		Executor:        t.Executor.String(),
		CreatedAt:       t.CreatedAt,
	}
}

// ToStatsResponse mapea los contadores.
func ToStatsResponse(s domledger.Stats) StatsResponse {
	return StatsResponse{
		TotalProducts:     s.TotalProducts,
		TotalTransactions: s.TotalTransactions,
		NextProductID:     s.NextProductID,
		NextTransactionID: s.NextTransactionID,
		AuthorizedUsers:   s.AuthorizedUsers,
		StateRoot:         s.StateRoot.String(),
	}
}
