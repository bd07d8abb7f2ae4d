package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/pkg/commitment"
)

// TransactionInput argumentos de recordInventoryTransaction.
type TransactionInput struct {
	ProductID       uint64
	LocationID      int64
	Quantity        int64
	UnitPrice       decimal.Decimal
	TransactionType string
	ReferenceNumber string
	DataHash        commitment.Digest
}

// PrepareRecordTransaction valida recordInventoryTransaction.
// Orden de validación: autorización, cantidad distinta de cero, producto existente.
func (s *State) PrepareRecordTransaction(caller entity.Principal, in TransactionInput, at time.Time) (Change, error) {
	if !s.IsAuthorized(caller) {
		return Change{}, domain.ErrUnauthorized
	}
	if in.Quantity == 0 {
		return Change{}, domain.ErrInvalidQuantity
	}
	if _, ok := s.product(in.ProductID); !ok {
		return Change{}, domain.ErrProductNotFound
	}
	return Change{
		Kind: ChangeTransaction,
		Transaction: &entity.Transaction{
			ID:              s.nextTransactionID,
			ProductID:       in.ProductID,
			LocationID:      in.LocationID,
			Quantity:        in.Quantity,
			UnitPrice:       in.UnitPrice,
			TransactionType: in.TransactionType,
			ReferenceNumber: in.ReferenceNumber,
			DataHash:        in.DataHash,
			Executor:        caller,
			CreatedAt:       at,
		},
	}, nil
}

// Transaction busca por id.
func (s *State) Transaction(id uint64) (entity.Transaction, error) {
	t, ok := s.transaction(id)
	if !ok {
		return entity.Transaction{}, domain.ErrTransactionNotFound
	}
	return t, nil
}

// ProductTransactions ids de las transacciones del producto en orden de registro.
// Vacío (no nil) si no hay ninguna o el producto no existe.
func (s *State) ProductTransactions(productID uint64) []uint64 {
	ids := s.productTxs[productID]
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out
}

// TotalTransactions getTotalTransactions.
func (s *State) TotalTransactions() uint64 { return s.totalTransactions }

func (s *State) transaction(id uint64) (entity.Transaction, bool) {
	if id == 0 || id > uint64(len(s.transactions)) {
		return entity.Transaction{}, false
	}
	return s.transactions[id-1], true
}
