package ledger

import (
	"strings"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/pkg/commitment"
)

// PrepareRegisterProduct valida registerProduct y reserva (sin consumir) el siguiente id.
// Orden de validación: autorización, entrada, unicidad del código.
func (s *State) PrepareRegisterProduct(caller entity.Principal, code, name string, dataHash commitment.Digest, at time.Time) (Change, error) {
	if !s.IsAuthorized(caller) {
		return Change{}, domain.ErrUnauthorized
	}
	if strings.TrimSpace(code) == "" || strings.TrimSpace(name) == "" {
		return Change{}, domain.ErrInvalidInput
	}
	if _, exists := s.productByCode[code]; exists {
		return Change{}, domain.ErrDuplicateCode
	}
	return Change{
		Kind: ChangeProduct,
		Product: &entity.Product{
			ID:        s.nextProductID,
			Code:      code,
			Name:      name,
			DataHash:  dataHash,
			Creator:   caller,
			Active:    true,
			CreatedAt: at,
		},
	}, nil
}

// ProductByCode getProductByCode.
func (s *State) ProductByCode(code string) (entity.Product, error) {
	id, ok := s.productByCode[code]
	if !ok {
		return entity.Product{}, domain.ErrProductNotFound
	}
	p, _ := s.product(id)
	return p, nil
}

// Product busca por id.
func (s *State) Product(id uint64) (entity.Product, error) {
	p, ok := s.product(id)
	if !ok {
		return entity.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

// TotalProducts getTotalProducts.
func (s *State) TotalProducts() uint64 { return s.totalProducts }

func (s *State) product(id uint64) (entity.Product, bool) {
	if id == 0 || id > uint64(len(s.products)) {
		return entity.Product{}, false
	}
	return s.products[id-1], true
}
