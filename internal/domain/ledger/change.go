package ledger

import (
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ChangeKind tipo de transición.
type ChangeKind string

const (
	ChangeAuthorization ChangeKind = "authorization"
	ChangeProduct       ChangeKind = "product"
	ChangeTransaction   ChangeKind = "transaction"
)

// Change transición validada y aún no aplicada. Exactamente uno de los punteros está definido
// según Kind. Authorization.ChangedBy es quien invocó la llamada.
type Change struct {
	Kind          ChangeKind
	Authorization *entity.Authorization
	Product       *entity.Product
	Transaction   *entity.Transaction
}

// Event nombre y payload del evento que la transición emite al confirmarse.
func (c Change) Event() (string, any) {
	switch c.Kind {
	case ChangeAuthorization:
		a := c.Authorization
		if a.Authorized {
			return entity.EventUserAuthorized, entity.UserAuthorized{User: a.User, Authorizer: a.ChangedBy}
		}
		return entity.EventUserRevoked, entity.UserRevoked{User: a.User, Revoker: a.ChangedBy}
	case ChangeProduct:
		p := c.Product
		return entity.EventProductRegistered, entity.ProductRegistered{
			ProductID: p.ID,
			Code:      p.Code,
			Name:      p.Name,
			DataHash:  p.DataHash,
			Creator:   p.Creator,
		}
	case ChangeTransaction:
		t := c.Transaction
		return entity.EventInventoryTransactionRecorded, entity.InventoryTransactionRecorded{
			TransactionID:   t.ID,
			ProductID:       t.ProductID,
			LocationID:      t.LocationID,
			Quantity:        t.Quantity,
			UnitPrice:       t.UnitPrice,
			TransactionType: t.TransactionType,
			Executor:        t.Executor,
		}
	}
	return "", nil
}

// Apply confirma una transición preparada sobre este mismo estado. Solo falla si el Change no
// corresponde al estado actual (p. ej. se preparó contra otra versión), y en ese caso no muta nada.
func (s *State) Apply(c Change) error {
	switch c.Kind {
	case ChangeAuthorization:
		if c.Authorization == nil {
			return fmt.Errorf("apply: %w", domain.ErrInvalidInput)
		}
		a := c.Authorization
		if a.Authorized {
			s.authorized[a.User] = true
		} else {
			delete(s.authorized, a.User)
		}
		return nil
	case ChangeProduct:
		if c.Product == nil || c.Product.ID != s.nextProductID {
			return fmt.Errorf("apply product: %w", domain.ErrCorruptSnapshot)
		}
		if _, dup := s.productByCode[c.Product.Code]; dup {
			return fmt.Errorf("apply product: %w", domain.ErrDuplicateCode)
		}
		s.applyProduct(*c.Product)
		return nil
	case ChangeTransaction:
		if c.Transaction == nil || c.Transaction.ID != s.nextTransactionID {
			return fmt.Errorf("apply transaction: %w", domain.ErrCorruptSnapshot)
		}
		if _, ok := s.product(c.Transaction.ProductID); !ok {
			return fmt.Errorf("apply transaction: %w", domain.ErrProductNotFound)
		}
		s.applyTransaction(*c.Transaction)
		return nil
	}
	return fmt.Errorf("apply: tipo desconocido %q: %w", c.Kind, domain.ErrInvalidInput)
}

// applyProduct registro + índice + contadores + cadena de compromisos, en un solo paso.
func (s *State) applyProduct(p entity.Product) {
	s.products = append(s.products, p)
	s.productByCode[p.Code] = p.ID
	s.nextProductID++
	s.totalProducts++
	s.productsRoot = chain(s.productsRoot, p.ID, p.DataHash)
}

func (s *State) applyTransaction(t entity.Transaction) {
	s.transactions = append(s.transactions, t)
	s.productTxs[t.ProductID] = append(s.productTxs[t.ProductID], t.ID)
	s.nextTransactionID++
	s.totalTransactions++
	s.transactionsRoot = chain(s.transactionsRoot, t.ID, t.DataHash)
}
