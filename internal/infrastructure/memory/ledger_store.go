// Package memory: implementación en memoria del LedgerStore, para desarrollo y tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/ledger"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// LedgerStore guarda la bitácora en memoria del proceso.
type LedgerStore struct {
	mu           sync.Mutex
	initialized  bool
	owner        entity.Principal
	createdAt    time.Time
	authorized   map[entity.Principal]bool
	products     []entity.Product
	transactions []entity.Transaction
}

var _ repository.LedgerStore = (*LedgerStore)(nil)

// NewLedgerStore crea un store vacío.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{authorized: make(map[entity.Principal]bool)}
}

// Load devuelve una copia del estado, o nil si no hay ledger.
func (s *LedgerStore) Load(_ context.Context) (*ledger.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return nil, nil
	}
	users := make([]entity.Principal, 0, len(s.authorized))
	for p := range s.authorized {
		users = append(users, p)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return &ledger.Snapshot{
		Owner:        s.owner,
		CreatedAt:    s.createdAt,
		Authorized:   users,
		Products:     append([]entity.Product(nil), s.products...),
		Transactions: append([]entity.Transaction(nil), s.transactions...),
	}, nil
}

// Init crea el ledger.
func (s *LedgerStore) Init(_ context.Context, owner entity.Principal, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return repository.ErrAlreadyInitialized
	}
	s.initialized = true
	s.owner = owner
	s.createdAt = createdAt
	s.authorized[owner] = true
	return nil
}

// Commit agrega la transición. Los ids deben llegar consecutivos.
func (s *LedgerStore) Commit(_ context.Context, change ledger.Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return fmt.Errorf("commit: ledger no inicializado")
	}
	switch change.Kind {
	case ledger.ChangeAuthorization:
		a := change.Authorization
		if a.Authorized {
			s.authorized[a.User] = true
		} else {
			delete(s.authorized, a.User)
		}
	case ledger.ChangeProduct:
		if want := uint64(len(s.products)) + 1; change.Product.ID != want {
			return fmt.Errorf("commit producto: id %d, esperado %d", change.Product.ID, want)
		}
		s.products = append(s.products, *change.Product)
	case ledger.ChangeTransaction:
		if want := uint64(len(s.transactions)) + 1; change.Transaction.ID != want {
			return fmt.Errorf("commit transacción: id %d, esperado %d", change.Transaction.ID, want)
		}
		s.transactions = append(s.transactions, *change.Transaction)
	default:
		return fmt.Errorf("commit: tipo desconocido %q", change.Kind)
	}
	return nil
}
