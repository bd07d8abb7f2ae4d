// Package ledger: máquina de estados pura del ledger de inventario.
//
// Cada llamada mutante se divide en dos pasos: Prepare* valida todas las precondiciones sobre
// una vista de solo lectura y devuelve un Change sin tocar el estado; Apply aplica ese Change
// (registro, índices y contadores) como una sola unidad. Entre ambos pasos el llamador puede
// persistir el Change; si algo falla, basta con descartarlo y no queda rastro (ni ids consumidos).
//
// State no es seguro para uso concurrente: el serializado de llamadas lo garantiza la capa
// de aplicación (un único escritor).
package ledger

import (
	"sort"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/pkg/commitment"
)

// State estado completo del ledger.
type State struct {
	owner      entity.Principal
	createdAt  time.Time
	authorized map[entity.Principal]bool

	products      []entity.Product // índice = id-1
	productByCode map[string]uint64
	transactions  []entity.Transaction // índice = id-1
	productTxs    map[uint64][]uint64

	nextProductID     uint64
	nextTransactionID uint64
	totalProducts     uint64
	totalTransactions uint64

	productsRoot     commitment.Digest
	transactionsRoot commitment.Digest
}

// New crea un ledger vacío con su propietario, autorizado desde el inicio.
func New(owner entity.Principal, createdAt time.Time) (*State, error) {
	if owner.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	s := &State{
		owner:             owner,
		createdAt:         createdAt,
		authorized:        map[entity.Principal]bool{owner: true},
		productByCode:     make(map[string]uint64),
		productTxs:        make(map[uint64][]uint64),
		nextProductID:     1,
		nextTransactionID: 1,
	}
	return s, nil
}

// Owner devuelve el propietario.
func (s *State) Owner() entity.Principal { return s.owner }

// CreatedAt momento de creación del ledger.
func (s *State) CreatedAt() time.Time { return s.createdAt }

// IsAuthorized indica si p puede invocar operaciones mutantes. El propietario siempre puede.
func (s *State) IsAuthorized(p entity.Principal) bool {
	if p == s.owner {
		return true
	}
	return s.authorized[p]
}

// AuthorizedUsers lista ordenada de principales autorizados (incluye al propietario).
func (s *State) AuthorizedUsers() []entity.Principal {
	out := make([]entity.Principal, 0, len(s.authorized))
	for p, ok := range s.authorized {
		if ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot estado persistido: suficiente para reconstruir State con Restore.
type Snapshot struct {
	Owner        entity.Principal
	CreatedAt    time.Time
	Authorized   []entity.Principal
	Products     []entity.Product     // en orden de id
	Transactions []entity.Transaction // en orden de id
}

// Snapshot exporta el estado actual (copias).
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Owner:        s.owner,
		CreatedAt:    s.createdAt,
		Authorized:   s.AuthorizedUsers(),
		Products:     append([]entity.Product(nil), s.products...),
		Transactions: append([]entity.Transaction(nil), s.transactions...),
	}
}

// Restore reconstruye el estado desde un snapshot, verificando ids sin huecos, códigos únicos
// y referencias válidas. Cualquier inconsistencia devuelve ErrCorruptSnapshot.
func Restore(snap Snapshot) (*State, error) {
	s, err := New(snap.Owner, snap.CreatedAt)
	if err != nil {
		return nil, domain.ErrCorruptSnapshot
	}
	for _, p := range snap.Authorized {
		if p != s.owner {
			s.authorized[p] = true
		}
	}
	for _, p := range snap.Products {
		if p.ID != s.nextProductID {
			return nil, domain.ErrCorruptSnapshot
		}
		if _, dup := s.productByCode[p.Code]; dup {
			return nil, domain.ErrCorruptSnapshot
		}
		s.applyProduct(p)
	}
	for _, t := range snap.Transactions {
		if t.ID != s.nextTransactionID || t.Quantity == 0 {
			return nil, domain.ErrCorruptSnapshot
		}
		if _, ok := s.product(t.ProductID); !ok {
			return nil, domain.ErrCorruptSnapshot
		}
		s.applyTransaction(t)
	}
	return s, nil
}
