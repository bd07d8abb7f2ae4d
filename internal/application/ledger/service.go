// Package ledger implementa la superficie de llamadas del ledger sobre un único escritor.
//
// Todas las llamadas, lectoras y mutantes, se ejecutan en orden dentro de la goroutine del
// Service: cada mutación se valida (Prepare), se persiste en el LedgerStore, se aplica en
// memoria y, solo entonces, publica su evento. Un fallo en cualquiera de esos pasos deja el
// estado exactamente como estaba.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	domledger "github.com/jhoicas/inventario-ledger/internal/domain/ledger"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/commitment"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// Resultados de una llamada, usados como etiqueta de métricas.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Publisher destino de los eventos confirmados (events.Broker).
type Publisher interface {
	Publish(ev entity.Event)
}

// Recorder métricas del núcleo.
type Recorder interface {
	ObserveCall(call, outcome string, d time.Duration)
	SetLedgerTotals(products, transactions uint64)
}

// Options parámetros opcionales del Service.
type Options struct {
	QueueSize int
	Logger    *logger.Logger
	Recorder  Recorder
	Clock     func() time.Time
}

// Service ledger de inventario con escritor único.
type Service struct {
	store repository.LedgerStore
	pub   Publisher
	log   *logger.Logger
	rec   Recorder
	now   func() time.Time

	cmds    chan command
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once

	// Solo los toca la goroutine del loop.
	state  *domledger.State
	seq    uint64
	halted bool
}

type command struct {
	fn   func(st *domledger.State)
	done chan struct{}
}

// New carga (o crea) el ledger desde el store y arranca el loop.
// Si el store ya contiene un ledger, su propietario prevalece sobre owner.
func New(ctx context.Context, store repository.LedgerStore, owner entity.Principal, pub Publisher, opts Options) (*Service, error) {
	if store == nil {
		return nil, errors.New("ledger: store requerido")
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}
	s := &Service{
		store:   store,
		pub:     pub,
		log:     opts.Logger.Component("ledger"),
		rec:     opts.Recorder,
		now:     opts.Clock,
		cmds:    make(chan command, opts.QueueSize),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	if err := s.bootstrap(ctx, owner); err != nil {
		return nil, err
	}
	go s.loop()
	return s, nil
}

func (s *Service) bootstrap(ctx context.Context, owner entity.Principal) error {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("cargar ledger: %w", err)
	}
	if snap == nil {
		at := s.now()
		st, err := domledger.New(owner, at)
		if err != nil {
			return fmt.Errorf("crear ledger: %w", err)
		}
		if err := s.store.Init(ctx, owner, at); err != nil {
			return fmt.Errorf("inicializar store: %w", err)
		}
		s.state = st
		s.log.Info().Str("owner", owner.String()).Msg("ledger creado")
	} else {
		st, err := domledger.Restore(*snap)
		if err != nil {
			return fmt.Errorf("restaurar ledger: %w", err)
		}
		if snap.Owner != owner {
			s.log.Warn().
				Str("configured_owner", owner.String()).
				Str("owner", snap.Owner.String()).
				Msg("el propietario persistido prevalece sobre el configurado")
		}
		s.state = st
		stats := st.Stats()
		s.log.Info().
			Str("owner", snap.Owner.String()).
			Uint64("products", stats.TotalProducts).
			Uint64("transactions", stats.TotalTransactions).
			Str("state_root", stats.StateRoot.String()).
			Msg("ledger restaurado")
	}
	s.recordTotals()
	return nil
}

func (s *Service) loop() {
	for {
		select {
		case cmd := <-s.cmds:
			cmd.fn(s.state)
			close(cmd.done)
			if s.halted {
				close(s.stopped)
				return
			}
		case <-s.quit:
			close(s.stopped)
			return
		}
	}
}

// Close detiene el loop. Las llamadas pendientes o posteriores devuelven ErrLedgerClosed.
// El loop también se detiene solo si el store y la memoria divergen.
func (s *Service) Close() {
	s.once.Do(func() { close(s.quit) })
	<-s.stopped
}

// exec encola fn y espera a que el loop la ejecute.
func (s *Service) exec(ctx context.Context, fn func(st *domledger.State)) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case s.cmds <- cmd:
	case <-s.stopped:
		return domain.ErrLedgerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	// Una vez encolada no se abandona: el resultado de una mutación debe conocerse.
	select {
	case <-cmd.done:
		return nil
	case <-s.stopped:
		select {
		case <-cmd.done:
			return nil
		default:
			return domain.ErrLedgerClosed
		}
	}
}

// mutate prepara, persiste, aplica y publica una transición.
func (s *Service) mutate(ctx context.Context, call string, caller entity.Principal, prepare func(st *domledger.State, at time.Time) (domledger.Change, error)) (domledger.Change, error) {
	start := time.Now()
	var (
		change domledger.Change
		err    error
	)
	if execErr := s.exec(ctx, func(st *domledger.State) {
		at := s.now()
		change, err = prepare(st, at)
		if err != nil {
			s.log.Debug().Str("call", call).Str("caller", caller.String()).Err(err).Msg("llamada rechazada")
			return
		}
		if err = s.store.Commit(ctx, change); err != nil {
			s.log.Error().Str("call", call).Str("caller", caller.String()).Err(err).Msg("persistencia fallida, llamada revertida")
			err = fmt.Errorf("%s: persistir: %w", call, err)
			return
		}
		if applyErr := st.Apply(change); applyErr != nil {
			// El store ya tiene la transición y la memoria no: no se acepta ninguna llamada más.
			s.halted = true
			s.log.Error().Str("call", call).Err(applyErr).Msg("store y memoria divergen, ledger detenido")
			err = fmt.Errorf("%s: %w: %v", call, domain.ErrLedgerClosed, applyErr)
			return
		}
		s.publish(change, at)
		s.recordTotals()
		s.logCommit(call, caller, change)
	}); execErr != nil {
		err = execErr
	}
	s.observe(call, start, err)
	return change, err
}

// read ejecuta una lectura serializada con el resto de llamadas.
func (s *Service) read(ctx context.Context, call string, fn func(st *domledger.State) error) error {
	start := time.Now()
	var err error
	if execErr := s.exec(ctx, func(st *domledger.State) { err = fn(st) }); execErr != nil {
		err = execErr
	}
	s.observe(call, start, err)
	return err
}

func (s *Service) publish(change domledger.Change, at time.Time) {
	name, payload := change.Event()
	s.seq++
	if s.pub == nil {
		return
	}
	s.pub.Publish(entity.Event{
		ID:         uuid.NewString(),
		Sequence:   s.seq,
		Name:       name,
		OccurredAt: at,
		Payload:    payload,
	})
}

func (s *Service) logCommit(call string, caller entity.Principal, change domledger.Change) {
	e := s.log.Info().Str("call", call).Str("caller", caller.String()).Uint64("sequence", s.seq)
	switch change.Kind {
	case domledger.ChangeAuthorization:
		e = e.Str("user", change.Authorization.User.String()).Bool("authorized", change.Authorization.Authorized)
	case domledger.ChangeProduct:
		e = e.Uint64("product_id", change.Product.ID).Str("code", change.Product.Code)
	case domledger.ChangeTransaction:
		e = e.Uint64("transaction_id", change.Transaction.ID).
			Uint64("product_id", change.Transaction.ProductID).
			Int64("quantity", change.Transaction.Quantity)
	}
	e.Msg("transición confirmada")
}

func (s *Service) recordTotals() {
	if s.rec != nil {
		s.rec.SetLedgerTotals(s.state.TotalProducts(), s.state.TotalTransactions())
	}
}

func (s *Service) observe(call string, start time.Time, err error) {
	if s.rec != nil {
		s.rec.ObserveCall(call, Outcome(err), time.Since(start))
	}
}

// Outcome clasifica el error de una llamada: rechazo de dominio o fallo de infraestructura.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrDuplicateCode),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrOwnerImmutable):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}

// ─── Control de acceso ─────────────────────────────────────────────────────────

// Owner propietario fijado al crear el ledger.
func (s *Service) Owner(ctx context.Context) (entity.Principal, error) {
	var owner entity.Principal
	err := s.read(ctx, "owner", func(st *domledger.State) error {
		owner = st.Owner()
		return nil
	})
	return owner, err
}

// IsAuthorized authorizedUsers(p).
func (s *Service) IsAuthorized(ctx context.Context, p entity.Principal) (bool, error) {
	var ok bool
	err := s.read(ctx, "authorizedUsers", func(st *domledger.State) error {
		ok = st.IsAuthorized(p)
		return nil
	})
	return ok, err
}

// AuthorizeUser solo el propietario. Idempotente; emite UserAuthorized en cada llamada.
func (s *Service) AuthorizeUser(ctx context.Context, caller, user entity.Principal) error {
	_, err := s.mutate(ctx, "authorizeUser", caller, func(st *domledger.State, at time.Time) (domledger.Change, error) {
		return st.PrepareAuthorizeUser(caller, user, at)
	})
	return err
}

// RevokeUser solo el propietario; el propietario no es revocable.
func (s *Service) RevokeUser(ctx context.Context, caller, user entity.Principal) error {
	_, err := s.mutate(ctx, "revokeUser", caller, func(st *domledger.State, at time.Time) (domledger.Change, error) {
		return st.PrepareRevokeUser(caller, user, at)
	})
	return err
}

// ─── Productos ─────────────────────────────────────────────────────────────────

// RegisterProduct registra un producto y devuelve su id.
func (s *Service) RegisterProduct(ctx context.Context, caller entity.Principal, code, name string, dataHash commitment.Digest) (uint64, error) {
	change, err := s.mutate(ctx, "registerProduct", caller, func(st *domledger.State, at time.Time) (domledger.Change, error) {
		return st.PrepareRegisterProduct(caller, code, name, dataHash, at)
	})
	if err != nil {
		return 0, err
	}
	return change.Product.ID, nil
}

// ProductByCode getProductByCode.
func (s *Service) ProductByCode(ctx context.Context, code string) (entity.Product, error) {
	var p entity.Product
	err := s.read(ctx, "getProductByCode", func(st *domledger.State) error {
		var err error
		p, err = st.ProductByCode(code)
		return err
	})
	return p, err
}

// Product getProduct.
func (s *Service) Product(ctx context.Context, id uint64) (entity.Product, error) {
	var p entity.Product
	err := s.read(ctx, "getProduct", func(st *domledger.State) error {
		var err error
		p, err = st.Product(id)
		return err
	})
	return p, err
}

// TotalProducts getTotalProducts.
func (s *Service) TotalProducts(ctx context.Context) (uint64, error) {
	var n uint64
	err := s.read(ctx, "getTotalProducts", func(st *domledger.State) error {
		n = st.TotalProducts()
		return nil
	})
	return n, err
}

// ─── Transacciones ─────────────────────────────────────────────────────────────

// RecordInventoryTransaction registra un movimiento y devuelve su id.
func (s *Service) RecordInventoryTransaction(ctx context.Context, caller entity.Principal, in domledger.TransactionInput) (uint64, error) {
	change, err := s.mutate(ctx, "recordInventoryTransaction", caller, func(st *domledger.State, at time.Time) (domledger.Change, error) {
		return st.PrepareRecordTransaction(caller, in, at)
	})
	if err != nil {
		return 0, err
	}
	return change.Transaction.ID, nil
}

// Transaction getTransaction.
func (s *Service) Transaction(ctx context.Context, id uint64) (entity.Transaction, error) {
	var t entity.Transaction
	err := s.read(ctx, "getTransaction", func(st *domledger.State) error {
		var err error
		t, err = st.Transaction(id)
		return err
	})
	return t, err
}

// ProductTransactions getProductTransactions: ids en orden de registro.
func (s *Service) ProductTransactions(ctx context.Context, productID uint64) ([]uint64, error) {
	var ids []uint64
	err := s.read(ctx, "getProductTransactions", func(st *domledger.State) error {
		ids = st.ProductTransactions(productID)
		return nil
	})
	return ids, err
}

// TotalTransactions getTotalTransactions.
func (s *Service) TotalTransactions(ctx context.Context) (uint64, error) {
	var n uint64
	err := s.read(ctx, "getTotalTransactions", func(st *domledger.State) error {
		n = st.TotalTransactions()
		return nil
	})
	return n, err
}

// ─── Integridad ────────────────────────────────────────────────────────────────

// VerifyDataIntegrity compara supplied con el compromiso guardado.
func (s *Service) VerifyDataIntegrity(ctx context.Context, id uint64, supplied commitment.Digest, isProduct bool) (bool, error) {
	var match bool
	err := s.read(ctx, "verifyDataIntegrity", func(st *domledger.State) error {
		var err error
		match, err = st.VerifyDataIntegrity(id, supplied, isProduct)
		return err
	})
	return match, err
}

// Stats contadores y raíz de estado.
func (s *Service) Stats(ctx context.Context) (domledger.Stats, error) {
	var stats domledger.Stats
	err := s.read(ctx, "stats", func(st *domledger.State) error {
		stats = st.Stats()
		return nil
	})
	return stats, err
}
