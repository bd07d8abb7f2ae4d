package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/ledger"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.LedgerStore = (*LedgerStore)(nil)

// LedgerStore implementación del puerto LedgerStore sobre PostgreSQL.
// Cada Commit es una transacción: la fila del registro y su efecto se guardan juntos o nada.
type LedgerStore struct {
	pool *pgxpool.Pool
	tx   *TxRunner
}

// NewLedgerStore construye el adaptador de persistencia del ledger.
func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool, tx: NewTxRunner(pool)}
}

// Load lee el ledger completo en orden de id. nil si aún no fue creado.
func (s *LedgerStore) Load(ctx context.Context) (*ledger.Snapshot, error) {
	var (
		snap  ledger.Snapshot
		owner string
	)
	err := s.pool.QueryRow(ctx, `SELECT owner, created_at FROM ledger_meta WHERE id = 1`).Scan(&owner, &snap.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger meta: %w", err)
	}
	snap.Owner = entity.Principal(owner)
	snap.CreatedAt = snap.CreatedAt.UTC()

	if snap.Authorized, err = s.loadAuthorized(ctx); err != nil {
		return nil, err
	}
	if snap.Products, err = s.loadProducts(ctx); err != nil {
		return nil, err
	}
	if snap.Transactions, err = s.loadTransactions(ctx); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *LedgerStore) loadAuthorized(ctx context.Context) ([]entity.Principal, error) {
	rows, err := s.pool.Query(ctx, `SELECT principal FROM ledger_authorizations WHERE authorized ORDER BY principal`)
	if err != nil {
		return nil, fmt.Errorf("list authorizations: %w", err)
	}
	defer rows.Close()
	var out []entity.Principal
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan authorization: %w", err)
		}
		out = append(out, entity.Principal(p))
	}
	return out, rows.Err()
}

func (s *LedgerStore) loadProducts(ctx context.Context) ([]entity.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, name, data_hash, creator, active, created_at
		FROM ledger_products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var out []entity.Product
	for rows.Next() {
		var (
			p       entity.Product
			id      int64
			hash    []byte
			creator string
		)
		if err := rows.Scan(&id, &p.Code, &p.Name, &hash, &creator, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if p.DataHash, err = scanDigest(hash); err != nil {
			return nil, fmt.Errorf("product %d: %w", id, err)
		}
		p.ID = uint64(id)
		p.Creator = entity.Principal(creator)
		p.CreatedAt = p.CreatedAt.UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *LedgerStore) loadTransactions(ctx context.Context) ([]entity.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, product_id, location_id, quantity, unit_price, transaction_type, reference_number, data_hash, executor, created_at
		FROM ledger_transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	var out []entity.Transaction
	for rows.Next() {
		var (
			t             entity.Transaction
			id, productID int64
			hash          []byte
			executor      string
		)
		if err := rows.Scan(&id, &productID, &t.LocationID, &t.Quantity, &t.UnitPrice,
			&t.TransactionType, &t.ReferenceNumber, &hash, &executor, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.DataHash, err = scanDigest(hash); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", id, err)
		}
		t.ID = uint64(id)
		t.ProductID = uint64(productID)
		t.Executor = entity.Principal(executor)
		t.CreatedAt = t.CreatedAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

// Init crea la fila de metadatos y la autorización del propietario.
func (s *LedgerStore) Init(ctx context.Context, owner entity.Principal, createdAt time.Time) error {
	return s.tx.Run(ctx, func(q Querier) error {
		_, err := q.Exec(ctx, `INSERT INTO ledger_meta (id, owner, created_at) VALUES (1, $1, $2)`, owner.String(), createdAt)
		if err != nil {
			if isUniqueViolation(err) {
				return repository.ErrAlreadyInitialized
			}
			return fmt.Errorf("insert ledger meta: %w", err)
		}
		return upsertAuthorization(ctx, q, entity.Authorization{
			User: owner, Authorized: true, ChangedBy: owner, ChangedAt: createdAt,
		})
	})
}

// Commit persiste la transición en una sola transacción.
func (s *LedgerStore) Commit(ctx context.Context, change ledger.Change) error {
	return s.tx.Run(ctx, func(q Querier) error {
		switch change.Kind {
		case ledger.ChangeAuthorization:
			if change.Authorization == nil {
				return fmt.Errorf("commit: %w", domain.ErrInvalidInput)
			}
			return upsertAuthorization(ctx, q, *change.Authorization)
		case ledger.ChangeProduct:
			if change.Product == nil {
				return fmt.Errorf("commit: %w", domain.ErrInvalidInput)
			}
			return insertProduct(ctx, q, *change.Product)
		case ledger.ChangeTransaction:
			if change.Transaction == nil {
				return fmt.Errorf("commit: %w", domain.ErrInvalidInput)
			}
			return insertTransaction(ctx, q, *change.Transaction)
		}
		return fmt.Errorf("commit: tipo desconocido %q", change.Kind)
	})
}

func upsertAuthorization(ctx context.Context, q Querier, a entity.Authorization) error {
	_, err := q.Exec(ctx, `
		INSERT INTO ledger_authorizations (principal, authorized, changed_by, changed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (principal) DO UPDATE
		SET authorized = EXCLUDED.authorized, changed_by = EXCLUDED.changed_by, changed_at = EXCLUDED.changed_at`,
		a.User.String(), a.Authorized, a.ChangedBy.String(), a.ChangedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert authorization: %w", err)
	}
	return nil
}

func insertProduct(ctx context.Context, q Querier, p entity.Product) error {
	id, err := toBigint(p.ID)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
		INSERT INTO ledger_products (id, code, name, data_hash, creator, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, p.Code, p.Name, p.DataHash.Bytes(), p.Creator.String(), p.Active, p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert product %d: %w", p.ID, domain.ErrDuplicateCode)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func insertTransaction(ctx context.Context, q Querier, t entity.Transaction) error {
	id, err := toBigint(t.ID)
	if err != nil {
		return err
	}
	productID, err := toBigint(t.ProductID)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
		INSERT INTO ledger_transactions (id, product_id, location_id, quantity, unit_price, transaction_type, reference_number, data_hash, executor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, productID, t.LocationID, t.Quantity, t.UnitPrice, t.TransactionType, t.ReferenceNumber,
		t.DataHash.Bytes(), t.Executor.String(), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}
