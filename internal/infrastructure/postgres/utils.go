package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/inventario-ledger/pkg/commitment"
)

// Querier subconjunto común de *pgxpool.Pool y pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// toBigint ids del ledger a BIGINT.
func toBigint(id uint64) (int64, error) {
	if id > math.MaxInt64 {
		return 0, fmt.Errorf("id %d fuera de rango BIGINT", id)
	}
	return int64(id), nil
}

func scanDigest(b []byte) (commitment.Digest, error) {
	d, err := commitment.FromBytes(b)
	if err != nil {
		return commitment.Zero, fmt.Errorf("data_hash: %w", err)
	}
	return d, nil
}
