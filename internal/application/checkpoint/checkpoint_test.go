package checkpoint_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/checkpoint"
	domledger "github.com/jhoicas/inventario-ledger/internal/domain/ledger"
	"github.com/jhoicas/inventario-ledger/pkg/commitment"
)

type fakeLedger struct {
	stats domledger.Stats
	err   error
}

func (f fakeLedger) Stats(context.Context) (domledger.Stats, error) { return f.stats, f.err }

type fakeRecorder struct {
	mu    sync.Mutex
	roots []string
}

func (r *fakeRecorder) Checkpoint(root string, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roots = append(r.roots, root)
}

func (r *fakeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.roots)
}

func TestRunOnce_RegistraRaiz(t *testing.T) {
	root := commitment.Keccak256([]byte("estado"))
	rec := &fakeRecorder{}
	c := checkpoint.New(fakeLedger{stats: domledger.Stats{TotalProducts: 2, StateRoot: root}}, rec, nil, time.Minute)

	stats, err := c.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.TotalProducts)
	assert.Equal(t, []string{root.String()}, rec.roots)
}

func TestRunOnce_ErrorDelLedger(t *testing.T) {
	rec := &fakeRecorder{}
	c := checkpoint.New(fakeLedger{err: errors.New("detenido")}, rec, nil, time.Minute)

	_, err := c.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Zero(t, rec.count())
}

func TestStart_EjecutaInmediatamente(t *testing.T) {
	rec := &fakeRecorder{}
	c := checkpoint.New(fakeLedger{}, rec, nil, time.Hour)
	require.NoError(t, c.Start())
	defer c.Stop()

	assert.Eventually(t, func() bool { return rec.count() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestStart_IntervaloCeroNoProgramaNada(t *testing.T) {
	rec := &fakeRecorder{}
	c := checkpoint.New(fakeLedger{}, rec, nil, 0)
	require.NoError(t, c.Start())
	c.Stop()
	assert.Zero(t, rec.count())
}
