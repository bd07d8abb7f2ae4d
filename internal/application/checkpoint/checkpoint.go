// Package checkpoint: registro periódico de la raíz de estado del ledger.
package checkpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	domledger "github.com/jhoicas/inventario-ledger/internal/domain/ledger"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// StatsReader fuente de los contadores (ledger.Service).
type StatsReader interface {
	Stats(ctx context.Context) (domledger.Stats, error)
}

// Recorder destino del checkpoint (métricas).
type Recorder interface {
	Checkpoint(stateRoot string, at time.Time)
}

// Checkpointer toma checkpoints de la raíz de estado cada intervalo.
type Checkpointer struct {
	ledger    StatsReader
	rec       Recorder
	log       *logger.Logger
	interval  time.Duration
	timeout   time.Duration
	scheduler *gocron.Scheduler
	last      domledger.Stats
}

// New crea el checkpointer. rec puede ser nil.
func New(ledger StatsReader, rec Recorder, log *logger.Logger, interval time.Duration) *Checkpointer {
	if log == nil {
		log = logger.Nop()
	}
	return &Checkpointer{
		ledger:   ledger,
		rec:      rec,
		log:      log.Component("checkpoint"),
		interval: interval,
		timeout:  10 * time.Second,
	}
}

// RunOnce toma un checkpoint y lo registra.
func (c *Checkpointer) RunOnce(ctx context.Context) (domledger.Stats, error) {
	stats, err := c.ledger.Stats(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("checkpoint fallido")
		return domledger.Stats{}, fmt.Errorf("checkpoint: %w", err)
	}
	now := time.Now().UTC()
	if c.rec != nil {
		c.rec.Checkpoint(stats.StateRoot.String(), now)
	}
	e := c.log.Info()
	if stats == c.last {
		e = c.log.Debug()
	}
	e.Str("state_root", stats.StateRoot.String()).
		Uint64("products", stats.TotalProducts).
		Uint64("transactions", stats.TotalTransactions).
		Msg("checkpoint")
	c.last = stats
	return stats, nil
}

// Start programa RunOnce cada intervalo (la primera ejecución es inmediata).
// Con intervalo <= 0 no hace nada.
func (c *Checkpointer) Start() error {
	if c.interval <= 0 {
		return nil
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if _, err := s.Every(c.interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		_, _ = c.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("programar checkpoint: %w", err)
	}
	s.StartAsync()
	c.scheduler = s
	c.log.Info().Dur("interval", c.interval).Msg("checkpoints programados")
	return nil
}

// Stop detiene el programador y espera a la ejecución en curso.
func (c *Checkpointer) Stop() {
	if c.scheduler != nil {
		c.scheduler.Stop()
		c.scheduler = nil
	}
}
