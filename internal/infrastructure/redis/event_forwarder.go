// Package redis reenvía los eventos confirmados del ledger a Redis Pub/Sub para indexadores externos.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-ledger/internal/application/events"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// NewClient crea el cliente y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// EventForwarder publica cada evento en un canal y guarda la última secuencia en <canal>:sequence,
// de modo que un indexador que se conecta tarde sepa desde dónde falta.
type EventForwarder struct {
	client  *redis.Client
	channel string
	log     *logger.Logger
}

// NewEventForwarder construye el forwarder.
func NewEventForwarder(client *redis.Client, channel string, log *logger.Logger) *EventForwarder {
	if log == nil {
		log = logger.Nop()
	}
	return &EventForwarder{client: client, channel: channel, log: log.Component("redis-forwarder")}
}

// SequenceKey clave con la secuencia del último evento reenviado.
func (f *EventForwarder) SequenceKey() string { return f.channel + ":sequence" }

// Forward publica un evento.
func (f *EventForwarder) Forward(ctx context.Context, ev entity.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = f.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, f.channel, payload)
		pipe.Set(ctx, f.SequenceKey(), ev.Sequence, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish event %d: %w", ev.Sequence, err)
	}
	return nil
}

// Run consume la suscripción hasta que se cierre o ctx termine. Los fallos de Redis se
// registran y no detienen el reenvío; el hueco queda visible por Sequence.
func (f *EventForwarder) Run(ctx context.Context, sub *events.Subscription) {
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if err := f.Forward(ctx, ev); err != nil {
				f.log.Warn().Err(err).Uint64("sequence", ev.Sequence).Str("event", ev.Name).Msg("evento no reenviado")
			}
		}
	}
}
