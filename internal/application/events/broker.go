// Package events: distribución en proceso de los eventos confirmados del ledger.
//
// Publish nunca bloquea al escritor del ledger: si el buffer de un suscriptor está lleno,
// el evento se descarta para ese suscriptor y se contabiliza. El Sequence del sobre permite
// al consumidor detectar el hueco.
package events

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// DefaultBuffer capacidad por defecto del canal de cada suscriptor.
const DefaultBuffer = 64

// Observer recibe notificaciones de entrega (métricas).
type Observer interface {
	EventPublished(name string)
	EventDropped(name string)
}

// Broker pub/sub no bloqueante.
type Broker struct {
	mu       sync.RWMutex
	subs     map[string]*Subscription
	closed   bool
	observer Observer
	dropped  atomic.Uint64
}

// NewBroker crea el broker. observer puede ser nil.
func NewBroker(observer Observer) *Broker {
	return &Broker{
		subs:     make(map[string]*Subscription),
		observer: observer,
	}
}

// Subscription canal de eventos de un suscriptor.
type Subscription struct {
	ID     string
	C      <-chan entity.Event
	ch     chan entity.Event
	broker *Broker
	once   sync.Once
}

// Close da de baja la suscripción y cierra su canal. Idempotente.
func (s *Subscription) Close() {
	s.once.Do(func() { s.broker.remove(s.ID) })
}

// Subscribe registra un suscriptor con el buffer indicado (<=0 usa DefaultBuffer).
// Sobre un broker cerrado devuelve una suscripción con el canal ya cerrado.
func (b *Broker) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan entity.Event, buffer)
	sub := &Subscription{ID: uuid.NewString(), C: ch, ch: ch, broker: b}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return sub
	}
	b.subs[sub.ID] = sub
	return sub
}

func (b *Broker) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.ch)
	}
}

// Publish entrega ev a todos los suscriptores sin bloquear.
func (b *Broker) Publish(ev entity.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
			b.dropped.Add(1)
			if b.observer != nil {
				b.observer.EventDropped(ev.Name)
			}
		}
	}
	if b.observer != nil {
		b.observer.EventPublished(ev.Name)
	}
}

// Subscribers número de suscriptores activos.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped total de entregas descartadas por buffers llenos.
func (b *Broker) Dropped() uint64 { return b.dropped.Load() }

// Close cierra todos los canales; Publish posteriores se ignoran.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
}
