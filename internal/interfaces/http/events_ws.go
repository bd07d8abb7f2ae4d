package http

import (
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/events"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// EventsHandler feed de eventos por WebSocket: una suscripción al broker por conexión.
type EventsHandler struct {
	broker *events.Broker
	buffer int
	log    *logger.Logger
}

// NewEventsHandler construye el handler.
func NewEventsHandler(broker *events.Broker, buffer int, log *logger.Logger) *EventsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &EventsHandler{broker: broker, buffer: buffer, log: log.Component("events-ws")}
}

// RequireUpgrade deja pasar solo peticiones de upgrade.
func (h *EventsHandler) RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.SendStatus(fiber.StatusUpgradeRequired)
}

// Stream envía cada evento como JSON. ?event=A,B filtra por nombre.
func (h *EventsHandler) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		filter := parseFilter(conn.Query("event"))
		sub := h.broker.Subscribe(h.buffer)
		defer sub.Close()
		h.log.Debug().Str("subscription", sub.ID).Msg("cliente WS conectado")

		// Lectura solo para detectar el cierre del cliente.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-closed:
				h.log.Debug().Str("subscription", sub.ID).Msg("cliente WS desconectado")
				return
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				if filter != nil && !filter[ev.Name] {
					continue
				}
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			}
		}
	})
}

func parseFilter(raw string) map[string]bool {
	if raw == "" {
		return nil
	}
	out := make(map[string]bool)
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out[name] = true
		}
	}
	return out
}
