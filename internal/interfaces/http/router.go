package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/events"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger       LedgerService
	Broker       *events.Broker
	EventsBuffer int
	JWTSecret    string
	Logger       *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api/v1")
	auth := AuthMiddleware(deps.JWTSecret)

	h := NewLedgerHandler(deps.Ledger)
	ledger := api.Group("/ledger")

	// Control de acceso
	ledger.Get("/owner", h.GetOwner)
	ledger.Get("/users/:address", h.GetAuthorization)
	ledger.Post("/users/:address/authorize", auth, h.Authorize)
	ledger.Post("/users/:address/revoke", auth, h.Revoke)

	// Productos (el registro requiere token; lecturas públicas)
	ledger.Post("/products", auth, h.RegisterProduct)
	ledger.Get("/products/code/:code", h.GetProductByCode)
	ledger.Get("/products/:id", h.GetProduct)
	ledger.Get("/products/:id/transactions", h.GetProductTransactions)

	// Transacciones
	ledger.Post("/transactions", auth, h.RecordTransaction)
	ledger.Get("/transactions/:id", h.GetTransaction)

	// Integridad
	ledger.Post("/integrity/verify", h.VerifyIntegrity)
	ledger.Get("/stats", h.GetStats)

	// Feed de eventos
	if deps.Broker != nil {
		ev := NewEventsHandler(deps.Broker, deps.EventsBuffer, deps.Logger)
		api.Get("/events/ws", ev.RequireUpgrade, ev.Stream())
	}
}
