package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/events"
	appledger "github.com/jhoicas/inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventario-ledger/pkg/commitment"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	ownerAddr = "0x90f8bf6a479f320ead074411a4b0e7944ea8c9c1"
	user1Addr = "0xffcf8fdee72ac11b5c542428b35eef5769c409f0"
	user2Addr = "0x22d491bde2303f2f43325b2108d26f1eaba1e32b"
)

var (
	hashP1 = commitment.SHA256([]byte("producto-1")).String()
	hashT1 = commitment.SHA256([]byte("movimiento-1")).String()
)

type ledgerApp struct {
	app *fiber.App
	sub *events.Subscription
}

func newLedgerApp(t *testing.T) *ledgerApp {
	t.Helper()
	broker := events.NewBroker(nil)
	sub := broker.Subscribe(32)
	svc, err := appledger.New(context.Background(), memory.NewLedgerStore(), entity.MustPrincipal(ownerAddr), broker, appledger.Options{QueueSize: 8})
	require.NoError(t, err)
	t.Cleanup(func() {
		svc.Close()
		broker.Close()
	})

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:    svc,
		Broker:    broker,
		JWTSecret: testJWTSecret,
	})
	return &ledgerApp{app: app, sub: sub}
}

// call lanza la petición y decodifica el cuerpo JSON.
func (a *ledgerApp) call(t *testing.T, method, path string, body any, caller string) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set("Authorization", bearer(t, caller))
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (a *ledgerApp) authorize(t *testing.T, user string) {
	t.Helper()
	status, _ := a.call(t, http.MethodPost, "/api/v1/ledger/users/"+user+"/authorize", nil, ownerAddr)
	require.Equal(t, http.StatusOK, status)
}

func (a *ledgerApp) register(t *testing.T, caller, code, hash string) uint64 {
	t.Helper()
	status, body := a.call(t, http.MethodPost, "/api/v1/ledger/products",
		map[string]any{"code": code, "name": "Producto " + code, "data_hash": hash}, caller)
	require.Equal(t, http.StatusCreated, status, body)
	return uint64(body["product_id"].(float64))
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenarios
// ──────────────────────────────────────────────────────────────────────────────

// Registro por usuario autorizado: id 1, consultable por código y con evento.
func TestLedgerHTTP_RegistrarProducto(t *testing.T) {
	a := newLedgerApp(t)
	a.authorize(t, user1Addr)

	id := a.register(t, user1Addr, "SKU-001", hashP1)
	assert.Equal(t, uint64(1), id)

	status, body := a.call(t, http.MethodGet, "/api/v1/ledger/products/code/SKU-001", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, hashP1, body["data_hash"])
	assert.Equal(t, user1Addr, body["creator"])
	assert.Equal(t, true, body["active"])

	status, body = a.call(t, http.MethodGet, "/api/v1/ledger/stats", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["total_products"])
	assert.Equal(t, float64(2), body["next_product_id"])

	<-a.sub.C // UserAuthorized
	ev := <-a.sub.C
	assert.Equal(t, entity.EventProductRegistered, ev.Name)
}

// Código duplicado → 409 DUPLICATE_CODE y el total no cambia.
func TestLedgerHTTP_CodigoDuplicado(t *testing.T) {
	a := newLedgerApp(t)
	a.register(t, ownerAddr, "SKU-001", hashP1)

	status, body := a.call(t, http.MethodPost, "/api/v1/ledger/products",
		map[string]any{"code": "SKU-001", "name": "Otro", "data_hash": hashT1}, ownerAddr)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_CODE", body["code"])
	assert.Equal(t, "Codigo de producto ya existe", body["message"])

	_, stats := a.call(t, http.MethodGet, "/api/v1/ledger/stats", nil, "")
	assert.Equal(t, float64(1), stats["total_products"])
}

// Llamador no autorizado → 403 UNAUTHORIZED.
func TestLedgerHTTP_NoAutorizado(t *testing.T) {
	a := newLedgerApp(t)

	status, body := a.call(t, http.MethodPost, "/api/v1/ledger/products",
		map[string]any{"code": "SKU-001", "name": "Tornillo", "data_hash": hashP1}, user2Addr)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	status, body = a.call(t, http.MethodPost, "/api/v1/ledger/users/"+user2Addr+"/authorize", nil, user1Addr)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, body["message"], "Solo el propietario")
}

// Sin token las mutaciones no llegan al ledger.
func TestLedgerHTTP_MutacionSinToken(t *testing.T) {
	a := newLedgerApp(t)
	status, body := a.call(t, http.MethodPost, "/api/v1/ledger/products",
		map[string]any{"code": "SKU-001", "name": "Tornillo", "data_hash": hashP1}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "MISSING_TOKEN", body["code"])
}

// Movimientos en orden de registro; cantidad cero y producto inexistente rechazados.
func TestLedgerHTTP_Transacciones(t *testing.T) {
	a := newLedgerApp(t)
	pid := a.register(t, ownerAddr, "SKU-001", hashP1)

	for i, qty := range []int64{10, -3} {
		status, body := a.call(t, http.MethodPost, "/api/v1/ledger/transactions", map[string]any{
			"product_id":       pid,
			"location_id":      1,
			"quantity":         qty,
			"unit_price":       "1500.50",
			"transaction_type": "Compra",
			"reference_number": "REF",
			"data_hash":        hashT1,
		}, ownerAddr)
		require.Equal(t, http.StatusCreated, status, body)
		assert.Equal(t, float64(i+1), body["transaction_id"])
	}

	status, body := a.call(t, http.MethodGet, "/api/v1/ledger/products/1/transactions", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{float64(1), float64(2)}, body["transaction_ids"])

	status, body = a.call(t, http.MethodGet, "/api/v1/ledger/transactions/2", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(-3), body["quantity"])
	assert.Equal(t, "1500.5", body["unit_price"])

	status, body = a.call(t, http.MethodPost, "/api/v1/ledger/transactions",
		map[string]any{"product_id": pid, "quantity": 0, "data_hash": hashT1}, ownerAddr)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_QUANTITY", body["code"])

	status, body = a.call(t, http.MethodPost, "/api/v1/ledger/transactions",
		map[string]any{"product_id": 99, "quantity": 1, "data_hash": hashT1}, ownerAddr)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

// Producto sin movimientos → lista vacía, no null.
func TestLedgerHTTP_ProductoSinMovimientos(t *testing.T) {
	a := newLedgerApp(t)
	a.register(t, ownerAddr, "SKU-001", hashP1)

	status, body := a.call(t, http.MethodGet, "/api/v1/ledger/products/1/transactions", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body["transaction_ids"])
}

// verifyDataIntegrity: coincide, no coincide e id desconocido.
func TestLedgerHTTP_VerificarIntegridad(t *testing.T) {
	a := newLedgerApp(t)
	a.register(t, ownerAddr, "SKU-001", hashP1)

	status, body := a.call(t, http.MethodPost, "/api/v1/ledger/integrity/verify",
		map[string]any{"id": 1, "data_hash": hashP1, "is_product": true}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["match"])

	_, body = a.call(t, http.MethodPost, "/api/v1/ledger/integrity/verify",
		map[string]any{"id": 1, "data_hash": hashT1, "is_product": true}, "")
	assert.Equal(t, false, body["match"])

	status, _ = a.call(t, http.MethodPost, "/api/v1/ledger/integrity/verify",
		map[string]any{"id": 5, "data_hash": hashP1, "is_product": false}, "")
	assert.Equal(t, http.StatusNotFound, status)
}

// Revocación: el usuario deja de poder registrar; el propietario no es revocable.
func TestLedgerHTTP_Revocacion(t *testing.T) {
	a := newLedgerApp(t)
	a.authorize(t, user1Addr)

	status, body := a.call(t, http.MethodGet, "/api/v1/ledger/users/"+user1Addr, nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["authorized"])

	status, _ = a.call(t, http.MethodPost, "/api/v1/ledger/users/"+user1Addr+"/revoke", nil, ownerAddr)
	require.Equal(t, http.StatusOK, status)

	status, _ = a.call(t, http.MethodPost, "/api/v1/ledger/products",
		map[string]any{"code": "SKU-002", "name": "Tuerca", "data_hash": hashP1}, user1Addr)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = a.call(t, http.MethodPost, "/api/v1/ledger/users/"+ownerAddr+"/revoke", nil, ownerAddr)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "OWNER_IMMUTABLE", body["code"])
}

// Validación de entrada en el borde HTTP.
func TestLedgerHTTP_Validacion(t *testing.T) {
	a := newLedgerApp(t)

	status, body := a.call(t, http.MethodPost, "/api/v1/ledger/products",
		map[string]any{"code": "SKU-001", "name": "Tornillo", "data_hash": "0x1234"}, ownerAddr)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", body["code"])
	assert.NotEmpty(t, body["details"])

	status, _ = a.call(t, http.MethodGet, "/api/v1/ledger/users/0x123", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = a.call(t, http.MethodGet, "/api/v1/ledger/products/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = a.call(t, http.MethodGet, "/api/v1/ledger/owner", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, ownerAddr, body["owner"])
}

// Un llamador sin permisos recibe 403 aunque el cuerpo o la ruta sean inválidos.
func TestLedgerHTTP_AutorizacionAntesDeValidar(t *testing.T) {
	a := newLedgerApp(t)

	status, body := a.call(t, http.MethodPost, "/api/v1/ledger/products",
		map[string]any{"code": "", "name": "", "data_hash": "0x1234"}, user2Addr)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	status, body = a.call(t, http.MethodPost, "/api/v1/ledger/transactions",
		map[string]any{"product_id": 1, "quantity": 0, "data_hash": "no-es-hex"}, user2Addr)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	status, body = a.call(t, http.MethodPost, "/api/v1/ledger/users/0x123/authorize", nil, user1Addr)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, body["message"], "Solo el propietario")

	status, _ = a.call(t, http.MethodPost, "/api/v1/ledger/users/0x123/revoke", nil, user1Addr)
	assert.Equal(t, http.StatusForbidden, status)

	// El propietario sí llega a la validación.
	status, body = a.call(t, http.MethodPost, "/api/v1/ledger/users/0x123/authorize", nil, ownerAddr)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", body["code"])
}

// El feed WS exige upgrade.
func TestLedgerHTTP_EventosRequierenUpgrade(t *testing.T) {
	a := newLedgerApp(t)
	status, _ := a.call(t, http.MethodGet, "/api/v1/events/ws", nil, "")
	assert.Equal(t, http.StatusUpgradeRequired, status)
}
