package http

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	domledger "github.com/jhoicas/inventario-ledger/internal/domain/ledger"
	"github.com/jhoicas/inventario-ledger/pkg/commitment"
	"github.com/jhoicas/inventario-ledger/pkg/validator"
)

// LedgerService superficie de llamadas del ledger (ledger.Service).
type LedgerService interface {
	Owner(ctx context.Context) (entity.Principal, error)
	IsAuthorized(ctx context.Context, p entity.Principal) (bool, error)
	AuthorizeUser(ctx context.Context, caller, user entity.Principal) error
	RevokeUser(ctx context.Context, caller, user entity.Principal) error
	RegisterProduct(ctx context.Context, caller entity.Principal, code, name string, dataHash commitment.Digest) (uint64, error)
	ProductByCode(ctx context.Context, code string) (entity.Product, error)
	Product(ctx context.Context, id uint64) (entity.Product, error)
	RecordInventoryTransaction(ctx context.Context, caller entity.Principal, in domledger.TransactionInput) (uint64, error)
	Transaction(ctx context.Context, id uint64) (entity.Transaction, error)
	ProductTransactions(ctx context.Context, productID uint64) ([]uint64, error)
	VerifyDataIntegrity(ctx context.Context, id uint64, supplied commitment.Digest, isProduct bool) (bool, error)
	Stats(ctx context.Context) (domledger.Stats, error)
}

// LedgerHandler maneja las peticiones HTTP del ledger.
type LedgerHandler struct {
	svc LedgerService
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(svc LedgerService) *LedgerHandler {
	return &LedgerHandler{svc: svc}
}

// GetOwner godoc
// @Summary      Propietario del ledger
// @Tags         access
// @Produce      json
// @Success      200  {object}  dto.OwnerResponse
// @Router       /api/v1/ledger/owner [get]
func (h *LedgerHandler) GetOwner(c *fiber.Ctx) error {
	owner, err := h.svc.Owner(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.OwnerResponse{Owner: owner.String()})
}

// GetAuthorization godoc
// @Summary      Estado de autorización de una dirección
// @Tags         access
// @Produce      json
// @Param        address  path  string  true  "Dirección 0x"
// @Success      200  {object}  dto.AuthorizationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/v1/ledger/users/{address} [get]
func (h *LedgerHandler) GetAuthorization(c *fiber.Ctx) error {
	user, ok, err := h.addressParam(c)
	if !ok {
		return err
	}
	authorized, err := h.svc.IsAuthorized(c.UserContext(), user)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AuthorizationResponse{Address: user.String(), Authorized: authorized})
}

// Authorize godoc
// @Summary      Autorizar una dirección (solo propietario)
// @Tags         access
// @Security     Bearer
// @Produce      json
// @Param        address  path  string  true  "Dirección 0x"
// @Success      200  {object}  dto.AuthorizationResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/v1/ledger/users/{address}/authorize [post]
func (h *LedgerHandler) Authorize(c *fiber.Ctx) error {
	if ok, err := h.requireOwner(c); !ok {
		return err
	}
	user, ok, err := h.addressParam(c)
	if !ok {
		return err
	}
	if err := h.svc.AuthorizeUser(c.UserContext(), GetPrincipal(c), user); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AuthorizationResponse{Address: user.String(), Authorized: true})
}

// Revoke godoc
// @Summary      Revocar una dirección (solo propietario)
// @Tags         access
// @Security     Bearer
// @Produce      json
// @Param        address  path  string  true  "Dirección 0x"
// @Success      200  {object}  dto.AuthorizationResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/v1/ledger/users/{address}/revoke [post]
func (h *LedgerHandler) Revoke(c *fiber.Ctx) error {
	if ok, err := h.requireOwner(c); !ok {
		return err
	}
	user, ok, err := h.addressParam(c)
	if !ok {
		return err
	}
	if err := h.svc.RevokeUser(c.UserContext(), GetPrincipal(c), user); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AuthorizationResponse{Address: user.String(), Authorized: false})
}

// RegisterProduct godoc
// @Summary      Registrar producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterProductRequest  true  "Código, nombre y compromiso"
// @Success      201   {object}  dto.RegisterProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/v1/ledger/products [post]
func (h *LedgerHandler) RegisterProduct(c *fiber.Ctx) error {
	if ok, err := h.requireAuthorized(c); !ok {
		return err
	}
	var in dto.RegisterProductRequest
	if err := c.BodyParser(&in); err != nil {
		return writeValidation(c, "cuerpo inválido", nil)
	}
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		return writeValidation(c, "datos de producto inválidos", errs)
	}
	hash, _ := commitment.Parse(in.DataHash)
	id, err := h.svc.RegisterProduct(c.UserContext(), GetPrincipal(c), in.Code, in.Name, hash)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.RegisterProductResponse{ProductID: id})
}

// GetProductByCode godoc
// @Summary      Producto por código
// @Tags         products
// @Produce      json
// @Param        code  path  string  true  "Código del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/v1/ledger/products/code/{code} [get]
func (h *LedgerHandler) GetProductByCode(c *fiber.Ctx) error {
	p, err := h.svc.ProductByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToProductResponse(p))
}

// GetProduct godoc
// @Summary      Producto por id
// @Tags         products
// @Produce      json
// @Param        id   path  int  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/v1/ledger/products/{id} [get]
func (h *LedgerHandler) GetProduct(c *fiber.Ctx) error {
	id, ok, err := idParam(c)
	if !ok {
		return err
	}
	p, err := h.svc.Product(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToProductResponse(p))
}

// GetProductTransactions godoc
// @Summary      Ids de transacciones de un producto, en orden de registro
// @Tags         products
// @Produce      json
// @Param        id   path  int  true  "ID del producto"
// @Success      200  {object}  dto.ProductTransactionsResponse
// @Router       /api/v1/ledger/products/{id}/transactions [get]
func (h *LedgerHandler) GetProductTransactions(c *fiber.Ctx) error {
	id, ok, err := idParam(c)
	if !ok {
		return err
	}
	ids, err := h.svc.ProductTransactions(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ProductTransactionsResponse{ProductID: id, TransactionIDs: ids})
}

// RecordTransaction godoc
// @Summary      Registrar movimiento de inventario
// @Tags         transactions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordTransactionRequest  true  "Movimiento"
// @Success      201   {object}  dto.RecordTransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/v1/ledger/transactions [post]
func (h *LedgerHandler) RecordTransaction(c *fiber.Ctx) error {
	if ok, err := h.requireAuthorized(c); !ok {
		return err
	}
	var in dto.RecordTransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return writeValidation(c, "cuerpo inválido", nil)
	}
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		return writeValidation(c, "datos de transacción inválidos", errs)
	}
	hash, _ := commitment.Parse(in.DataHash)
	id, err := h.svc.RecordInventoryTransaction(c.UserContext(), GetPrincipal(c), domledger.TransactionInput{
		ProductID:       in.ProductID,
		LocationID:      in.LocationID,
		Quantity:        in.Quantity,
		UnitPrice:       in.UnitPrice,
		TransactionType: in.TransactionType,
		ReferenceNumber: in.ReferenceNumber,
		DataHash:        hash,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.RecordTransactionResponse{TransactionID: id})
}

// GetTransaction godoc
// @Summary      Transacción por id
// @Tags         transactions
// @Produce      json
// @Param        id   path  int  true  "ID de la transacción"
// @Success      200  {object}  dto.TransactionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/v1/ledger/transactions/{id} [get]
func (h *LedgerHandler) GetTransaction(c *fiber.Ctx) error {
	id, ok, err := idParam(c)
	if !ok {
		return err
	}
	t, err := h.svc.Transaction(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToTransactionResponse(t))
}

// VerifyIntegrity godoc
// @Summary      Comparar un hash con el compromiso guardado
// @Tags         integrity
// @Accept       json
// @Produce      json
// @Param        body  body  dto.VerifyIntegrityRequest  true  "Id, hash y tipo de registro"
// @Success      200   {object}  dto.VerifyIntegrityResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/v1/ledger/integrity/verify [post]
func (h *LedgerHandler) VerifyIntegrity(c *fiber.Ctx) error {
	var in dto.VerifyIntegrityRequest
	if err := c.BodyParser(&in); err != nil {
		return writeValidation(c, "cuerpo inválido", nil)
	}
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		return writeValidation(c, "datos de verificación inválidos", errs)
	}
	hash, _ := commitment.Parse(in.DataHash)
	match, err := h.svc.VerifyDataIntegrity(c.UserContext(), in.ID, hash, in.IsProduct)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.VerifyIntegrityResponse{ID: in.ID, IsProduct: in.IsProduct, Match: match})
}

// GetStats godoc
// @Summary      Contadores y raíz de estado
// @Tags         integrity
// @Produce      json
// @Success      200  {object}  dto.StatsResponse
// @Router       /api/v1/ledger/stats [get]
func (h *LedgerHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.svc.Stats(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToStatsResponse(stats))
}

// requireOwner rechaza con 403 antes de mirar el cuerpo o la ruta si el llamador no es el
// propietario. El ledger vuelve a comprobarlo dentro de la llamada.
func (h *LedgerHandler) requireOwner(c *fiber.Ctx) (bool, error) {
	owner, err := h.svc.Owner(c.UserContext())
	if err != nil {
		return false, writeError(c, err)
	}
	if GetPrincipal(c) != owner {
		return false, writeError(c, domain.ErrOnlyOwner)
	}
	return true, nil
}

// requireAuthorized igual que requireOwner, para llamadas de usuarios autorizados.
func (h *LedgerHandler) requireAuthorized(c *fiber.Ctx) (bool, error) {
	ok, err := h.svc.IsAuthorized(c.UserContext(), GetPrincipal(c))
	if err != nil {
		return false, writeError(c, err)
	}
	if !ok {
		return false, writeError(c, domain.ErrUnauthorized)
	}
	return true, nil
}

// addressParam valida :address. Si ok es false, la respuesta ya fue escrita.
func (h *LedgerHandler) addressParam(c *fiber.Ctx) (entity.Principal, bool, error) {
	raw := c.Params("address")
	if errs := validator.ValidateStruct(dto.AddressParam{Address: raw}); len(errs) > 0 {
		return "", false, writeValidation(c, "dirección inválida", errs)
	}
	p, err := entity.ParsePrincipal(raw)
	if err != nil {
		return "", false, writeValidation(c, err.Error(), nil)
	}
	return p, true, nil
}

func idParam(c *fiber.Ctx) (uint64, bool, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return 0, false, writeValidation(c, "id debe ser un entero positivo", nil)
	}
	return id, true, nil
}
