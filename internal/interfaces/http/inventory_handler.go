package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

// IdempotencyKeyHeader permite reintentar un POST de movimiento sin aplicarlo dos veces.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLen = 128

// InventoryHandler maneja las peticiones HTTP del libro de stock (protegido).
type InventoryHandler struct {
	movements *inventory.ApplyMovementUseCase
	history   *inventory.MovementsUseCase
	alerts    *inventory.AlertsUseCase
	reconcile *inventory.ReconcileUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	movements *inventory.ApplyMovementUseCase,
	history *inventory.MovementsUseCase,
	alerts *inventory.AlertsUseCase,
	reconcile *inventory.ReconcileUseCase,
) *InventoryHandler {
	return &InventoryHandler{movements: movements, history: history, alerts: alerts, reconcile: reconcile}
}

// ApplyMovement godoc
// @Summary      Registrar movimiento de stock (IN/OUT)
// @Description  Valida, calcula el nuevo saldo y confirma saldo + movimiento en una sola transacción.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                    false  "Clave para reintentos seguros"
// @Param        body             body    dto.ApplyMovementRequest  true   "product_id, movement_type, quantity, reason"
// @Success      201  {object}  dto.MovementResultResponse
// @Success      200  {object}  dto.MovementResultResponse  "repetición de una clave ya registrada"
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) ApplyMovement(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	key := c.Get(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLen {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "Idempotency-Key demasiado larga"})
	}
	var in dto.ApplyMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.movements.ApplyMovementFromRequest(c.UserContext(), userID, key, in)
	if err != nil {
		return writeError(c, err)
	}
	status := fiber.StatusCreated
	if out.Replayed {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(out)
}

// ListMovements godoc
// @Summary      Historial de movimientos
// @Description  Con product_id: historial del producto, más reciente primero. Sin él: últimos movimientos (10 por defecto).
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "ID del producto"
// @Param        limit       query  int     false  "Máximo de filas (1-100)"
// @Success      200  {array}   dto.StockMovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	var q dto.MovementsQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	if verr := validateStruct(q); verr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(verr)
	}
	list, err := h.history.List(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// Alerts godoc
// @Summary      Productos con stock bajo o agotado
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockAlertsResponse
// @Router       /api/inventory/alerts [get]
func (h *InventoryHandler) Alerts(c *fiber.Ctx) error {
	out, err := h.alerts.StockAlerts(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Reconcile godoc
// @Summary      Auditoría del libro
// @Description  Recalcula cada saldo desde opening_stock y reporta diferencias. No modifica datos.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ReconciliationReport
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventory/reconcile [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	out, err := h.reconcile.Reconcile(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
