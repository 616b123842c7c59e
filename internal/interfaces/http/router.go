package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC     *usecase.ProductUseCase
	ApplyMovement *inventory.ApplyMovementUseCase
	MovementsUC   *inventory.MovementsUseCase
	AlertsUC      *inventory.AlertsUseCase
	ReconcileUC   *inventory.ReconcileUseCase
	JWTSecret     string
}

// Router registra las rutas de la API. Lectura: admin y salesman; escritura: solo admin.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	anyRole := RequireRole(RoleAdmin, RoleSalesman)
	adminOnly := RequireRole(RoleAdmin)

	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Get("/", anyRole, productHandler.List)
	products.Post("/seed", adminOnly, productHandler.Seed)
	products.Get("/:id", anyRole, productHandler.GetByID)
	products.Post("/", adminOnly, productHandler.Create)
	products.Put("/:id", adminOnly, productHandler.Update)
	products.Delete("/:id", adminOnly, productHandler.Deactivate)

	invGroup := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.ApplyMovement, deps.MovementsUC, deps.AlertsUC, deps.ReconcileUC)
	invGroup.Post("/movements", adminOnly, inventoryHandler.ApplyMovement)
	invGroup.Get("/movements", anyRole, inventoryHandler.ListMovements)
	invGroup.Get("/alerts", anyRole, inventoryHandler.Alerts)
	invGroup.Get("/reconcile", adminOnly, inventoryHandler.Reconcile)
}
