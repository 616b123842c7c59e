package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/stock-ledger/internal/interfaces/http"
)

type apiClient struct {
	t     *testing.T
	app   *fiber.App
	admin string
	sales string
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	store := memory.New()
	products, movements := store.Products(), store.Movements()

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ProductUC:     usecase.NewProductUseCase(products, store),
		ApplyMovement: inventory.NewApplyMovementUseCase(store, products, movements, nil, inventory.LedgerOptions{Logger: zerolog.Nop()}),
		MovementsUC:   inventory.NewMovementsUseCase(products, movements),
		AlertsUC:      inventory.NewAlertsUseCase(products),
		ReconcileUC:   inventory.NewReconcileUseCase(store, zerolog.Nop()),
		JWTSecret:     testJWTSecret,
	})
	return &apiClient{
		t:     t,
		app:   app,
		admin: tokenForRole(t, apphttp.RoleAdmin),
		sales: tokenForRole(t, apphttp.RoleSalesman),
	}
}

// do envía la petición y decodifica el cuerpo en out (si no es nil).
func (a *apiClient) do(method, path, auth string, body any, headers map[string]string, out any) int {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *apiClient) createProduct(name string, opening, threshold int64) dto.ProductResponse {
	a.t.Helper()
	o, th := decimal.NewFromInt(opening), decimal.NewFromInt(threshold)
	var p dto.ProductResponse
	status := a.do(http.MethodPost, "/api/products", a.admin, dto.CreateProductRequest{
		Name:              name,
		Unit:              "kg",
		OpeningStock:      &o,
		LowStockThreshold: &th,
		PricePerUnit:      decimal.NewFromInt(100),
	}, nil, &p)
	require.Equal(a.t, http.StatusCreated, status)
	return p
}

func movement(productID, typ string, qty int64, reason string) dto.ApplyMovementRequest {
	return dto.ApplyMovementRequest{ProductID: productID, Type: typ, Quantity: decimal.NewFromInt(qty), Reason: reason}
}

func TestMovimientos_FlujoCompleto(t *testing.T) {
	api := newAPI(t)
	p := api.createProduct("Turmeric", 50, 10)

	var res dto.MovementResultResponse
	status := api.do(http.MethodPost, "/api/inventory/movements", api.admin, movement(p.ID, "OUT", 45, "venta"), nil, &res)
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, res.NewBalance.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, "LOW_STOCK", res.ThresholdStatus)

	var errBody dto.ErrorResponse
	status = api.do(http.MethodPost, "/api/inventory/movements", api.admin, movement(p.ID, "OUT", 10, "venta"), nil, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody.Code)
	require.NotNil(t, errBody.Available)
	assert.Equal(t, "5", *errBody.Available)

	var history []dto.StockMovementResponse
	status = api.do(http.MethodGet, "/api/inventory/movements?product_id="+p.ID, api.sales, nil, nil, &history)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, history, 1, "el movimiento rechazado no queda en el libro")
	assert.Equal(t, "Turmeric", history[0].ProductName)

	var alerts dto.StockAlertsResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/inventory/alerts", api.sales, nil, nil, &alerts))
	assert.Equal(t, 1, alerts.LowStockCount)

	var report dto.ReconciliationReport
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/inventory/reconcile", api.admin, nil, nil, &report))
	assert.Equal(t, 1, report.ProductsChecked)
	assert.Empty(t, report.Drifts)
}

func TestMovimientos_ErroresDeValidacion(t *testing.T) {
	api := newAPI(t)
	p := api.createProduct("Cumin", 10, 2)

	cases := []struct {
		name string
		body dto.ApplyMovementRequest
		code string
		want int
	}{
		{"cantidad cero", movement(p.ID, "IN", 0, "compra"), "INVALID_QUANTITY", http.StatusBadRequest},
		{"motivo vacío", movement(p.ID, "IN", 1, "   "), "INVALID_REASON", http.StatusBadRequest},
		{"tipo desconocido", movement(p.ID, "ADJUST", 1, "ajuste"), "INVALID_MOVEMENT_TYPE", http.StatusBadRequest},
		{"producto inexistente", movement("no-existe", "IN", 1, "compra"), "PRODUCT_NOT_FOUND", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var e dto.ErrorResponse
			assert.Equal(t, tc.want, api.do(http.MethodPost, "/api/inventory/movements", api.admin, tc.body, nil, &e))
			assert.Equal(t, tc.code, e.Code)
		})
	}
}

func TestMovimientos_IdempotencyKeyRepite(t *testing.T) {
	api := newAPI(t)
	p := api.createProduct("Cardamom", 0, 5)
	headers := map[string]string{apphttp.IdempotencyKeyHeader: "compra-001"}

	var first, second dto.MovementResultResponse
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/inventory/movements", api.admin, movement(p.ID, "IN", 20, "compra"), headers, &first))
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/inventory/movements", api.admin, movement(p.ID, "IN", 20, "compra"), headers, &second))
	assert.Equal(t, first.MovementID, second.MovementID)
	assert.True(t, second.Replayed)
	assert.True(t, second.NewBalance.Equal(decimal.NewFromInt(20)))

	var e dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, "/api/inventory/movements", api.admin, movement(p.ID, "IN", 21, "compra"), headers, &e))
	assert.Equal(t, "IDEMPOTENCY_MISMATCH", e.Code)
}

func TestMovimientos_VendedorNoEscribe(t *testing.T) {
	api := newAPI(t)
	p := api.createProduct("Clove", 10, 2)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/api/inventory/movements", api.sales, movement(p.ID, "OUT", 1, "venta"), nil, nil))
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/inventory/reconcile", api.sales, nil, nil, nil))
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/api/products/seed", api.sales, nil, nil, nil))
}

func TestMovimientos_LimiteFueraDeRango(t *testing.T) {
	api := newAPI(t)
	var e dto.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/inventory/movements?limit=500", api.admin, nil, nil, &e))
	assert.Equal(t, "VALIDATION", e.Code)
	require.NotEmpty(t, e.Details)
	assert.Equal(t, "limit", e.Details[0].Field)
}

func TestProductos_CRUD(t *testing.T) {
	api := newAPI(t)
	p := api.createProduct("Garam Masala", 30, 5)
	assert.True(t, p.CurrentStock.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, "IN_STOCK", p.Status)

	var e dto.ErrorResponse
	dup := dto.CreateProductRequest{Name: "  garam masala ", Unit: "kg", PricePerUnit: decimal.NewFromInt(1)}
	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, "/api/products", api.admin, dup, nil, &e))
	assert.Equal(t, "DUPLICATE", e.Code)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/api/products", api.admin, dto.CreateProductRequest{Unit: "kg"}, nil, &e))
	assert.Equal(t, "VALIDATION", e.Code)

	unit := "g"
	var updated dto.ProductResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, "/api/products/"+p.ID, api.admin, dto.UpdateProductRequest{Unit: &unit}, nil, &updated))
	assert.Equal(t, "g", updated.Unit)
	assert.True(t, updated.CurrentStock.Equal(decimal.NewFromInt(30)), "actualizar no toca el saldo")

	var got dto.ProductResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/products/"+p.ID, api.sales, nil, nil, &got))
	assert.Equal(t, p.ID, got.ID)

	require.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/api/products/"+p.ID, api.admin, nil, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/api/products/"+p.ID, api.admin, nil, nil, nil))

	var list dto.ProductListResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/products", api.sales, nil, nil, &list))
	assert.Equal(t, 0, list.Total)
}

func TestProductos_Seed(t *testing.T) {
	api := newAPI(t)
	var res dto.SeedResult
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/products/seed", api.admin, nil, nil, &res))
	assert.Equal(t, 7, res.Created)

	var e dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, "/api/products/seed", api.admin, nil, nil, &e))

	var list dto.ProductListResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/products", api.sales, nil, nil, &list))
	assert.Equal(t, 7, list.Total, "el segundo seed no agrega nada")
}
