package usecase_test

import (
	"context"
	"testing"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func ptr[T any](v T) *T { return &v }

func newUseCase() (*usecase.ProductUseCase, *memory.Store) {
	s := memory.New()
	return usecase.NewProductUseCase(s.Products(), s), s
}

func TestProductCreate_ValoresPorDefecto(t *testing.T) {
	uc, _ := newUseCase()

	res, err := uc.Create(context.Background(), dto.CreateProductRequest{
		Name: " Ajwain Seeds ", Unit: "kg", PricePerUnit: d(150), GSTPercentage: d(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ajwain Seeds", res.Name)
	assert.True(t, res.OpeningStock.IsZero())
	assert.True(t, res.CurrentStock.IsZero())
	assert.True(t, res.LowStockThreshold.Equal(d(10)))
	assert.True(t, res.IsActive)
	assert.Equal(t, "OUT_OF_STOCK", res.Status)
}

func TestProductCreate_SaldoInicialIgualAlStockInicial(t *testing.T) {
	uc, _ := newUseCase()

	res, err := uc.Create(context.Background(), dto.CreateProductRequest{
		Name: "Fennel", Unit: "kg", PricePerUnit: d(90), OpeningStock: ptr(d(25)), LowStockThreshold: ptr(d(5)),
	})
	require.NoError(t, err)
	assert.True(t, res.CurrentStock.Equal(d(25)))
	assert.Equal(t, "IN_STOCK", res.Status)
}

func TestProductCreate_EntradaInvalida(t *testing.T) {
	cases := []struct {
		name string
		in   dto.CreateProductRequest
	}{
		{"sin nombre", dto.CreateProductRequest{Name: "  ", Unit: "kg", PricePerUnit: d(1)}},
		{"sin unidad", dto.CreateProductRequest{Name: "X", Unit: "", PricePerUnit: d(1)}},
		{"precio cero", dto.CreateProductRequest{Name: "X", Unit: "kg", PricePerUnit: d(0)}},
		{"stock inicial negativo", dto.CreateProductRequest{Name: "X", Unit: "kg", PricePerUnit: d(1), OpeningStock: ptr(d(-1))}},
		{"umbral negativo", dto.CreateProductRequest{Name: "X", Unit: "kg", PricePerUnit: d(1), LowStockThreshold: ptr(d(-1))}},
		{"iva negativo", dto.CreateProductRequest{Name: "X", Unit: "kg", PricePerUnit: d(1), GSTPercentage: d(-5)}},
		{"stock inicial con 5 decimales", dto.CreateProductRequest{Name: "X", Unit: "kg", PricePerUnit: d(1), OpeningStock: ptr(decimal.RequireFromString("1.00005"))}},
		{"umbral con 5 decimales", dto.CreateProductRequest{Name: "X", Unit: "kg", PricePerUnit: d(1), LowStockThreshold: ptr(decimal.RequireFromString("0.00001"))}},
		{"stock inicial fuera de rango", dto.CreateProductRequest{Name: "X", Unit: "kg", PricePerUnit: d(1), OpeningStock: ptr(decimal.New(1, 14))}},
		{"precio con 3 decimales", dto.CreateProductRequest{Name: "X", Unit: "kg", PricePerUnit: decimal.RequireFromString("1.005")}},
		{"iva fuera de rango", dto.CreateProductRequest{Name: "X", Unit: "kg", PricePerUnit: d(1), GSTPercentage: d(1000)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc, _ := newUseCase()
			_, err := uc.Create(context.Background(), tc.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestProductCreate_NombreDuplicado(t *testing.T) {
	uc, _ := newUseCase()
	ctx := context.Background()
	_, err := uc.Create(ctx, dto.CreateProductRequest{Name: "Garam Masala", Unit: "kg", PricePerUnit: d(500)})
	require.NoError(t, err)

	_, err = uc.Create(ctx, dto.CreateProductRequest{Name: "GARAM masala", Unit: "kg", PricePerUnit: d(500)})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestProductUpdate_SoloMetadatos(t *testing.T) {
	uc, s := newUseCase()
	ctx := context.Background()
	created, err := uc.Create(ctx, dto.CreateProductRequest{Name: "Cumin Powder", Unit: "kg", PricePerUnit: d(400), OpeningStock: ptr(d(50))})
	require.NoError(t, err)

	res, err := uc.Update(ctx, created.ID, dto.UpdateProductRequest{
		Name:              ptr("Cumin Powder Premium"),
		LowStockThreshold: ptr(d(60)),
		PricePerUnit:      ptr(d(450)),
	})
	require.NoError(t, err)
	assert.Equal(t, "Cumin Powder Premium", res.Name)
	assert.True(t, res.CurrentStock.Equal(d(50)))
	assert.Equal(t, "LOW_STOCK", res.Status, "el estado se recalcula con el nuevo umbral")

	stored, _ := s.Products().GetByID(ctx, created.ID)
	assert.True(t, stored.PricePerUnit.Equal(d(450)))
	assert.True(t, stored.CurrentStock.Equal(d(50)))
}

func TestProductUpdate_RenombrarADuplicado(t *testing.T) {
	uc, _ := newUseCase()
	ctx := context.Background()
	_, err := uc.Create(ctx, dto.CreateProductRequest{Name: "Cumin Powder", Unit: "kg", PricePerUnit: d(400)})
	require.NoError(t, err)
	other, err := uc.Create(ctx, dto.CreateProductRequest{Name: "Garam Masala", Unit: "kg", PricePerUnit: d(500)})
	require.NoError(t, err)

	_, err = uc.Update(ctx, other.ID, dto.UpdateProductRequest{Name: ptr("cumin powder")})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestProductUpdate_Inexistente(t *testing.T) {
	uc, _ := newUseCase()
	res, err := uc.Update(context.Background(), "nope", dto.UpdateProductRequest{Name: ptr("X")})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestProductDeactivate(t *testing.T) {
	uc, _ := newUseCase()
	ctx := context.Background()
	created, err := uc.Create(ctx, dto.CreateProductRequest{Name: "Cumin Powder", Unit: "kg", PricePerUnit: d(400)})
	require.NoError(t, err)

	require.NoError(t, uc.Deactivate(ctx, created.ID))
	list, err := uc.ListActive(ctx)
	require.NoError(t, err)
	assert.Zero(t, list.Total)

	assert.ErrorIs(t, uc.Deactivate(ctx, created.ID), domain.ErrNotFound)
}

func TestProductSeed_CargaCatalogoOrdenado(t *testing.T) {
	uc, _ := newUseCase()
	ctx := context.Background()

	res, err := uc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Created)

	list, err := uc.ListActive(ctx)
	require.NoError(t, err)
	require.Equal(t, 7, list.Total)
	assert.Equal(t, "Black Pepper Powder", list.Items[0].Name)
	assert.Equal(t, "Turmeric Powder", list.Items[6].Name)
	for _, p := range list.Items {
		assert.Equal(t, "kg", p.Unit)
		assert.True(t, p.CurrentStock.Equal(d(50)))
		assert.True(t, p.LowStockThreshold.Equal(d(10)))
		assert.True(t, p.GSTPercentage.Equal(d(5)))
	}
}

func TestProductSeed_FallaCompletoSiHayDuplicado(t *testing.T) {
	uc, _ := newUseCase()
	ctx := context.Background()
	_, err := uc.Create(ctx, dto.CreateProductRequest{Name: "garam masala", Unit: "kg", PricePerUnit: d(1)})
	require.NoError(t, err)

	_, err = uc.Seed(ctx)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	list, err := uc.ListActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total, "ninguna fila del lote queda insertada")
}

func TestProductSeed_SegundaVezFalla(t *testing.T) {
	uc, _ := newUseCase()
	ctx := context.Background()
	_, err := uc.Seed(ctx)
	require.NoError(t, err)
	_, err = uc.Seed(ctx)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}
