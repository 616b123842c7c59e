package postgres_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	inventoryapp "github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestPool levanta PostgreSQL en un contenedor y aplica las migraciones.
// Requiere Docker; se activa con LEDGER_INTEGRATION=1.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if os.Getenv("LEDGER_INTEGRATION") != "1" {
		t.Skip("LEDGER_INTEGRATION=1 para correr pruebas contra PostgreSQL")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("stock_ledger_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := postgres.NewMigrator(dsn, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(3), version)
	assert.False(t, dirty)
	require.NoError(t, m.Close())

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func createProduct(t *testing.T, repo repository.ProductRepository, name string, stock int64) *entity.Product {
	t.Helper()
	now := time.Now().UTC()
	p := &entity.Product{
		ID:                uuid.New().String(),
		Name:              name,
		NameKey:           entity.CanonicalName(name),
		Unit:              "kg",
		OpeningStock:      decimal.NewFromInt(stock),
		CurrentStock:      decimal.NewFromInt(stock),
		LowStockThreshold: decimal.NewFromInt(10),
		PricePerUnit:      decimal.NewFromInt(200),
		GSTPercentage:     decimal.NewFromInt(5),
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestPostgres_LibroDeStock(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	products := postgres.NewProductRepository(pool)
	movements := postgres.NewStockMovementRepository(pool)
	runner := postgres.NewTxRunner(pool)

	p := createProduct(t, products, "Turmeric Powder", 50)

	t.Run("nombre duplicado", func(t *testing.T) {
		dup := *p
		dup.ID = uuid.New().String()
		assert.ErrorIs(t, products.Create(ctx, &dup), domain.ErrDuplicate)
	})

	t.Run("id no uuid es inexistente", func(t *testing.T) {
		got, err := products.GetByID(ctx, "no-es-uuid")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	engine := inventoryapp.NewApplyMovementUseCase(runner, products, movements, nil, inventoryapp.LedgerOptions{
		MaxAttempts:  50,
		RetryBackoff: time.Millisecond,
		Logger:       zerolog.Nop(),
	})

	t.Run("salida deja stock bajo", func(t *testing.T) {
		res, err := engine.ApplyMovement(ctx, inventoryapp.MovementInputDTO{
			ProductID: p.ID, Type: entity.MovementTypeOUT, Quantity: decimal.NewFromInt(45), Reason: "venta", UserID: "u1",
		})
		require.NoError(t, err)
		assert.True(t, res.NewBalance.Equal(decimal.NewFromInt(5)))
		assert.Equal(t, inventory.StatusLowStock, res.ThresholdStatus)

		_, err = engine.ApplyMovement(ctx, inventoryapp.MovementInputDTO{
			ProductID: p.ID, Type: entity.MovementTypeOUT, Quantity: decimal.NewFromInt(10), Reason: "venta", UserID: "u1",
		})
		var insufficient *domain.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.True(t, insufficient.Available.Equal(decimal.NewFromInt(5)))
	})

	t.Run("idempotencia", func(t *testing.T) {
		in := inventoryapp.MovementInputDTO{
			ProductID: p.ID, Type: entity.MovementTypeIN, Quantity: decimal.NewFromInt(20), Reason: "compra", UserID: "u1", IdempotencyKey: "pg-1",
		}
		first, err := engine.ApplyMovement(ctx, in)
		require.NoError(t, err)
		second, err := engine.ApplyMovement(ctx, in)
		require.NoError(t, err)
		assert.True(t, second.Replayed)
		assert.Equal(t, first.MovementID, second.MovementID)

		// Append directo con la misma clave: lo rechaza el índice único.
		_, err = movements.Append(ctx, &entity.StockMovement{
			ProductID: p.ID, MovementType: entity.MovementTypeIN, Quantity: decimal.NewFromInt(1),
			BalanceAfter: decimal.NewFromInt(26), Reason: "x", IdempotencyKey: "pg-1", CreatedAt: time.Now(),
		})
		assert.ErrorIs(t, err, domain.ErrDuplicateMovement)
	})

	t.Run("salidas concurrentes", func(t *testing.T) {
		q := createProduct(t, products, "Cumin Powder", 20)
		var wg sync.WaitGroup
		var mu sync.Mutex
		okCount := 0
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := engine.ApplyMovement(ctx, inventoryapp.MovementInputDTO{
					ProductID: q.ID, Type: entity.MovementTypeOUT, Quantity: decimal.NewFromInt(3), Reason: "venta", UserID: "u2",
				})
				if err == nil {
					mu.Lock()
					okCount++
					mu.Unlock()
					return
				}
				if !errors.Is(err, domain.ErrInsufficientStock) && !errors.Is(err, domain.ErrConcurrentConflict) {
					t.Errorf("error inesperado: %v", err)
				}
			}()
		}
		wg.Wait()

		got, err := products.GetByID(ctx, q.ID)
		require.NoError(t, err)
		assert.False(t, got.CurrentStock.IsNegative())
		assert.True(t, got.CurrentStock.Equal(decimal.NewFromInt(int64(20-3*okCount))))
	})

	t.Run("conciliación sin diferencias", func(t *testing.T) {
		report, err := inventoryapp.NewReconcileUseCase(runner, zerolog.Nop()).Reconcile(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, report.ProductsChecked)
		assert.Empty(t, report.Drifts)
	})

	t.Run("movimientos son de solo inserción", func(t *testing.T) {
		_, err := pool.Exec(ctx, `UPDATE stock_movements SET reason = 'editado'`)
		assert.Error(t, err)
		_, err = pool.Exec(ctx, `DELETE FROM stock_movements`)
		assert.Error(t, err)
	})

	t.Run("recientes con nombre", func(t *testing.T) {
		recent, err := movements.ListRecent(ctx, 3)
		require.NoError(t, err)
		require.NotEmpty(t, recent)
		assert.NotEmpty(t, recent[0].ProductName)
	})
}

func TestPostgres_CompareAndSetBalance(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	products := postgres.NewProductRepository(pool)
	p := createProduct(t, products, "Garam Masala", 10)

	ok, err := products.CompareAndSetBalance(ctx, p.ID, decimal.NewFromInt(9), decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = products.CompareAndSetBalance(ctx, p.ID, decimal.NewFromInt(10), decimal.NewFromInt(-1))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = products.CompareAndSetBalance(ctx, p.ID, decimal.NewFromInt(10), decimal.RequireFromString("7.5"))
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentStock.Equal(decimal.RequireFromString("7.5")))
	assert.Equal(t, int64(1), got.Version)
}

func TestPostgres_FraccionesConcilian(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	products := postgres.NewProductRepository(pool)
	movements := postgres.NewStockMovementRepository(pool)
	runner := postgres.NewTxRunner(pool)
	engine := inventoryapp.NewApplyMovementUseCase(runner, products, movements, nil, inventoryapp.LedgerOptions{
		MaxAttempts:  5,
		RetryBackoff: time.Millisecond,
		Logger:       zerolog.Nop(),
	})
	p := createProduct(t, products, "Cardamom", 10)

	steps := []struct {
		kind string
		qty  string
	}{
		{entity.MovementTypeIN, "0.0001"},
		{entity.MovementTypeOUT, "2.5"},
		{entity.MovementTypeIN, "7.1234"},
		{entity.MovementTypeOUT, "0.0235"},
	}
	for _, st := range steps {
		_, err := engine.ApplyMovement(ctx, inventoryapp.MovementInputDTO{
			ProductID: p.ID, Type: st.kind, Quantity: decimal.RequireFromString(st.qty), Reason: "ajuste", UserID: "u1",
		})
		require.NoError(t, err)
	}

	_, err := engine.ApplyMovement(ctx, inventoryapp.MovementInputDTO{
		ProductID: p.ID, Type: entity.MovementTypeIN, Quantity: decimal.RequireFromString("0.00005"), Reason: "ajuste", UserID: "u1",
	})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	ok, err := products.CompareAndSetBalance(ctx, p.ID, decimal.RequireFromString("14.6"), decimal.New(1, 14))
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.False(t, ok)

	got, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentStock.Equal(decimal.RequireFromString("14.6")), got.CurrentStock.String())

	report, err := inventoryapp.NewReconcileUseCase(runner, zerolog.Nop()).Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ProductsChecked)
	assert.Empty(t, report.Drifts)
}

func TestPostgres_TextosLargos(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	products := postgres.NewProductRepository(pool)
	movements := postgres.NewStockMovementRepository(pool)
	engine := inventoryapp.NewApplyMovementUseCase(postgres.NewTxRunner(pool), products, movements, nil, inventoryapp.LedgerOptions{
		MaxAttempts:  5,
		RetryBackoff: time.Millisecond,
		Logger:       zerolog.Nop(),
	})

	// "ß" se pliega a "ss": la clave canónica ocupa el doble de caracteres.
	name := strings.Repeat("ß", 200)
	p := createProduct(t, products, name, 5)
	assert.Len(t, []rune(p.NameKey), 400)

	actor := strings.Repeat("a", 300)
	res, err := engine.ApplyMovement(ctx, inventoryapp.MovementInputDTO{
		ProductID: p.ID, Type: entity.MovementTypeIN, Quantity: decimal.NewFromInt(1), Reason: "compra", UserID: actor,
		IdempotencyKey: strings.Repeat("k", 200),
	})
	require.NoError(t, err)
	assert.True(t, res.NewBalance.Equal(decimal.NewFromInt(6)))

	got, err := products.GetByNameKey(ctx, entity.CanonicalName(name))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.ID, got.ID)
}

func TestPgx5URL(t *testing.T) {
	_, err := postgres.NewMigrator("mysql://root@localhost/db", zerolog.Nop())
	assert.Error(t, err)
}
