// Package bootstrap arma el almacenamiento y los casos de uso a partir de la configuración.
// Lo comparten cmd/api y cmd/ledgerctl.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/notify"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Store repositorios + TxRunner del driver elegido. Close libera conexiones.
type Store struct {
	TxRunner  inventory.TxRunner
	Products  repository.ProductRepository
	Movements repository.StockMovementRepository
	closers   []func()
}

// Close cierra en orden inverso a la apertura.
func (s *Store) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// OpenStore abre el almacenamiento según STORE_DRIVER. Con postgres y DB_AUTO_MIGRATE aplica el esquema antes.
func OpenStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		log.Warn().Msg("STORE_DRIVER=memory: los datos se pierden al reiniciar")
		mem := memory.New()
		return &Store{TxRunner: mem, Products: mem.Products(), Movements: mem.Movements()}, nil
	case "postgres":
		if cfg.DB.AutoMigrate {
			if err := Migrate(cfg, log, func(m *postgres.Migrator) error { return m.Up() }); err != nil {
				return nil, err
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		return &Store{
			TxRunner:  postgres.NewTxRunner(pool),
			Products:  postgres.NewProductRepository(pool),
			Movements: postgres.NewStockMovementRepository(pool),
			closers:   []func(){pool.Close},
		}, nil
	default:
		return nil, fmt.Errorf("driver de almacenamiento desconocido %q", cfg.Store.Driver)
	}
}

// Migrate abre un Migrator sobre la base configurada, ejecuta fn y lo cierra.
func Migrate(cfg *config.Config, log *logger.Logger, fn func(*postgres.Migrator) error) error {
	m, err := postgres.NewMigrator(cfg.DB.ConnectionString(), log.Component("migrate"))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("cerrar migrador")
		}
	}()
	return fn(m)
}

// Services casos de uso listos para inyectar en HTTP, CLI o scheduler.
type Services struct {
	Products      *usecase.ProductUseCase
	ApplyMovement *inventory.ApplyMovementUseCase
	Movements     *inventory.MovementsUseCase
	Alerts        *inventory.AlertsUseCase
	Reconcile     *inventory.ReconcileUseCase
}

// NewServices construye los casos de uso. Si REDIS_ADDR está definido, las alertas de umbral se publican
// en ALERTS_CHANNEL; si Redis no responde se sigue sin publicador.
func NewServices(ctx context.Context, cfg *config.Config, log *logger.Logger, store *Store) *Services {
	var alerts inventory.AlertPublisher
	if cfg.Redis.Addr != "" {
		client, err := notify.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, alertas sin publicar")
		} else {
			alerts = notify.NewRedisAlertPublisher(client, cfg.Redis.Channel, log.Component("alerts"))
			store.closers = append(store.closers, func() { _ = client.Close() })
		}
	}

	return &Services{
		Products: usecase.NewProductUseCase(store.Products, store.TxRunner),
		ApplyMovement: inventory.NewApplyMovementUseCase(store.TxRunner, store.Products, store.Movements, alerts, inventory.LedgerOptions{
			MaxAttempts:  cfg.Ledger.MaxAttempts,
			RetryBackoff: cfg.Ledger.RetryBackoff(),
			Logger:       log.Component("ledger"),
		}),
		Movements: inventory.NewMovementsUseCase(store.Products, store.Movements),
		Alerts:    inventory.NewAlertsUseCase(store.Products),
		Reconcile: inventory.NewReconcileUseCase(store.TxRunner, log.Component("reconcile")),
	}
}
