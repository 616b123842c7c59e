package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/bootstrap"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// env carga configuración y logger para un comando. Los logs van a stderr; stdout queda para JSON.
type env struct {
	cfg *config.Config
	log *logger.Logger
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: "ledgerctl",
		Out:     cmd.ErrOrStderr(),
	})
	return &env{cfg: cfg, log: log}, nil
}

// withServices abre el almacenamiento, arma los casos de uso y ejecuta fn.
func withServices(cmd *cobra.Command, fn func(ctx context.Context, svc *bootstrap.Services) error) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store, err := bootstrap.OpenStore(ctx, e.cfg, e.log)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(ctx, bootstrap.NewServices(ctx, e.cfg, e.log, store))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operación del libro de stock",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newMigrateCmd(), newSeedCmd(), newReconcileCmd(), newMovementCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migraciones del esquema PostgreSQL",
	}
	run := func(fn func(*postgres.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			return bootstrap.Migrate(e.cfg, e.log, fn)
		}
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Aplica las migraciones pendientes",
			Args:  cobra.NoArgs,
			RunE:  run(func(m *postgres.Migrator) error { return m.Up() }),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revierte todas las migraciones",
			Args:  cobra.NoArgs,
			RunE:  run(func(m *postgres.Migrator) error { return m.Down() }),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Muestra la versión aplicada",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(func(m *postgres.Migrator) error {
					version, dirty, err := m.Version()
					if err != nil {
						return err
					}
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
					return err
				})(cmd, args)
			},
		},
	)
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Carga el catálogo inicial de especias (todo o nada)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd, func(ctx context.Context, svc *bootstrap.Services) error {
				res, err := svc.Products.Seed(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func newReconcileCmd() *cobra.Command {
	var failOnDrift bool
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recalcula saldos desde el libro y reporta diferencias",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd, func(ctx context.Context, svc *bootstrap.Services) error {
				report, err := svc.Reconcile.Reconcile(ctx)
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
				if failOnDrift && len(report.Drifts) > 0 {
					return fmt.Errorf("%d producto(s) con saldo desalineado", len(report.Drifts))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&failOnDrift, "fail-on-drift", false, "termina con error si hay diferencias")
	return cmd
}

func newMovementCmd() *cobra.Command {
	var (
		productID string
		typ       string
		quantity  string
		reason    string
		user      string
		key       string
	)
	cmd := &cobra.Command{
		Use:   "movement",
		Short: "Registra un movimiento IN/OUT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			qty, err := decimal.NewFromString(quantity)
			if err != nil {
				return fmt.Errorf("cantidad inválida %q: %w", quantity, err)
			}
			return withServices(cmd, func(ctx context.Context, svc *bootstrap.Services) error {
				res, err := svc.ApplyMovement.ApplyMovement(ctx, inventory.MovementInputDTO{
					ProductID:      productID,
					Type:           typ,
					Quantity:       qty,
					Reason:         reason,
					UserID:         user,
					IdempotencyKey: key,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&productID, "product", "", "ID del producto")
	f.StringVar(&typ, "type", "", "IN | OUT")
	f.StringVar(&quantity, "quantity", "", "cantidad (> 0)")
	f.StringVar(&reason, "reason", "", "motivo")
	f.StringVar(&user, "user", "ledgerctl", "actor registrado en el movimiento")
	f.StringVar(&key, "idempotency-key", "", "clave para reintentos seguros")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("quantity")
	return cmd
}
