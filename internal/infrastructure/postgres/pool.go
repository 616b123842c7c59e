package postgres

import (
	"context"
	"fmt"
	"net"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/stock-ledger/pkg/config"
)

const (
	defaultMaxConns = 25
	defaultMinConns = 2
	applicationName = "stock-ledger"
)

// NewPool crea el pool a partir de DATABASE_URL o de DB_HOST/DB_PORT/etc.
// Cada conexión registra el codec NUMERIC <-> decimal.Decimal; saldos y cantidades nunca pasan por float.
// Si la base aún no acepta conexiones se reintenta el ping DB_CONNECT_RETRIES veces.
func NewPool(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	// Docker suele no tener IPv6: se prueba tcp4 primero y luego el dial normal.
	poolConfig.ConnConfig.DialFunc = dialPreferIPv4
	if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	poolConfig.MaxConns = defaultMaxConns
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	poolConfig.MinConns = min(defaultMinConns, poolConfig.MaxConns)
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pingWithRetry(ctx, pool, cfg.ConnectRetries); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func pingWithRetry(ctx context.Context, pool *pgxpool.Pool, retries int) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = pool.Ping(ctx); err == nil {
			return nil
		}
		if attempt >= retries {
			return fmt.Errorf("ping DB (%d intentos): %w", attempt+1, err)
		}
		t := time.NewTimer(time.Duration(attempt+1) * time.Second)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("ping DB: %w", ctx.Err())
		case <-t.C:
		}
	}
}

func dialPreferIPv4(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	if conn, err := dialer.DialContext(ctx, "tcp4", addr); err == nil {
		return conn, nil
	}
	return dialer.DialContext(ctx, network, addr)
}
