package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// TxFunc recibe repositorios atados a la misma transacción.
type TxFunc func(products repository.ProductRepository, movements repository.StockMovementRepository) error

// TxRunner ejecuta una función dentro de una transacción del almacenamiento.
// Garantiza atomicidad del par (saldo, movimiento): Commit si fn devuelve nil, Rollback en otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn TxFunc) error
	// RunReadOnly ejecuta fn sobre una instantánea consistente (sin escrituras).
	RunReadOnly(ctx context.Context, fn TxFunc) error
}

// StockAlert se emite cuando un commit deja un producto en stock bajo o agotado.
type StockAlert struct {
	ProductID   string
	ProductName string
	Unit        string
	Status      inventory.ThresholdStatus
	Balance     decimal.Decimal
	Threshold   decimal.Decimal
	MovementID  string
	At          time.Time
}

// AlertPublisher publica alertas de umbral (best-effort, después del commit).
type AlertPublisher interface {
	Publish(ctx context.Context, alert StockAlert) error
}
