package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock. La dirección la da el tipo, nunca el signo de la cantidad.
const (
	MovementTypeIN  = "IN"  // entrada
	MovementTypeOUT = "OUT" // salida
)

// StockMovement registro inmutable del libro de stock (solo inserción).
type StockMovement struct {
	ID             string
	ProductID      string
	ProductName    string // solo en listados (join con products)
	MovementType   string
	Quantity       decimal.Decimal // siempre > 0
	BalanceAfter   decimal.Decimal // saldo que dejó el commit
	Reason         string
	IdempotencyKey string
	CreatedAt      time.Time
	CreatedBy      string // UserID
}
