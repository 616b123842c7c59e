package inventory

import "github.com/shopspring/decimal"

// ThresholdStatus clasificación del saldo respecto al umbral de stock bajo.
type ThresholdStatus string

const (
	StatusInStock    ThresholdStatus = "IN_STOCK"
	StatusLowStock   ThresholdStatus = "LOW_STOCK"
	StatusOutOfStock ThresholdStatus = "OUT_OF_STOCK"
)

// EvaluateThreshold es función pura del saldo:
// 0 → OUT_OF_STOCK; 0 < saldo <= umbral → LOW_STOCK; resto → IN_STOCK.
func EvaluateThreshold(balance, lowStockThreshold decimal.Decimal) ThresholdStatus {
	switch {
	case balance.IsZero():
		return StatusOutOfStock
	case balance.IsPositive() && balance.LessThanOrEqual(lowStockThreshold):
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// IsAlert indica si el estado debe aparecer en la vista de alertas.
func (s ThresholdStatus) IsAlert() bool {
	return s == StatusLowStock || s == StatusOutOfStock
}
