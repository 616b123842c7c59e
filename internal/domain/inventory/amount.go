package inventory

import "github.com/shopspring/decimal"

// Cantidades y saldos se guardan como NUMERIC(18,4); precio NUMERIC(18,2) y GST NUMERIC(5,2).
const (
	QuantityPrecision = 18
	QuantityScale     = 4
)

// FitsNumeric indica si d se representa exacto en NUMERIC(precision, scale), sin redondeo ni desborde.
func FitsNumeric(d decimal.Decimal, precision, scale int32) bool {
	if !d.Equal(d.Truncate(scale)) {
		return false
	}
	return d.Abs().LessThan(decimal.New(1, precision-scale))
}

// WithinQuantityRange cantidades, saldos, stock inicial y umbral.
func WithinQuantityRange(d decimal.Decimal) bool {
	return FitsNumeric(d, QuantityPrecision, QuantityScale)
}
