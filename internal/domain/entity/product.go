package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// DefaultLowStockThreshold umbral de stock bajo cuando el producto no define uno.
var DefaultLowStockThreshold = decimal.NewFromInt(10)

// Product representa un producto del catálogo con su saldo en caché.
// CurrentStock solo se modifica a través del commit del libro de stock (movimientos).
type Product struct {
	ID                string
	Name              string
	NameKey           string // nombre canónico para unicidad (ver CanonicalName)
	Unit              string // kg, g, unidades...
	OpeningStock      decimal.Decimal
	CurrentStock      decimal.Decimal
	LowStockThreshold decimal.Decimal
	PricePerUnit      decimal.Decimal
	GSTPercentage     decimal.Decimal
	IsActive          bool
	Version           int64 // se incrementa en cada commit de saldo
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CanonicalName normaliza el nombre (espacios + case folding Unicode) para detectar duplicados
// como "Garam Masala" y "garam  MASALA".
func CanonicalName(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}
