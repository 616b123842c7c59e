package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApplyMovementRequest body para POST /api/inventory/movements.
// La validación se hace en el motor (orden: cantidad, motivo, producto, stock).
type ApplyMovementRequest struct {
	ProductID string          `json:"product_id"`
	Type      string          `json:"movement_type"` // IN | OUT
	Quantity  decimal.Decimal `json:"quantity"`
	Reason    string          `json:"reason"`
}

// MovementResultResponse resultado de un movimiento aceptado.
type MovementResultResponse struct {
	MovementID      string          `json:"movement_id"`
	ProductID       string          `json:"product_id"`
	NewBalance      decimal.Decimal `json:"new_balance"`
	ThresholdStatus string          `json:"threshold_status"`
	Replayed        bool            `json:"replayed"` // true si la clave de idempotencia ya estaba registrada
}

// MovementsQuery filtros de GET /api/inventory/movements.
type MovementsQuery struct {
	ProductID string `query:"product_id" validate:"omitempty,max=64"`
	Limit     int    `query:"limit" validate:"min=0,max=100"`
}

// StockMovementResponse salida de un movimiento del libro.
type StockMovementResponse struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name,omitempty"`
	MovementType string          `json:"movement_type"`
	Quantity     decimal.Decimal `json:"quantity"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Reason       string          `json:"reason"`
	CreatedAt    time.Time       `json:"created_at"`
	CreatedBy    string          `json:"created_by"`
}

// StockLevelDTO saldo de un producto con su estado de umbral.
type StockLevelDTO struct {
	ProductID         string          `json:"product_id"`
	Name              string          `json:"name"`
	Unit              string          `json:"unit"`
	CurrentStock      decimal.Decimal `json:"current_stock"`
	LowStockThreshold decimal.Decimal `json:"low_stock_threshold"`
	Status            string          `json:"status"`
}

// StockAlertsResponse vista de alertas (solo lectura) derivada de los saldos actuales.
type StockAlertsResponse struct {
	TotalProducts   int             `json:"total_products"`
	LowStockCount   int             `json:"low_stock_count"`
	OutOfStockCount int             `json:"out_of_stock_count"`
	LowStock        []StockLevelDTO `json:"low_stock"`
	OutOfStock      []StockLevelDTO `json:"out_of_stock"`
}

// ProductDriftDTO diferencia entre el saldo guardado y el recalculado desde el libro.
type ProductDriftDTO struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	OpeningStock  decimal.Decimal `json:"opening_stock"`
	StoredBalance decimal.Decimal `json:"stored_balance"`
	LedgerBalance decimal.Decimal `json:"ledger_balance"`
	Difference    decimal.Decimal `json:"difference"` // stored - ledger
	MovementCount int             `json:"movement_count"`
}

// ReconciliationReport resultado de la auditoría del libro.
type ReconciliationReport struct {
	CheckedAt       time.Time         `json:"checked_at"`
	ProductsChecked int               `json:"products_checked"`
	Drifts          []ProductDriftDTO `json:"drifts"`
}
