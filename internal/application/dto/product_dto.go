package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
// OpeningStock y LowStockThreshold son opcionales (0 y 10 por defecto).
type CreateProductRequest struct {
	Name              string           `json:"name" validate:"required,min=1,max=200"`
	Unit              string           `json:"unit" validate:"required,min=1,max=20"`
	OpeningStock      *decimal.Decimal `json:"opening_stock"`
	LowStockThreshold *decimal.Decimal `json:"low_stock_threshold"`
	PricePerUnit      decimal.Decimal  `json:"price_per_unit"`
	GSTPercentage     decimal.Decimal  `json:"gst_percentage"`
}

// UpdateProductRequest entrada para actualizar un producto (sin CurrentStock).
type UpdateProductRequest struct {
	Name              *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Unit              *string          `json:"unit" validate:"omitempty,min=1,max=20"`
	LowStockThreshold *decimal.Decimal `json:"low_stock_threshold"`
	PricePerUnit      *decimal.Decimal `json:"price_per_unit"`
	GSTPercentage     *decimal.Decimal `json:"gst_percentage"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Unit              string          `json:"unit"`
	OpeningStock      decimal.Decimal `json:"opening_stock"`
	CurrentStock      decimal.Decimal `json:"current_stock"`
	LowStockThreshold decimal.Decimal `json:"low_stock_threshold"`
	PricePerUnit      decimal.Decimal `json:"price_per_unit"`
	GSTPercentage     decimal.Decimal `json:"gst_percentage"`
	IsActive          bool            `json:"is_active"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ProductListResponse lista de productos activos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Total int               `json:"total"`
}

// SeedResult resultado de la carga del catálogo inicial.
type SeedResult struct {
	Created  int               `json:"created"`
	Products []ProductResponse `json:"products"`
}
