package usecase

import (
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/shopspring/decimal"
)

// starterCatalog catálogo inicial de especias (kg, stock inicial 50, umbral 10, IVA 5%).
var starterCatalog = []dto.CreateProductRequest{
	spice("Turmeric Powder", 200),
	spice("Red Chili Powder", 300),
	spice("Coriander Powder", 250),
	spice("Cumin Powder", 400),
	spice("Garam Masala", 500),
	spice("Black Pepper Powder", 800),
	spice("Cardamom Powder", 1200),
}

func spice(name string, price int64) dto.CreateProductRequest {
	opening := decimal.NewFromInt(50)
	threshold := decimal.NewFromInt(10)
	return dto.CreateProductRequest{
		Name:              name,
		Unit:              "kg",
		OpeningStock:      &opening,
		LowStockThreshold: &threshold,
		PricePerUnit:      decimal.NewFromInt(price),
		GSTPercentage:     decimal.NewFromInt(5),
	}
}
