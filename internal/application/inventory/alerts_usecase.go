package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// AlertsUseCase deriva los conjuntos de stock bajo y agotado a partir de los saldos actuales.
// Es de solo lectura: nunca escribe current_stock.
type AlertsUseCase struct {
	productRepo repository.ProductRepository
}

// NewAlertsUseCase construye el caso de uso de alertas.
func NewAlertsUseCase(productRepo repository.ProductRepository) *AlertsUseCase {
	return &AlertsUseCase{productRepo: productRepo}
}

// StockAlerts recorre los productos activos (ordenados por nombre) y los clasifica con EvaluateThreshold.
func (uc *AlertsUseCase) StockAlerts(ctx context.Context) (*dto.StockAlertsResponse, error) {
	out := &dto.StockAlertsResponse{
		LowStock:   []dto.StockLevelDTO{},
		OutOfStock: []dto.StockLevelDTO{},
	}
	for p, err := range uc.productRepo.ListActive(ctx) {
		if err != nil {
			return nil, err
		}
		out.TotalProducts++
		status := inventory.EvaluateThreshold(p.CurrentStock, p.LowStockThreshold)
		switch status {
		case inventory.StatusLowStock:
			out.LowStock = append(out.LowStock, toStockLevel(p, status))
		case inventory.StatusOutOfStock:
			out.OutOfStock = append(out.OutOfStock, toStockLevel(p, status))
		}
	}
	out.LowStockCount = len(out.LowStock)
	out.OutOfStockCount = len(out.OutOfStock)
	return out, nil
}

func toStockLevel(p *entity.Product, status inventory.ThresholdStatus) dto.StockLevelDTO {
	return dto.StockLevelDTO{
		ProductID:         p.ID,
		Name:              p.Name,
		Unit:              p.Unit,
		CurrentStock:      p.CurrentStock,
		LowStockThreshold: p.LowStockThreshold,
		Status:            string(status),
	}
}
