package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

const defaultRecentLimit = 10

// MovementsUseCase lectura del libro de movimientos (auditoría).
type MovementsUseCase struct {
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
}

// NewMovementsUseCase construye el caso de uso.
func NewMovementsUseCase(productRepo repository.ProductRepository, movementRepo repository.StockMovementRepository) *MovementsUseCase {
	return &MovementsUseCase{productRepo: productRepo, movementRepo: movementRepo}
}

// List con product_id devuelve el historial del producto (más reciente primero, hasta limit si > 0).
// Sin product_id devuelve los últimos movimientos de todos los productos (10 por defecto).
func (uc *MovementsUseCase) List(ctx context.Context, q dto.MovementsQuery) ([]dto.StockMovementResponse, error) {
	if q.ProductID == "" {
		limit := q.Limit
		if limit <= 0 {
			limit = defaultRecentLimit
		}
		list, err := uc.movementRepo.ListRecent(ctx, limit)
		if err != nil {
			return nil, err
		}
		out := make([]dto.StockMovementResponse, 0, len(list))
		for _, m := range list {
			out = append(out, toMovementResponse(m))
		}
		return out, nil
	}

	product, err := uc.productRepo.GetByID(ctx, q.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	out := []dto.StockMovementResponse{}
	for m, err := range uc.movementRepo.ListByProduct(ctx, q.ProductID, true) {
		if err != nil {
			return nil, err
		}
		r := toMovementResponse(m)
		r.ProductName = product.Name
		out = append(out, r)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

func toMovementResponse(m *entity.StockMovement) dto.StockMovementResponse {
	return dto.StockMovementResponse{
		ID:           m.ID,
		ProductID:    m.ProductID,
		ProductName:  m.ProductName,
		MovementType: m.MovementType,
		Quantity:     m.Quantity,
		BalanceAfter: m.BalanceAfter,
		Reason:       m.Reason,
		CreatedAt:    m.CreatedAt,
		CreatedBy:    m.CreatedBy,
	}
}
