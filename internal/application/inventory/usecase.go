package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
)

// ApplyMovementFromRequest adapta el request HTTP al motor ApplyMovement(ctx, MovementInputDTO).
// userID sale de la credencial verificada de la petición; idempotencyKey del header Idempotency-Key.
func (uc *ApplyMovementUseCase) ApplyMovementFromRequest(ctx context.Context, userID, idempotencyKey string, in dto.ApplyMovementRequest) (*dto.MovementResultResponse, error) {
	res, err := uc.ApplyMovement(ctx, MovementInputDTO{
		ProductID:      in.ProductID,
		Type:           in.Type,
		Quantity:       in.Quantity,
		Reason:         in.Reason,
		UserID:         userID,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	return &dto.MovementResultResponse{
		MovementID:      res.MovementID,
		ProductID:       res.ProductID,
		NewBalance:      res.NewBalance,
		ThresholdStatus: string(res.ThresholdStatus),
		Replayed:        res.Replayed,
	}, nil
}
