package repository

import (
	"context"
	"iter"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockMovementRepository define el puerto del libro de movimientos (solo inserción, sin update/delete).
type StockMovementRepository interface {
	// Append devuelve domain.ErrDuplicateMovement si la clave de idempotencia ya existe.
	Append(ctx context.Context, movement *entity.StockMovement) (string, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.StockMovement, error)
	ListByProduct(ctx context.Context, productID string, newestFirst bool) iter.Seq2[*entity.StockMovement, error]
	ListRecent(ctx context.Context, limit int) ([]*entity.StockMovement, error)
}
