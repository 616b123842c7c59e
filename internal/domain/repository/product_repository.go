package repository

import (
	"context"
	"iter"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductRepository define el puerto del registro de productos (DIP).
// GetByID y GetByNameKey devuelven (nil, nil) si no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByNameKey(ctx context.Context, nameKey string) (*entity.Product, error)
	// ListActive ejecuta una consulta nueva en cada iteración (ordenado por nombre).
	ListActive(ctx context.Context) iter.Seq2[*entity.Product, error]
	// Update actualiza solo metadatos; nunca CurrentStock.
	Update(ctx context.Context, product *entity.Product) error
	Deactivate(ctx context.Context, id string) error
	// CompareAndSetBalance escribe newBalance solo si el saldo guardado sigue siendo expected,
	// el producto está activo y newBalance >= 0. Devuelve false ante conflicto.
	CompareAndSetBalance(ctx context.Context, productID string, expected, newBalance decimal.Decimal) (bool, error)
}
