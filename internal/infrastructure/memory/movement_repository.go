package memory

import (
	"context"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	ledger "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*MovementRepo)(nil)

// MovementRepo libro de movimientos en memoria (solo inserción).
type MovementRepo struct {
	view
}

func (r *MovementRepo) Append(_ context.Context, m *entity.StockMovement) (string, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	err := r.write(func(d *data) error {
		if _, ok := d.products[m.ProductID]; !ok {
			return fmt.Errorf("movimiento sobre producto %s: %w", m.ProductID, domain.ErrNotFound)
		}
		if !m.Quantity.IsPositive() || !ledger.WithinQuantityRange(m.Quantity) || !ledger.WithinQuantityRange(m.BalanceAfter) {
			return domain.ErrInvalidQuantity
		}
		if m.IdempotencyKey != "" {
			if _, ok := d.keyIndex[m.IdempotencyKey]; ok {
				return domain.ErrDuplicateMovement
			}
		}
		cp := *m
		cp.ProductName = ""
		d.appendMovement(&cp)
		return nil
	})
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

func (r *MovementRepo) GetByIdempotencyKey(_ context.Context, key string) (*entity.StockMovement, error) {
	var out *entity.StockMovement
	r.read(func(d *data) {
		if i, ok := d.keyIndex[key]; ok {
			cp := *d.movements[i]
			out = &cp
		}
	})
	return out, nil
}

// ListByProduct recorre en orden de inserción (o inverso), que coincide con el orden de created_at.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID string, newestFirst bool) iter.Seq2[*entity.StockMovement, error] {
	return func(yield func(*entity.StockMovement, error) bool) {
		var list []*entity.StockMovement
		r.read(func(d *data) {
			for _, m := range d.movements {
				if m.ProductID == productID {
					cp := *m
					list = append(list, &cp)
				}
			}
		})
		for i := range list {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			m := list[i]
			if newestFirst {
				m = list[len(list)-1-i]
			}
			if !yield(m, nil) {
				return
			}
		}
	}
}

func (r *MovementRepo) ListRecent(_ context.Context, limit int) ([]*entity.StockMovement, error) {
	out := []*entity.StockMovement{}
	r.read(func(d *data) {
		for i := len(d.movements) - 1; i >= 0 && len(out) < limit; i-- {
			cp := *d.movements[i]
			if p, ok := d.products[cp.ProductID]; ok {
				cp.ProductName = p.Name
			}
			out = append(out, &cp)
		}
	})
	return out, nil
}
