package memory

import (
	"context"
	"fmt"
	"iter"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	ledger "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación en memoria de repository.ProductRepository. Devuelve copias.
type ProductRepo struct {
	view
}

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	return r.write(func(d *data) error {
		if _, ok := d.products[p.ID]; ok {
			return domain.ErrDuplicate
		}
		if _, ok := d.nameIndex[p.NameKey]; ok {
			return domain.ErrDuplicate
		}
		for _, v := range []decimal.Decimal{p.OpeningStock, p.CurrentStock, p.LowStockThreshold} {
			if v.IsNegative() || !ledger.WithinQuantityRange(v) {
				return fmt.Errorf("producto %s: %w", p.ID, domain.ErrInvalidInput)
			}
		}
		cp := *p
		d.putProduct(&cp)
		d.setName(p.NameKey, p.ID)
		return nil
	})
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	r.read(func(d *data) {
		if p, ok := d.products[id]; ok {
			cp := *p
			out = &cp
		}
	})
	return out, nil
}

func (r *ProductRepo) GetByNameKey(ctx context.Context, nameKey string) (*entity.Product, error) {
	var id string
	r.read(func(d *data) { id = d.nameIndex[nameKey] })
	if id == "" {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// ListActive toma una instantánea al iniciar cada iteración y la recorre fuera del lock.
func (r *ProductRepo) ListActive(ctx context.Context) iter.Seq2[*entity.Product, error] {
	return func(yield func(*entity.Product, error) bool) {
		var list []*entity.Product
		r.read(func(d *data) {
			for _, p := range d.products {
				if p.IsActive {
					cp := *p
					list = append(list, &cp)
				}
			}
		})
		sort.Slice(list, func(i, j int) bool {
			if list[i].Name == list[j].Name {
				return list[i].ID < list[j].ID
			}
			return list[i].Name < list[j].Name
		})
		for _, p := range list {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(p, nil) {
				return
			}
		}
	}
}

// Update reemplaza metadatos; saldo, stock inicial y versión se conservan.
func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	return r.write(func(d *data) error {
		cur, ok := d.products[p.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if owner, ok := d.nameIndex[p.NameKey]; ok && owner != p.ID {
			return domain.ErrDuplicate
		}
		if !ledger.WithinQuantityRange(p.LowStockThreshold) || p.LowStockThreshold.IsNegative() {
			return fmt.Errorf("producto %s: %w", p.ID, domain.ErrInvalidInput)
		}
		d.deleteName(cur.NameKey)
		d.setName(p.NameKey, p.ID)

		cp := *p
		cp.OpeningStock = cur.OpeningStock
		cp.CurrentStock = cur.CurrentStock
		cp.Version = cur.Version
		cp.IsActive = cur.IsActive
		cp.CreatedAt = cur.CreatedAt
		d.putProduct(&cp)
		return nil
	})
}

func (r *ProductRepo) Deactivate(_ context.Context, id string) error {
	return r.write(func(d *data) error {
		cur, ok := d.products[id]
		if !ok {
			return domain.ErrNotFound
		}
		cp := *cur
		cp.IsActive = false
		cp.UpdatedAt = r.s.now()
		d.putProduct(&cp)
		return nil
	})
}

func (r *ProductRepo) CompareAndSetBalance(_ context.Context, productID string, expected, newBalance decimal.Decimal) (bool, error) {
	if !ledger.WithinQuantityRange(newBalance) {
		return false, fmt.Errorf("saldo %s: %w", newBalance, domain.ErrInvalidQuantity)
	}
	var ok bool
	err := r.write(func(d *data) error {
		cur, found := d.products[productID]
		if !found || !cur.IsActive || !cur.CurrentStock.Equal(expected) || newBalance.IsNegative() {
			return nil
		}
		cp := *cur
		cp.CurrentStock = newBalance
		cp.Version++
		cp.UpdatedAt = r.s.now()
		d.putProduct(&cp)
		ok = true
		return nil
	})
	return ok, err
}
