package postgres

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	ledger "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, name, name_key, unit, opening_stock, current_stock, low_stock_threshold,
	price_per_unit, gst_percentage, is_active, version, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.NameKey, &p.Unit, &p.OpeningStock, &p.CurrentStock, &p.LowStockThreshold,
		&p.PricePerUnit, &p.GSTPercentage, &p.IsActive, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un nuevo producto. CurrentStock inicia en OpeningStock.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	for _, v := range []decimal.Decimal{product.OpeningStock, product.CurrentStock, product.LowStockThreshold} {
		if v.IsNegative() || !ledger.WithinQuantityRange(v) {
			return fmt.Errorf("producto %s: %w", product.ID, domain.ErrInvalidInput)
		}
	}
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.Name, product.NameKey, product.Unit, product.OpeningStock, product.CurrentStock,
		product.LowStockThreshold, product.PricePerUnit, product.GSTPercentage, product.IsActive,
		product.Version, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetByNameKey obtiene un producto por nombre canónico.
func (r *ProductRepo) GetByNameKey(ctx context.Context, nameKey string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE name_key = $1`, nameKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product by name: %w", err)
	}
	return p, nil
}

// ListActive ejecuta la consulta al iniciar cada iteración.
func (r *ProductRepo) ListActive(ctx context.Context) iter.Seq2[*entity.Product, error] {
	return func(yield func(*entity.Product, error) bool) {
		rows, err := r.q.Query(ctx, `SELECT `+productColumns+` FROM products WHERE is_active ORDER BY name, id`)
		if err != nil {
			yield(nil, fmt.Errorf("list products: %w", err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				yield(nil, fmt.Errorf("scan product: %w", err))
				return
			}
			if !yield(p, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("list products: %w", err))
		}
	}
}

// Update actualiza metadatos. No toca current_stock, opening_stock ni version.
func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	query := `
		UPDATE products SET name = $2, name_key = $3, unit = $4, low_stock_threshold = $5,
			price_per_unit = $6, gst_percentage = $7, updated_at = $8
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		product.ID, product.Name, product.NameKey, product.Unit, product.LowStockThreshold,
		product.PricePerUnit, product.GSTPercentage, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Deactivate baja lógica; el historial de movimientos se conserva.
func (r *ProductRepo) Deactivate(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `UPDATE products SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CompareAndSetBalance UPDATE condicional: 0 filas afectadas = otro escritor confirmó antes
// (o el producto se desactivó). Nunca escribe un saldo negativo.
func (r *ProductRepo) CompareAndSetBalance(ctx context.Context, productID string, expected, newBalance decimal.Decimal) (bool, error) {
	if !ledger.WithinQuantityRange(newBalance) {
		return false, fmt.Errorf("saldo %s: %w", newBalance, domain.ErrInvalidQuantity)
	}
	query := `
		UPDATE products SET current_stock = $3, version = version + 1, updated_at = now()
		WHERE id = $1 AND current_stock = $2 AND is_active AND $3::numeric >= 0`
	cmd, err := r.q.Exec(ctx, query, productID, expected, newBalance)
	if err != nil {
		return false, fmt.Errorf("compare-and-set balance: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}
