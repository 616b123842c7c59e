package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	inventoryapp "github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// ProductUseCase casos de uso del registro de productos. CurrentStock solo cambia vía movimientos.
type ProductUseCase struct {
	repo     repository.ProductRepository
	txRunner inventoryapp.TxRunner
	now      func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, txRunner inventoryapp.TxRunner) *ProductUseCase {
	return &ProductUseCase{repo: repo, txRunner: txRunner, now: time.Now}
}

// Create crea un nuevo producto. CurrentStock inicia en OpeningStock.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.newProduct(in)
	if err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetByNameKey(ctx, product.NameKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID (nil, nil si no existe).
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	return toProductResponse(product), nil
}

// ListActive lista los productos activos ordenados por nombre.
func (uc *ProductUseCase) ListActive(ctx context.Context) (*dto.ProductListResponse, error) {
	items := []dto.ProductResponse{}
	for p, err := range uc.repo.ListActive(ctx) {
		if err != nil {
			return nil, err
		}
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{Items: items, Total: len(items)}, nil
}

// Update actualiza metadatos. No permite modificar CurrentStock ni OpeningStock.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, nil
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		key := entity.CanonicalName(name)
		if key != product.NameKey {
			existing, err := uc.repo.GetByNameKey(ctx, key)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != product.ID {
				return nil, domain.ErrDuplicate
			}
		}
		product.Name = name
		product.NameKey = key
	}
	if in.Unit != nil {
		unit := strings.TrimSpace(*in.Unit)
		if unit == "" {
			return nil, domain.ErrInvalidInput
		}
		product.Unit = unit
	}
	if in.LowStockThreshold != nil {
		if !validStockAmount(*in.LowStockThreshold) {
			return nil, domain.ErrInvalidInput
		}
		product.LowStockThreshold = *in.LowStockThreshold
	}
	if in.PricePerUnit != nil {
		if !validPrice(*in.PricePerUnit) {
			return nil, domain.ErrInvalidInput
		}
		product.PricePerUnit = *in.PricePerUnit
	}
	if in.GSTPercentage != nil {
		if !validGST(*in.GSTPercentage) {
			return nil, domain.ErrInvalidInput
		}
		product.GSTPercentage = *in.GSTPercentage
	}
	product.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Deactivate retira el producto (soft delete). Su historial se conserva.
func (uc *ProductUseCase) Deactivate(ctx context.Context, id string) error {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		return domain.ErrNotFound
	}
	return uc.repo.Deactivate(ctx, id)
}

// Seed inserta el catálogo inicial en una sola transacción.
// Si algún nombre choca con un producto existente o con otra fila del lote, no se inserta ninguno.
func (uc *ProductUseCase) Seed(ctx context.Context) (*dto.SeedResult, error) {
	batch := make([]*entity.Product, 0, len(starterCatalog))
	seen := make(map[string]struct{}, len(starterCatalog))
	for _, in := range starterCatalog {
		p, err := uc.newProduct(in)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[p.NameKey]; dup {
			return nil, domain.ErrDuplicate
		}
		seen[p.NameKey] = struct{}{}
		batch = append(batch, p)
	}

	err := uc.txRunner.Run(ctx, func(products repository.ProductRepository, _ repository.StockMovementRepository) error {
		for _, p := range batch {
			existing, err := products.GetByNameKey(ctx, p.NameKey)
			if err != nil {
				return err
			}
			if existing != nil {
				return domain.ErrDuplicate
			}
			if err := products.Create(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &dto.SeedResult{Created: len(batch), Products: make([]dto.ProductResponse, 0, len(batch))}
	for _, p := range batch {
		res.Products = append(res.Products, *toProductResponse(p))
	}
	return res, nil
}

func (uc *ProductUseCase) newProduct(in dto.CreateProductRequest) (*entity.Product, error) {
	name := strings.TrimSpace(in.Name)
	unit := strings.TrimSpace(in.Unit)
	if name == "" || unit == "" {
		return nil, domain.ErrInvalidInput
	}
	if !validPrice(in.PricePerUnit) || !validGST(in.GSTPercentage) {
		return nil, domain.ErrInvalidInput
	}
	opening := decimal.Zero
	if in.OpeningStock != nil {
		opening = *in.OpeningStock
	}
	threshold := entity.DefaultLowStockThreshold
	if in.LowStockThreshold != nil {
		threshold = *in.LowStockThreshold
	}
	if !validStockAmount(opening) || !validStockAmount(threshold) {
		return nil, domain.ErrInvalidInput
	}
	now := uc.now()
	return &entity.Product{
		ID:                uuid.New().String(),
		Name:              name,
		NameKey:           entity.CanonicalName(name),
		Unit:              unit,
		OpeningStock:      opening,
		CurrentStock:      opening,
		LowStockThreshold: threshold,
		PricePerUnit:      in.PricePerUnit,
		GSTPercentage:     in.GSTPercentage,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Rangos de las columnas: stock NUMERIC(18,4), precio NUMERIC(18,2), GST NUMERIC(5,2).
func validStockAmount(v decimal.Decimal) bool {
	return !v.IsNegative() && inventory.WithinQuantityRange(v)
}

func validPrice(v decimal.Decimal) bool {
	return v.IsPositive() && inventory.FitsNumeric(v, 18, 2)
}

func validGST(v decimal.Decimal) bool {
	return !v.IsNegative() && inventory.FitsNumeric(v, 5, 2)
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:                p.ID,
		Name:              p.Name,
		Unit:              p.Unit,
		OpeningStock:      p.OpeningStock,
		CurrentStock:      p.CurrentStock,
		LowStockThreshold: p.LowStockThreshold,
		PricePerUnit:      p.PricePerUnit,
		GSTPercentage:     p.GSTPercentage,
		IsActive:          p.IsActive,
		Status:            string(inventory.EvaluateThreshold(p.CurrentStock, p.LowStockThreshold)),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}
