package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultMaxAttempts = 3

// errBalanceConflict señala que el compare-and-set perdió contra otro escritor (se reintenta).
var errBalanceConflict = errors.New("saldo modificado por otro movimiento")

// LedgerOptions parámetros del motor.
type LedgerOptions struct {
	MaxAttempts  int           // intentos de commit ante conflicto (>= 1)
	RetryBackoff time.Duration // espera base entre intentos, crece linealmente (0 = sin espera)
	Logger       zerolog.Logger
	Clock        func() time.Time
}

// ApplyMovementUseCase es el motor del libro de stock: valida, calcula el nuevo saldo y confirma
// de forma atómica (compare-and-set del saldo + inserción del movimiento en la misma transacción).
type ApplyMovementUseCase struct {
	txRunner     TxRunner
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
	alerts       AlertPublisher
	log          zerolog.Logger
	maxAttempts  int
	backoff      time.Duration
	now          func() time.Time
}

// NewApplyMovementUseCase construye el motor. alerts puede ser nil.
func NewApplyMovementUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	alerts AlertPublisher,
	opts LedgerOptions,
) *ApplyMovementUseCase {
	uc := &ApplyMovementUseCase{
		txRunner:     txRunner,
		productRepo:  productRepo,
		movementRepo: movementRepo,
		alerts:       alerts,
		log:          opts.Logger,
		maxAttempts:  opts.MaxAttempts,
		backoff:      opts.RetryBackoff,
		now:          opts.Clock,
	}
	if uc.maxAttempts < 1 {
		uc.maxAttempts = defaultMaxAttempts
	}
	if uc.backoff < 0 {
		uc.backoff = 0
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	return uc
}

// MovementInputDTO entrada del motor. UserID es el actor (viene de la credencial de la petición).
type MovementInputDTO struct {
	ProductID      string
	Type           string
	Quantity       decimal.Decimal
	Reason         string
	UserID         string
	IdempotencyKey string
}

// MovementResult resultado de un movimiento confirmado.
type MovementResult struct {
	MovementID      string
	ProductID       string
	NewBalance      decimal.Decimal
	ThresholdStatus inventory.ThresholdStatus
	Replayed        bool
}

// ApplyMovement valida en orden (cantidad, motivo, tipo, producto activo, stock suficiente), calcula el saldo
// y confirma. Si otro escritor confirmó antes, vuelve a leer, re-valida y reintenta hasta MaxAttempts.
func (uc *ApplyMovementUseCase) ApplyMovement(ctx context.Context, in MovementInputDTO) (*MovementResult, error) {
	// La cantidad debe caber exacta en el almacenamiento (4 decimales); redondear rompería la conciliación.
	if !in.Quantity.IsPositive() || !inventory.WithinQuantityRange(in.Quantity) {
		return nil, domain.ErrInvalidQuantity
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, domain.ErrInvalidReason
	}
	if in.Type != entity.MovementTypeIN && in.Type != entity.MovementTypeOUT {
		return nil, domain.ErrInvalidMovementType
	}
	in.Reason = reason
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)

	if in.IdempotencyKey != "" {
		prev, err := uc.replay(ctx, in)
		if err != nil || prev != nil {
			return prev, err
		}
	}

	for attempt := 1; ; attempt++ {
		res, err := uc.attempt(ctx, in)
		switch {
		case err == nil:
			return res, nil
		case errors.Is(err, errBalanceConflict):
			if attempt >= uc.maxAttempts {
				uc.log.Warn().Str("product_id", in.ProductID).Int("attempts", attempt).Msg("conflicto de concurrencia: reintentos agotados")
				return nil, domain.ErrConcurrentConflict
			}
			uc.log.Debug().Str("product_id", in.ProductID).Int("attempt", attempt).Msg("conflicto de saldo, reintentando")
			if err := uc.wait(ctx, attempt); err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrConcurrentConflict, err)
			}
		case in.IdempotencyKey != "" && errors.Is(err, domain.ErrDuplicateMovement):
			// Otra petición con la misma clave confirmó primero.
			prev, rerr := uc.replay(ctx, in)
			if rerr != nil {
				return nil, rerr
			}
			if prev == nil {
				return nil, &domain.PersistenceError{Op: "leer movimiento idempotente", Err: err}
			}
			return prev, nil
		default:
			return nil, err
		}
	}
}

// attempt ejecuta una lectura + validación + commit. Devuelve errBalanceConflict si el CAS falla.
func (uc *ApplyMovementUseCase) attempt(ctx context.Context, in MovementInputDTO) (*MovementResult, error) {
	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "leer producto", Err: err}
	}
	if product == nil || !product.IsActive {
		return nil, domain.ErrProductNotFound
	}
	newBalance, err := inventory.ApplyDelta(product.CurrentStock, in.Type, in.Quantity)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	mov := &entity.StockMovement{
		ID:             uuid.New().String(),
		ProductID:      product.ID,
		MovementType:   in.Type,
		Quantity:       in.Quantity,
		BalanceAfter:   newBalance,
		Reason:         in.Reason,
		IdempotencyKey: in.IdempotencyKey,
		CreatedAt:      now,
		CreatedBy:      in.UserID,
	}

	// Saldo y movimiento en la misma transacción: ambos visibles o ninguno.
	err = uc.txRunner.Run(ctx, func(products repository.ProductRepository, movements repository.StockMovementRepository) error {
		ok, err := products.CompareAndSetBalance(ctx, product.ID, product.CurrentStock, newBalance)
		if err != nil {
			return err
		}
		if !ok {
			return errBalanceConflict
		}
		_, err = movements.Append(ctx, mov)
		return err
	})
	if err != nil {
		if errors.Is(err, errBalanceConflict) || errors.Is(err, domain.ErrDuplicateMovement) || errors.Is(err, domain.ErrInvalidQuantity) {
			return nil, err
		}
		uc.log.Error().Err(err).Str("product_id", product.ID).Str("movement_type", in.Type).Msg("commit de movimiento fallido")
		return nil, &domain.PersistenceError{Op: "confirmar movimiento", Err: err}
	}

	status := inventory.EvaluateThreshold(newBalance, product.LowStockThreshold)
	uc.log.Debug().
		Str("product_id", product.ID).
		Str("movement_id", mov.ID).
		Str("movement_type", in.Type).
		Str("quantity", in.Quantity.String()).
		Str("new_balance", newBalance.String()).
		Str("status", string(status)).
		Msg("movimiento registrado")

	prevStatus := inventory.EvaluateThreshold(product.CurrentStock, product.LowStockThreshold)
	if status.IsAlert() && status != prevStatus {
		uc.publish(ctx, StockAlert{
			ProductID:   product.ID,
			ProductName: product.Name,
			Unit:        product.Unit,
			Status:      status,
			Balance:     newBalance,
			Threshold:   product.LowStockThreshold,
			MovementID:  mov.ID,
			At:          now,
		})
	}

	return &MovementResult{
		MovementID:      mov.ID,
		ProductID:       product.ID,
		NewBalance:      newBalance,
		ThresholdStatus: status,
	}, nil
}

// replay devuelve el resultado original si la clave de idempotencia ya fue registrada, o (nil, nil).
func (uc *ApplyMovementUseCase) replay(ctx context.Context, in MovementInputDTO) (*MovementResult, error) {
	prev, err := uc.movementRepo.GetByIdempotencyKey(ctx, in.IdempotencyKey)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "leer movimiento idempotente", Err: err}
	}
	if prev == nil {
		return nil, nil
	}
	if prev.ProductID != in.ProductID || prev.MovementType != in.Type || !prev.Quantity.Equal(in.Quantity) {
		return nil, domain.ErrIdempotencyMismatch
	}
	threshold := entity.DefaultLowStockThreshold
	if product, err := uc.productRepo.GetByID(ctx, prev.ProductID); err == nil && product != nil {
		threshold = product.LowStockThreshold
	}
	return &MovementResult{
		MovementID:      prev.ID,
		ProductID:       prev.ProductID,
		NewBalance:      prev.BalanceAfter,
		ThresholdStatus: inventory.EvaluateThreshold(prev.BalanceAfter, threshold),
		Replayed:        true,
	}, nil
}

func (uc *ApplyMovementUseCase) wait(ctx context.Context, attempt int) error {
	if uc.backoff == 0 {
		return ctx.Err()
	}
	t := time.NewTimer(uc.backoff * time.Duration(attempt))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (uc *ApplyMovementUseCase) publish(ctx context.Context, alert StockAlert) {
	if uc.alerts == nil {
		return
	}
	if err := uc.alerts.Publish(ctx, alert); err != nil {
		uc.log.Warn().Err(err).Str("product_id", alert.ProductID).Msg("no se pudo publicar la alerta de stock")
	}
}
