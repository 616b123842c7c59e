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
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const (
	movementColumns     = `id, product_id, movement_type, quantity, balance_after, reason, idempotency_key, created_at, created_by`
	idempotencyKeyIndex = "ux_stock_movements_idempotency_key"
)

// StockMovementRepo libro de movimientos sobre PostgreSQL (solo INSERT; un trigger rechaza UPDATE/DELETE).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

func scanMovement(row pgx.Row, withName bool) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var key *string
	dest := []any{&m.ID, &m.ProductID, &m.MovementType, &m.Quantity, &m.BalanceAfter, &m.Reason, &key, &m.CreatedAt, &m.CreatedBy}
	if withName {
		dest = append(dest, &m.ProductName)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if key != nil {
		m.IdempotencyKey = *key
	}
	return &m, nil
}

// Append inserta el movimiento. Una clave de idempotencia repetida devuelve domain.ErrDuplicateMovement.
func (r *StockMovementRepo) Append(ctx context.Context, movement *entity.StockMovement) (string, error) {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	if !ledger.WithinQuantityRange(movement.Quantity) || !ledger.WithinQuantityRange(movement.BalanceAfter) {
		// NUMERIC(18,4) redondearía en silencio.
		return "", domain.ErrInvalidQuantity
	}
	var key *string
	if movement.IdempotencyKey != "" {
		key = &movement.IdempotencyKey
	}
	query := `INSERT INTO stock_movements (` + movementColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		movement.ID, movement.ProductID, movement.MovementType, movement.Quantity, movement.BalanceAfter,
		movement.Reason, key, movement.CreatedAt, movement.CreatedBy,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err) && violatedConstraint(err) == idempotencyKeyIndex:
			return "", domain.ErrDuplicateMovement
		case isForeignKeyViolation(err):
			return "", fmt.Errorf("movimiento sobre producto %s: %w", movement.ProductID, domain.ErrNotFound)
		}
		return "", fmt.Errorf("append stock movement: %w", err)
	}
	return movement.ID, nil
}

// GetByIdempotencyKey devuelve (nil, nil) si la clave no existe.
func (r *StockMovementRepo) GetByIdempotencyKey(ctx context.Context, key string) (*entity.StockMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE idempotency_key = $1`, key), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement by idempotency key: %w", err)
	}
	return m, nil
}

// ListByProduct orden por (created_at, seq); seq desempata movimientos del mismo instante.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID string, newestFirst bool) iter.Seq2[*entity.StockMovement, error] {
	order := "created_at ASC, seq ASC"
	if newestFirst {
		order = "created_at DESC, seq DESC"
	}
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE product_id = $1 ORDER BY ` + order
	return func(yield func(*entity.StockMovement, error) bool) {
		rows, err := r.q.Query(ctx, query, productID)
		if err != nil {
			yield(nil, fmt.Errorf("list movements: %w", err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			m, err := scanMovement(rows, false)
			if err != nil {
				yield(nil, fmt.Errorf("scan movement: %w", err))
				return
			}
			if !yield(m, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("list movements: %w", err))
		}
	}
}

// ListRecent últimos movimientos de todos los productos, con el nombre del producto.
func (r *StockMovementRepo) ListRecent(ctx context.Context, limit int) ([]*entity.StockMovement, error) {
	query := `
		SELECT m.id, m.product_id, m.movement_type, m.quantity, m.balance_after, m.reason, m.idempotency_key,
			m.created_at, m.created_by, p.name
		FROM stock_movements m
		JOIN products p ON p.id = m.product_id
		ORDER BY m.created_at DESC, m.seq DESC
		LIMIT $1`
	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent movements: %w", err)
	}
	defer rows.Close()
	list := []*entity.StockMovement{}
	for rows.Next() {
		m, err := scanMovement(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
