package inventory

import (
	"fmt"
	"iter"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ApplyDelta calcula el saldo resultante de un movimiento (servicio de dominio).
// IN suma, OUT resta. Una salida mayor al saldo falla con *domain.InsufficientStockError;
// nunca se recorta la cantidad pedida. Un saldo que no cabe en NUMERIC(18,4) falla con ErrInvalidQuantity.
func ApplyDelta(balance decimal.Decimal, movementType string, quantity decimal.Decimal) (decimal.Decimal, error) {
	switch movementType {
	case entity.MovementTypeIN:
		next := balance.Add(quantity)
		if !WithinQuantityRange(next) {
			return balance, domain.ErrInvalidQuantity
		}
		return next, nil
	case entity.MovementTypeOUT:
		if balance.LessThan(quantity) {
			return balance, &domain.InsufficientStockError{Available: balance, Requested: quantity}
		}
		return balance.Sub(quantity), nil
	default:
		return balance, domain.ErrInvalidMovementType
	}
}

// Replay recalcula el saldo desde el stock inicial recorriendo el libro de movimientos.
// Devuelve el saldo y la cantidad de movimientos leídos.
// SaldoActual = StockInicial + Σ(IN) − Σ(OUT)
func Replay(opening decimal.Decimal, movements iter.Seq2[*entity.StockMovement, error]) (decimal.Decimal, int, error) {
	balance := opening
	n := 0
	for m, err := range movements {
		if err != nil {
			return balance, n, err
		}
		switch m.MovementType {
		case entity.MovementTypeIN:
			balance = balance.Add(m.Quantity)
		case entity.MovementTypeOUT:
			balance = balance.Sub(m.Quantity)
		default:
			return balance, n, fmt.Errorf("movimiento %s: %w", m.ID, domain.ErrInvalidMovementType)
		}
		n++
	}
	return balance, n, nil
}
