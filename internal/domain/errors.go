package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio.
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
)

// Errores del libro de stock. Los de entrada se resuelven en el caller (volver a pedir datos);
// los de dominio se reportan tal cual; conflicto y persistencia indican reintentar la operación completa.
var (
	ErrInvalidQuantity     = errors.New("la cantidad debe ser un número positivo")
	ErrInvalidReason       = errors.New("el motivo del movimiento es obligatorio")
	ErrInvalidMovementType = errors.New("tipo de movimiento inválido (IN u OUT)")
	ErrProductNotFound     = errors.New("producto no encontrado o inactivo")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrConcurrentConflict  = errors.New("el saldo cambió durante el registro; reintente la operación")
	ErrPersistence         = errors.New("no se pudo confirmar el movimiento en el almacenamiento")
	ErrDuplicateMovement   = errors.New("ya existe un movimiento con esa clave de idempotencia")
	ErrIdempotencyMismatch = errors.New("la clave de idempotencia ya se usó con un movimiento distinto")
)

// InsufficientStockError lleva la cantidad disponible para mostrarla al usuario.
type InsufficientStockError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: disponible %s, solicitado %s", e.Available, e.Requested)
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// PersistenceError envuelve un fallo del almacenamiento durante el commit atómico.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistencia (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrPersistence).
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
