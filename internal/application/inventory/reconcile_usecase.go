package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/rs/zerolog"
)

// ReconcileUseCase audita el libro: recalcula cada saldo desde opening_stock y reporta diferencias.
// Solo detecta; no corrige current_stock (la única ruta de escritura del saldo es el motor).
type ReconcileUseCase struct {
	txRunner TxRunner
	log      zerolog.Logger
	now      func() time.Time
}

// NewReconcileUseCase construye el caso de uso.
func NewReconcileUseCase(txRunner TxRunner, log zerolog.Logger) *ReconcileUseCase {
	return &ReconcileUseCase{txRunner: txRunner, log: log, now: time.Now}
}

// Reconcile corre sobre una instantánea de solo lectura, así saldo y libro se leen en el mismo punto.
func (uc *ReconcileUseCase) Reconcile(ctx context.Context) (*dto.ReconciliationReport, error) {
	report := &dto.ReconciliationReport{
		CheckedAt: uc.now().UTC(),
		Drifts:    []dto.ProductDriftDTO{},
	}
	err := uc.txRunner.RunReadOnly(ctx, func(products repository.ProductRepository, movements repository.StockMovementRepository) error {
		// Primero se materializa la lista: en Postgres no se puede consultar con filas abiertas en la misma tx.
		var list []*entity.Product
		for p, err := range products.ListActive(ctx) {
			if err != nil {
				return err
			}
			list = append(list, p)
		}
		for _, p := range list {
			balance, n, err := inventory.Replay(p.OpeningStock, movements.ListByProduct(ctx, p.ID, false))
			if err != nil {
				return fmt.Errorf("replay %s: %w", p.ID, err)
			}
			report.ProductsChecked++
			if balance.Equal(p.CurrentStock) {
				continue
			}
			report.Drifts = append(report.Drifts, dto.ProductDriftDTO{
				ProductID:     p.ID,
				Name:          p.Name,
				OpeningStock:  p.OpeningStock,
				StoredBalance: p.CurrentStock,
				LedgerBalance: balance,
				Difference:    p.CurrentStock.Sub(balance),
				MovementCount: n,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, d := range report.Drifts {
		uc.log.Error().
			Str("product_id", d.ProductID).
			Str("stored", d.StoredBalance.String()).
			Str("ledger", d.LedgerBalance.String()).
			Msg("saldo desalineado con el libro de movimientos")
	}
	return report, nil
}
