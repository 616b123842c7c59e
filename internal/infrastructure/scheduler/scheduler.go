// Package scheduler corre tareas periódicas del libro (auditoría de saldos).
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Reconciler lo implementa inventory.ReconcileUseCase.
type Reconciler interface {
	Reconcile(ctx context.Context) (*dto.ReconciliationReport, error)
}

// Scheduler envuelve robfig/cron: una ejecución a la vez por tarea y recuperación de panics.
type Scheduler struct {
	c   *cron.Cron
	log zerolog.Logger
}

// New crea el scheduler detenido.
func New(log zerolog.Logger) *Scheduler {
	cl := cronLogger{log: log}
	return &Scheduler{
		c:   cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		log: log,
	}
}

// AddReconcile registra la auditoría con una expresión cron estándar o descriptor (@every 1h, @daily).
func (s *Scheduler) AddReconcile(schedule string, r Reconciler, timeout time.Duration) error {
	if _, err := s.c.AddFunc(schedule, ReconcileJob(r, s.log, timeout)); err != nil {
		return fmt.Errorf("registrar tarea de conciliación %q: %w", schedule, err)
	}
	s.log.Info().Str("schedule", schedule).Msg("conciliación programada")
	return nil
}

// Start arranca en su propia goroutine.
func (s *Scheduler) Start() { s.c.Start() }

// Stop detiene el scheduler y espera a que terminen las tareas en curso (o a ctx).
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.c.Stop().Done():
	case <-ctx.Done():
	}
}

// ReconcileJob una corrida de auditoría; las diferencias ya se registran en el caso de uso.
func ReconcileJob(r Reconciler, log zerolog.Logger, timeout time.Duration) func() {
	return func() {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		start := time.Now()
		report, err := r.Reconcile(ctx)
		if err != nil {
			log.Error().Err(err).Msg("conciliación fallida")
			return
		}
		ev := log.Info()
		if len(report.Drifts) > 0 {
			ev = log.Error()
		}
		ev.Int("products_checked", report.ProductsChecked).
			Int("drifts", len(report.Drifts)).
			Dur("elapsed", time.Since(start)).
			Msg("conciliación terminada")
	}
}

// cronLogger adapta zerolog a cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
