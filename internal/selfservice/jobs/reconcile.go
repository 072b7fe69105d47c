package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

type Reconciler interface {
	ReconcileOrphans(ctx context.Context) error
}

// ReconcileJob periodically re-persists package records for shipping orders
// that were created downstream but never landed in local storage.
type ReconcileJob struct {
	logger   *slog.Logger
	svc      Reconciler
	cron     *cron.Cron
	schedule string
}

func NewReconcileJob(logger *slog.Logger, svc Reconciler, schedule string) *ReconcileJob {
	return &ReconcileJob{
		logger:   logger.With(slog.String("job", "reconcile_orphans")),
		svc:      svc,
		cron:     cron.New(),
		schedule: schedule,
	}
}

func (j *ReconcileJob) Start(ctx context.Context) error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		if err := j.svc.ReconcileOrphans(ctx); err != nil {
			j.logger.ErrorContext(ctx, "orphan reconciliation failed", slog.Any("error", err))
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("orphan reconciliation job started", slog.String("schedule", j.schedule))
	return nil
}

func (j *ReconcileJob) Stop() {
	j.cron.Stop()
	j.logger.Info("orphan reconciliation job stopped")
}
