package escrow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"wedbook/internal/shared/config"
	"wedbook/pkg/logger"

	"github.com/go-co-op/gocron/v2"
)

// Jobs runs the auto-release and reconciliation loops on a gocron scheduler
type Jobs struct {
	scheduler  gocron.Scheduler
	ledger     *Ledger
	reconciler *Reconciler
	cfg        config.EscrowConfig
	log        *logger.Logger
	cancel     context.CancelFunc
}

func NewJobs(ledger *Ledger, reconciler *Reconciler, cfg config.EscrowConfig, log *logger.Logger) (*Jobs, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Jobs{
		scheduler:  s,
		ledger:     ledger,
		reconciler: reconciler,
		cfg:        cfg,
		log:        log.WithComponent("escrow-jobs"),
	}, nil
}

// Start registers both jobs and starts the scheduler
func (j *Jobs) Start(ctx context.Context) error {
	ctx, j.cancel = context.WithCancel(ctx)

	if _, err := j.scheduler.NewJob(
		gocron.DurationJob(j.cfg.AutoReleaseInterval),
		gocron.NewTask(j.runAutoRelease, ctx),
		gocron.WithName("escrow-auto-release"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return fmt.Errorf("failed to schedule auto release: %w", err)
	}

	if _, err := j.scheduler.NewJob(
		gocron.DurationJob(j.cfg.ReconcileInterval),
		gocron.NewTask(j.runReconcile, ctx),
		gocron.WithName("escrow-reconcile"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return fmt.Errorf("failed to schedule reconciliation: %w", err)
	}

	j.scheduler.Start()
	j.log.Info("escrow jobs started",
		slog.Duration("auto_release_interval", j.cfg.AutoReleaseInterval),
		slog.Duration("reconcile_interval", j.cfg.ReconcileInterval),
		slog.Int("jobs", len(j.scheduler.Jobs())))
	return nil
}

// Stop cancels running jobs and waits for the scheduler to shut down
func (j *Jobs) Stop() error {
	if j.cancel != nil {
		j.cancel()
	}
	if err := j.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop escrow jobs: %w", err)
	}
	j.log.Info("escrow jobs stopped")
	return nil
}

func (j *Jobs) runAutoRelease(ctx context.Context) {
	released, err := j.ledger.ReleaseDue(ctx, time.Now().UTC(), j.cfg.BatchSize)
	if err != nil {
		j.log.ErrorContext(ctx, "auto release run failed", slog.String("error", err.Error()))
		return
	}
	if released > 0 {
		j.log.InfoContext(ctx, "auto release run finished", slog.Int("released", released))
	}
}

func (j *Jobs) runReconcile(ctx context.Context) {
	resolved, err := j.reconciler.ReconcileOnce(ctx)
	if err != nil {
		j.log.ErrorContext(ctx, "reconciliation run failed", slog.String("error", err.Error()))
		return
	}
	if resolved > 0 {
		j.log.InfoContext(ctx, "reconciliation run finished", slog.Int("resolved", resolved))
	}
}
