package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/callisto/pkg/config"
)

// Pruner deletes audit records on a cron schedule. Pruning happens in two
// phases: age-based (rows older than RetentionDays) and count-based (oldest
// rows beyond MaxRecords).
type Pruner struct {
	sink   *SQLiteSink
	cfg    config.AuditConfig
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewPruner creates a retention pruner over the sink's database.
func NewPruner(sink *SQLiteSink, cfg config.AuditConfig) *Pruner {
	return &Pruner{
		sink:   sink,
		cfg:    cfg,
		cron:   cron.New(),
		logger: slog.Default().With("component", "audit.retention"),
	}
}

// Start schedules pruning according to the configured cron expression.
// An empty schedule disables the scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cfg.PruneSchedule == "" {
		p.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(p.cfg.PruneSchedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", p.cfg.PruneSchedule, err)
	}

	if _, err := p.cron.AddFunc(p.cfg.PruneSchedule, func() {
		deleted, err := p.Prune(ctx)
		if err != nil {
			p.logger.Error("scheduled pruning failed", "error", err)
			return
		}
		if deleted > 0 {
			p.logger.Info("scheduled pruning completed", "deleted_count", deleted)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	p.cron.Start()
	p.running = true

	p.logger.Info("retention scheduler started",
		"schedule", p.cfg.PruneSchedule,
		"retention_days", p.cfg.RetentionDays,
		"max_records", p.cfg.MaxRecords,
	)

	go func() {
		<-ctx.Done()
		p.Stop()
	}()

	return nil
}

// Prune runs one pruning cycle and returns the number of deleted rows.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.cfg.RetentionDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -p.cfg.RetentionDays)
		res, err := p.sink.db.ExecContext(ctx,
			"DELETE FROM outcomes WHERE recorded_at < ?", cutoff)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		deleted, _ := res.RowsAffected()
		total += deleted
	}

	if p.cfg.MaxRecords > 0 {
		res, err := p.sink.db.ExecContext(ctx, `
			DELETE FROM outcomes WHERE id IN (
				SELECT id FROM outcomes
				ORDER BY recorded_at DESC
				LIMIT -1 OFFSET ?
			)`, p.cfg.MaxRecords)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		deleted, _ := res.RowsAffected()
		total += deleted
	}

	return total, nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (p *Pruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		ctx := p.cron.Stop()
		<-ctx.Done()
		p.running = false
		p.logger.Info("retention scheduler stopped")
	}
}

// NextRun returns the next scheduled pruning time, or nil when the
// scheduler is not running.
func (p *Pruner) NextRun() *time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := p.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
