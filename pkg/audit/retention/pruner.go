package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"janitor-hq/janitor/pkg/audit"
	"janitor-hq/janitor/pkg/schedule"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to keep records.
	// 0 keeps records forever.
	RetentionDays int

	// PruneSchedule is a cron expression, e.g. "0 3 * * *".
	// Empty disables scheduled pruning.
	PruneSchedule string

	// MaxRecords caps the number of stored records. 0 means unlimited.
	MaxRecords int64

	// Location is the timezone PruneSchedule is evaluated in.
	Location *time.Location
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 365,
		PruneSchedule: "0 3 * * *",
	}
}

// Pruner enforces retention on audit records.
type Pruner struct {
	storage   audit.Storage
	config    *Config
	now       func() time.Time
	logger    *slog.Logger
	scheduler *schedule.Scheduler
}

// NewPruner creates a new retention pruner.
func NewPruner(storage audit.Storage, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Pruner{
		storage: storage,
		config:  config,
		now:     time.Now,
		logger:  slog.Default().With("component", "audit.retention"),
	}
}

// Prune deletes records older than the retention period, then the oldest
// records beyond MaxRecords. It returns the total number deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.RetentionDays > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += deleted
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += deleted
	}

	if total == 0 {
		p.logger.Debug("no records pruned",
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	} else {
		p.logger.Info("audit pruning completed",
			"total_deleted", total,
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	}
	return total, nil
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)
	p.logger.Debug("pruning by age", "cutoff_time", cutoff)

	deleted, err := p.storage.Delete(ctx, &audit.Query{EndTime: &cutoff})
	if err != nil {
		return 0, audit.NewRetentionError(p.config.RetentionDays, err)
	}
	return deleted, nil
}

func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &audit.Query{})
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	if count <= p.config.MaxRecords {
		return 0, nil
	}

	excess := count - p.config.MaxRecords
	p.logger.Info("record count exceeds limit, pruning oldest",
		"current_count", count,
		"max_records", p.config.MaxRecords,
		"to_delete", excess,
	)

	oldest, err := p.storage.Query(ctx, &audit.Query{
		SortOrder: audit.SortAsc,
		Limit:     int(excess),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to query records: %w", err)
	}
	if len(oldest) == 0 {
		return 0, nil
	}

	ids := make([]string, len(oldest))
	for i, r := range oldest {
		ids[i] = r.ID
	}
	deleted, err := p.storage.Delete(ctx, &audit.Query{IDs: ids})
	if err != nil {
		return 0, fmt.Errorf("delete failed: %w", err)
	}
	return deleted, nil
}

// Start schedules pruning. It is a no-op when no schedule is configured or
// nothing would ever be pruned.
func (p *Pruner) Start(ctx context.Context) error {
	if p.config.PruneSchedule == "" || (p.config.RetentionDays <= 0 && p.config.MaxRecords <= 0) {
		p.logger.Info("audit pruning not scheduled")
		return nil
	}

	s, err := schedule.New("audit-prune", p.config.PruneSchedule, func(ctx context.Context) error {
		_, err := p.Prune(ctx)
		return err
	}, schedule.WithLocation(p.config.Location))
	if err != nil {
		return err
	}
	if err := s.Start(ctx); err != nil {
		return err
	}
	p.scheduler = s
	return nil
}

// Stop stops scheduled pruning.
func (p *Pruner) Stop() {
	if p.scheduler != nil {
		p.scheduler.Stop()
	}
}

// NextPruning returns the next scheduled pruning, or nil.
func (p *Pruner) NextPruning() *time.Time {
	if p.scheduler == nil {
		return nil
	}
	return p.scheduler.NextRun()
}
