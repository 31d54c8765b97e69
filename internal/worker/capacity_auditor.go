package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/Incognitol07/event-management-system-sub001/internal/metrics"
	"github.com/Incognitol07/event-management-system-sub001/internal/repository"
	"github.com/Incognitol07/event-management-system-sub001/pkg/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CapacityAuditorConfig contains configuration for the capacity auditor
type CapacityAuditorConfig struct {
	// Schedule is a standard cron expression or descriptor such as "@every 5m"
	Schedule string
	// HorizonDays bounds how far ahead resource dates are audited, 0 for no bound
	HorizonDays int
	// RunOnStart runs one audit immediately when the worker starts
	RunOnStart bool
}

// DefaultCapacityAuditorConfig returns default configuration
func DefaultCapacityAuditorConfig() *CapacityAuditorConfig {
	return &CapacityAuditorConfig{
		Schedule:    "@every 5m",
		HorizonDays: 180,
		RunOnStart:  true,
	}
}

// AuditReport is the result of one audit pass
type AuditReport struct {
	RanAt     time.Time
	Events    []repository.EventOvercommit
	Resources []repository.ResourceOvercommit
}

// Clean reports whether no over-commit was found
func (r *AuditReport) Clean() bool {
	return len(r.Events) == 0 && len(r.Resources) == 0
}

// CapacityAuditor periodically scans storage for events holding more
// ACCEPTED RSVPs than their capacity and for resources approved beyond
// their total count on a date. It reports, it never repairs.
type CapacityAuditor struct {
	repo    repository.AuditRepository
	config  *CapacityAuditorConfig
	log     *logger.Logger
	cron    *cron.Cron
	now     func() time.Time
	mu      sync.Mutex
	running bool

	// Stats
	totalRuns      int64
	totalFailures  int64
	lastRunTime    time.Time
	lastViolations int
}

// NewCapacityAuditor creates a new capacity auditor
func NewCapacityAuditor(repo repository.AuditRepository, config *CapacityAuditorConfig) *CapacityAuditor {
	if config == nil {
		config = DefaultCapacityAuditorConfig()
	}

	return &CapacityAuditor{
		repo:   repo,
		config: config,
		log:    logger.Get(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Start schedules the audit. The context bounds every run.
func (w *CapacityAuditor) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("capacity auditor already running")
	}

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(w.config.Schedule, func() {
		_, _ = w.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("invalid audit schedule %q: %w", w.config.Schedule, err)
	}

	w.cron = c
	w.running = true
	w.log.Info("Starting capacity auditor", zap.String("schedule", w.config.Schedule))

	if w.config.RunOnStart {
		go func() { _, _ = w.RunOnce(ctx) }()
	}
	c.Start()
	return nil
}

// Stop stops the scheduler and waits for a running audit to finish
func (w *CapacityAuditor) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	c := w.cron
	w.mu.Unlock()

	w.log.Info("Stopping capacity auditor")
	<-c.Stop().Done()
	w.log.Info("Capacity auditor stopped")
}

// RunOnce performs a single audit pass
func (w *CapacityAuditor) RunOnce(ctx context.Context) (*AuditReport, error) {
	report := &AuditReport{RanAt: w.now()}

	events, err := w.repo.FindOvercommittedEvents(ctx)
	if err != nil {
		w.fail(err)
		return nil, err
	}

	today := domain.DateOf(report.RanAt)
	resources, err := w.repo.FindOvercommittedResources(ctx, today)
	if err != nil {
		w.fail(err)
		return nil, err
	}
	if w.config.HorizonDays > 0 {
		limit := today.AddDate(0, 0, w.config.HorizonDays)
		kept := resources[:0]
		for _, r := range resources {
			if !r.Date.After(limit) {
				kept = append(kept, r)
			}
		}
		resources = kept
	}

	report.Events = events
	report.Resources = resources

	for _, e := range events {
		w.log.Warn("Event over capacity",
			zap.String("event_id", e.EventID),
			zap.Int("capacity", e.Capacity),
			zap.Int("accepted", e.Accepted),
		)
	}
	for _, r := range resources {
		w.log.Warn("Resource over-allocated",
			zap.String("resource_id", r.ResourceID),
			zap.String("date", domain.FormatDate(r.Date)),
			zap.Int("total_count", r.TotalCount),
			zap.Int("allocated", r.Allocated),
		)
	}

	metrics.RecordAudit(len(events), len(resources), nil)

	w.mu.Lock()
	w.totalRuns++
	w.lastRunTime = report.RanAt
	w.lastViolations = len(events) + len(resources)
	w.mu.Unlock()

	if report.Clean() {
		w.log.Debug("Capacity audit clean")
	} else {
		w.log.Info("Capacity audit found violations",
			zap.Int("events", len(events)),
			zap.Int("resources", len(resources)),
		)
	}
	return report, nil
}

func (w *CapacityAuditor) fail(err error) {
	metrics.RecordAudit(0, 0, err)
	w.log.Error("Capacity audit failed", zap.Error(err))

	w.mu.Lock()
	w.totalRuns++
	w.totalFailures++
	w.mu.Unlock()
}

// GetStats returns worker statistics
func (w *CapacityAuditor) GetStats() *CapacityAuditorStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return &CapacityAuditorStats{
		IsRunning:      w.running,
		TotalRuns:      w.totalRuns,
		TotalFailures:  w.totalFailures,
		LastRunTime:    w.lastRunTime,
		LastViolations: w.lastViolations,
	}
}

// CapacityAuditorStats contains worker statistics
type CapacityAuditorStats struct {
	IsRunning      bool      `json:"is_running"`
	TotalRuns      int64     `json:"total_runs"`
	TotalFailures  int64     `json:"total_failures"`
	LastRunTime    time.Time `json:"last_run_time"`
	LastViolations int       `json:"last_violations"`
}
