package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/skillacademy/backend/internal/services"
	"go.uber.org/zap"
)

// MaintenanceService is the interface that wraps the ledger repair operations run by the worker
type MaintenanceService interface {
	// RecountStudents rewrites drifted course student counters
	//
	// Returns the number of corrected courses and an error if any.
	RecountStudents(ctx context.Context) (int, error)
	// ReplayFailedDeliveries re-verifies unapplied charges recorded with a store outage
	//
	// "since" bounds how far back failed deliveries are considered.
	// "limit" is the maximum number of references processed.
	ReplayFailedDeliveries(ctx context.Context, since time.Time, limit int) (*services.ReplaySummary, error)
}

// Processor handles maintenance tasks
type Processor struct {
	service MaintenanceService
	logger  *zap.Logger
	now     func() time.Time
}

// NewProcessor creates a new task processor
func NewProcessor(service MaintenanceService, logger *zap.Logger) *Processor {
	return &Processor{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

// Register registers every maintenance task handler on the mux
func (p *Processor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeRecountStudents, p.HandleRecount)
	mux.HandleFunc(TypeReplayDeliveries, p.HandleReplay)
}

// HandleRecount processes a students:recount task
func (p *Processor) HandleRecount(ctx context.Context, t *asynq.Task) error {
	corrected, err := p.service.RecountStudents(ctx)
	if err != nil {
		p.logger.Error("Student recount failed", zap.Error(err))
		return fmt.Errorf("failed to recount students: %w", err)
	}

	p.logger.Info("Student recount finished", zap.Int("corrected_courses", corrected))
	return nil
}

// HandleReplay processes a deliveries:replay task.
// A payload that cannot be decoded is never retried.
func (p *Processor) HandleReplay(ctx context.Context, t *asynq.Task) error {
	payload, err := ParseReplayPayload(t.Payload())
	if err != nil {
		p.logger.Error("Dropping replay task", zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	since := p.now().Add(-payload.Window())
	summary, err := p.service.ReplayFailedDeliveries(ctx, since, payload.MaxReferences())
	if err != nil {
		p.logger.Error("Delivery replay failed", zap.Error(err))
		return fmt.Errorf("failed to replay deliveries: %w", err)
	}

	p.logger.Info("Delivery replay finished",
		zap.Time("since", since),
		zap.Int("candidates", summary.Candidates),
		zap.Int("applied", summary.Applied),
		zap.Int("failed", summary.Failed),
	)
	return nil
}
