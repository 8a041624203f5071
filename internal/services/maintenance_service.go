package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skillacademy/backend/internal/models"
	"go.uber.org/zap"
)

// ChargeReplayer re-verifies and reconciles a single charge reference
type ChargeReplayer interface {
	ReplayCharge(ctx context.Context, reference string) (models.ReconcileResult, error)
}

// ReplaySummary reports the outcome of one replay run
type ReplaySummary struct {
	Candidates int `json:"candidates"`
	Applied    int `json:"applied"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
	Failed     int `json:"failed"`
}

type maintenanceService struct {
	courseRepo CourseRepository
	eventRepo  WebhookEventRepository
	replayer   ChargeReplayer
	logger     *zap.Logger
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(courseRepo CourseRepository, eventRepo WebhookEventRepository, replayer ChargeReplayer, logger *zap.Logger) *maintenanceService {
	return &maintenanceService{
		courseRepo: courseRepo,
		eventRepo:  eventRepo,
		replayer:   replayer,
		logger:     logger,
	}
}

// RecountStudents repairs drifted student counters from the enrollments table
func (s *maintenanceService) RecountStudents(ctx context.Context) (int, error) {
	corrected, err := s.courseRepo.RecountStudents(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.logger.Info("students count recounted", zap.Int("corrected_courses", corrected))
	return corrected, nil
}

// ReplayFailedDeliveries re-verifies charges whose delivery hit a store outage and that
// were never applied. A failing reference does not stop the run.
func (s *maintenanceService) ReplayFailedDeliveries(ctx context.Context, since time.Time, limit int) (*ReplaySummary, error) {
	references, err := s.eventRepo.ListUnappliedReferences(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	summary := &ReplaySummary{Candidates: len(references)}
	for _, reference := range references {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result, err := s.replayer.ReplayCharge(ctx, reference)
		if err != nil {
			summary.Failed++
			s.logger.Warn("replay failed", zap.String("reference", reference), zap.Error(err))
			if errors.Is(err, ErrStoreUnavailable) {
				// The store is still down; later references would fail the same way
				break
			}
			continue
		}

		switch result.Outcome {
		case models.OutcomeApplied:
			summary.Applied++
		case models.OutcomeDuplicate:
			summary.Duplicates++
		default:
			summary.Rejected++
		}
	}

	s.logger.Info("failed deliveries replayed",
		zap.Int("candidates", summary.Candidates),
		zap.Int("applied", summary.Applied),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("rejected", summary.Rejected),
		zap.Int("failed", summary.Failed),
	)

	return summary, nil
}
