package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skillacademy/backend/internal/models"
	"github.com/skillacademy/backend/internal/repositories"
	"go.uber.org/zap"
)

// LessonCompletionRepository defines methods for lesson completion data access
type LessonCompletionRepository interface {
	// Upsert records a completion or refreshes the timestamp of an existing one
	//
	// "ctx" is the context for the request.
	// "completion" is the completion fact to store.
	//
	// Returns an error if any.
	Upsert(ctx context.Context, completion *models.LessonCompletion) error
}

type progressService struct {
	tx             Transactor
	courseRepo     CourseRepository
	enrollmentRepo EnrollmentRepository
	completionRepo LessonCompletionRepository
	logger         *zap.Logger
	now            func() time.Time
}

// NewProgressService creates a new progress service
func NewProgressService(
	tx Transactor,
	courseRepo CourseRepository,
	enrollmentRepo EnrollmentRepository,
	completionRepo LessonCompletionRepository,
	logger *zap.Logger,
) *progressService {
	return &progressService{
		tx:             tx,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		completionRepo: completionRepo,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// GetProgress returns the stored course progress of an enrollment
func (s *progressService) GetProgress(ctx context.Context, userID, courseID string) (*models.Progress, error) {
	enrollment, err := s.enrollmentRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return enrollment.ToProgress(), nil
}

// UpdateModuleProgress merges one lesson percentage into the enrollment and recomputes
// the course percentage over every lesson the course has now.
func (s *progressService) UpdateModuleProgress(ctx context.Context, userID, courseID, moduleID, lessonID string, percentage float64) (*models.Progress, error) {
	if !models.ValidPercentage(percentage) {
		return nil, ErrInvalidPercentage
	}

	var progress *models.Progress
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		enrollment, err := s.lockEnrollment(ctx, userID, courseID)
		if err != nil {
			return err
		}

		structure, err := s.courseRepo.GetStructure(ctx, courseID)
		if err != nil {
			return fmt.Errorf("failed to get course structure: %w", err)
		}
		if !structure.HasLesson(moduleID, lessonID) {
			return ErrLessonNotFound
		}

		if err := s.apply(ctx, enrollment, structure, moduleID, lessonID, percentage); err != nil {
			return err
		}
		progress = enrollment.ToProgress()
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	return progress, nil
}

// RecordLessonCompletion stores a completion fact and counts the lesson as fully done
// in the enrollment progress. Completing the same lesson again only refreshes its timestamp.
func (s *progressService) RecordLessonCompletion(ctx context.Context, userID, lessonID string) (*models.CompletionResult, error) {
	location, err := s.courseRepo.GetLessonLocation(ctx, lessonID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var result *models.CompletionResult
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		enrollment, err := s.lockEnrollment(ctx, userID, location.CourseID)
		if err != nil {
			return err
		}

		if err := s.completionRepo.Upsert(ctx, &models.LessonCompletion{
			UserID:      userID,
			LessonID:    lessonID,
			CourseID:    location.CourseID,
			CompletedAt: s.now(),
		}); err != nil {
			return err
		}

		structure, err := s.courseRepo.GetStructure(ctx, location.CourseID)
		if err != nil {
			return fmt.Errorf("failed to get course structure: %w", err)
		}

		if err := s.apply(ctx, enrollment, structure, location.ModuleID, lessonID, models.CompletionThreshold); err != nil {
			return err
		}

		result = &models.CompletionResult{
			CourseID:           location.CourseID,
			LessonID:           lessonID,
			ProgressPercentage: enrollment.ProgressPercentage,
			Completed:          enrollment.Completed,
			CompletedAt:        enrollment.CompletedAt,
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	return result, nil
}

// lockEnrollment loads the enrollment row and holds its lock for the rest of the transaction
func (s *progressService) lockEnrollment(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	enrollment, err := s.enrollmentRepo.GetForUpdate(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}
	if enrollment.ModuleProgress == nil {
		enrollment.ModuleProgress = models.ModuleProgress{}
	}
	return enrollment, nil
}

func (s *progressService) apply(ctx context.Context, enrollment *models.Enrollment, structure *models.CourseStructure, moduleID, lessonID string, percentage float64) error {
	wasCompleted := enrollment.Completed

	enrollment.ModuleProgress.Set(moduleID, lessonID, percentage)
	enrollment.Recalculate(structure, s.now())

	if err := s.enrollmentRepo.UpdateProgress(ctx, enrollment); err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}

	if enrollment.Completed && !wasCompleted {
		s.logger.Info("course completed",
			zap.String("user_id", enrollment.UserID),
			zap.String("course_id", enrollment.CourseID),
		)
	}
	return nil
}

// storeError passes domain errors through and classifies everything else as a store failure
func storeError(err error) error {
	switch {
	case errors.Is(err, ErrNotEnrolled), errors.Is(err, ErrLessonNotFound), errors.Is(err, ErrInvalidPercentage):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
