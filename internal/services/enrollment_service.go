package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/skillacademy/backend/internal/models"
	"github.com/skillacademy/backend/internal/repositories"
	"go.uber.org/zap"
)

type enrollmentService struct {
	tx             Transactor
	courseRepo     CourseRepository
	enrollmentRepo EnrollmentRepository
	logger         *zap.Logger
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(tx Transactor, courseRepo CourseRepository, enrollmentRepo EnrollmentRepository, logger *zap.Logger) *enrollmentService {
	return &enrollmentService{
		tx:             tx,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		logger:         logger,
	}
}

// EnrollFree enrolls a user in a free published course.
// It is idempotent: an existing enrollment is returned with created=false.
func (s *enrollmentService) EnrollFree(ctx context.Context, userID, courseID string) (*models.Enrollment, bool, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, false, ErrCourseNotFound
		}
		return nil, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !course.IsPublished {
		return nil, false, ErrCourseNotFound
	}
	if !course.IsFree() {
		return nil, false, ErrPaymentRequired
	}

	var enrollment *models.Enrollment
	created := false
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.enrollmentRepo.GetByUserAndCourse(ctx, userID, courseID)
		if err == nil {
			enrollment = existing
			return nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}

		enrollment = &models.Enrollment{
			UserID:         userID,
			CourseID:       courseID,
			ModuleProgress: models.ModuleProgress{},
		}
		if err := s.enrollmentRepo.Create(ctx, enrollment); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				enrollment, err = s.enrollmentRepo.GetByUserAndCourse(ctx, userID, courseID)
				return err
			}
			return err
		}

		if err := s.courseRepo.IncrementStudentsCount(ctx, courseID); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if created {
		s.logger.Info("free enrollment created", zap.String("user_id", userID), zap.String("course_id", courseID))
	}

	return enrollment, created, nil
}
