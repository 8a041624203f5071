package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/skillacademy/backend/internal/models"
	"github.com/skillacademy/backend/internal/repositories"
	"go.uber.org/zap"
)

// Transactor runs a unit of work atomically
type Transactor interface {
	// WithinTx executes fn inside a transaction. Repository calls made with the context
	// passed to fn join the transaction. A non-nil error from fn rolls everything back.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PaymentRepository defines methods for payment data access
type PaymentRepository interface {
	// Create inserts a payment
	//
	// "ctx" is the context for the request.
	// "payment" is the payment to insert.
	//
	// Returns repositories.ErrDuplicate if a payment with the same reference exists, or another error if any.
	Create(ctx context.Context, payment *models.Payment) error
	// GetByReference retrieves a payment by its provider reference
	//
	// Returns repositories.ErrNotFound if there is none.
	GetByReference(ctx context.Context, reference string) (*models.Payment, error)
}

// EnrollmentRepository defines methods for enrollment data access
type EnrollmentRepository interface {
	// Create inserts an enrollment
	//
	// "ctx" is the context for the request.
	// "enrollment" is the enrollment to insert.
	//
	// Returns repositories.ErrDuplicate if the user is already enrolled, or another error if any.
	Create(ctx context.Context, enrollment *models.Enrollment) error
	// Exists checks whether a user is enrolled in a course
	Exists(ctx context.Context, userID, courseID string) (bool, error)
	// GetByUserAndCourse retrieves an enrollment without locking it
	//
	// Returns repositories.ErrNotFound if the user is not enrolled.
	GetByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	// GetForUpdate retrieves an enrollment and locks it until the surrounding transaction ends
	//
	// Returns repositories.ErrNotFound if the user is not enrolled.
	GetForUpdate(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	// UpdateProgress persists progress percentage, module progress and completion of an enrollment
	UpdateProgress(ctx context.Context, enrollment *models.Enrollment) error
}

// CourseRepository defines methods for course data access
type CourseRepository interface {
	// GetByID retrieves a course
	//
	// Returns repositories.ErrNotFound if there is none.
	GetByID(ctx context.Context, id string) (*models.Course, error)
	// GetStructure retrieves the current ordered modules and lessons of a course
	GetStructure(ctx context.Context, courseID string) (*models.CourseStructure, error)
	// GetLessonLocation resolves the module and course of a lesson
	//
	// Returns repositories.ErrNotFound if the lesson does not exist.
	GetLessonLocation(ctx context.Context, lessonID string) (*models.LessonLocation, error)
	// IncrementStudentsCount adds one to the denormalized student counter
	IncrementStudentsCount(ctx context.Context, courseID string) error
	// RecountStudents rewrites drifted student counters and returns how many courses changed
	RecountStudents(ctx context.Context) (int, error)
}

// UserRepository defines methods for user data access
type UserRepository interface {
	// GetByID retrieves a user
	//
	// Returns repositories.ErrNotFound if there is none.
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ChargeDelivery is a verified charge together with how it reached us
type ChargeDelivery struct {
	Source    models.EventSource
	EventType string
	Charge    models.VerifiedCharge
	// Payload is stored in the audit log as-is; it must be valid JSON or empty
	Payload json.RawMessage
}

type reconciliationService struct {
	tx             Transactor
	paymentRepo    PaymentRepository
	enrollmentRepo EnrollmentRepository
	courseRepo     CourseRepository
	userRepo       UserRepository
	audit          *auditLog
	provider       string
	logger         *zap.Logger
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	tx Transactor,
	paymentRepo PaymentRepository,
	enrollmentRepo EnrollmentRepository,
	courseRepo CourseRepository,
	userRepo UserRepository,
	eventRepo WebhookEventRepository,
	provider string,
	logger *zap.Logger,
) *reconciliationService {
	return &reconciliationService{
		tx:             tx,
		paymentRepo:    paymentRepo,
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		userRepo:       userRepo,
		audit:          newAuditLog(eventRepo, provider, logger),
		provider:       provider,
		logger:         logger,
	}
}

// Reconcile turns a verified charge into at most one payment and one enrollment.
//
// Duplicate deliveries and rejected charges are reported through the result, not as errors.
// The only error is ErrStoreUnavailable, in which case nothing was written and the delivery
// must be retried. Every call leaves one audit record, written after the transaction.
func (s *reconciliationService) Reconcile(ctx context.Context, delivery ChargeDelivery) (models.ReconcileResult, error) {
	charge := delivery.Charge
	result := models.ReconcileResult{
		Reference: charge.Reference,
		UserID:    charge.Metadata.UserID,
		CourseID:  charge.Metadata.CourseID,
	}

	result, err := s.apply(ctx, charge, result)
	s.audit.record(ctx, &models.WebhookEvent{
		Provider:  s.provider,
		EventType: delivery.EventType,
		Source:    delivery.Source,
		Reference: charge.Reference,
		Outcome:   result.Outcome,
		Reason:    result.Reason,
		Payload:   delivery.Payload,
	})

	fields := []zap.Field{
		zap.String("reference", result.Reference),
		zap.String("source", string(delivery.Source)),
		zap.String("outcome", string(result.Outcome)),
		zap.String("reason", string(result.Reason)),
	}
	switch {
	case err != nil:
		s.logger.Error("charge reconciliation failed", append(fields, zap.Error(err))...)
	case result.Outcome == models.OutcomeApplied:
		s.logger.Info("charge reconciled", append(fields, zap.String("enrollment_id", result.EnrollmentID))...)
	default:
		s.logger.Info("charge not applied", fields...)
	}

	return result, err
}

func (s *reconciliationService) apply(ctx context.Context, charge models.VerifiedCharge, result models.ReconcileResult) (models.ReconcileResult, error) {
	if !charge.IsSuccessful() {
		return rejected(result, models.ReasonChargeNotSuccessful), nil
	}
	if charge.Reference == "" {
		return rejected(result, models.ReasonMalformedPayload), nil
	}
	if result.UserID == "" || result.CourseID == "" {
		return rejected(result, models.ReasonInvalidMetadata), nil
	}

	// Identifiers that do not resolve are a data quality problem, not a retryable one
	if err := s.checkReferences(ctx, result.UserID, result.CourseID); err != nil {
		if errors.Is(err, ErrInvalidMetadata) {
			return rejected(result, models.ReasonInvalidMetadata), nil
		}
		return rejected(result, models.ReasonStoreUnavailable), err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		payment := &models.Payment{
			Reference: charge.Reference,
			Amount:    charge.Amount,
			Currency:  charge.Currency,
			Status:    models.PaymentStatusSuccess,
			Provider:  s.provider,
			UserID:    result.UserID,
			CourseID:  result.CourseID,
			Metadata:  charge.RawMetadata,
			PaidAt:    charge.PaidAt,
		}
		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				result = duplicate(result, models.ReasonDuplicateReference)
				return nil
			}
			return fmt.Errorf("failed to record payment: %w", err)
		}

		exists, err := s.enrollmentRepo.Exists(ctx, result.UserID, result.CourseID)
		if err != nil {
			return fmt.Errorf("failed to check enrollment: %w", err)
		}
		if exists {
			result = duplicate(result, models.ReasonAlreadyEnrolled)
			return nil
		}

		reference := charge.Reference
		enrollment := &models.Enrollment{
			UserID:         result.UserID,
			CourseID:       result.CourseID,
			ModuleProgress: models.ModuleProgress{},
			PaymentRef:     &reference,
		}
		if err := s.enrollmentRepo.Create(ctx, enrollment); err != nil {
			// Lost the race against another delivery path for the same pair
			if errors.Is(err, repositories.ErrDuplicate) {
				result = duplicate(result, models.ReasonAlreadyEnrolled)
				return nil
			}
			return fmt.Errorf("failed to create enrollment: %w", err)
		}

		if err := s.courseRepo.IncrementStudentsCount(ctx, result.CourseID); err != nil {
			return fmt.Errorf("failed to increment students count: %w", err)
		}

		result.Outcome = models.OutcomeApplied
		result.Reason = models.ReasonApplied
		result.EnrollmentID = enrollment.ID
		return nil
	})
	if err != nil {
		result.EnrollmentID = ""
		return rejected(result, models.ReasonStoreUnavailable), fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return result, nil
}

func (s *reconciliationService) checkReferences(ctx context.Context, userID, courseID string) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: unknown user %s", ErrInvalidMetadata, userID)
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: unknown course %s", ErrInvalidMetadata, courseID)
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

func rejected(result models.ReconcileResult, reason models.ReasonCode) models.ReconcileResult {
	result.Outcome = models.OutcomeRejected
	result.Reason = reason
	return result
}

func duplicate(result models.ReconcileResult, reason models.ReasonCode) models.ReconcileResult {
	result.Outcome = models.OutcomeDuplicate
	result.Reason = reason
	return result
}
