package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/skillacademy/backend/internal/gateway"
	"github.com/skillacademy/backend/internal/models"
	"github.com/skillacademy/backend/internal/repositories"
	"go.uber.org/zap"
)

// PaymentGateway is the provider client used by the payment flows
type PaymentGateway interface {
	// Name returns the provider name recorded on payments and audit records
	Name() string
	// Authenticate checks the signature header of a raw webhook body
	Authenticate(rawBody []byte, signatureHeader string) bool
	// DecodeWebhook parses an authenticated webhook body
	DecodeWebhook(rawBody []byte) (*gateway.WebhookEvent, error)
	// InitializeCharge starts a hosted checkout
	//
	// "ctx" is the context for the request.
	// "email" is the payer's email address.
	// "amount" is the price in major currency units.
	// "currency" is the ISO currency code.
	// "reference" is the locally generated charge reference.
	// "metadata" carries the identifiers needed to reconcile the charge later.
	//
	// Returns the checkout URL and the reference, or gateway.ErrProviderUnavailable / gateway.ErrProviderRejected.
	InitializeCharge(ctx context.Context, email string, amount decimal.Decimal, currency, reference string, metadata models.ChargeMetadata) (*models.PaymentInit, error)
	// VerifyCharge fetches the authoritative state of a charge
	//
	// Returns gateway.ErrChargeNotFound or gateway.ErrProviderUnavailable on failure.
	VerifyCharge(ctx context.Context, reference string) (*models.VerifiedCharge, error)
}

// Reconciler applies verified charges to the ledger
type Reconciler interface {
	Reconcile(ctx context.Context, delivery ChargeDelivery) (models.ReconcileResult, error)
}

// ReferencePrefix prefixes every locally generated charge reference
const ReferencePrefix = "SS-"

// eventTypeVerify labels audit records produced by verify-by-reference calls
const eventTypeVerify = "charge.verify"

type paymentService struct {
	gateway        PaymentGateway
	reconciler     Reconciler
	userRepo       UserRepository
	courseRepo     CourseRepository
	enrollmentRepo EnrollmentRepository
	paymentRepo    PaymentRepository
	audit          *auditLog
	logger         *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	gw PaymentGateway,
	reconciler Reconciler,
	userRepo UserRepository,
	courseRepo CourseRepository,
	enrollmentRepo EnrollmentRepository,
	paymentRepo PaymentRepository,
	eventRepo WebhookEventRepository,
	logger *zap.Logger,
) *paymentService {
	return &paymentService{
		gateway:        gw,
		reconciler:     reconciler,
		userRepo:       userRepo,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		paymentRepo:    paymentRepo,
		audit:          newAuditLog(eventRepo, gw.Name(), logger),
		logger:         logger,
	}
}

// InitializePayment starts a hosted checkout for a paid, published course
func (s *paymentService) InitializePayment(ctx context.Context, userID, courseID string) (*models.PaymentInit, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !course.IsPublished {
		return nil, ErrCourseNotFound
	}
	if course.IsFree() {
		return nil, ErrCourseIsFree
	}

	enrolled, err := s.enrollmentRepo.Exists(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if enrolled {
		return nil, ErrAlreadyEnrolled
	}

	reference := ReferencePrefix + uuid.NewString()
	checkout, err := s.gateway.InitializeCharge(ctx, user.Email, course.Price, course.Currency, reference, models.ChargeMetadata{
		UserID:   userID,
		CourseID: courseID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize charge: %w", err)
	}

	s.logger.Info("checkout initialized",
		zap.String("reference", checkout.Reference),
		zap.String("user_id", userID),
		zap.String("course_id", courseID),
	)

	return checkout, nil
}

// HandleWebhook authenticates and applies an inbound provider event.
//
// The body is never parsed before the signature check. ErrSignatureInvalid and
// ErrStoreUnavailable are the only errors; every other outcome is acknowledged.
func (s *paymentService) HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) (models.ReconcileResult, error) {
	if !s.gateway.Authenticate(rawBody, signatureHeader) {
		s.logger.Warn("webhook signature rejected", zap.Int("body_size", len(rawBody)))
		s.audit.record(ctx, &models.WebhookEvent{
			Source:  models.SourceWebhook,
			Outcome: models.OutcomeRejected,
			Reason:  models.ReasonSignatureInvalid,
		})
		return models.ReconcileResult{Outcome: models.OutcomeRejected, Reason: models.ReasonSignatureInvalid}, ErrSignatureInvalid
	}

	event, err := s.gateway.DecodeWebhook(rawBody)
	if err != nil {
		s.logger.Warn("webhook payload malformed", zap.Error(err))
		audit := &models.WebhookEvent{
			Source:  models.SourceWebhook,
			Outcome: models.OutcomeRejected,
			Reason:  models.ReasonMalformedPayload,
		}
		if json.Valid(rawBody) {
			audit.Payload = rawBody
		}
		s.audit.record(ctx, audit)
		return models.ReconcileResult{Outcome: models.OutcomeRejected, Reason: models.ReasonMalformedPayload}, nil
	}

	if !event.IsChargeSuccess() {
		s.logger.Info("webhook event ignored", zap.String("event", event.Event), zap.String("reference", event.Charge.Reference))
		s.audit.record(ctx, &models.WebhookEvent{
			EventType: event.Event,
			Source:    models.SourceWebhook,
			Reference: event.Charge.Reference,
			Outcome:   models.OutcomeRejected,
			Reason:    models.ReasonUnsupportedEvent,
			Payload:   rawBody,
		})
		return models.ReconcileResult{
			Outcome:   models.OutcomeRejected,
			Reason:    models.ReasonUnsupportedEvent,
			Reference: event.Charge.Reference,
		}, nil
	}

	return s.reconciler.Reconcile(ctx, ChargeDelivery{
		Source:    models.SourceWebhook,
		EventType: event.Event,
		Charge:    event.Charge,
		Payload:   rawBody,
	})
}

// VerifyPayment confirms a charge with the provider after the learner returns from checkout
// and applies it exactly like a webhook would.
//
// When the provider cannot be reached but the charge was already applied locally,
// the stored payment answers instead.
func (s *paymentService) VerifyPayment(ctx context.Context, reference string) (models.ReconcileResult, error) {
	charge, err := s.gateway.VerifyCharge(ctx, reference)
	if err != nil {
		if errors.Is(err, gateway.ErrProviderUnavailable) {
			if result, ok := s.fromStoredPayment(ctx, reference); ok {
				return result, nil
			}
		}
		return models.ReconcileResult{Reference: reference}, fmt.Errorf("failed to verify charge: %w", err)
	}

	payload, _ := json.Marshal(charge)

	return s.reconciler.Reconcile(ctx, ChargeDelivery{
		Source:    models.SourceVerify,
		EventType: eventTypeVerify,
		Charge:    *charge,
		Payload:   payload,
	})
}

// ReplayCharge re-verifies a charge whose earlier delivery failed and reconciles it
func (s *paymentService) ReplayCharge(ctx context.Context, reference string) (models.ReconcileResult, error) {
	charge, err := s.gateway.VerifyCharge(ctx, reference)
	if err != nil {
		return models.ReconcileResult{Reference: reference}, fmt.Errorf("failed to verify charge: %w", err)
	}

	payload, _ := json.Marshal(charge)

	return s.reconciler.Reconcile(ctx, ChargeDelivery{
		Source:    models.SourceReplay,
		EventType: eventTypeVerify,
		Charge:    *charge,
		Payload:   payload,
	})
}

func (s *paymentService) fromStoredPayment(ctx context.Context, reference string) (models.ReconcileResult, bool) {
	payment, err := s.paymentRepo.GetByReference(ctx, reference)
	if err != nil {
		return models.ReconcileResult{}, false
	}

	return models.ReconcileResult{
		Outcome:   models.OutcomeDuplicate,
		Reason:    models.ReasonDuplicateReference,
		Reference: payment.Reference,
		UserID:    payment.UserID,
		CourseID:  payment.CourseID,
	}, true
}
