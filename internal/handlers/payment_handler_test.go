package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/skillacademy/backend/internal/gateway"
	"github.com/skillacademy/backend/internal/models"
	"github.com/skillacademy/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testFrontendURL = "https://academy.test"

type mockPaymentService struct {
	initializeFunc func(ctx context.Context, userID, courseID string) (*models.PaymentInit, error)
	webhookFunc    func(ctx context.Context, rawBody []byte, signatureHeader string) (models.ReconcileResult, error)
	verifyFunc     func(ctx context.Context, reference string) (models.ReconcileResult, error)
}

func (m *mockPaymentService) InitializePayment(ctx context.Context, userID, courseID string) (*models.PaymentInit, error) {
	if m.initializeFunc != nil {
		return m.initializeFunc(ctx, userID, courseID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPaymentService) HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) (models.ReconcileResult, error) {
	if m.webhookFunc != nil {
		return m.webhookFunc(ctx, rawBody, signatureHeader)
	}
	return models.ReconcileResult{}, errors.New("not implemented")
}

func (m *mockPaymentService) VerifyPayment(ctx context.Context, reference string) (models.ReconcileResult, error) {
	if m.verifyFunc != nil {
		return m.verifyFunc(ctx, reference)
	}
	return models.ReconcileResult{}, errors.New("not implemented")
}

func newPaymentRouter(svc PaymentService) http.Handler {
	return newRouter(NewPaymentHandler(svc, testFrontendURL+"/", zap.NewNop()))
}

func TestPaymentHandler_Webhook(t *testing.T) {
	tests := []struct {
		name           string
		result         models.ReconcileResult
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "applied",
			result:         models.ReconcileResult{Outcome: models.OutcomeApplied, Reason: models.ReasonApplied, Reference: "SS-1"},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"ok"`,
		},
		{
			name:           "duplicate is acknowledged",
			result:         models.ReconcileResult{Outcome: models.OutcomeDuplicate, Reason: models.ReasonDuplicateReference, Reference: "SS-1"},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"ok"`,
		},
		{
			name:           "rejected is acknowledged",
			result:         models.ReconcileResult{Outcome: models.OutcomeRejected, Reason: models.ReasonInvalidMetadata},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"ok"`,
		},
		{
			name:           "invalid signature",
			result:         models.ReconcileResult{Outcome: models.OutcomeRejected, Reason: models.ReasonSignatureInvalid},
			err:            services.ErrSignatureInvalid,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "invalid signature",
		},
		{
			name:           "store unavailable asks for redelivery",
			result:         models.ReconcileResult{Outcome: models.OutcomeRejected, Reason: models.ReasonStoreUnavailable, Reference: "SS-1"},
			err:            fmt.Errorf("%w: connection refused", services.ErrStoreUnavailable),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "temporarily unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotBody []byte
			var gotSignature string
			svc := &mockPaymentService{
				webhookFunc: func(ctx context.Context, rawBody []byte, signatureHeader string) (models.ReconcileResult, error) {
					gotBody = rawBody
					gotSignature = signatureHeader
					return tt.result, tt.err
				},
			}

			body := `{"event":"charge.success",  "data":{"reference":"SS-1"}}`
			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(body))
			req.Header.Set(SignatureHeader, "abc123")

			rec := serve(t, newPaymentRouter(svc), req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			assert.Equal(t, body, string(gotBody), "raw body must reach the service byte for byte")
			assert.Equal(t, "abc123", gotSignature)
		})
	}
}

func TestPaymentHandler_Webhook_BodyTooLarge(t *testing.T) {
	called := false
	svc := &mockPaymentService{
		webhookFunc: func(ctx context.Context, rawBody []byte, signatureHeader string) (models.ReconcileResult, error) {
			called = true
			return models.ReconcileResult{}, nil
		},
	}

	body := strings.Repeat("a", maxWebhookBodySize+1)
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(body))

	rec := serve(t, newPaymentRouter(svc), req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)
}

func TestPaymentHandler_Verify(t *testing.T) {
	tests := []struct {
		name             string
		query            string
		result           models.ReconcileResult
		err              error
		expectedRef      string
		expectedLocation string
	}{
		{
			name:             "applied",
			query:            "?reference=SS-1",
			result:           models.ReconcileResult{Outcome: models.OutcomeApplied, Reason: models.ReasonApplied, CourseID: "c1"},
			expectedRef:      "SS-1",
			expectedLocation: testFrontendURL + "/courses/c1?payment=success",
		},
		{
			name:             "duplicate reference still succeeds",
			query:            "?reference=SS-1",
			result:           models.ReconcileResult{Outcome: models.OutcomeDuplicate, Reason: models.ReasonDuplicateReference, CourseID: "c1"},
			expectedRef:      "SS-1",
			expectedLocation: testFrontendURL + "/courses/c1?payment=success",
		},
		{
			name:             "trxref fallback",
			query:            "?trxref=SS-2",
			result:           models.ReconcileResult{Outcome: models.OutcomeDuplicate, Reason: models.ReasonAlreadyEnrolled, CourseID: "c2"},
			expectedRef:      "SS-2",
			expectedLocation: testFrontendURL + "/courses/c2?payment=success",
		},
		{
			name:             "charge not successful",
			query:            "?reference=SS-3",
			result:           models.ReconcileResult{Outcome: models.OutcomeRejected, Reason: models.ReasonChargeNotSuccessful, CourseID: "c1"},
			expectedRef:      "SS-3",
			expectedLocation: testFrontendURL + "/courses/c1?error=payment_failed",
		},
		{
			name:             "rejected without course",
			query:            "?reference=SS-4",
			result:           models.ReconcileResult{Outcome: models.OutcomeRejected, Reason: models.ReasonInvalidMetadata},
			expectedRef:      "SS-4",
			expectedLocation: testFrontendURL + "/courses?error=payment_failed",
		},
		{
			name:             "provider error",
			query:            "?reference=SS-5",
			err:              gateway.ErrChargeNotFound,
			expectedRef:      "SS-5",
			expectedLocation: testFrontendURL + "/courses?error=payment_failed",
		},
		{
			name:             "missing reference",
			query:            "",
			expectedLocation: testFrontendURL + "/courses?error=payment_failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotRef string
			svc := &mockPaymentService{
				verifyFunc: func(ctx context.Context, reference string) (models.ReconcileResult, error) {
					gotRef = reference
					return tt.result, tt.err
				},
			}

			req := httptest.NewRequest(http.MethodGet, "/payments/verify"+tt.query, nil)
			rec := serve(t, newPaymentRouter(svc), req)

			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tt.expectedLocation, rec.Header().Get("Location"))
			assert.Equal(t, tt.expectedRef, gotRef)
		})
	}
}

func TestPaymentHandler_Initialize(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		anonymous      bool
		serviceErr     error
		expectedStatus int
	}{
		{name: "success", body: `{"courseId":"c1"}`, expectedStatus: http.StatusOK},
		{name: "invalid body", body: `{`, expectedStatus: http.StatusBadRequest},
		{name: "missing course", body: `{"courseId":"  "}`, expectedStatus: http.StatusBadRequest},
		{name: "unauthenticated", body: `{"courseId":"c1"}`, anonymous: true, expectedStatus: http.StatusUnauthorized},
		{name: "free course", body: `{"courseId":"c1"}`, serviceErr: services.ErrCourseIsFree, expectedStatus: http.StatusBadRequest},
		{name: "course not found", body: `{"courseId":"c1"}`, serviceErr: services.ErrCourseNotFound, expectedStatus: http.StatusNotFound},
		{name: "already enrolled", body: `{"courseId":"c1"}`, serviceErr: services.ErrAlreadyEnrolled, expectedStatus: http.StatusConflict},
		{name: "provider down", body: `{"courseId":"c1"}`, serviceErr: gateway.ErrProviderUnavailable, expectedStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPaymentService{
				initializeFunc: func(ctx context.Context, userID, courseID string) (*models.PaymentInit, error) {
					assert.Equal(t, testUserID, userID)
					assert.Equal(t, "c1", courseID)
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &models.PaymentInit{AuthorizationURL: "https://checkout.test/abc", Reference: "SS-abc"}, nil
				},
			}

			req := httptest.NewRequest(http.MethodPost, "/payments/initialize", strings.NewReader(tt.body))
			if tt.anonymous {
				req.Header.Set("X-Anonymous", "1")
			}
			rec := serve(t, newPaymentRouter(svc), req)

			require.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				got := decodeBody[models.PaymentInit](t, rec)
				assert.Equal(t, "https://checkout.test/abc", got.AuthorizationURL)
				assert.Equal(t, "SS-abc", got.Reference)
			}
		})
	}
}
