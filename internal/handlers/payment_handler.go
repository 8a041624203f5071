package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/skillacademy/backend/internal/models"
	"github.com/skillacademy/backend/internal/services"
	"go.uber.org/zap"
)

// SignatureHeader carries the provider's HMAC of the raw webhook body
const SignatureHeader = "X-Paystack-Signature"

const (
	maxWebhookBodySize = 1 << 20
	// webhookRateLimit caps provider deliveries across all source IPs
	webhookRateLimit = 1000
)

// PaymentService is the interface that wraps methods for payment operations
type PaymentService interface {
	// InitializePayment starts a hosted checkout for a paid course
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the paying user.
	// "courseID" is the ID of the course being bought.
	//
	// Returns the checkout URL with the charge reference, and an error if any.
	InitializePayment(ctx context.Context, userID, courseID string) (*models.PaymentInit, error)
	// HandleWebhook authenticates and applies a raw provider event
	//
	// "ctx" is the context for the request.
	// "rawBody" is the unparsed request body.
	// "signatureHeader" is the value of the signature header.
	//
	// Returns the reconciliation result. The error is services.ErrSignatureInvalid,
	// services.ErrStoreUnavailable or nil.
	HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) (models.ReconcileResult, error)
	// VerifyPayment confirms a charge with the provider and applies it
	//
	// "ctx" is the context for the request.
	// "reference" is the charge reference returned by the provider redirect.
	//
	// Returns the reconciliation result and an error if any.
	VerifyPayment(ctx context.Context, reference string) (models.ReconcileResult, error)
}

// PaymentHandler handles HTTP requests for payment operations
type PaymentHandler struct {
	BaseHandler
	service     PaymentService
	frontendURL string
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(svc PaymentService, frontendURL string, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// RegisterRoutes registers all payment handler routes
func (h *PaymentHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/payments", func(r chi.Router) {
		r.With(httprate.LimitAll(webhookRateLimit, time.Minute)).Post("/webhook", h.Webhook)
		r.Get("/verify", h.Verify)
		r.With(authMiddleware).Post("/initialize", h.Initialize)
	})
}

// Initialize handles POST /payments/initialize
// @Summary Start a course checkout
// @Description Creates a hosted checkout with the payment provider for a paid, published course
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.InitializePaymentRequest true "Course to buy"
// @Success 200 {object} models.PaymentInit "Checkout URL and reference"
// @Failure 400 {object} map[string]string "Bad request or free course"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 409 {object} map[string]string "Already enrolled"
// @Failure 502 {object} map[string]string "Payment provider error"
// @Router /payments/initialize [post]
func (h *PaymentHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req models.InitializePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.CourseID) == "" {
		h.RespondError(w, http.StatusBadRequest, "courseId is required")
		return
	}

	checkout, err := h.service.InitializePayment(r.Context(), identity.UserID, req.CourseID)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, checkout)
}

// Webhook handles POST /payments/webhook
// @Summary Receive a payment provider event
// @Description Authenticates the raw body with the provider signature and reconciles charge.success events.
// @Description Every authenticated delivery is acknowledged unless the store is unavailable.
// @Tags payments
// @Accept json
// @Produce json
// @Param X-Paystack-Signature header string true "Hex HMAC-SHA512 of the raw body"
// @Success 200 {object} models.WebhookAck "Delivery acknowledged"
// @Failure 401 {object} map[string]string "Invalid signature"
// @Failure 500 {object} map[string]string "Store unavailable, retry later"
// @Router /payments/webhook [post]
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
	if err != nil {
		h.Logger.Warn("failed to read webhook body", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	result, err := h.service.HandleWebhook(r.Context(), rawBody, r.Header.Get(SignatureHeader))
	switch {
	case errors.Is(err, services.ErrSignatureInvalid):
		h.RespondError(w, http.StatusUnauthorized, "invalid signature")
		return
	case err != nil:
		h.Logger.Error("webhook delivery not applied",
			zap.String("reference", result.Reference),
			zap.Error(err),
		)
		h.RespondError(w, http.StatusInternalServerError, "temporarily unavailable")
		return
	}

	h.RespondJSON(w, http.StatusOK, models.WebhookAck{Status: "ok"})
}

// Verify handles GET /payments/verify
// @Summary Verify a charge after checkout
// @Description Called by the provider redirect. Verifies the charge, reconciles it and redirects the learner back to the course page.
// @Tags payments
// @Param reference query string true "Charge reference"
// @Param trxref query string false "Charge reference, alternative name used by the provider"
// @Success 302 "Redirect to the frontend"
// @Router /payments/verify [get]
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("reference")
	if reference == "" {
		reference = r.URL.Query().Get("trxref")
	}
	if reference == "" {
		http.Redirect(w, r, h.failureURL(""), http.StatusFound)
		return
	}

	result, err := h.service.VerifyPayment(r.Context(), reference)
	if err != nil {
		h.Logger.Warn("payment verification failed", zap.String("reference", reference), zap.Error(err))
		http.Redirect(w, r, h.failureURL(result.CourseID), http.StatusFound)
		return
	}

	if !result.Enrolled() {
		h.Logger.Info("payment not applied",
			zap.String("reference", reference),
			zap.String("reason", string(result.Reason)),
		)
		http.Redirect(w, r, h.failureURL(result.CourseID), http.StatusFound)
		return
	}

	http.Redirect(w, r, h.frontendURL+"/courses/"+url.PathEscape(result.CourseID)+"?payment=success", http.StatusFound)
}

func (h *PaymentHandler) failureURL(courseID string) string {
	if courseID == "" {
		return h.frontendURL + "/courses?error=payment_failed"
	}
	return h.frontendURL + "/courses/" + url.PathEscape(courseID) + "?error=payment_failed"
}
