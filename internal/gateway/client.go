// Package gateway talks to the external payment provider and authenticates its callbacks
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/skillacademy/backend/internal/models"
	"go.uber.org/zap"
)

// ClientConfig contains configuration for the provider client
type ClientConfig struct {
	// Name identifies the provider in stored payments and audit records
	Name string
	// BaseURL is the provider REST API base URL
	BaseURL string
	// SecretKey authenticates API calls and signs webhooks
	SecretKey string
	// CallbackURL is where the hosted checkout sends the learner back
	CallbackURL string
	// Timeout is the per-request HTTP timeout
	Timeout time.Duration
	// RetryCount is the number of extra attempts for idempotent reads
	RetryCount int
	// RetryWait is the initial backoff between attempts
	RetryWait time.Duration
}

// Client is the provider gateway. It is constructed once at startup and passed to services.
type Client struct {
	config ClientConfig
	http   *resty.Client
	logger *zap.Logger
}

// NewClient creates a new provider client
func NewClient(config ClientConfig, logger *zap.Logger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.RetryWait <= 0 {
		config.RetryWait = 200 * time.Millisecond
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(config.BaseURL, "/")).
		SetTimeout(config.Timeout).
		SetAuthToken(config.SecretKey).
		SetHeader("Accept", "application/json").
		SetRetryCount(config.RetryCount).
		SetRetryWaitTime(config.RetryWait).
		SetRetryMaxWaitTime(config.RetryWait * 10).
		AddRetryCondition(retryIdempotentReads)

	return &Client{
		config: config,
		http:   httpClient,
		logger: logger,
	}
}

// retryIdempotentReads retries GET requests on transport errors and 5xx responses only
func retryIdempotentReads(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return true
	}
	return resp.StatusCode() >= http.StatusInternalServerError
}

// Name returns the configured provider name
func (c *Client) Name() string {
	return c.config.Name
}

// Authenticate verifies the signature header of a raw webhook body with the configured secret
func (c *Client) Authenticate(rawBody []byte, signatureHeader string) bool {
	return AuthenticateWebhook(rawBody, signatureHeader, c.config.SecretKey)
}

// InitializeCharge starts a hosted checkout for the given major-unit amount.
// The amount is converted to minor units here and nowhere else.
func (c *Client) InitializeCharge(ctx context.Context, email string, amount decimal.Decimal, currency, reference string, metadata models.ChargeMetadata) (*models.PaymentInit, error) {
	meta, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}

	body := initializeRequest{
		Email:       email,
		Amount:      MinorUnits(amount),
		Currency:    currency,
		Reference:   reference,
		CallbackURL: c.config.CallbackURL,
		Metadata:    meta,
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/transaction/initialize")
	if err != nil {
		c.logger.Warn("provider initialize request failed", zap.String("reference", reference), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	if err := classifyStatus(resp); err != nil {
		c.logger.Warn("provider refused initialize",
			zap.String("reference", reference),
			zap.Int("status", resp.StatusCode()),
		)
		if errors.Is(err, ErrChargeNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrProviderRejected, err)
		}
		return nil, err
	}

	var out envelope[initializeData]
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("%w: initialize response: %v", ErrMalformedPayload, err)
	}
	if !out.Status || out.Data.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: %s", ErrProviderRejected, out.Message)
	}

	ref := out.Data.Reference
	if ref == "" {
		ref = reference
	}

	return &models.PaymentInit{
		AuthorizationURL: out.Data.AuthorizationURL,
		Reference:        ref,
	}, nil
}

// VerifyCharge fetches the authoritative state of a charge by reference.
// It is read-only against the provider and safe to call repeatedly.
func (c *Client) VerifyCharge(ctx context.Context, reference string) (*models.VerifiedCharge, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrChargeNotFound)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		Get("/transaction/verify/" + url.PathEscape(reference))
	if err != nil {
		c.logger.Warn("provider verify request failed", zap.String("reference", reference), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	var out envelope[chargeData]
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("%w: verify response: %v", ErrMalformedPayload, err)
	}
	if !out.Status {
		return nil, fmt.Errorf("%w: %s", ErrChargeNotFound, out.Message)
	}

	charge, err := out.Data.toVerifiedCharge()
	if err != nil {
		return nil, err
	}
	if charge.Reference == "" {
		charge.Reference = reference
	}

	return &charge, nil
}

// DecodeWebhook parses an authenticated webhook body.
// Callers must authenticate the raw body before calling this.
func (c *Client) DecodeWebhook(rawBody []byte) (*WebhookEvent, error) {
	return DecodeWebhook(rawBody)
}

// DecodeWebhook parses a webhook body into an event and its normalized charge
func DecodeWebhook(rawBody []byte) (*WebhookEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, fmt.Errorf("%w: webhook body: %v", ErrMalformedPayload, err)
	}
	if payload.Event == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformedPayload)
	}

	charge, err := payload.Data.toVerifiedCharge()
	if err != nil {
		return nil, err
	}

	return &WebhookEvent{Event: payload.Event, Charge: charge}, nil
}

// classifyStatus maps provider HTTP statuses onto gateway errors
func classifyStatus(resp *resty.Response) error {
	status := resp.StatusCode()
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return ErrChargeNotFound
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", ErrProviderUnavailable, status)
	case status == http.StatusBadRequest && strings.Contains(strings.ToLower(resp.String()), "not found"):
		return ErrChargeNotFound
	default:
		return fmt.Errorf("%w: status %d", ErrProviderRejected, status)
	}
}
