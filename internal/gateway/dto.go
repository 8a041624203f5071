package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/skillacademy/backend/internal/models"
)

// envelope is the common response wrapper of the provider API
type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// initializeRequest is the body of POST /transaction/initialize
type initializeRequest struct {
	Email       string          `json:"email"`
	Amount      int64           `json:"amount"`
	Currency    string          `json:"currency,omitempty"`
	Reference   string          `json:"reference"`
	CallbackURL string          `json:"callback_url,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// initializeData is the data part of the initialize response
type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// chargeData is the transaction document shared by verify responses and charge webhooks
type chargeData struct {
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	PaidAt    string          `json:"paid_at"`
	Metadata  json.RawMessage `json:"metadata"`
}

// webhookPayload is the body of an inbound provider event
type webhookPayload struct {
	Event string     `json:"event"`
	Data  chargeData `json:"data"`
}

// WebhookEvent is a decoded, already authenticated provider event
type WebhookEvent struct {
	Event  string
	Charge models.VerifiedCharge
}

// EventChargeSuccess is the event type that can produce an enrollment
const EventChargeSuccess = "charge.success"

// IsChargeSuccess reports whether the event announces a successful charge
func (e *WebhookEvent) IsChargeSuccess() bool {
	return e.Event == EventChargeSuccess
}

// MinorUnits converts a major-unit amount to the provider's minor unit (x100)
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// MajorUnits converts a provider minor-unit amount back to major units
func MajorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// toVerifiedCharge normalizes a provider transaction document
func (d chargeData) toVerifiedCharge() (models.VerifiedCharge, error) {
	meta, raw, err := decodeMetadata(d.Metadata)
	if err != nil {
		return models.VerifiedCharge{}, err
	}

	return models.VerifiedCharge{
		Reference:   d.Reference,
		Status:      models.ChargeStatus(d.Status),
		Amount:      MajorUnits(d.Amount),
		Currency:    d.Currency,
		PaidAt:      parsePaidAt(d.PaidAt),
		Metadata:    meta,
		RawMetadata: raw,
	}, nil
}

// decodeMetadata accepts metadata as a JSON object or as a JSON encoded string holding an object.
// Identifiers may be strings or numbers. Missing fields are left empty for the caller to judge.
func decodeMetadata(raw json.RawMessage) (models.ChargeMetadata, json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return models.ChargeMetadata{}, nil, nil
	}

	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return models.ChargeMetadata{}, nil, fmt.Errorf("%w: metadata string: %v", ErrMalformedPayload, err)
		}
		if inner == "" {
			return models.ChargeMetadata{}, nil, nil
		}
		trimmed = []byte(inner)
	}

	var fields map[string]any
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		// Non-object metadata carries no identifiers; the engine records it as invalid metadata
		return models.ChargeMetadata{}, json.RawMessage(trimmed), nil
	}

	return models.ChargeMetadata{
		UserID:   identifier(fields["userId"]),
		CourseID: identifier(fields["courseId"]),
	}, json.RawMessage(trimmed), nil
}

func identifier(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return decimal.NewFromFloat(id).String()
	default:
		return ""
	}
}

// parsePaidAt parses the provider timestamp, tolerating an empty value
func parsePaidAt(v string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return nil
	}
	return &t
}
