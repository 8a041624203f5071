package models

import (
	"encoding/json"
	"time"
)

// ReconcileOutcome is the result variant of a reconciliation attempt
type ReconcileOutcome string

const (
	OutcomeApplied   ReconcileOutcome = "applied"
	OutcomeDuplicate ReconcileOutcome = "duplicate"
	OutcomeRejected  ReconcileOutcome = "rejected"
)

// ReasonCode explains a reconciliation outcome in the audit log
type ReasonCode string

const (
	ReasonApplied             ReasonCode = "applied"
	ReasonDuplicateReference  ReasonCode = "duplicate_reference"
	ReasonAlreadyEnrolled     ReasonCode = "already_enrolled"
	ReasonInvalidMetadata     ReasonCode = "invalid_metadata"
	ReasonChargeNotSuccessful ReasonCode = "charge_not_successful"
	ReasonSignatureInvalid    ReasonCode = "signature_invalid"
	ReasonMalformedPayload    ReasonCode = "malformed_payload"
	ReasonUnsupportedEvent    ReasonCode = "unsupported_event"
	ReasonStoreUnavailable    ReasonCode = "store_unavailable"
)

// EventSource describes which delivery path produced a charge
type EventSource string

const (
	SourceWebhook EventSource = "webhook"
	SourceVerify  EventSource = "verify"
	SourceReplay  EventSource = "replay"
)

// ReconcileResult is returned by the reconciliation engine.
// Duplicates and rejections are expected outcomes, not errors.
type ReconcileResult struct {
	Outcome      ReconcileOutcome `json:"outcome"`
	Reason       ReasonCode       `json:"reason"`
	Reference    string           `json:"reference"`
	UserID       string           `json:"userId,omitempty"`
	CourseID     string           `json:"courseId,omitempty"`
	EnrollmentID string           `json:"enrollmentId,omitempty"`
}

// Applied reports whether the reconciliation changed local state
func (r ReconcileResult) Applied() bool {
	return r.Outcome == OutcomeApplied
}

// Enrolled reports whether the user ends up enrolled after this reconciliation
func (r ReconcileResult) Enrolled() bool {
	return r.Outcome == OutcomeApplied ||
		(r.Outcome == OutcomeDuplicate && (r.Reason == ReasonAlreadyEnrolled || r.Reason == ReasonDuplicateReference))
}

// WebhookEvent is an audit record of an inbound provider event
type WebhookEvent struct {
	ID        string           `json:"id"`
	Provider  string           `json:"provider"`
	EventType string           `json:"eventType"`
	Source    EventSource      `json:"source"`
	Reference string           `json:"reference"`
	Outcome   ReconcileOutcome `json:"outcome"`
	Reason    ReasonCode       `json:"reason"`
	Payload   json.RawMessage  `json:"payload,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}
