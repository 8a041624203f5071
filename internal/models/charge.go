package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ChargeStatus is the provider-side status of a charge
type ChargeStatus string

const (
	ChargeStatusSuccess   ChargeStatus = "success"
	ChargeStatusFailed    ChargeStatus = "failed"
	ChargeStatusAbandoned ChargeStatus = "abandoned"
	ChargeStatusPending   ChargeStatus = "pending"
)

// ChargeMetadata holds the identifiers attached to a charge at initialization
type ChargeMetadata struct {
	UserID   string `json:"userId"`
	CourseID string `json:"courseId"`
}

// VerifiedCharge is the normalized view of a charge, produced either from an
// authenticated webhook or from a verify-by-reference call.
type VerifiedCharge struct {
	Reference string          `json:"reference"`
	Status    ChargeStatus    `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	PaidAt    *time.Time      `json:"paidAt,omitempty"`
	Metadata  ChargeMetadata  `json:"metadata"`
	// RawMetadata keeps the provider metadata document as received
	RawMetadata json.RawMessage `json:"rawMetadata,omitempty"`
}

// IsSuccessful reports whether the provider considers the charge paid
func (c *VerifiedCharge) IsSuccessful() bool {
	return c.Status == ChargeStatusSuccess
}
