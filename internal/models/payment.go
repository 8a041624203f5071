package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the status of a stored payment
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
	PaymentStatusPending PaymentStatus = "PENDING"
)

// Payment represents a reconciled provider charge.
// Amount is always in major currency units.
type Payment struct {
	ID        string          `json:"id"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Status    PaymentStatus   `json:"status"`
	Provider  string          `json:"provider"`
	UserID    string          `json:"userId"`
	CourseID  string          `json:"courseId"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	PaidAt    *time.Time      `json:"paidAt,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// PaymentInit is returned when a checkout has been initialized with the provider
type PaymentInit struct {
	AuthorizationURL string `json:"authorizationUrl"`
	Reference        string `json:"reference"`
}
