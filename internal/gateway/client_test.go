package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/skillacademy/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(ClientConfig{
		Name:        "paystack",
		BaseURL:     srv.URL,
		SecretKey:   "sk_test",
		CallbackURL: "https://academy.example/payments/verify",
		Timeout:     2 * time.Second,
		RetryCount:  2,
		RetryWait:   time.Millisecond,
	}, zap.NewNop())

	return client, srv
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestClient_InitializeCharge(t *testing.T) {
	var received initializeRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		writeJSON(w, http.StatusOK, `{"status":true,"message":"ok","data":{"authorization_url":"https://checkout.example/abc","access_code":"abc","reference":"SS-1"}}`)
	})

	checkout, err := client.InitializeCharge(context.Background(), "learner@example.com", decimal.RequireFromString("150.55"), "NGN", "SS-1",
		models.ChargeMetadata{UserID: "u1", CourseID: "c1"})

	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/abc", checkout.AuthorizationURL)
	assert.Equal(t, "SS-1", checkout.Reference)
	assert.Equal(t, int64(15055), received.Amount)
	assert.Equal(t, "learner@example.com", received.Email)
	assert.Equal(t, "https://academy.example/payments/verify", received.CallbackURL)
	assert.JSONEq(t, `{"userId":"u1","courseId":"c1"}`, string(received.Metadata))
}

func TestClient_InitializeCharge_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		expectedErr error
	}{
		{name: "provider rejects", status: http.StatusBadRequest, body: `{"status":false,"message":"Invalid email"}`, expectedErr: ErrProviderRejected},
		{name: "provider down", status: http.StatusBadGateway, body: `{}`, expectedErr: ErrProviderUnavailable},
		{name: "status false", status: http.StatusOK, body: `{"status":false,"message":"nope"}`, expectedErr: ErrProviderRejected},
		{name: "malformed body", status: http.StatusOK, body: `{"status":`, expectedErr: ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				writeJSON(w, tt.status, tt.body)
			})

			checkout, err := client.InitializeCharge(context.Background(), "a@b.c", decimal.NewFromInt(10), "NGN", "SS-1", models.ChargeMetadata{})

			assert.Nil(t, checkout)
			assert.ErrorIs(t, err, tt.expectedErr)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "initialize must never be retried")
		})
	}
}

func TestClient_VerifyCharge(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/SS-1", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"status":true,"message":"Verification successful","data":{
			"reference":"SS-1","status":"success","amount":1500000,"currency":"NGN",
			"paid_at":"2026-03-01T10:00:00.000Z","metadata":{"userId":"u1","courseId":"c1"}}}`)
	})

	charge, err := client.VerifyCharge(context.Background(), "SS-1")

	require.NoError(t, err)
	assert.Equal(t, "SS-1", charge.Reference)
	assert.True(t, charge.IsSuccessful())
	assert.True(t, decimal.NewFromInt(15000).Equal(charge.Amount))
	assert.Equal(t, "NGN", charge.Currency)
	assert.Equal(t, models.ChargeMetadata{UserID: "u1", CourseID: "c1"}, charge.Metadata)
	require.NotNil(t, charge.PaidAt)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), charge.PaidAt.UTC())
}

func TestClient_VerifyCharge_RetriesServerErrors(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, `{}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"status":true,"data":{"reference":"SS-1","status":"failed","amount":100}}`)
	})

	charge, err := client.VerifyCharge(context.Background(), "SS-1")

	require.NoError(t, err)
	assert.Equal(t, models.ChargeStatusFailed, charge.Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_VerifyCharge_Errors(t *testing.T) {
	tests := []struct {
		name        string
		reference   string
		status      int
		body        string
		expectedErr error
	}{
		{name: "not found", reference: "SS-404", status: http.StatusNotFound, body: `{"status":false}`, expectedErr: ErrChargeNotFound},
		{name: "bad request not found", reference: "SS-404", status: http.StatusBadRequest, body: `{"status":false,"message":"Transaction reference not found"}`, expectedErr: ErrChargeNotFound},
		{name: "persistent outage", reference: "SS-1", status: http.StatusInternalServerError, body: `{}`, expectedErr: ErrProviderUnavailable},
		{name: "unauthorized", reference: "SS-1", status: http.StatusUnauthorized, body: `{"status":false}`, expectedErr: ErrProviderRejected},
		{name: "empty reference", reference: "", status: http.StatusOK, body: `{}`, expectedErr: ErrChargeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			charge, err := client.VerifyCharge(context.Background(), tt.reference)

			assert.Nil(t, charge)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestClient_VerifyCharge_Unreachable(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	charge, err := client.VerifyCharge(context.Background(), "SS-1")

	assert.Nil(t, charge)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestDecodeWebhook(t *testing.T) {
	tests := []struct {
		name             string
		body             string
		expectedEvent    string
		expectedMetadata models.ChargeMetadata
		expectedErr      error
	}{
		{
			name:             "object metadata",
			body:             `{"event":"charge.success","data":{"reference":"SS-1","status":"success","amount":1500000,"metadata":{"userId":"u1","courseId":"c1"}}}`,
			expectedEvent:    "charge.success",
			expectedMetadata: models.ChargeMetadata{UserID: "u1", CourseID: "c1"},
		},
		{
			name:             "string encoded metadata with numeric ids",
			body:             `{"event":"charge.success","data":{"reference":"SS-2","status":"success","amount":100,"metadata":"{\"userId\":7,\"courseId\":9}"}}`,
			expectedEvent:    "charge.success",
			expectedMetadata: models.ChargeMetadata{UserID: "7", CourseID: "9"},
		},
		{
			name:          "missing metadata",
			body:          `{"event":"charge.success","data":{"reference":"SS-3","status":"success","amount":100}}`,
			expectedEvent: "charge.success",
		},
		{
			name:          "non object metadata",
			body:          `{"event":"charge.success","data":{"reference":"SS-4","status":"success","amount":100,"metadata":0}}`,
			expectedEvent: "charge.success",
		},
		{
			name:          "other event",
			body:          `{"event":"transfer.success","data":{"reference":"TR-1"}}`,
			expectedEvent: "transfer.success",
		},
		{name: "missing event", body: `{"data":{}}`, expectedErr: ErrMalformedPayload},
		{name: "not json", body: `event=charge.success`, expectedErr: ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := DecodeWebhook([]byte(tt.body))

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedEvent, event.Event)
			assert.Equal(t, tt.expectedMetadata, event.Charge.Metadata)
		})
	}
}

func TestAmountConversion(t *testing.T) {
	assert.Equal(t, int64(1500000), MinorUnits(decimal.NewFromInt(15000)))
	assert.Equal(t, int64(1999), MinorUnits(decimal.RequireFromString("19.99")))
	assert.True(t, decimal.RequireFromString("19.99").Equal(MajorUnits(1999)))
	assert.True(t, decimal.NewFromInt(15000).Equal(MajorUnits(1500000)))
}
