package gateway

import "errors"

var (
	// ErrProviderUnavailable is a transient failure talking to the provider (transport error or 5xx)
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	// ErrProviderRejected means the provider refused the request (4xx other than not found)
	ErrProviderRejected = errors.New("payment provider rejected request")
	// ErrChargeNotFound means the provider has no charge for the reference
	ErrChargeNotFound = errors.New("charge not found")
	// ErrMalformedPayload means a provider document could not be decoded
	ErrMalformedPayload = errors.New("malformed provider payload")
)
