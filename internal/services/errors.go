package services

import "errors"

var (
	// ErrSignatureInvalid is returned when a webhook body does not match its signature header
	ErrSignatureInvalid = errors.New("webhook signature invalid")
	// ErrInvalidMetadata is returned when a charge carries no usable user or course identifiers
	ErrInvalidMetadata = errors.New("charge metadata invalid")
	// ErrStoreUnavailable is returned when the ledger store cannot complete an operation.
	// Webhook deliveries failing with it must be retried by the provider.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrNotEnrolled is returned for progress operations on a missing enrollment
	ErrNotEnrolled     = errors.New("user is not enrolled in the course")
	ErrAlreadyEnrolled = errors.New("user is already enrolled in the course")
	ErrCourseNotFound  = errors.New("course not found")
	ErrLessonNotFound  = errors.New("lesson not found in course")
	ErrUserNotFound    = errors.New("user not found")
	// ErrInvalidPercentage is returned for lesson percentages outside [0, 100]
	ErrInvalidPercentage = errors.New("percentage must be between 0 and 100")
	// ErrPaymentRequired is returned when a paid course is enrolled through the free path
	ErrPaymentRequired = errors.New("course requires payment")
	// ErrCourseIsFree is returned when a checkout is requested for a free course
	ErrCourseIsFree = errors.New("course is free")
)
