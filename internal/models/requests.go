package models

// InitializePaymentRequest is the body of POST /payments/initialize
type InitializePaymentRequest struct {
	CourseID string `json:"courseId"`
}

// UpdateLessonProgressRequest is the body of PUT .../lessons/{lessonId}/progress
type UpdateLessonProgressRequest struct {
	Percentage *float64 `json:"percentage"`
}

// WebhookAck is returned to the provider for every accepted delivery
type WebhookAck struct {
	Status string `json:"status"`
}

// EnrollmentResponse is returned by the free enrollment endpoint
type EnrollmentResponse struct {
	Enrollment *Enrollment `json:"enrollment"`
	Created    bool        `json:"created"`
}

// RecountResponse reports how many course counters were corrected
type RecountResponse struct {
	CorrectedCourses int `json:"correctedCourses"`
}
