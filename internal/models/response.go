package models

import "time"

// SuccessResponse wraps every successful JSON payload
type SuccessResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func Success(message string, data any) SuccessResponse {
	return SuccessResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// ErrorResponse is the single error envelope for every failure
type ErrorResponse struct {
	Error     string `json:"error"` // category, e.g. NotFoundError
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
	Details   any    `json:"details,omitempty"`
}
