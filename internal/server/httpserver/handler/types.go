package handler

import "time"

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// LoginRequest is the request body for POST /auth/login.
type LoginRequest struct {
	Email string `json:"email"`
}

// VerifyRequest is the request body for POST /auth/verify.
type VerifyRequest struct {
	Token string `json:"token"`
}

// VerifyResponse is the response body for POST /auth/verify.
// Token is the sealed session, also set as the session cookie.
type VerifyResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MessageResponse carries a human readable message.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the response body for GET /health and GET /ready.
type HealthResponse struct {
	Status  string `json:"status"`
	Time    string `json:"time"`
	Version string `json:"version,omitempty"`
}
