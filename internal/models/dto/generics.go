// Package dto contains Data Transfer Objects for API responses
package dto

import (
	"time"

	"github.com/gin-gonic/gin"
)

// BaseResponse holds the fields every response carries
type BaseResponse struct {
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// ErrorResponse is the generic error payload
type ErrorResponse struct {
	BaseResponse
	Error   string      `json:"error"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// HealthResponse is the healthcheck payload
type HealthResponse struct {
	BaseResponse
	Status  string            `json:"status" example:"OK"`
	Service string            `json:"service" example:"beacon"`
	Version string            `json:"version" example:"1.0.0"`
	Uptime  string            `json:"uptime,omitempty" example:"1h30m45s"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// AuthErrorResponse covers authentication failures specifically
type AuthErrorResponse struct {
	BaseResponse
	Error   string `json:"error" example:"unauthorized"`
	Code    int    `json:"code" example:"401"`
	Message string `json:"message" example:"Missing or invalid service token"`
}

// RateLimitErrorResponse covers throttled requests
type RateLimitErrorResponse struct {
	BaseResponse
	Error      string `json:"error" example:"rate_limit_exceeded"`
	Code       int    `json:"code" example:"429"`
	Message    string `json:"message" example:"Request limit exceeded"`
	RetryAfter string `json:"retry_after" example:"60s"`
}

// NewErrorResponse builds a standard error response
func NewErrorResponse(c *gin.Context, code int, error string, message string, details interface{}) ErrorResponse {
	return ErrorResponse{
		BaseResponse: BaseResponse{
			Success:   false,
			Timestamp: time.Now().UTC(),
			RequestID: getRequestID(c),
		},
		Error:   error,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewHealthResponse builds a healthcheck response
func NewHealthResponse(c *gin.Context, status, service, version, uptime string, checks map[string]string) HealthResponse {
	return HealthResponse{
		BaseResponse: BaseResponse{
			Success:   status == "OK",
			Timestamp: time.Now().UTC(),
			RequestID: getRequestID(c),
		},
		Status:  status,
		Service: service,
		Version: version,
		Uptime:  uptime,
		Checks:  checks,
	}
}

// NewAuthErrorResponse builds an authentication error response
func NewAuthErrorResponse(c *gin.Context, message string) AuthErrorResponse {
	return AuthErrorResponse{
		BaseResponse: BaseResponse{
			Success:   false,
			Timestamp: time.Now().UTC(),
			RequestID: getRequestID(c),
		},
		Error:   "unauthorized",
		Code:    401,
		Message: message,
	}
}

// NewRateLimitErrorResponse builds a throttling error response
func NewRateLimitErrorResponse(c *gin.Context, retryAfter string) RateLimitErrorResponse {
	return RateLimitErrorResponse{
		BaseResponse: BaseResponse{
			Success:   false,
			Timestamp: time.Now().UTC(),
			RequestID: getRequestID(c),
		},
		Error:      "rate_limit_exceeded",
		Code:       429,
		Message:    "Request limit exceeded",
		RetryAfter: retryAfter,
	}
}

// getRequestID pulls the request ID out of the gin context
func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}
