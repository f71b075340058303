package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
)

// Marketplace gateway error codes
const (
	// ErrCodeGatewayUnavailable is used when a marketplace API cannot be reached
	ErrCodeGatewayUnavailable = "ERR_GATEWAY_UNAVAILABLE"
	// ErrCodeGatewayAuthFailed is used when marketplace credentials are rejected
	ErrCodeGatewayAuthFailed = "ERR_GATEWAY_AUTH_FAILED"
	// ErrCodeGatewayRateLimited is used when a marketplace throttles our calls
	ErrCodeGatewayRateLimited = "ERR_GATEWAY_RATE_LIMITED"
	// ErrCodeGatewayNotConfigured is used when no gateway is registered for a platform
	ErrCodeGatewayNotConfigured = "ERR_GATEWAY_NOT_CONFIGURED"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodeTooManyRequests is an alias for rate limiting
	ErrCodeTooManyRequests = "ERR_TOO_MANY_REQUESTS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,

	// Gateway errors
	ErrCodeGatewayUnavailable:   http.StatusBadGateway,
	ErrCodeGatewayAuthFailed:    http.StatusBadGateway,
	ErrCodeGatewayRateLimited:   http.StatusServiceUnavailable,
	ErrCodeGatewayNotConfigured: http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeTooManyRequests: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to standardized API codes.
// Domain packages raise codes in their own vocabulary; the HTTP layer
// translates them here so clients see a stable set.
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,

	// Catalog items
	"ITEM_NOT_FOUND":        ErrCodeNotFound,
	"SKU_REQUIRED":          ErrCodeInvalidInput,
	"SKU_TOO_LONG":          ErrCodeInvalidInput,
	"BRAND_REQUIRED":        ErrCodeInvalidInput,
	"NEGATIVE_PRICE":        ErrCodeInvalidInput,
	"NEGATIVE_QUANTITY":     ErrCodeInvalidInput,
	"UNIQUE_QUANTITY":       ErrCodeBusinessRule,
	"RELIST_NEEDS_QUANTITY": ErrCodeBusinessRule,

	// Platform links
	"LINK_NOT_FOUND":          ErrCodeNotFound,
	"LINK_ALREADY_EXISTS":     ErrCodeAlreadyExists,
	"LINK_INVALID_ITEM":       ErrCodeInvalidInput,
	"LINK_INVALID_PLATFORM":   ErrCodeInvalidInput,
	"LINK_UNKNOWN_STATUS":     ErrCodeInvalidInput,
	"LINK_NATIVE_ID_REQUIRED": ErrCodeInvalidInput,
	"LINK_NATIVE_ID_RESOLVED": ErrCodeInvalidState,

	// Change events
	"EVENT_NOT_FOUND":      ErrCodeNotFound,
	"EVENT_NOT_PENDING":    ErrCodeInvalidState,
	"EVENT_NOT_PROCESSING": ErrCodeInvalidState,
	"EVENT_TERMINAL":       ErrCodeInvalidState,
	"EVENT_INVALID_TYPE":   ErrCodeInvalidInput,

	// Pending resolutions
	"RESOLUTION_NOT_FOUND": ErrCodeNotFound,
	"RESOLUTION_CLOSED":    ErrCodeInvalidState,

	// Marketplace gateways
	"GATEWAY_UNAVAILABLE":    ErrCodeGatewayUnavailable,
	"GATEWAY_AUTH_FAILED":    ErrCodeGatewayAuthFailed,
	"GATEWAY_RATE_LIMITED":   ErrCodeGatewayRateLimited,
	"GATEWAY_NOT_CONFIGURED": ErrCodeGatewayNotConfigured,
}

// NormalizeErrorCode converts a domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
