package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeServiceUnavailable is used when a backing service is down or disabled
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
)

// Authentication error codes
const (
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeForbidden          = "ERR_FORBIDDEN"
	ErrCodeTokenExpired       = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid       = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked       = "ERR_TOKEN_REVOKED"
	ErrCodeTokenMaxRefresh    = "ERR_TOKEN_MAX_REFRESH"
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrCodeAccountDisabled    = "ERR_ACCOUNT_DISABLED"
	ErrCodeInvalidSignature   = "ERR_INVALID_SIGNATURE"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeCategoryInUse       = "ERR_CATEGORY_IN_USE"
	ErrCodeRequestInProgress   = "ERR_REQUEST_IN_PROGRESS"
)

// Business rule error codes
const (
	ErrCodeInvalidState       = "ERR_INVALID_STATE"
	ErrCodeBusinessRule       = "ERR_BUSINESS_RULE"
	ErrCodeInsufficientStock  = "ERR_INSUFFICIENT_STOCK"
	ErrCodeProductUnavailable = "ERR_PRODUCT_UNAVAILABLE"
	ErrCodeAlreadyPaid        = "ERR_ALREADY_PAID"
	ErrCodeAmountMismatch     = "ERR_PAYMENT_AMOUNT_MISMATCH"
	ErrCodeMethodUnavailable  = "ERR_PAYMENT_METHOD_UNAVAILABLE"
	ErrCodeObjectNotUploaded  = "ERR_OBJECT_NOT_UPLOADED"
)

// Upstream error codes
const (
	ErrCodeGatewayUnavailable = "ERR_PAYMENT_GATEWAY_UNAVAILABLE"
	ErrCodeGatewayError       = "ERR_PAYMENT_GATEWAY_ERROR"
	ErrCodeInvoiceUnavailable = "ERR_INVOICE_UNAVAILABLE"
	ErrCodeStorageDisabled    = "ERR_STORAGE_DISABLED"
)

// Input error codes
const (
	ErrCodeBadRequest          = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput        = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON         = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge     = "ERR_REQUEST_TOO_LARGE"
	ErrCodeFileTooLarge        = "ERR_FILE_TOO_LARGE"
	ErrCodeUnsupportedFileType = "ERR_UNSUPPORTED_FILE_TYPE"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:            http.StatusInternalServerError,
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeTokenRevoked:       http.StatusUnauthorized,
	ErrCodeTokenMaxRefresh:    http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeAccountDisabled:    http.StatusForbidden,
	ErrCodeInvalidSignature:   http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeCategoryInUse:       http.StatusConflict,
	ErrCodeRequestInProgress:   http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:       http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:  http.StatusUnprocessableEntity,
	ErrCodeProductUnavailable: http.StatusUnprocessableEntity,
	ErrCodeAlreadyPaid:        http.StatusConflict,
	ErrCodeAmountMismatch:     http.StatusUnprocessableEntity,
	ErrCodeMethodUnavailable:  http.StatusUnprocessableEntity,
	ErrCodeObjectNotUploaded:  http.StatusUnprocessableEntity,

	// Upstream errors
	ErrCodeGatewayUnavailable: http.StatusServiceUnavailable,
	ErrCodeGatewayError:       http.StatusBadGateway,
	ErrCodeInvoiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeStorageDisabled:    http.StatusServiceUnavailable,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeInvalidJSON:         http.StatusBadRequest,
	ErrCodeRequestTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeFileTooLarge:        http.StatusRequestEntityTooLarge,
	ErrCodeUnsupportedFileType: http.StatusUnsupportedMediaType,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// inputErrorPrefixes cover the field level domain codes (ERR_INVALID_EMAIL,
// ERR_EMPTY_ORDER, ERR_TOO_MANY_ITEMS, ...) that are not listed one by one
var inputErrorPrefixes = []string{"ERR_INVALID_", "ERR_EMPTY_", "ERR_TOO_MANY_"}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	for _, prefix := range inputErrorPrefixes {
		if strings.HasPrefix(code, prefix) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain codes whose name differs from the API code
var LegacyErrorCodeMapping = map[string]string{
	"VALIDATION_ERROR": ErrCodeValidation,
	"INTERNAL_ERROR":   ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format by
// adding the ERR_ prefix. Codes already in the API format are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	if code == "" {
		return ErrCodeUnknown
	}
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	return "ERR_" + code
}
