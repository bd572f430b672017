package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeMessagingError     ErrorCode = "COMMON_017"
	ErrCodeGraphError         ErrorCode = "COMMON_018"
)

// Symbiosis engine error codes
const (
	ErrCodeInvalidEntity   ErrorCode = "SYM_001"
	ErrCodeInvariant       ErrorCode = "SYM_002"
	ErrCodeEngineConfig    ErrorCode = "SYM_003"
	ErrCodeBudgetExceeded  ErrorCode = "SYM_004"
	ErrCodeParse           ErrorCode = "SYM_005"
	ErrCodeEntityNotFound  ErrorCode = "SYM_006"
	ErrCodeTooManyEntities ErrorCode = "SYM_007"
)

// Short aliases used by call sites.
const (
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
)

// ErrorCodeHTTPStatus maps an ErrorCode to the HTTP status the API returns.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeMessagingError:     http.StatusInternalServerError,
	ErrCodeGraphError:         http.StatusInternalServerError,

	ErrCodeInvalidEntity:   http.StatusUnprocessableEntity,
	ErrCodeInvariant:       http.StatusInternalServerError,
	ErrCodeEngineConfig:    http.StatusInternalServerError,
	ErrCodeBudgetExceeded:  http.StatusGatewayTimeout,
	ErrCodeParse:           http.StatusBadRequest,
	ErrCodeEntityNotFound:  http.StatusNotFound,
	ErrCodeTooManyEntities: http.StatusRequestEntityTooLarge,
}

// ErrorCodeMessage holds the default message for each ErrorCode.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization error",
	ErrCodeCacheError:         "cache error",
	ErrCodeMessagingError:     "event publishing failed",
	ErrCodeGraphError:         "graph store error",

	ErrCodeInvalidEntity:   "invalid entity record",
	ErrCodeInvariant:       "engine invariant violated",
	ErrCodeEngineConfig:    "invalid engine configuration",
	ErrCodeBudgetExceeded:  "analysis budget exceeded",
	ErrCodeParse:           "failed to parse entity input",
	ErrCodeEntityNotFound:  "entity not found",
	ErrCodeTooManyEntities: "too many entities in request",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// ModuleForCode returns the module prefix of an ErrorCode ("SYM", "COMMON").
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
