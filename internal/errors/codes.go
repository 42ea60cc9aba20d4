package errors

import "net/http"

// ErrorCode represents the type of error
type ErrorCode string

const (
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrForbidden      ErrorCode = "FORBIDDEN"
	ErrConflict       ErrorCode = "CONFLICT"
	ErrValidation     ErrorCode = "VALIDATION_ERROR"
	ErrBadRequest     ErrorCode = "BAD_REQUEST"
	ErrInternalError  ErrorCode = "INTERNAL_ERROR"
	ErrAlreadyExists  ErrorCode = "ALREADY_EXISTS"
	ErrRateLimited    ErrorCode = "RATE_LIMITED"
	ErrServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"

	// Media ingestion
	ErrUnsupportedMediaKind ErrorCode = "UNSUPPORTED_MEDIA_KIND"
	ErrCorruptMedia         ErrorCode = "CORRUPT_OR_MISMATCHED_MEDIA"
	ErrPayloadTooLarge      ErrorCode = "PAYLOAD_TOO_LARGE"
	ErrIngestionFailed      ErrorCode = "INGESTION_FAILED"

	// Comment moderation
	ErrProfanityRejected ErrorCode = "PROFANITY_REJECTED"
	ErrDuplicateContent  ErrorCode = "DUPLICATE_CONTENT_REJECTED"
	ErrFloodRate         ErrorCode = "FLOOD_RATE_REJECTED"

	// Social graph
	ErrSelfFollow ErrorCode = "SELF_FOLLOW_REJECTED"
)

// StatusCodeMap maps ErrorCode to HTTP status code
var StatusCodeMap = map[ErrorCode]int{
	ErrNotFound:       http.StatusNotFound,
	ErrUnauthorized:   http.StatusUnauthorized,
	ErrForbidden:      http.StatusForbidden,
	ErrConflict:       http.StatusConflict,
	ErrValidation:     http.StatusUnprocessableEntity,
	ErrBadRequest:     http.StatusBadRequest,
	ErrInternalError:  http.StatusInternalServerError,
	ErrAlreadyExists:  http.StatusConflict,
	ErrRateLimited:    http.StatusTooManyRequests,
	ErrServiceUnavail: http.StatusServiceUnavailable,

	ErrUnsupportedMediaKind: http.StatusBadRequest,
	ErrCorruptMedia:         http.StatusBadRequest,
	ErrPayloadTooLarge:      http.StatusRequestEntityTooLarge,
	ErrIngestionFailed:      http.StatusInternalServerError,

	ErrProfanityRejected: http.StatusBadRequest,
	ErrDuplicateContent:  http.StatusBadRequest,
	ErrFloodRate:         http.StatusTooManyRequests,

	ErrSelfFollow: http.StatusBadRequest,
}

// StatusCode returns the HTTP status code for this error code
func (e ErrorCode) StatusCode() int {
	if code, ok := StatusCodeMap[e]; ok {
		return code
	}
	return http.StatusInternalServerError
}
