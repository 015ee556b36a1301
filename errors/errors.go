package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a failure for API clients.
type ErrorCode string

const (
	// Auth errors
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"

	// Lookup errors
	ErrCodeRoomNotFound    ErrorCode = "ROOM_NOT_FOUND"
	ErrCodeBookingNotFound ErrorCode = "BOOKING_NOT_FOUND"
	ErrCodeStudentNotFound ErrorCode = "STUDENT_NOT_FOUND"

	// Admission and state errors
	ErrCodeDuplicateActiveBooking ErrorCode = "DUPLICATE_ACTIVE_BOOKING"
	ErrCodeRoomFull               ErrorCode = "ROOM_FULL"
	ErrCodeGenderMismatch         ErrorCode = "GENDER_MISMATCH"
	ErrCodeInvalidTransition      ErrorCode = "INVALID_TRANSITION"
	ErrCodeRoomUnavailable        ErrorCode = "ROOM_UNAVAILABLE"
	ErrCodeRoomOccupied           ErrorCode = "ROOM_OCCUPIED"
	ErrCodeBookingsLocked         ErrorCode = "BOOKINGS_LOCKED"

	// Validation errors
	ErrCodeInvalidInput         ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidStatus        ErrorCode = "INVALID_STATUS"
	ErrCodeInvalidPaymentStatus ErrorCode = "INVALID_PAYMENT_STATUS"
	ErrCodeTermsNotAgreed       ErrorCode = "TERMS_NOT_AGREED"

	// Database errors
	ErrCodeDBError ErrorCode = "DB_ERROR"
)

// Kind is the failure category a caller can branch on.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindBadRequest
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// AppError is the error type every service returns.
type AppError struct {
	Code    ErrorCode
	Kind    Kind
	Message string
	Err     error
	// Suggestion carries a "did you mean" hint for lookup failures.
	Suggestion string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError builds an internal AppError.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Kind:    KindInternal,
		Message: message,
		Err:     err,
	}
}

func NotFound(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Kind: KindNotFound, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Code: ErrCodeForbidden, Kind: KindForbidden, Message: message}
}

func Conflict(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Kind: KindConflict, Message: message}
}

func BadRequest(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Kind: KindBadRequest, Message: message}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{Code: ErrCodeInvalidToken, Kind: KindUnauthorized, Message: message, Err: err}
}

func Internal(message string, err error) *AppError {
	return NewAppError(ErrCodeDBError, message, err)
}

// IsAppError reports whether err wraps an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError returns the AppError wrapped by err, or nil.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// KindOf returns KindInternal for anything that is not an AppError.
func KindOf(err error) Kind {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Kind
	}
	return KindInternal
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}

// HTTPStatus maps an error onto the status code the API answers with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
