package common

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error kinds. Every error returned to a handler either wraps one of these
// or is treated as internal.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("resource conflict")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrNotFound     = errors.New("requested resource not found")
)

const (
	MsgInternal       = "Internal server error."
	MsgDuplicateValue = "A record with this value already exists."
	MsgInvalidPayload = "Invalid request payload."
)

// AppError carries a caller-safe message alongside its kind.
type AppError struct {
	Kind    error
	Message string
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Kind }

func NewValidationError(msg string) error { return &AppError{Kind: ErrValidation, Message: msg} }

func NewConflictError(msg string) error { return &AppError{Kind: ErrConflict, Message: msg} }

func NewAuthenticationError(msg string) error { return &AppError{Kind: ErrUnauthorized, Message: msg} }

func NewNotFoundError(msg string) error { return &AppError{Kind: ErrNotFound, Message: msg} }

// IsUniqueViolation reports whether err carries PostgreSQL code 23505.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrConflict) || IsUniqueViolation(err) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the text that may be shown to the caller. Anything
// that is not an AppError is reduced to a generic message.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if IsUniqueViolation(err) {
		return MsgDuplicateValue
	}
	if errors.Is(err, ErrConflict) {
		return MsgDuplicateValue
	}
	return MsgInternal
}
