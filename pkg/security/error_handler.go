// Package security sanitizes errors crossing the RPC boundary and maps
// the domain error taxonomy to RPC status codes.
// Adapted from pkg/security/error_handler.go's
// SecurityErrorHandler/ErrorSanitizer, generalized to dispatch on
// domain.Code via domain.Coder instead of string-matching the error
// message.
package security

import (
	"errors"
	"fmt"
	"regexp"

	"google.golang.org/grpc/codes"

	"github.com/coreidentity/authcore/pkg/domain"
)

// ErrorHandler sanitizes errors before they're logged or returned to
// a caller across the RPC boundary.
type ErrorHandler struct {
	logger    domain.Logger
	sanitizer *ErrorSanitizer
}

// NewErrorHandler builds an ErrorHandler.
func NewErrorHandler(logger domain.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger, sanitizer: NewErrorSanitizer()}
}

// HandleSystemError logs the sanitized error for diagnosis and returns
// a user-safe error describing only the operation and its domain code.
func (h *ErrorHandler) HandleSystemError(err error, operation string) error {
	if err == nil {
		return nil
	}

	sanitized := h.sanitizer.Sanitize(err)
	h.logger.Error("system operation failed", "operation", operation, "error", sanitized.Error())

	code := domain.CodeInternal
	var coder domain.Coder
	if errors.As(err, &coder) {
		code = coder.DomainCode()
	}
	return domain.NewDomainError(code, fmt.Sprintf("operation failed: %s", operation), nil)
}

// HandleValidationError logs and wraps a validation failure without
// echoing the raw user input that triggered it.
func (h *ErrorHandler) HandleValidationError(err error, fieldType string) error {
	if err == nil {
		return nil
	}
	h.logger.Warn("input validation failed", "error", err.Error(), "field_type", fieldType)
	return err
}

// ErrorSanitizer strips sensitive substrings (credentials, secrets,
// home directories) from error text before it's logged, matching
// the reference default pattern set.
type ErrorSanitizer struct {
	patterns      []*regexp.Regexp
	redactionText string
}

// NewErrorSanitizer builds an ErrorSanitizer with the default patterns.
func NewErrorSanitizer() *ErrorSanitizer {
	return &ErrorSanitizer{
		redactionText: "[REDACTED]",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)password[=:\s]+[^\s]+`),
			regexp.MustCompile(`(?i)pwd[=:\s]+[^\s]+`),
			regexp.MustCompile(`(?i)api[_-]?key[=:\s]+[^\s]+`),
			regexp.MustCompile(`(?i)token[=:\s]+[^\s]+`),
			regexp.MustCompile(`(?i)secret[=:\s]+[^\s]+`),
			regexp.MustCompile(`(?i)://[^:]+:[^@]+@`),
			regexp.MustCompile(`/home/[^/\s]+`),
			regexp.MustCompile(`/Users/[^/\s]+`),
			regexp.MustCompile(`(?i)[A-Z_]*SECRET[A-Z_]*[=:\s]+[^\s]+`),
			regexp.MustCompile(`(?i)[A-Z_]*KEY[A-Z_]*[=:\s]+[^\s]+`),
		},
	}
}

// Sanitize redacts sensitive substrings from err's message.
func (s *ErrorSanitizer) Sanitize(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, p := range s.patterns {
		msg = p.ReplaceAllString(msg, s.redactionText)
	}
	return errors.New(msg)
}

// MapToStatus implements a stable mapping from the
// domain Code taxonomy to gRPC status codes.
func MapToStatus(code domain.Code) codes.Code {
	switch code {
	case domain.CodeNotFound:
		return codes.NotFound
	case domain.CodeAlreadyExists:
		return codes.AlreadyExists
	case domain.CodeConcurrencyConflict:
		return codes.AlreadyExists
	case domain.CodeInvalidArgument, domain.CodeWeakPassword:
		return codes.InvalidArgument
	case domain.CodeUnauthenticated, domain.CodeTokenExpired, domain.CodeTokenInvalid,
		domain.CodeSessionExpired, domain.CodeInvalidCredentials:
		return codes.Unauthenticated
	case domain.CodePermissionDenied, domain.CodeUnauthorized, domain.CodeUserInactive,
		domain.CodeUserLocked, domain.CodeUserSuspended, domain.CodeFeatureDisabled:
		return codes.PermissionDenied
	case domain.CodePreconditionFailed:
		return codes.FailedPrecondition
	case domain.CodeUnavailable, domain.CodeDatabaseConnFailed:
		return codes.Unavailable
	case domain.CodeDeadlineExceeded:
		return codes.DeadlineExceeded
	case domain.CodeQuotaExceeded:
		return codes.ResourceExhausted
	case domain.CodeInternal:
		return codes.Internal
	default:
		return codes.Unknown
	}
}

// StatusForError extracts a domain.Code from err (via domain.Coder)
// and maps it to a gRPC status code, defaulting to Internal/Unknown
// behavior for errors outside the domain taxonomy.
func StatusForError(err error) codes.Code {
	var coder domain.Coder
	if errors.As(err, &coder) {
		return MapToStatus(coder.DomainCode())
	}
	return codes.Unknown
}
