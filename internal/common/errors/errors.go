// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Company registry and levy estimation
const (
	ErrCodeInvalidIdentifierFormat ErrorCode = "INVALID_IDENTIFIER_FORMAT"
	ErrCodeCompanyNotFound         ErrorCode = "COMPANY_NOT_FOUND"
	ErrCodeInvalidHeadcount        ErrorCode = "INVALID_HEADCOUNT"

	ErrCodeUpstreamAuth      ErrorCode = "UPSTREAM_AUTH_ERROR"
	ErrCodeUpstreamRateLimit ErrorCode = "UPSTREAM_RATE_LIMITED"
	ErrCodeUpstreamTransport ErrorCode = "UPSTREAM_TRANSPORT_ERROR"
	ErrCodeUpstreamNotFound  ErrorCode = "UPSTREAM_RESOURCE_NOT_FOUND"

	ErrCodeNotificationSinkFailure ErrorCode = "NOTIFICATION_SINK_FAILURE"
	ErrCodeEmailSendFailed         ErrorCode = "EMAIL_SEND_FAILED"

	ErrCodeSignatureSequenceFailed ErrorCode = "SIGNATURE_SEQUENCE_FAILED"

	ErrCodeDatabaseInsertFailed ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeQueryExecutionFailed ErrorCode = "QUERY_EXECUTION_FAILED"

	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeInputParsingFailed ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// AsStandardError unwraps err until a *StandardError is found.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the error code of err, or UNKNOWN_ERROR.
func CodeOf(err error) string {
	if stdErr, ok := AsStandardError(err); ok {
		return string(stdErr.Code)
	}
	return "UNKNOWN_ERROR"
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidIdentifierError is returned when a SIRET or SIREN fails the digit check.
// The message is shown to the end user as is.
func NewInvalidIdentifierError(message, value string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidIdentifierFormat,
		Message:   message,
		Details:   fmt.Sprintf("value: %q", value),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCompanyNotFoundError creates a terminal registry miss. The message names
// SIREN for 9-digit identifiers and SIRET otherwise.
func NewCompanyNotFoundError(identifier string) *StandardError {
	kind := "SIRET"
	if len(identifier) == 9 {
		kind = "SIREN"
	}
	return &StandardError{
		Code:      ErrCodeCompanyNotFound,
		Message:   "Entreprise non trouvée avec ce " + kind,
		Details:   fmt.Sprintf("identifier: %s", identifier),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidHeadcountError creates a terminal headcount error.
func NewInvalidHeadcountError(headcount int) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidHeadcount,
		Message:   "Le nombre d'employés doit être un entier positif",
		Details:   fmt.Sprintf("headcount: %d", headcount),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamAuthError signals a missing or rejected collaborator credential.
func NewUpstreamAuthError(service, message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamAuth,
		Message:   message,
		Details:   fmt.Sprintf("service: %s", service),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamRateLimitedError signals collaborator throttling.
func NewUpstreamRateLimitedError(service, message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamRateLimit,
		Message:   message,
		Details:   fmt.Sprintf("service: %s", service),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamTransportError covers network failures and unexpected statuses.
func NewUpstreamTransportError(service, message string, err error) *StandardError {
	details := fmt.Sprintf("service: %s", service)
	if err != nil {
		details = fmt.Sprintf("service: %s, error: %s", service, err.Error())
	}
	return &StandardError{
		Code:      ErrCodeUpstreamTransport,
		Message:   message,
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamNotFoundError is a 404 from a collaborator other than the registry.
func NewUpstreamNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamNotFound,
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSinkFailure wraps a failed persistence, email or SMS sink.
func NewNotificationSinkFailure(sink string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSinkFailure,
		Message:   "Notification sink failed",
		Details:   fmt.Sprintf("sink: %s, error: %s", sink, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmailSendFailedError creates a retryable email delivery error.
func NewEmailSendFailedError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmailSendFailed,
		Message:   "Email delivery failed",
		Details:   fmt.Sprintf("provider: %s, error: %s", provider, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSignatureSequenceError reports the step at which a signature request stopped.
func NewSignatureSequenceError(step string, err error) *StandardError {
	stdErr := &StandardError{
		Code:      ErrCodeSignatureSequenceFailed,
		Message:   fmt.Sprintf("Signature request failed at step %s", step),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
	if cause, ok := AsStandardError(err); ok {
		stdErr.Retryable = cause.Retryable
		stdErr.WithMetadata("causeCode", string(cause.Code))
	}
	return stdErr.WithMetadata("step", step)
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(table string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   fmt.Sprintf("table: %s, error: %s", table, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInputParsingError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputParsingFailed,
		Message:   "Failed to parse job variables",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewInternalError(message string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   message,
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return NewUpstreamTransportError(service, fmt.Sprintf("External service '%s' error", service), err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return NewUpstreamTransportError(service, fmt.Sprintf("Service '%s' timeout", service), err)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return NewUpstreamNotFoundError(service, details)
}

func NewAuthenticationError(service, details string) *StandardError {
	stdErr := NewUpstreamAuthError(service, "Authentication failed")
	stdErr.Details = details
	return stdErr
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal codes to the error codes used in BPMN boundary events.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidIdentifierFormat: "INVALID_IDENTIFIER_FORMAT",
	ErrCodeCompanyNotFound:         "COMPANY_NOT_FOUND",
	ErrCodeInvalidHeadcount:        "INVALID_HEADCOUNT",
	ErrCodeUpstreamAuth:            "UPSTREAM_AUTH_ERROR",
	ErrCodeUpstreamRateLimit:       "UPSTREAM_RATE_LIMITED",
	ErrCodeUpstreamTransport:       "UPSTREAM_TRANSPORT_ERROR",
	ErrCodeUpstreamNotFound:        "UPSTREAM_RESOURCE_NOT_FOUND",
	ErrCodeEmailSendFailed:         "EMAIL_SEND_FAILED",
	ErrCodeSignatureSequenceFailed: "SIGNATURE_SEQUENCE_FAILED",
	ErrCodeDatabaseInsertFailed:    "DATABASE_INSERT_FAILED",
	ErrCodeQueryExecutionFailed:    "QUERY_EXECUTION_FAILED",
	ErrCodeValidationFailed:        "VALIDATION_FAILED",
	ErrCodeInputParsingFailed:      "INPUT_PARSING_FAILED",
}

// GetRetryCount returns the number of job retries recommended for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeUpstreamTransport,
		ErrCodeDatabaseInsertFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeEmailSendFailed:
		return 3

	case ErrCodeUpstreamRateLimit:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	} else if retries == 0 {
		retries = 1
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "UPSTREAM"):
		return "UPSTREAM"
	case strings.Contains(codeStr, "COMPANY") || strings.Contains(codeStr, "IDENTIFIER") || strings.Contains(codeStr, "HEADCOUNT"):
		return "ESTIMATION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "EMAIL"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "SIGNATURE"):
		return "SIGNATURE"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PARSING"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
