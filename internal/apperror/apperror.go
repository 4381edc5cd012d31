// Package apperror defines the typed errors surfaced by the API and the
// ingestion pipeline, each carrying the HTTP status and short error code the
// response envelope reports.
package apperror

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// Error codes, grouped the same way the API documents them: specific
// conditions first, then general request errors, then the catch-alls.
const (
	CodeClientNotFound      = "001"
	CodeAppointmentNotFound = "002"
	CodePurchaseNotFound    = "003"
	CodeServiceNotFound     = "004"
	CodeInvalidCsvFile      = "005"
	CodeInvalidCsvStructure = "006"
	CodeMalformedField      = "007"

	CodeDataIntegrity        = "101"
	CodeArgumentTypeMismatch = "102"
	CodeConstraintViolation  = "103"

	CodeBadRequest = "400"
	CodeInternal   = "500"
)

const (
	InvalidCsvFileMessage      = "The csv file you're trying to upload is invalid."
	ConstraintViolationMessage = "Constraint violation"
)

// FieldError names one request or CSV field that failed validation.
type FieldError struct {
	FieldName  string `json:"field_name"`
	FieldError string `json:"field_error"`
}

// Error is the application error type. Every failure the API reports to a
// caller is either an *Error or gets wrapped into the internal one.
type Error struct {
	Status  int
	Code    string
	Message string
	Fields  []FieldError
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithCause attaches the underlying error for server-side logging. The cause
// is never serialized into the response.
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func ClientNotFound(id uuid.UUID) *Error {
	return New(http.StatusNotFound, CodeClientNotFound,
		fmt.Sprintf("The Client with id (%s) does not exist.", id))
}

func AppointmentNotFound(id uuid.UUID) *Error {
	return New(http.StatusNotFound, CodeAppointmentNotFound,
		fmt.Sprintf("The Appointment with id (%s) does not exist.", id))
}

func PurchaseNotFound(id uuid.UUID) *Error {
	return New(http.StatusNotFound, CodePurchaseNotFound,
		fmt.Sprintf("The Purchase with id (%s) does not exist.", id))
}

func ServiceNotFound(id uuid.UUID) *Error {
	return New(http.StatusNotFound, CodeServiceNotFound,
		fmt.Sprintf("The Service with id (%s) does not exist.", id))
}

// InvalidCsvFile covers uploads rejected before parsing (empty content, wrong
// content type) and CSV input the reader cannot tokenize at all.
func InvalidCsvFile() *Error {
	return New(http.StatusConflict, CodeInvalidCsvFile, InvalidCsvFileMessage)
}

// InvalidCsvStructure covers header mismatches and rows with the wrong number
// of columns. Structural failures abort the whole ingestion request.
func InvalidCsvStructure(message string) *Error {
	return New(http.StatusConflict, CodeInvalidCsvStructure, message)
}

// MalformedField covers a field value that cannot be parsed into its target
// type (uuid, decimal, integer, enum, timestamp).
func MalformedField(field, message string) *Error {
	e := New(http.StatusConflict, CodeMalformedField, message)
	e.Fields = []FieldError{{FieldName: field, FieldError: message}}
	return e
}

// ConstraintViolation carries the complete set of field-rule violations for
// one record, already sorted ascending by field name.
func ConstraintViolation(fields []FieldError) *Error {
	e := New(http.StatusBadRequest, CodeConstraintViolation, ConstraintViolationMessage)
	e.Fields = fields
	return e
}

func DataIntegrity(message string) *Error {
	return New(http.StatusConflict, CodeDataIntegrity, message)
}

func ArgumentTypeMismatch(message string) *Error {
	return New(http.StatusBadRequest, CodeArgumentTypeMismatch, message)
}

// BadRequest carries request-body validation failures, sorted by field name.
func BadRequest(message string, fields []FieldError) *Error {
	e := New(http.StatusBadRequest, CodeBadRequest, message)
	e.Fields = fields
	return e
}

// Internal wraps an unexpected failure. The caller sees a generic message;
// the cause stays server-side.
func Internal(cause error) *Error {
	return New(http.StatusInternalServerError, CodeInternal, "Internal server error").WithCause(cause)
}
