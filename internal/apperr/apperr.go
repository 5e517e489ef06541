package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries an HTTP status and a stable machine code alongside the cause.
// Services return these; handlers translate them into the response envelope.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

const (
	CodeScrapeEmpty             = "scrape_empty"
	CodeEmptyAfterPreprocessing = "empty_after_preprocessing"
	CodeModelUnavailable        = "model_unavailable"
	CodeMissingRequiredField    = "missing_required_field"
	CodeDuplicateKey            = "duplicate_key"
	CodeLogNotFound             = "log_not_found"
	CodeInsufficientData        = "insufficient_data"
	CodeRetrainInFlight         = "retrain_in_flight"
	CodeNotReady                = "not_ready"
)

func ScrapeEmpty(err error) *Error {
	return New(http.StatusNotFound, CodeScrapeEmpty, err)
}

func EmptyAfterPreprocessing(err error) *Error {
	return New(http.StatusInternalServerError, CodeEmptyAfterPreprocessing, err)
}

func ModelUnavailable(err error) *Error {
	return New(http.StatusInternalServerError, CodeModelUnavailable, err)
}

func MissingRequiredField(field string) *Error {
	return New(http.StatusBadRequest, CodeMissingRequiredField, fmt.Errorf("%s wajib diisi", field))
}

func DuplicateKey(err error) *Error {
	return New(http.StatusConflict, CodeDuplicateKey, err)
}

func LogNotFound(err error) *Error {
	return New(http.StatusNotFound, CodeLogNotFound, err)
}

func InsufficientData(err error) *Error {
	return New(http.StatusBadRequest, CodeInsufficientData, err)
}

func RetrainInFlight() *Error {
	return New(http.StatusConflict, CodeRetrainInFlight, errors.New("retraining already in progress"))
}

func NotReady(state string) *Error {
	return New(http.StatusServiceUnavailable, CodeNotReady, fmt.Errorf("models not ready: %s", state))
}

// Is reports whether err is an *Error carrying the given code.
func Is(err error, code string) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// StatusOf extracts the HTTP status from err, defaulting to 500.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// CodeOf extracts the machine code from err, or "" for plain errors.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
