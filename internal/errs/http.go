package errs

import (
	"net/http"
)

// statusCode is the default error code for an HTTP status, e.g. BAD_REQUEST.
func statusCode(status int) string {
	return MakeUpperCaseWithUnderscores(http.StatusText(status))
}

func NewBadRequestError(message string, override bool, code *string, errors []FieldError, action *Action) *HTTPError {
	e := &HTTPError{
		Code:     statusCode(http.StatusBadRequest),
		Message:  message,
		Status:   http.StatusBadRequest,
		Override: override,
		Errors:   errors,
		Action:   action,
	}
	if code != nil {
		e.Code = *code
	}
	return e
}

func NewNotFoundError(message string, override bool, code *string) *HTTPError {
	e := &HTTPError{
		Code:     statusCode(http.StatusNotFound),
		Message:  message,
		Status:   http.StatusNotFound,
		Override: override,
	}
	if code != nil {
		e.Code = *code
	}
	return e
}

// NewTooManyRequestsError asks the client to retry a throttled request.
func NewTooManyRequestsError(message string) *HTTPError {
	return &HTTPError{
		Code:     statusCode(http.StatusTooManyRequests),
		Message:  message,
		Status:   http.StatusTooManyRequests,
		Override: true,
		Action: &Action{
			Type:    ActionTypeRetry,
			Message: "Riprova tra qualche istante",
		},
	}
}

func NewInternalServerError() *HTTPError {
	return &HTTPError{
		Code:    statusCode(http.StatusInternalServerError),
		Message: http.StatusText(http.StatusInternalServerError),
		Status:  http.StatusInternalServerError,
	}
}

// NewPersistenceError reports a store failure. The store's error text is
// passed through to the client unchanged.
func NewPersistenceError(err error, code string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: err.Error(),
		Status:  http.StatusInternalServerError,
	}
}

// ValidationError wraps a model validation failure as a 400.
func ValidationError(err error) *HTTPError {
	return NewBadRequestError("Validation failed: "+err.Error(), false, nil, nil, nil)
}
