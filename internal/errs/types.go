package errs

import "strings"

// FieldError is a validation error tied to a single form field:
//
//	{ "field": "service_type", "error": "must be one of: ..." }
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ActionType is a hint telling the client what to do next.
type ActionType string

const ActionTypeRetry ActionType = "retry"

type Action struct {
	Type    ActionType `json:"type"`
	Message string     `json:"message"`
	Value   string     `json:"value"`
}

// HTTPError is the JSON body of every error response.
//
// Override tells the frontend that Message is meant for end users and can
// be shown as is.
type HTTPError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Status   int    `json:"status"`
	Override bool   `json:"override"`

	Errors []FieldError `json:"errors"`
	Action *Action      `json:"action"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, &HTTPError{}) match any HTTPError.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// MakeUpperCaseWithUnderscores turns "Bad Request" into "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
