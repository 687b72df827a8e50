package trackpro

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

var (
	// ErrUnauthorized matches every *AuthenticationError via errors.Is.
	ErrUnauthorized = errors.New("trackpro: unauthorized")

	// ErrNoSession is returned when a refresh is attempted without a stored token.
	ErrNoSession = errors.New("trackpro: no session to refresh")

	// ErrInvalidSession is returned when a session triple is only partially set.
	ErrInvalidSession = errors.New("trackpro: access token, user id and role must be set or cleared together")

	// ErrEmptyBody is returned when decoding a response without a body.
	ErrEmptyBody = errors.New("trackpro: empty response body")
)

// ErrorResponse is the error body returned by the API.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ParseErrorResponse decodes an API error body. Bodies that are not a JSON
// object yield a placeholder with Status "unknown".
func ParseErrorResponse(body []byte) ErrorResponse {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return ErrorResponse{
			Status:  "unknown",
			Message: "Error parsing JSON string",
			Error:   "ParsingError",
		}
	}
	return ErrorResponse{
		Status:  stringify(raw["status"]),
		Message: stringify(raw["message"]),
		Error:   stringify(raw["error"]),
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}

// TransportError reports a call that produced no HTTP response.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("trackpro: %s %s: transport: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthStage identifies which call of a request flow failed authentication.
type AuthStage string

const (
	StageRequest AuthStage = "request"
	StageRefresh AuthStage = "refresh"
	StageReplay  AuthStage = "replay"
)

// AuthenticationError is a terminal authentication failure. Callers are
// expected to clear the session and send the user back to login.
type AuthenticationError struct {
	Stage      AuthStage
	StatusCode int
	Body       ErrorResponse
	Err        error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("trackpro: authentication failed at %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("trackpro: authentication failed at %s: status %d", e.Stage, e.StatusCode)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

func (e *AuthenticationError) Is(target error) bool { return target == ErrUnauthorized }

// ApplicationError is any non-2xx, non-401 response. It is passed through
// unchanged and never retried.
type ApplicationError struct {
	StatusCode int
	Body       ErrorResponse
	Response   *Response
}

func (e *ApplicationError) Error() string {
	if e.Body.Message != "" {
		return fmt.Sprintf("trackpro: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body.Message)
	}
	return fmt.Sprintf("trackpro: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsAuthentication reports whether err is a terminal authentication failure.
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// StatusCode extracts the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var ae *AuthenticationError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	var app *ApplicationError
	if errors.As(err, &app) {
		return app.StatusCode
	}
	return 0
}
