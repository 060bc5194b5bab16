package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// StatusNetwork is the Status of errors where no HTTP response was received.
const StatusNetwork = 0

const (
	connectionErrorMessage = "connection error with the server"
	unknownErrorDetail     = "unknown error"
)

// Error is the normalised failure of any API call: transport errors carry
// StatusNetwork, HTTP errors carry the response status.
type Error struct {
	Message string
	Status  int
	Detail  string

	err error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the transport error, if any.
func (e *Error) Unwrap() error {
	return e.err
}

// IsNetwork reports whether no response was received.
func (e *Error) IsNetwork() bool {
	return e.Status == StatusNetwork
}

// DecodeError reports a 2xx response whose body did not match the expected
// shape.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response from %s: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newHTTPError(status int, statusText string, body []byte) *Error {
	detail := errorDetail(body)
	if detail == "" {
		detail = statusText
	}
	if detail == "" {
		detail = unknownErrorDetail
	}
	return &Error{
		Message: fmt.Sprintf("error %d: %s", status, detail),
		Status:  status,
		Detail:  detail,
	}
}

func newNetworkError(err error) *Error {
	detail := unknownErrorDetail
	if err != nil {
		detail = err.Error()
	}
	return &Error{
		Message: connectionErrorMessage,
		Status:  StatusNetwork,
		Detail:  detail,
		err:     err,
	}
}

// errorDetail pulls a human readable message out of an error body. FastAPI
// validation failures put a list of {loc, msg} objects under detail.
func errorDetail(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if len(payload.Detail) > 0 {
		var text string
		if err := json.Unmarshal(payload.Detail, &text); err == nil && text != "" {
			return text
		}

		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if item.Msg != "" {
					msgs = append(msgs, item.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}

	return payload.Message
}

func statusText(resp *http.Response) string {
	// resp.Status is "404 Not Found"; keep only the reason phrase.
	if _, reason, ok := strings.Cut(resp.Status, " "); ok && reason != "" {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}
