package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

// Kind classifies a failed provider call. Every failure maps to exactly one
// kind; retry decisions are made from the kind alone.
type Kind string

const (
	// KindAuthMissing means no credential could be resolved. Raised before
	// any network attempt.
	KindAuthMissing Kind = "auth_missing"
	// KindAuth is a credential rejected by the server (401).
	KindAuth Kind = "auth"
	// KindRateLimit is a 429.
	KindRateLimit Kind = "rate_limit"
	// KindServer is any 5xx.
	KindServer Kind = "server"
	// KindRequest is any other 4xx or an unmapped status: the request itself
	// is wrong (for example an unknown model id) and retrying cannot help.
	KindRequest Kind = "request"
	// KindNetwork is a connection failure or per-attempt timeout.
	KindNetwork Kind = "network"
	// KindDecode is a malformed stream frame. Decoding continues past it.
	KindDecode Kind = "decode"
)

// APIError is a classified provider failure.
type APIError struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (http %d)", e.StatusCode)
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" && e.StatusCode != 0 {
		msg = http.StatusText(e.StatusCode)
	}
	if msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is worth another attempt.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindRateLimit, KindServer, KindNetwork:
		return true
	default:
		return false
	}
}

// Remediation returns a short hint for the user, where one exists.
func (e *APIError) Remediation() string {
	switch e.Kind {
	case KindAuthMissing:
		return "Set OPENROUTER_API_KEY (or add api_key to the config file). Get a key at https://openrouter.ai/keys"
	case KindAuth:
		return "The server rejected the API key. Check OPENROUTER_API_KEY."
	case KindRateLimit:
		return "Rate limited. Wait a moment and try again."
	case KindServer:
		return "The provider is having trouble. Try again later."
	case KindNetwork:
		return "Could not reach the provider. Check the network and the base URL."
	default:
		return ""
	}
}

// AsAPIError unwraps err into an *APIError if one is in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// errorBody is the error envelope OpenRouter-style APIs return.
type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Classify maps a non-2xx response to a failure kind. The body is consulted
// for a server-supplied message so unknown-model and similar request errors
// keep their remediation context.
func Classify(statusCode int, body []byte) *APIError {
	msg := serverMessage(body)
	switch {
	case statusCode == http.StatusUnauthorized:
		return &APIError{Kind: KindAuth, StatusCode: statusCode, Message: msg}
	case statusCode == http.StatusTooManyRequests:
		return &APIError{Kind: KindRateLimit, StatusCode: statusCode, Message: msg}
	case statusCode >= 500:
		return &APIError{Kind: KindServer, StatusCode: statusCode, Message: msg}
	default:
		// Everything unmapped is a fatal request error so a misbehaving
		// server can never put us in a retry loop.
		return &APIError{Kind: KindRequest, StatusCode: statusCode, Message: msg}
	}
}

// ClassifyTransport maps a failed round trip (no HTTP status available) to a
// failure kind. Context cancellation is passed through untouched so callers
// can distinguish a user interrupt from a network fault.
func ClassifyTransport(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &APIError{Kind: KindNetwork, Err: err}
}

func serverMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error.Message != "" {
		return eb.Error.Message
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}
