package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		status    int
		wantKind  Kind
		retryable bool
	}{
		{401, KindAuth, false},
		{429, KindRateLimit, true},
		{500, KindServer, true},
		{502, KindServer, true},
		{503, KindServer, true},
		{400, KindRequest, false},
		{404, KindRequest, false},
		{418, KindRequest, false},
		// Unmapped statuses must never loop retries.
		{302, KindRequest, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			got := Classify(tt.status, nil)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.status, got.StatusCode)
			assert.Equal(t, tt.retryable, got.Retryable())
		})
	}
}

func TestClassifyParsesErrorEnvelope(t *testing.T) {
	body := []byte(`{"error":{"message":"model not found"}}`)
	got := Classify(404, body)
	assert.Equal(t, KindRequest, got.Kind)
	assert.Equal(t, "model not found", got.Message)
}

func TestClassifyTruncatesRawBody(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	got := Classify(500, long)
	assert.LessOrEqual(t, len(got.Message), 300)
}

func TestClassifyTransportPassesCancellation(t *testing.T) {
	err := ClassifyTransport(fmt.Errorf("round trip: %w", context.Canceled))
	assert.ErrorIs(t, err, context.Canceled)
	_, isAPI := AsAPIError(err)
	assert.False(t, isAPI)
}

func TestClassifyTransportWrapsNetworkErrors(t *testing.T) {
	cause := errors.New("connection refused")
	err := ClassifyTransport(cause)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, apiErr.Kind)
	assert.True(t, apiErr.Retryable())
	assert.ErrorIs(t, err, cause)
}

func TestAuthMissingNotRetryable(t *testing.T) {
	e := &APIError{Kind: KindAuthMissing, Message: "no key"}
	assert.False(t, e.Retryable())
	assert.NotEmpty(t, e.Remediation())
}

func TestRemediationHints(t *testing.T) {
	for _, kind := range []Kind{KindAuthMissing, KindAuth, KindRateLimit, KindServer, KindNetwork} {
		e := &APIError{Kind: kind}
		assert.NotEmpty(t, e.Remediation(), "kind %s should carry a hint", kind)
	}
	assert.Empty(t, (&APIError{Kind: KindRequest}).Remediation())
}

func TestErrorString(t *testing.T) {
	e := &APIError{Kind: KindRateLimit, StatusCode: 429, Message: "slow down"}
	s := e.Error()
	assert.Contains(t, s, "rate_limit")
	assert.Contains(t, s, "429")
	assert.Contains(t, s, "slow down")
}
