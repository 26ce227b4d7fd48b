package openrouter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchat/orchat/internal/provider"
)

// sseServer streams the given lines as one SSE response.
func sseServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		for _, line := range lines {
			_, _ = w.Write([]byte(line + "\n"))
			flusher.Flush()
		}
	}))
}

// drain collects every delta until the channel closes.
func drain(t *testing.T, ch <-chan provider.StreamDelta) []provider.StreamDelta {
	t.Helper()
	var got []provider.StreamDelta
	for {
		select {
		case d, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, d)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for stream")
		}
	}
}

func TestStreamChatDeltasAndDone(t *testing.T) {
	srv := sseServer(t,
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		``,
		`data: {"choices":[{"delta":{"content":"lo"}}]}`,
		``,
		`data: {"choices":[{"delta":{"content":""}}],"usage":{"prompt_tokens":10,"completion_tokens":2,"total_tokens":12}}`,
		``,
		`data: [DONE]`,
	)
	defer srv.Close()

	c := newTestClient(t, srv, -1)
	ch, err := c.StreamChat(context.Background(), chatReq())
	require.NoError(t, err)

	got := drain(t, ch)
	require.Len(t, got, 3)
	assert.Equal(t, "Hel", got[0].Content)
	assert.Equal(t, "lo", got[1].Content)

	final := got[2]
	assert.True(t, final.Done)
	require.NotNil(t, final.Usage)
	assert.Equal(t, 12, final.Usage.TotalTokens)
}

func TestStreamChatSkipsCommentsAndKeepAlives(t *testing.T) {
	srv := sseServer(t,
		`: OPENROUTER PROCESSING`,
		`: plain comment`,
		`event: ping`,
		`data: {"choices":[{"delta":{"content":"hi"}}]}`,
		`data: [DONE]`,
	)
	defer srv.Close()

	c := newTestClient(t, srv, -1)
	ch, err := c.StreamChat(context.Background(), chatReq())
	require.NoError(t, err)

	got := drain(t, ch)
	require.Len(t, got, 2)
	assert.Equal(t, "hi", got[0].Content)
	assert.True(t, got[1].Done)
}

func TestStreamChatSkipsMalformedFrames(t *testing.T) {
	srv := sseServer(t,
		`data: {"choices":[{"delta":{"content":"before"}}]}`,
		`data: {not valid json`,
		`data: {"choices":[{"delta":{"content":"after"}}]}`,
		`data: [DONE]`,
	)
	defer srv.Close()

	c := newTestClient(t, srv, -1)
	ch, err := c.StreamChat(context.Background(), chatReq())
	require.NoError(t, err)

	got := drain(t, ch)
	require.Len(t, got, 3)
	assert.Equal(t, "before", got[0].Content)
	assert.Equal(t, "after", got[1].Content)
	assert.True(t, got[2].Done)
}

func TestStreamChatEOFWithoutSentinel(t *testing.T) {
	srv := sseServer(t,
		`data: {"choices":[{"delta":{"content":"partial"}}]}`,
	)
	defer srv.Close()

	c := newTestClient(t, srv, -1)
	ch, err := c.StreamChat(context.Background(), chatReq())
	require.NoError(t, err)

	got := drain(t, ch)
	require.Len(t, got, 2)
	assert.Equal(t, "partial", got[0].Content)
	assert.True(t, got[1].Done)
	assert.Nil(t, got[1].Usage)
}

func TestStreamChatCancellation(t *testing.T) {
	firstSent := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		_, _ = w.Write([]byte(`data: {"choices":[{"delta":{"content":"first"}}]}` + "\n"))
		flusher.Flush()
		close(firstSent)
		// Hold the connection open until the client goes away.
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := newTestClient(t, srv, -1)
	ch, err := c.StreamChat(ctx, chatReq())
	require.NoError(t, err)

	select {
	case d := <-ch:
		assert.Equal(t, "first", d.Content)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first delta")
	}
	<-firstSent
	cancel()

	// A cancelled stream ends without a terminal Done, so a partial turn can
	// never look complete to the caller.
	got := drain(t, ch)
	for _, d := range got {
		assert.False(t, d.Done, "cancelled stream must not report Done")
	}
}

func TestStreamChatErrorStatusBeforeStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad model"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, -1)
	_, err := c.StreamChat(context.Background(), chatReq())
	apiErr, ok := provider.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, provider.KindRequest, apiErr.Kind)
	assert.Equal(t, "bad model", apiErr.Message)
}

func TestStreamRequestsEventStream(t *testing.T) {
	var accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("data: [DONE]\n"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, -1)
	ch, err := c.StreamChat(context.Background(), chatReq())
	require.NoError(t, err)
	drain(t, ch)
	assert.True(t, strings.HasPrefix(accept, "text/event-stream"))
}
