package openrouter

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/orchat/orchat/internal/provider"
	"github.com/orchat/orchat/internal/schema"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
	// OpenRouter emits this comment while the upstream model is queued.
	keepAliveMarker = "OPENROUTER PROCESSING"
)

// streamChunk is one decoded SSE frame from /chat/completions.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *wireUsage `json:"usage"`
}

// StreamChat opens a streaming chat completion and returns a channel of
// deltas. The channel is single-use and closes after the terminal delta
// (Done or Err); cancelling ctx closes the connection and ends the stream
// without a terminal Done, so nothing gets committed from a cancelled turn.
func (c *Client) StreamChat(ctx context.Context, req provider.ChatRequest) (<-chan provider.StreamDelta, error) {
	payload, err := json.Marshal(chatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/chat/completions", payload, req.ExtraHeaders, true)
	if err != nil {
		return nil, err
	}

	ch := make(chan provider.StreamDelta)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		c.decodeStream(ctx, resp, ch)
	}()
	return ch, nil
}

// decodeStream reads SSE lines until the [DONE] sentinel, the body ends, or
// ctx is cancelled. Comment lines are skipped; a frame that fails to parse is
// dropped and decoding continues, so one bad frame never loses the frames
// after it.
func (c *Client) decodeStream(ctx context.Context, resp *http.Response, ch chan<- provider.StreamDelta) {
	// Closing the body on cancellation unblocks the scanner.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			resp.Body.Close()
		case <-done:
		}
	}()

	var usage *schema.Usage

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		// SSE comments are keep-alives, never events.
		if strings.HasPrefix(line, ":") || strings.Contains(line, keepAliveMarker) {
			continue
		}
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))

		if data == doneSentinel {
			c.send(ctx, ch, provider.StreamDelta{Done: true, Usage: usage})
			return
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.log.Debug().Err(err).Msg("skipping malformed stream frame")
			continue
		}

		if chunk.Usage != nil {
			usage = c.usageFromWire(chunk.Usage)
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			if !c.send(ctx, ch, provider.StreamDelta{Content: chunk.Choices[0].Delta.Content}) {
				return
			}
		}
	}

	if err := scanner.Err(); err != nil {
		select {
		case <-ctx.Done():
			// User cancelled: the read error is just the closed body.
		default:
			c.send(ctx, ch, provider.StreamDelta{Err: provider.ClassifyTransport(err)})
		}
		return
	}

	// Body ended without a [DONE] sentinel. Surface what we have; the
	// usage may be missing.
	c.send(ctx, ch, provider.StreamDelta{Done: true, Usage: usage})
}

func (c *Client) send(ctx context.Context, ch chan<- provider.StreamDelta, d provider.StreamDelta) bool {
	select {
	case ch <- d:
		return true
	case <-ctx.Done():
		return false
	}
}
