package provider

import (
	"context"

	"github.com/orchat/orchat/internal/schema"
)

// Provider defines the interface for chat-completion backends. A backend is
// selected at construction; callers never inspect the concrete type.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	StreamChat(ctx context.Context, req ChatRequest) (<-chan StreamDelta, error)
	ListModels(ctx context.Context) ([]schema.ModelInfo, error)
	ModelInfo(ctx context.Context, id string) (*schema.ModelInfo, error)
}

// ChatRequest is the input for a chat completion.
type ChatRequest struct {
	Model    string
	Messages []schema.Message

	// ExtraHeaders are merged into the HTTP request for this call only,
	// on top of the headers the provider was constructed with.
	ExtraHeaders map[string]string
}

// ChatResponse is the output of a non-streaming chat completion.
type ChatResponse struct {
	Content string
	Model   string
	Usage   *schema.Usage
}

// StreamDelta is a single streaming chunk. The channel carrying deltas is
// single-use: once drained or cancelled it cannot be replayed, a fresh request
// is required. The last delta either has Done set (with the final usage when
// the provider sent one) or carries Err.
type StreamDelta struct {
	Content string
	Done    bool
	Usage   *schema.Usage
	Err     error
}
