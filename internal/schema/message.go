package schema

import "strings"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single conversation message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Validate checks that the message has a known role and non-empty content.
func (m Message) Validate() error {
	switch m.Role {
	case RoleUser, RoleAssistant, RoleSystem:
	default:
		return validationErrorf("unknown message role %q", m.Role)
	}
	if strings.TrimSpace(m.Content) == "" {
		return validationErrorf("message content must not be empty")
	}
	return nil
}

// Usage holds token accounting for a single API call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewUsage builds a Usage value, enforcing that total equals prompt + completion
// and that no count is negative.
func NewUsage(prompt, completion, total int) (Usage, error) {
	if prompt < 0 || completion < 0 {
		return Usage{}, validationErrorf("token counts must not be negative")
	}
	if total != prompt+completion {
		return Usage{}, validationErrorf("total_tokens (%d) must equal prompt_tokens + completion_tokens (%d)", total, prompt+completion)
	}
	return Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: total}, nil
}

// Add returns the element-wise sum of two usages.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}

// ModelInfo describes a model from the provider catalog.
// Pricing values are USD per 1,000,000 tokens; nil means the price is unknown.
type ModelInfo struct {
	ID                string   `json:"id"`
	ContextLength     *int     `json:"context_length,omitempty"`
	PricingPrompt     *float64 `json:"pricing_prompt,omitempty"`
	PricingCompletion *float64 `json:"pricing_completion,omitempty"`
	Description       string   `json:"description,omitempty"`
}

// Validate checks the model info invariants.
func (m ModelInfo) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return validationErrorf("model id must not be empty")
	}
	if m.ContextLength != nil && *m.ContextLength < 0 {
		return validationErrorf("context_length must not be negative")
	}
	if m.PricingPrompt != nil && *m.PricingPrompt < 0 {
		return validationErrorf("pricing_prompt must not be negative")
	}
	if m.PricingCompletion != nil && *m.PricingCompletion < 0 {
		return validationErrorf("pricing_completion must not be negative")
	}
	return nil
}
