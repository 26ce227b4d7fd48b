// Package cost estimates the monetary cost of model usage from per-token
// pricing. Prices follow the OpenRouter convention of USD per 1,000,000 tokens.
package cost

import (
	"fmt"
	"strings"

	"github.com/orchat/orchat/internal/schema"
)

const tokensPerPriceUnit = 1_000_000

// Estimate computes the USD cost of a usage given prompt and completion prices
// per million tokens. It returns nil (cost unknown) when the usage or either
// price is missing; an unpriced model must never report a zero cost. A negative
// price is a caller error.
func Estimate(usage *schema.Usage, pricingPrompt, pricingCompletion *float64) (*float64, error) {
	if pricingPrompt != nil && *pricingPrompt < 0 {
		return nil, fmt.Errorf("pricing_prompt must not be negative, got %v", *pricingPrompt)
	}
	if pricingCompletion != nil && *pricingCompletion < 0 {
		return nil, fmt.Errorf("pricing_completion must not be negative, got %v", *pricingCompletion)
	}
	if usage == nil || pricingPrompt == nil || pricingCompletion == nil {
		return nil, nil
	}

	promptCost := float64(usage.PromptTokens) / tokensPerPriceUnit * *pricingPrompt
	completionCost := float64(usage.CompletionTokens) / tokensPerPriceUnit * *pricingCompletion
	amount := promptCost + completionCost
	return &amount, nil
}

// ForModel estimates the cost of a usage with the model's catalog pricing,
// falling back to the built-in default table when the catalog has no prices.
func ForModel(usage *schema.Usage, info schema.ModelInfo) (*float64, error) {
	prompt, completion := info.PricingPrompt, info.PricingCompletion
	if prompt == nil || completion == nil {
		if p, ok := defaultPricing(info.ID); ok {
			prompt, completion = &p.Prompt, &p.Completion
		}
	}
	return Estimate(usage, prompt, completion)
}

// Pricing is a prompt/completion price pair in USD per million tokens.
type Pricing struct {
	Prompt     float64
	Completion float64
}

// Fallback prices for common models when the catalog carries none.
var defaultPrices = map[string]Pricing{
	"openai/gpt-4":                 {Prompt: 30.0, Completion: 60.0},
	"openai/gpt-4-turbo":           {Prompt: 10.0, Completion: 30.0},
	"openai/gpt-3.5-turbo":         {Prompt: 0.5, Completion: 1.5},
	"anthropic/claude-3.5-sonnet":  {Prompt: 3.0, Completion: 15.0},
	"anthropic/claude-3-haiku":     {Prompt: 0.25, Completion: 1.25},
	"anthropic/claude-3-opus":      {Prompt: 15.0, Completion: 75.0},
}

func defaultPricing(modelID string) (Pricing, bool) {
	if p, ok := defaultPrices[modelID]; ok {
		return p, true
	}
	// Models advertising themselves as free cost nothing.
	if strings.Contains(strings.ToLower(modelID), "free") {
		return Pricing{}, true
	}
	return Pricing{}, false
}
