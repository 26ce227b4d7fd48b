// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatCost formats a USD cost value. LLM call costs are routinely fractions
// of a cent, so small amounts keep four decimal places.
func FormatCost(cost float64) string {
	switch {
	case cost >= 100:
		return fmt.Sprintf("$%.0f", cost)
	case cost >= 1:
		return fmt.Sprintf("$%.2f", cost)
	case cost >= 0.01:
		return fmt.Sprintf("$%.3f", cost)
	default:
		return fmt.Sprintf("$%.4f", cost)
	}
}

// FormatCostOrUnknown renders a possibly-unknown cost. Unknown is spelled out
// rather than shown as zero.
func FormatCostOrUnknown(cost *float64) string {
	if cost == nil {
		return "unknown"
	}
	return FormatCost(*cost)
}

// FormatTokens formats a token count with human-readable suffixes.
// e.g., 1234 -> "1.2K", 1234567 -> "1.2M"
func FormatTokens(n int) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.Itoa(n)
	}
}

// FormatDuration formats milliseconds into a human-readable duration.
// e.g., 850 -> "850ms", 2300 -> "2.3s", 65000 -> "1m 5s"
func FormatDuration(ms float64) string {
	switch {
	case ms < 1000:
		return fmt.Sprintf("%.0fms", ms)
	case ms < 60_000:
		return fmt.Sprintf("%.1fs", ms/1000)
	default:
		total := int(ms / 1000)
		return fmt.Sprintf("%dm %ds", total/60, total%60)
	}
}

// FormatContextLength renders a context window size, or a dash when unknown.
func FormatContextLength(n *int) string {
	if n == nil {
		return "—"
	}
	return FormatTokens(*n)
}

// FormatPrice renders a per-million-token price, or a dash when unknown.
func FormatPrice(p *float64) string {
	if p == nil {
		return "—"
	}
	return fmt.Sprintf("$%.2f/1M", *p)
}

// Truncate shortens text to maxLen runes, appending an ellipsis. Newlines are
// flattened so table cells stay single-line.
func Truncate(text string, maxLen int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
