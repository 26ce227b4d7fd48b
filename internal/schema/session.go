package schema

import (
	"strings"
	"time"
)

// SchemaVersion is the current session document version. Documents written by a
// newer version of orchat are refused on load.
const SchemaVersion = 1

// Turn is one user-request/assistant-response exchange plus its metadata.
// A committed turn is never modified.
type Turn struct {
	Messages     []Message `json:"messages"`
	Usage        *Usage    `json:"usage,omitempty"`
	LatencyMS    *float64  `json:"latency_ms,omitempty"`
	CostEstimate *float64  `json:"cost_estimate,omitempty"`
}

// Validate checks the turn invariants: at least one message, no system-role
// message, and every message valid on its own.
func (t Turn) Validate() error {
	if len(t.Messages) == 0 {
		return validationErrorf("turn must contain at least one message")
	}
	for _, m := range t.Messages {
		if m.Role == RoleSystem {
			return validationErrorf("system messages do not belong in a turn")
		}
		if err := m.Validate(); err != nil {
			return err
		}
	}
	if t.LatencyMS != nil && *t.LatencyMS < 0 {
		return validationErrorf("latency_ms must not be negative")
	}
	if t.CostEstimate != nil && *t.CostEstimate < 0 {
		return validationErrorf("cost_estimate must not be negative")
	}
	return nil
}

// Session is the append-only ledger of a conversation: its turns, derived usage
// totals, and open metadata. One caller owns a session; AddTurn is the only
// mutation path.
type Session struct {
	SchemaVersion int            `json:"schema_version"`
	CreatedAt     time.Time      `json:"created_at"`
	Model         string         `json:"model"`
	System        string         `json:"system,omitempty"`
	Turns         []Turn         `json:"turns"`
	UsageTotals   Usage          `json:"usage_totals"`
	Meta          map[string]any `json:"meta,omitempty"`
}

// NewSession starts an empty session for the given model.
func NewSession(model, system string) (*Session, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, validationErrorf("model must not be empty")
	}
	return &Session{
		SchemaVersion: SchemaVersion,
		CreatedAt:     time.Now().UTC(),
		Model:         model,
		System:        strings.TrimSpace(system),
		Turns:         []Turn{},
		Meta:          map[string]any{},
	}, nil
}

// AddTurn validates the turn and appends it to the ledger. On a validation
// error the session is left untouched. Usage totals are recomputed from all
// committed turns; turns without usage contribute nothing.
func (s *Session) AddTurn(t Turn) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.Turns = append(s.Turns, t)
	totals := Usage{}
	for _, turn := range s.Turns {
		if turn.Usage != nil {
			totals = totals.Add(*turn.Usage)
		}
	}
	s.UsageTotals = totals
	return nil
}

// TotalCost sums the cost estimates of all turns. Turns without a cost
// estimate count as zero.
func (s *Session) TotalCost() float64 {
	var total float64
	for _, t := range s.Turns {
		if t.CostEstimate != nil {
			total += *t.CostEstimate
		}
	}
	return total
}

// AllMessages returns the full conversation in order, with the system prompt
// first when one is set. This is the message list sent to the provider.
func (s *Session) AllMessages() []Message {
	var msgs []Message
	if s.System != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: s.System})
	}
	for _, t := range s.Turns {
		msgs = append(msgs, t.Messages...)
	}
	return msgs
}
