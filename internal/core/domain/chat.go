package domain

import "strings"

// Mode selects the generation quality/latency tradeoff. It maps to model
// parameters in the external gateway and has no other business meaning.
type Mode string

const (
	ModeFast     Mode = "fast"
	ModeAccurate Mode = "accurate"
)

// ParseMode normalizes a requested mode, defaulting to fast.
func ParseMode(s string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(s))) == ModeAccurate {
		return ModeAccurate
	}
	return ModeFast
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ContextSnippet is one grounding unit handed to the answer generator.
type ContextSnippet struct {
	ID     string `json:"id"`
	Source Source `json:"source"`
	Text   string `json:"text"`
}

// Completion is the answer generator output. Citations may be empty when
// the concrete gateway could not attribute sources; the query orchestrator
// then defaults them from the supplied snippets.
type Completion struct {
	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`
}
