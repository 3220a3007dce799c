package model

import "time"

// PromptStatus represents the lifecycle state of a prompt.
type PromptStatus string

const (
	PromptStatusActive  PromptStatus = "active"
	PromptStatusRetired PromptStatus = "retired"
)

// Prompt is a single question put to the configured providers. A prompt is
// immutable once it has been tested against; edits create a new prompt and
// retire the old one.
type Prompt struct {
	ID        string       `json:"id"`
	Text      string       `json:"text"`
	UserID    string       `json:"user_id"`
	TopicID   string       `json:"topic_id,omitempty"`
	PersonaID string       `json:"persona_id,omitempty"`
	Status    PromptStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// Brand identifies one tracked brand by display name and primary domain.
type Brand struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// BrandContext carries the analysis subject and its configured competitors.
// The engine has no brand knowledge of its own; everything flows from here.
type BrandContext struct {
	Subject     Brand   `json:"subject"`
	Competitors []Brand `json:"competitors,omitempty"`
}

// Tracked returns the subject brand followed by the competitors, in caller
// order. The subject is always first so scorecard metric lists are stable.
func (bc BrandContext) Tracked() []Brand {
	out := make([]Brand, 0, 1+len(bc.Competitors))
	out = append(out, bc.Subject)
	out = append(out, bc.Competitors...)
	return out
}

// CompetitorDomains returns just the competitor domains, for citation
// classification.
func (bc BrandContext) CompetitorDomains() []string {
	domains := make([]string, 0, len(bc.Competitors))
	for _, c := range bc.Competitors {
		if c.Domain != "" {
			domains = append(domains, c.Domain)
		}
	}
	return domains
}
