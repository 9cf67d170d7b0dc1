package chat

import (
	"fmt"
	"strings"

	"github.com/havenline/outreach-api/internal/domain"
)

// contextFromProfile flattens a stored profile into the natural-language
// context string a session is seeded with. Only attributes that are actually
// set end up in the text; an empty profile yields an empty string.
func contextFromProfile(p *domain.Profile) string {
	if p == nil {
		return ""
	}

	var parts []string
	if p.Name != "" {
		parts = append(parts, fmt.Sprintf("Their name is %s.", p.Name))
	}
	if p.Age > 0 {
		parts = append(parts, fmt.Sprintf("They are %d years old.", p.Age))
	}
	if p.Pronouns != "" {
		parts = append(parts, fmt.Sprintf("Their pronouns are %s.", p.Pronouns))
	}
	if p.Location != "" {
		parts = append(parts, fmt.Sprintf("They are currently in %s.", p.Location))
	}
	if len(p.Needs) > 0 {
		parts = append(parts, fmt.Sprintf("They previously mentioned needing: %s.", strings.Join(p.Needs, ", ")))
	}

	if len(parts) == 0 {
		return ""
	}
	return "What we already know about this person: " + strings.Join(parts, " ")
}
