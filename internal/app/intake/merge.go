package intake

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/havenline/outreach-api/internal/domain"
)

// decodePayload parses the raw model output as a JSON object. Models often
// wrap JSON in markdown fences even when told not to, so fences are stripped
// before decoding. Anything that is not a JSON object fails.
func decodePayload(raw string) (map[string]any, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var fields map[string]any
	if err := json.Unmarshal([]byte(s), &fields); err != nil {
		return nil, false
	}
	return fields, true
}

// mergeFields shallow-overlays incoming onto existing: every key present in
// incoming replaces the existing value, regardless of which looks "more
// complete". Keys absent from incoming keep their previous value.
// Last-extraction-wins per field, not per record.
func mergeFields(existing, incoming map[string]any) map[string]any {
	merged := make(map[string]any, len(existing)+len(incoming))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range incoming {
		merged[k] = v
	}
	return merged
}

// recompute derives ExtractedFields, MissingFields, Completeness and
// Confidence from rec.Fields. The two lists partition the key set and are
// sorted for stable output. With zero observed keys completeness is defined
// as 0 rather than dividing by zero.
func recompute(rec *domain.IntakeRecord) {
	extracted := make([]string, 0, len(rec.Fields))
	missing := make([]string, 0, len(rec.Fields))

	for k, v := range rec.Fields {
		if truthy(v) {
			extracted = append(extracted, k)
		} else {
			missing = append(missing, k)
		}
	}
	sort.Strings(extracted)
	sort.Strings(missing)

	rec.ExtractedFields = extracted
	rec.MissingFields = missing

	if total := len(rec.Fields); total > 0 {
		rec.Completeness = 100 * len(extracted) / total
	} else {
		rec.Completeness = 0
	}
	// No independent confidence signal exists.
	rec.Confidence = rec.Completeness
}

// truthy reports whether a field value counts as known. Empty strings, empty
// lists, zero numbers, false and nil all mean "explicitly unknown".
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case bool:
		return t
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
