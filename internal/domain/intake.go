package domain

import "time"

// IntakeFieldNames is the fixed schema of attributes the extraction prompt
// asks for: identity, contact, housing and service-interest fields.
var IntakeFieldNames = []string{
	"firstName",
	"lastName",
	"dateOfBirth",
	"pronouns",
	"phoneNumber",
	"email",
	"currentLocation",
	"sleepingSituation",
	"safetyConcerns",
	"interestedServices",
}

// IntakeRecord is the structured profile of a youth's needs accumulated
// across one conversation session.
//
// Keys absent from Fields have never been observed; a key present with an
// empty or falsy value means the topic came up but the answer is still
// unknown. Both count as missing, and only observed keys enter the
// completeness denominator.
type IntakeRecord struct {
	SessionID SessionID
	UserID    UserID

	// Fields maps field name to a scalar or list value.
	Fields map[string]any

	// ExtractedFields and MissingFields partition the key set of Fields by
	// truthiness of the value. Derived, recomputed on every merge.
	ExtractedFields []string
	MissingFields   []string

	// Completeness is 100 * |ExtractedFields| / |keys(Fields)|, 0 when no
	// field has ever been observed. Confidence has no independent signal and
	// tracks Completeness.
	Completeness int
	Confidence   int

	LastUpdate time.Time
}
