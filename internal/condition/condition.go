// Package condition maps raw detector class labels to the skin-condition
// records shown to pet owners.
package condition

import (
	"strings"

	"github.com/arbovm/levenshtein"
)

// Severity is the qualitative risk tier attached to a condition.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Label is the upper-case badge text for the severity, e.g. "HIGH".
func (s Severity) Label() string {
	return strings.ToUpper(string(s))
}

// Info is the display record for one condition.
type Info struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// FallbackDescription is used for labels the table does not know.
const FallbackDescription = "Skin condition detected. Please consult with a veterinarian."

// maxSuggestDistance bounds how far an unknown label may be from a known one
// before Nearest stops calling it a match.
const maxSuggestDistance = 2

var conditions = map[string]Info{
	"dermatitis": {
		Name:        "Dermatitis",
		Description: "Skin inflammation that may cause redness, itching, and discomfort.",
		Severity:    SeverityMedium,
	},
	"hotspot": {
		Name:        "Hot Spot",
		Description: "Acute moist dermatitis that requires immediate attention.",
		Severity:    SeverityHigh,
	},
	"fungal": {
		Name:        "Fungal Infection",
		Description: "Fungal skin infection that may spread if left untreated.",
		Severity:    SeverityMedium,
	},
	"bacterial": {
		Name:        "Bacterial Infection",
		Description: "Bacterial skin infection requiring veterinary treatment.",
		Severity:    SeverityHigh,
	},
	"allergic": {
		Name:        "Allergic Reaction",
		Description: "Allergic skin reaction that may require identifying triggers.",
		Severity:    SeverityMedium,
	},
}

// Lookup returns the record for label, matched case-insensitively. Unknown
// labels get a medium-severity fallback named after the label as given.
func Lookup(label string) Info {
	if info, ok := conditions[strings.ToLower(label)]; ok {
		return info
	}
	return Info{
		Name:        label,
		Description: FallbackDescription,
		Severity:    SeverityMedium,
	}
}

// Known reports whether label is in the table.
func Known(label string) bool {
	_, ok := conditions[strings.ToLower(label)]
	return ok
}

// Nearest finds the known condition closest to an unrecognised label by edit
// distance. It returns false for known labels and for labels further than
// maxSuggestDistance from every entry. It does not affect Lookup.
func Nearest(label string) (Info, int, bool) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if normalized == "" || Known(normalized) {
		return Info{}, 0, false
	}

	best := ""
	bestDistance := maxSuggestDistance + 1
	for key := range conditions {
		d := levenshtein.Distance(normalized, key)
		// ties resolve alphabetically so the result does not depend on map order
		if d < bestDistance || (d == bestDistance && key < best) {
			best, bestDistance = key, d
		}
	}
	if best == "" || bestDistance > maxSuggestDistance {
		return Info{}, 0, false
	}
	return conditions[best], bestDistance, true
}
