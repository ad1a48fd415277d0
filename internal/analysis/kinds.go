package analysis

import "strings"

// Kind selects the prompt template used for an analysis.
type Kind string

const (
	KindFinancial Kind = "financial"
	KindSWOT      Kind = "swot"
	KindSummary   Kind = "summary"
	KindChart     Kind = "chart"
)

// PrimaryKinds are the kinds offered for the uploaded document.
var PrimaryKinds = []Kind{KindFinancial, KindSWOT, KindSummary, KindChart}

// SecondaryKinds are the kinds offered for the scraped news content.
var SecondaryKinds = []Kind{KindFinancial, KindSWOT, KindSummary}

// ParseKind normalizes user input. The result may still be invalid.
func ParseKind(raw string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(raw)))
}

// Valid reports whether k has a prompt template.
func (k Kind) Valid() bool {
	_, ok := templates[k]
	return ok
}

// Secondary reports whether k may be used for news content.
func (k Kind) Secondary() bool {
	for _, s := range SecondaryKinds {
		if s == k {
			return true
		}
	}
	return false
}

// Capitalized returns the kind with its first letter upper-cased and the
// rest lower-cased, as used in document titles ("Swot", "Financial").
func (k Kind) Capitalized() string {
	s := strings.ToLower(string(k))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (k Kind) String() string {
	return string(k)
}
