package profile

import "strings"

// FilingStatus is the federal filing status.
type FilingStatus string

const (
	FilingSingle  FilingStatus = "single"
	FilingMFJ     FilingStatus = "mfj"
	FilingMFS     FilingStatus = "mfs"
	FilingHOH     FilingStatus = "hoh"
	FilingQSS     FilingStatus = "qss"
	FilingUnknown FilingStatus = "unknown"
)

// Valid reports whether f is one of the known statuses.
func (f FilingStatus) Valid() bool {
	switch f {
	case FilingSingle, FilingMFJ, FilingMFS, FilingHOH, FilingQSS, FilingUnknown:
		return true
	}
	return false
}

// ParseFilingStatus maps free text like "Married filing jointly" to a
// FilingStatus. Text that names no status maps to FilingUnknown.
func ParseFilingStatus(v any) FilingStatus {
	s, ok := v.(string)
	if !ok {
		return FilingUnknown
	}
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)

	if f := FilingStatus(s); f.Valid() {
		return f
	}

	switch {
	case strings.Contains(s, "jointly") || strings.Contains(s, "joint"):
		return FilingMFJ
	case strings.Contains(s, "separate"):
		return FilingMFS
	case strings.Contains(s, "head of household") || strings.Contains(s, "head of house"):
		return FilingHOH
	case strings.Contains(s, "widow") || strings.Contains(s, "surviving spouse"):
		return FilingQSS
	case strings.Contains(s, "single"):
		return FilingSingle
	}
	return FilingUnknown
}

var stateCodes = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"district of columbia": "DC", "florida": "FL", "georgia": "GA", "hawaii": "HI",
	"idaho": "ID", "illinois": "IL", "indiana": "IN", "iowa": "IA",
	"kansas": "KS", "kentucky": "KY", "louisiana": "LA", "maine": "ME",
	"maryland": "MD", "massachusetts": "MA", "michigan": "MI", "minnesota": "MN",
	"mississippi": "MS", "missouri": "MO", "montana": "MT", "nebraska": "NE",
	"nevada": "NV", "new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM",
	"new york": "NY", "north carolina": "NC", "north dakota": "ND", "ohio": "OH",
	"oklahoma": "OK", "oregon": "OR", "pennsylvania": "PA", "rhode island": "RI",
	"south carolina": "SC", "south dakota": "SD", "tennessee": "TN", "texas": "TX",
	"utah": "UT", "vermont": "VT", "virginia": "VA", "washington": "WA",
	"west virginia": "WV", "wisconsin": "WI", "wyoming": "WY",
}

// ParseState normalizes a state name or code to its two-letter code. Values
// it cannot resolve return "".
func ParseState(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if code, ok := stateCodes[strings.ToLower(s)]; ok {
		return code
	}
	upper := strings.ToUpper(s)
	if validStateCode(upper) {
		return upper
	}
	return ""
}

func validStateCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, c := range stateCodes {
		if c == code {
			return true
		}
	}
	return false
}
