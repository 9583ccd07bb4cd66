package canon

import (
	"regexp"
	"strings"
)

var (
	rePunct    = regexp.MustCompile(`[^A-Za-z0-9\s]`)
	reUnitPart = regexp.MustCompile(`^[A-Z]?\d+[A-Z]?\s*/\s*`)
)

// Canonicalize normalizes an Australian address and computes a stable key.
// Unit, shop and lot designators are dropped so every unit in a building
// shares the street-level key.
func Canonicalize(street, suburb, state, postcode string) (normStreet, normSuburb, normState, normPostcode, key string) {
	s := strings.TrimSpace(strings.ToUpper(street))
	s = stripUnit(s)
	s = rePunct.ReplaceAllString(s, " ")
	s = abbreviateSuffix(collapseSpaces(s))

	sub := collapseSpaces(rePunct.ReplaceAllString(strings.ToUpper(strings.TrimSpace(suburb)), " "))
	st := strings.ToUpper(strings.TrimSpace(state))
	if len(st) > 3 {
		st = stateAbbrev(st)
	}
	pc := trimPostcode(postcode)

	key = strings.ToLower(s + "|" + sub + "|" + st + "|" + pc)
	return s, sub, st, pc, key
}

// Display builds "12 Shore St, Mackay QLD 4740" from whatever parts exist.
func Display(street, suburb, state, postcode string) string {
	tail := collapseSpaces(strings.Join([]string{strings.TrimSpace(suburb), strings.ToUpper(strings.TrimSpace(state)), strings.TrimSpace(postcode)}, " "))
	street = strings.TrimSpace(street)
	switch {
	case street == "":
		return tail
	case tail == "":
		return street
	default:
		return street + ", " + tail
	}
}

// Terms splits a free-text location query into normalized match terms.
func Terms(q string) []string {
	q = rePunct.ReplaceAllString(strings.ToUpper(q), " ")
	fields := strings.Fields(q)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = abbreviateWord(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Normalize folds text the same way Terms does so the two can be compared.
func Normalize(text string) string {
	return " " + strings.Join(Terms(text), " ") + " "
}

// MatchesAll reports whether every term occurs as a whole word in text
// previously passed through Normalize.
func MatchesAll(normalized string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(normalized, " "+t+" ") {
			return false
		}
	}
	return true
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func trimPostcode(p string) string {
	p = strings.TrimSpace(p)
	if len(p) > 4 {
		return p[:4]
	}
	return p
}

func stripUnit(s string) string {
	s = reUnitPart.ReplaceAllString(strings.TrimSpace(s), "")
	for _, t := range []string{"UNIT ", "APT ", "APARTMENT ", "SHOP ", "SUITE ", "LOT "} {
		if strings.HasPrefix(s, t) {
			rest := strings.TrimSpace(s[len(t):])
			if i := strings.IndexAny(rest, " ,"); i >= 0 {
				return strings.TrimSpace(strings.TrimLeft(rest[i:], ", "))
			}
			return rest
		}
	}
	return s
}

var suffixes = map[string]string{
	"STREET":     "ST",
	"ROAD":       "RD",
	"AVENUE":     "AVE",
	"DRIVE":      "DR",
	"COURT":      "CT",
	"CRESCENT":   "CRES",
	"PARADE":     "PDE",
	"ESPLANADE":  "ESP",
	"PLACE":      "PL",
	"CLOSE":      "CL",
	"TERRACE":    "TCE",
	"HIGHWAY":    "HWY",
	"BOULEVARD":  "BVD",
	"LANE":       "LN",
	"CIRCUIT":    "CCT",
	"QUEENSLAND": "QLD",
}

func abbreviateWord(w string) string {
	if v, ok := suffixes[w]; ok {
		return v
	}
	return w
}

func abbreviateSuffix(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = abbreviateWord(w)
	}
	return strings.Join(words, " ")
}

func stateAbbrev(s string) string {
	m := map[string]string{
		"QUEENSLAND": "QLD", "NEW SOUTH WALES": "NSW", "VICTORIA": "VIC", "TASMANIA": "TAS",
		"SOUTH AUSTRALIA": "SA", "WESTERN AUSTRALIA": "WA", "NORTHERN TERRITORY": "NT",
		"AUSTRALIAN CAPITAL TERRITORY": "ACT",
	}
	if v, ok := m[s]; ok {
		return v
	}
	return s
}
