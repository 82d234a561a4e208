package scraper

import (
	"regexp"
	"strings"
)

var (
	// Case law CELEX numbers: 6 + year + court/document code + number.
	celexCaseRe    = regexp.MustCompile(`(?i)^6(\d{4})(CJ|TJ|CO|TA)0*(\d+)$`)
	celexExtractRe = regexp.MustCompile(`(?i)CELEX[:%]3?A?([A-Z0-9]+)`)
)

// CelexToFriendly converts a case law CELEX number to the usual CJEU
// case citation:
//
//	62019CJ0001 → C-1/19   (Court of Justice)
//	62020TJ0050 → T-50/20  (General Court)
//	62018CO0123 → C-123/18 (Order)
//
// Returns "" for CELEX numbers that are not case law.
func CelexToFriendly(celex string) string {
	m := celexCaseRe.FindStringSubmatch(celex)
	if m == nil {
		return ""
	}
	year, code, num := m[1], strings.ToUpper(m[2]), m[3]
	prefix := "C"
	if code == "TJ" {
		prefix = "T"
	}
	return prefix + "-" + num + "/" + year[2:]
}

// ExtractCelex pulls a CELEX number out of a URL or link text, e.g.
// "?uri=CELEX:62019CJ0001" or "CELEX%3A62019CJ0001".
func ExtractCelex(text string) string {
	m := celexExtractRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}
