package service

import "regexp"

var orderCodePattern = regexp.MustCompile(`(?i)` + OrderCodePrefix + `-?(\d+)`)

// ExtractOrderCode finds the first order code embedded anywhere in a bank
// transfer description. It returns the canonical "MEOSTORE-<digits>" form
// and the text exactly as it appeared.
func ExtractOrderCode(description string) (canonical, matched string, ok bool) {
	m := orderCodePattern.FindStringSubmatch(description)
	if m == nil {
		return "", "", false
	}
	return CanonicalOrderCode(m[1]), m[0], true
}
