package profile

import (
	"regexp"
	"strings"
	"unicode"
)

var identifierRe = regexp.MustCompile(`^[^\d\W]\w*$`)

// FormatName converts a device name into a valid generated-code
// identifier, lowercased with the first rune restricted to letters and
// the rest to letters and digits.
func FormatName(name string) string {
	var b strings.Builder
	first := true
	for _, r := range strings.ToLower(name) {
		ok := r >= 'a' && r <= 'z'
		if !first {
			ok = ok || unicode.IsDigit(r)
		}
		if ok {
			b.WriteRune(r)
			first = false
		} else if first {
			// drop candidates for the leading rune until a letter shows up
			continue
		}
	}
	return b.String()
}

// ValidIdentifier reports whether name already is a valid identifier.
func ValidIdentifier(name string) bool {
	return identifierRe.MatchString(name)
}
