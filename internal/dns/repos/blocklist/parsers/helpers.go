package parsers

import (
	"strings"
	"unicode"

	"github.com/haukened/ir-dns/internal/dns/common/utils"
)

// isSuffixMarker reports whether the raw, uncanonicalized input marks a
// suffix rule: a leading "*." or ".".
func isSuffixMarker(raw string) bool {
	return strings.HasPrefix(raw, "*.") || strings.HasPrefix(raw, ".")
}

// isValidFQDN checks whether the provided string is a usable fully qualified
// domain name:
//   - total length at most 255 characters
//   - at least two labels
//   - each label between 1 and 63 characters
//   - the first label starts with a letter, number, or wildcard
func isValidFQDN(name string) bool {
	if len(name) > 255 {
		return false
	}
	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if len(label) > 63 || len(label) == 0 {
			return false
		}
	}
	runes := []rune(labels[0])
	return isAlphaNumeric(runes[0]) || runes[0] == '*'
}

// normalizeDomainName trims whitespace, strips any leading "*." or "."
// marker, and canonicalizes the remainder.
func normalizeDomainName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "*.")
	name = strings.TrimPrefix(name, ".")
	return utils.CanonicalDNSName(name)
}

func isAlphaNumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// stripLineBOM removes a UTF-8 byte order mark from the start of a line.
func stripLineBOM(line string) string {
	return strings.TrimPrefix(line, "\uFEFF")
}

// stripInlineComment removes everything from the first '#' onward.
func stripInlineComment(line string) string {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		return line[:idx]
	}
	return line
}
