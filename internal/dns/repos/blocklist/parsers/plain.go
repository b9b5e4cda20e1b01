package parsers

import (
	"bufio"
	"io"
	"strings"

	logpkg "github.com/haukened/ir-dns/internal/dns/common/log"
)

// ParsePlainList parses a newline-delimited list of domains. Default is
// exact; a leading "*." or "." marks a suffix rule (apex-inclusive).
//
// Behavior:
//   - supports comments starting with '#' (inline or whole-line)
//   - trims surrounding whitespace and trailing dots
//   - skips empty lines and tokens that are not valid FQDNs
//   - de-duplicates by canonical name while preserving first-seen order
func ParsePlainList(r io.Reader, source string, logger logpkg.Logger) (exact, suffix []string, err error) {
	scanner := bufio.NewScanner(r)

	// seen key includes the kind so a name can appear as both exact and suffix
	seen := make(map[string]struct{})
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := stripLineBOM(scanner.Text())

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		s := strings.TrimSpace(stripInlineComment(line))
		isSuffix := isSuffixMarker(s)
		name := normalizeDomainName(s)

		if !isValidFQDN(name) {
			logger.Debug(map[string]any{"line": lineNum, "raw": s, "source": source}, "skipping invalid blocklist entry")
			continue
		}

		seenKey := name
		if isSuffix {
			seenKey += "|suffix"
		}
		if _, ok := seen[seenKey]; ok {
			continue
		}
		seen[seenKey] = struct{}{}

		if isSuffix {
			suffix = append(suffix, name)
		} else {
			exact = append(exact, name)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return exact, suffix, nil
}
