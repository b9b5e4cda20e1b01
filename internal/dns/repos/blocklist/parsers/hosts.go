package parsers

import (
	"bufio"
	"io"
	"strings"

	logpkg "github.com/haukened/ir-dns/internal/dns/common/log"
	"github.com/haukened/ir-dns/internal/dns/common/utils"
)

// ParseHostsFile parses /etc/hosts-style files and returns the hostnames as
// exact names.
//
// Rules:
//   - the IP field is ignored; one or more hostnames may follow it
//   - comments (whole-line or inline after '#') and blank lines are skipped
//   - wildcard tokens and names starting with '.' are skipped
//   - de-duplicates by canonical name, preserving first-seen order
func ParseHostsFile(r io.Reader, source string, logger logpkg.Logger) ([]string, error) {
	scanner := bufio.NewScanner(r)

	seen := make(map[string]struct{})
	var out []string

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := stripLineBOM(scanner.Text())

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		fields := strings.Fields(stripInlineComment(line))
		if len(fields) < 2 {
			continue
		}

		// fields[0] is the IP, ignored
		for _, raw := range fields[1:] {
			if raw == "" || strings.HasPrefix(raw, ".") || strings.Contains(raw, "*") {
				continue
			}
			name := utils.CanonicalDNSName(raw)
			if !isValidFQDN(name) {
				logger.Debug(map[string]any{"line": lineNum, "name": name, "source": source}, "skipping invalid hosts entry")
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
