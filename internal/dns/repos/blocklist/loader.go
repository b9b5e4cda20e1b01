package blocklist

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/haukened/ir-dns/internal/dns/common/log"
	"github.com/haukened/ir-dns/internal/dns/repos/blocklist/parsers"
)

// LoadFile reads a blocklist file and returns its rules. Two formats are
// accepted: plain lists (one name per line, "*." prefix marks a suffix rule)
// and hosts files (IP followed by hostnames). The format is detected from
// the first data line.
func LoadFile(path string, logger log.Logger) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open blocklist: %w", err)
	}
	defer f.Close()

	hosts, err := looksLikeHostsFile(path)
	if err != nil {
		return nil, err
	}

	var rules []Rule
	if hosts {
		names, err := parsers.ParseHostsFile(f, path, logger)
		if err != nil {
			return nil, fmt.Errorf("parse hosts blocklist: %w", err)
		}
		for _, n := range names {
			rules = append(rules, Rule{Name: n})
		}
	} else {
		exact, suffix, err := parsers.ParsePlainList(f, path, logger)
		if err != nil {
			return nil, fmt.Errorf("parse plain blocklist: %w", err)
		}
		for _, n := range exact {
			rules = append(rules, Rule{Name: n})
		}
		for _, n := range suffix {
			rules = append(rules, Rule{Name: n, Suffix: true})
		}
	}

	logger.Info(map[string]any{"path": path, "rules": len(rules)}, "blocklist loaded")
	return rules, nil
}

// looksLikeHostsFile peeks at the first data line; a leading IP field means
// hosts format.
func looksLikeHostsFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		return len(fields) >= 2 && net.ParseIP(fields[0]) != nil, nil
	}
	return false, scanner.Err()
}
