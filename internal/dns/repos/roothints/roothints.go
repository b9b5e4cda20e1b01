// Package roothints supplies the root name server addresses that seed an
// iterative resolution. A built-in copy of the IANA root list is used unless
// a hints file is provided.
package roothints

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/haukened/ir-dns/internal/dns/common/utils"
	"github.com/haukened/ir-dns/internal/dns/services/resolver"
)

const dnsPort = "53"

// hint is one root server entry.
type hint struct {
	name string
	ip   net.IP
}

// Hints holds an ordered list of root server entries.
type Hints struct {
	servers []hint
}

// Defaults returns the built-in IANA root server list.
func Defaults() *Hints {
	entries := []struct {
		name string
		addr string
	}{
		{"a.root-servers.net", "198.41.0.4"},
		{"b.root-servers.net", "199.9.14.201"},
		{"c.root-servers.net", "192.33.4.12"},
		{"d.root-servers.net", "199.7.91.13"},
		{"e.root-servers.net", "192.203.230.10"},
		{"f.root-servers.net", "192.5.5.241"},
		{"g.root-servers.net", "192.112.36.4"},
		{"h.root-servers.net", "198.97.190.53"},
		{"i.root-servers.net", "192.36.148.17"},
		{"j.root-servers.net", "192.58.128.30"},
		{"k.root-servers.net", "193.0.14.129"},
		{"l.root-servers.net", "199.7.83.42"},
		{"m.root-servers.net", "202.12.27.33"},
	}
	h := &Hints{}
	for _, e := range entries {
		h.servers = append(h.servers, hint{name: e.name, ip: net.ParseIP(e.addr)})
	}
	return h
}

// Load reads root hints from a file. Both the simple "name address" format
// and the InterNIC named.root format are accepted: any line whose last field
// parses as an IP address contributes an entry, everything else (comments,
// NS lines, TTL columns) is skipped.
func Load(path string) (*Hints, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open root hints: %w", err)
	}
	defer f.Close()

	h := &Hints{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		ip := net.ParseIP(fields[len(fields)-1])
		if ip == nil {
			continue
		}
		h.servers = append(h.servers, hint{
			name: utils.CanonicalDNSName(fields[0]),
			ip:   ip,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read root hints: %w", err)
	}
	if len(h.servers) == 0 {
		return nil, fmt.Errorf("root hints file %s contains no server addresses", path)
	}
	return h, nil
}

// Addresses returns the root server addresses in host:port form, in file
// order.
func (h *Hints) Addresses() []string {
	out := make([]string, 0, len(h.servers))
	for _, s := range h.servers {
		out = append(out, net.JoinHostPort(s.ip.String(), dnsPort))
	}
	return out
}

// Names returns the root server host names, parallel to Addresses.
func (h *Hints) Names() []string {
	out := make([]string, 0, len(h.servers))
	for _, s := range h.servers {
		out = append(out, s.name)
	}
	return out
}

var _ resolver.RootHints = (*Hints)(nil)
