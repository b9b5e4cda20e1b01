package resolver

import (
	"context"
	"net"
	"time"

	"github.com/haukened/ir-dns/internal/dns/domain"
)

// Exchanger sends a single query to a specific upstream server and returns
// its response. Implementations own the per-attempt socket lifecycle and
// verify that the response belongs to the query.
type Exchanger interface {
	Exchange(ctx context.Context, server string, query domain.Message) (domain.Message, error)
}

// CacheAnswer is what a cache lookup yields: either a set of records with
// their remaining TTLs, or a remembered negative outcome (NXDOMAIN or an
// empty NOERROR) identified by Negative and RCode.
type CacheAnswer struct {
	Records  []domain.ResourceRecord
	RCode    domain.RCode
	Negative bool
}

// Cache stores positive and negative answers with TTL-bounded freshness.
// Time is passed in explicitly so freshness is decided by the caller's clock.
type Cache interface {
	// Put stores records grouped by (name, type, class). Records whose TTL
	// is zero are not stored.
	Put(records []domain.ResourceRecord, now time.Time)

	// PutNegative remembers a negative outcome for the question, bounded by
	// ttl seconds (typically the SOA minimum from the authority section).
	PutNegative(q domain.Question, rcode domain.RCode, ttl uint32, now time.Time)

	// Get returns the cached answer for the question if one is present and
	// fresh at the given instant.
	Get(q domain.Question, now time.Time) (CacheAnswer, bool)

	Len() int
}

// Blocklist answers whether a question should be refused before any
// resolution work happens.
type Blocklist interface {
	IsBlocked(q domain.Question) bool
}

// RootHints supplies the addresses used to start an iterative resolution
// when nothing closer is cached.
type RootHints interface {
	// Addresses returns root server addresses in host:port form.
	Addresses() []string
}

// DNSResponder turns a decoded query into a response message. The transport
// handles all network protocol details, the responder only sees domain
// objects.
type DNSResponder interface {
	HandleQuery(ctx context.Context, query domain.Message, clientAddr net.Addr) domain.Message
}

// ServerTransport defines the interface for DNS server transport
// implementations. Different transport types (UDP, DoH, DoT, DoQ) can
// implement this interface while providing the same request handling
// contract to the service layer.
type ServerTransport interface {
	// Start begins listening for requests and handling them via the provided
	// handler. The transport handles all network protocol concerns and wire
	// format conversion.
	Start(ctx context.Context, handler DNSResponder) error

	// Stop gracefully shuts down the transport, closing connections and
	// cleaning up resources.
	Stop() error

	// Address returns the network address the transport is bound to.
	Address() string
}
