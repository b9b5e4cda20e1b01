package domain

import (
	"fmt"

	"github.com/haukened/ir-dns/internal/dns/common/utils"
)

// ResourceRecord represents a DNS resource record (RR).
// Records are plain values: the TTL is the seconds-to-live as received on the
// wire, and freshness is computed by the cache from its own insertion
// timestamps. Data holds the wire-encoded RDATA without compression pointers
// so a record remains meaningful outside the message it arrived in.
type ResourceRecord struct {
	Name  string
	Type  RRType
	Class RRClass
	TTL   uint32
	Data  []byte // wire-encoded RDATA, uncompressed
	Text  string // human-readable representation of the RDATA
}

// NewResourceRecord constructs a ResourceRecord with a canonicalized owner
// name and validates its fields.
func NewResourceRecord(name string, rrtype RRType, class RRClass, ttl uint32, data []byte, text string) (ResourceRecord, error) {
	rr := ResourceRecord{
		Name:  utils.CanonicalDNSName(name),
		Type:  rrtype,
		Class: class,
		TTL:   ttl,
		Data:  data,
		Text:  text,
	}
	if err := rr.Validate(); err != nil {
		return ResourceRecord{}, err
	}
	return rr, nil
}

// Validate checks whether the ResourceRecord fields are valid.
func (rr ResourceRecord) Validate() error {
	if rr.Name == "" {
		return fmt.Errorf("record name must not be empty")
	}
	if !rr.Class.IsValid() {
		return fmt.Errorf("invalid RRClass: %d", rr.Class)
	}
	if rr.Text == "" && len(rr.Data) == 0 {
		return fmt.Errorf("either Text or Data must be set")
	}
	return nil
}

// CacheKey returns a cache key string derived from the record's name, type, and class.
func (rr ResourceRecord) CacheKey() string {
	return GenerateCacheKey(rr.Name, rr.Type, rr.Class)
}
