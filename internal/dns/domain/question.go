package domain

import (
	"fmt"

	"github.com/haukened/ir-dns/internal/dns/common/utils"
)

// Question represents a single entry in the question section of a DNS message.
type Question struct {
	Name  string
	Type  RRType
	Class RRClass
}

// NewQuestion constructs a Question with a canonicalized name and validates its fields.
func NewQuestion(name string, rrtype RRType, class RRClass) (Question, error) {
	q := Question{
		Name:  utils.CanonicalDNSName(name),
		Type:  rrtype,
		Class: class,
	}
	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	return q, nil
}

// Validate checks whether the Question fields are structurally and semantically valid.
func (q Question) Validate() error {
	if q.Name == "" {
		return fmt.Errorf("query name must not be empty")
	}
	if !q.Type.IsValid() {
		return fmt.Errorf("unsupported RRType: %d", q.Type)
	}
	if !q.Class.IsValid() {
		return fmt.Errorf("unsupported RRClass: %d", q.Class)
	}
	return nil
}

// Matches reports whether other asks the same question, comparing names
// case-insensitively as required by RFC 1035.
func (q Question) Matches(other Question) bool {
	return utils.CanonicalDNSName(q.Name) == utils.CanonicalDNSName(other.Name) &&
		q.Type == other.Type &&
		q.Class == other.Class
}

// CacheKey returns a cache key string derived from the question's name, type, and class.
func (q Question) CacheKey() string {
	return GenerateCacheKey(q.Name, q.Type, q.Class)
}
