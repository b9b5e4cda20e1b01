package wire

import (
	"github.com/haukened/ir-dns/internal/dns/domain"
)

// DNSCodec converts between domain.Message values and RFC 1035 wire format.
// One codec instance is shared by the server transport (client traffic) and
// the upstream exchanger (iteration traffic).
type DNSCodec interface {
	// EncodeMessage serializes a message, deriving all header counts from
	// the actual section lengths. Encoding is deterministic: the same
	// message yields the same bytes on every call.
	EncodeMessage(m domain.Message) ([]byte, error)

	// DecodeMessage parses a wire-format message. Malformed input returns
	// one of the typed errors in errors.go; it never panics or reads past
	// the buffer.
	DecodeMessage(data []byte) (domain.Message, error)
}
