package domain

// Opcode represents the kind of query carried in a DNS message header.
type Opcode uint8

// DNS Opcode constants (RFC 1035 section 4.1.1).
const (
	OpcodeQuery  Opcode = 0 // QUERY - standard query
	OpcodeIQuery Opcode = 1 // IQUERY - inverse query (obsolete)
	OpcodeStatus Opcode = 2 // STATUS - server status request
)

// IsValid returns true if the Opcode is one of the assigned values.
func (o Opcode) IsValid() bool {
	switch o {
	case OpcodeQuery, OpcodeIQuery, OpcodeStatus:
		return true
	default:
		return false
	}
}

// String returns the textual representation of the Opcode.
func (o Opcode) String() string {
	switch o {
	case OpcodeQuery:
		return "QUERY"
	case OpcodeIQuery:
		return "IQUERY"
	case OpcodeStatus:
		return "STATUS"
	default:
		return "UNKNOWN"
	}
}
