package rrdata

import (
	"errors"

	"github.com/haukened/ir-dns/internal/dns/domain"
)

// ErrUnsupportedType indicates a record type this package has no textual
// decoder for. Callers treat the RDATA as an opaque blob; the error exists
// so they can distinguish "no decoder" from "decoder failed".
var ErrUnsupportedType = errors.New("unsupported record type")

// Decode decodes a record value based on its type, from its binary representation.
func Decode(rrType domain.RRType, data []byte) (string, error) {
	switch rrType {
	case domain.RRTypeA: // 1
		return decodeAData(data)
	case domain.RRTypeNS: // 2
		return decodeNSData(data)
	case domain.RRTypeCNAME: // 5
		return decodeCNAMEData(data)
	case domain.RRTypeSOA: // 6
		return decodeSOAData(data)
	case domain.RRTypePTR: // 12
		return decodePTRData(data)
	case domain.RRTypeMX: // 15
		return decodeMXData(data)
	case domain.RRTypeTXT: // 16
		return decodeTXTData(data)
	case domain.RRTypeAAAA: // 28
		return decodeAAAAData(data)
	case domain.RRTypeSRV: // 33
		return decodeSRVData(data)
	default:
		return "", ErrUnsupportedType
	}
}
