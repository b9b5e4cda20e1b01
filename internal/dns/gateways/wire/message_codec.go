// Package wire provides encoding and decoding of DNS messages.
// It handles the DNS wire format as specified in RFC 1035, including
// name compression.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/haukened/ir-dns/internal/dns/common/log"
	"github.com/haukened/ir-dns/internal/dns/common/rrdata"
	"github.com/haukened/ir-dns/internal/dns/common/utils"
	"github.com/haukened/ir-dns/internal/dns/domain"
)

const (
	headerLen = 12

	// maxNameLen is the limit on the encoded length of a name, including
	// label length bytes and the terminating zero (RFC 1035 section 2.3.4).
	maxNameLen = 255

	maxLabelLen = 63

	// maxPointerOffset is the largest message offset a 14-bit compression
	// pointer can express. Names starting beyond it are emitted literally.
	maxPointerOffset = 0x3FFF
)

// messageCodec implements DNSCodec for standard DNS messages.
type messageCodec struct {
	logger log.Logger
}

// NewMessageCodec creates a DNSCodec using the provided logger.
func NewMessageCodec(logger log.Logger) *messageCodec {
	return &messageCodec{
		logger: logger,
	}
}

// EncodeMessage serializes a Message into wire format. Header counts are
// derived from the section lengths; the caller cannot inject mismatched
// counts. Owner names are compressed against earlier occurrences.
func (c *messageCodec) EncodeMessage(m domain.Message) ([]byte, error) {
	var buf bytes.Buffer

	_ = binary.Write(&buf, binary.BigEndian, m.ID)
	_ = binary.Write(&buf, binary.BigEndian, encodeFlags(m))

	counts := []int{len(m.Questions), len(m.Answers), len(m.Authority), len(m.Additional)}
	for _, n := range counts {
		if n > 0xFFFF {
			return nil, fmt.Errorf("section too large: %d entries (max 65535)", n)
		}
		_ = binary.Write(&buf, binary.BigEndian, uint16(n))
	}

	// offsets remembers where each name suffix was first written so later
	// occurrences can compress to a pointer.
	offsets := make(map[string]int)

	for _, q := range m.Questions {
		if err := writeName(&buf, q.Name, offsets); err != nil {
			return nil, fmt.Errorf("question name %q: %w", q.Name, err)
		}
		_ = binary.Write(&buf, binary.BigEndian, uint16(q.Type))
		_ = binary.Write(&buf, binary.BigEndian, uint16(q.Class))
	}

	for _, section := range [][]domain.ResourceRecord{m.Answers, m.Authority, m.Additional} {
		for _, rr := range section {
			if err := c.writeRecord(&buf, rr, offsets); err != nil {
				return nil, err
			}
		}
	}

	return buf.Bytes(), nil
}

// writeRecord appends a single resource record to the buffer.
func (c *messageCodec) writeRecord(buf *bytes.Buffer, rr domain.ResourceRecord, offsets map[string]int) error {
	if err := writeName(buf, rr.Name, offsets); err != nil {
		return fmt.Errorf("record name %q: %w", rr.Name, err)
	}
	_ = binary.Write(buf, binary.BigEndian, uint16(rr.Type))
	_ = binary.Write(buf, binary.BigEndian, uint16(rr.Class))
	_ = binary.Write(buf, binary.BigEndian, rr.TTL)

	data := rr.Data
	if len(data) == 0 && rr.Text != "" {
		// Records built from presentation form carry only Text.
		var err error
		data, err = rrdata.Encode(rr.Type, rr.Text)
		if err != nil {
			return fmt.Errorf("encode %s rdata for %q: %w", rr.Type, rr.Name, err)
		}
	}
	if len(data) > 0xFFFF {
		return fmt.Errorf("resource record data too large: %d bytes (max 65535)", len(data))
	}
	_ = binary.Write(buf, binary.BigEndian, uint16(len(data)))
	buf.Write(data)
	return nil
}

// encodeFlags packs the header flag fields into the second header word.
func encodeFlags(m domain.Message) uint16 {
	var flags uint16
	if m.Response {
		flags |= 1 << 15
	}
	flags |= uint16(m.Opcode&0x0F) << 11
	if m.Authoritative {
		flags |= 1 << 10
	}
	if m.Truncated {
		flags |= 1 << 9
	}
	if m.RecursionDesired {
		flags |= 1 << 8
	}
	if m.RecursionAvailable {
		flags |= 1 << 7
	}
	flags |= uint16(m.RCode) & 0x0F
	return flags
}

// writeName emits a domain name, compressing against previously written
// suffixes. Suffix offsets beyond the 14-bit pointer range are not recorded,
// so such names always fall back to literal labels.
func writeName(buf *bytes.Buffer, name string, offsets map[string]int) error {
	name = utils.CanonicalDNSName(name)
	if name == "" {
		buf.WriteByte(0)
		return nil
	}
	if len(name)+2 > maxNameLen {
		return fmt.Errorf("%w: name exceeds %d octets", ErrBadLabelLength, maxNameLen)
	}
	labels := strings.Split(name, ".")
	for i, label := range labels {
		suffix := strings.Join(labels[i:], ".")
		if off, ok := offsets[suffix]; ok {
			buf.WriteByte(0xC0 | byte(off>>8))
			buf.WriteByte(byte(off))
			return nil
		}
		if len(label) == 0 || len(label) > maxLabelLen {
			return fmt.Errorf("%w: label %q", ErrBadLabelLength, label)
		}
		if buf.Len() <= maxPointerOffset {
			offsets[suffix] = buf.Len()
		}
		buf.WriteByte(byte(len(label)))
		buf.WriteString(label)
	}
	buf.WriteByte(0)
	return nil
}

// DecodeMessage parses a wire-format DNS message into a Message.
func (c *messageCodec) DecodeMessage(data []byte) (domain.Message, error) {
	if len(data) < headerLen {
		return domain.Message{}, fmt.Errorf("%w: %d bytes is shorter than the header", ErrTruncated, len(data))
	}

	flags := binary.BigEndian.Uint16(data[2:4])
	m := domain.Message{
		ID:                 binary.BigEndian.Uint16(data[0:2]),
		Response:           flags&(1<<15) != 0,
		Opcode:             domain.Opcode((flags >> 11) & 0x0F),
		Authoritative:      flags&(1<<10) != 0,
		Truncated:          flags&(1<<9) != 0,
		RecursionDesired:   flags&(1<<8) != 0,
		RecursionAvailable: flags&(1<<7) != 0,
		RCode:              domain.RCode(flags & 0x0F),
	}

	qdCount := int(binary.BigEndian.Uint16(data[4:6]))
	anCount := int(binary.BigEndian.Uint16(data[6:8]))
	nsCount := int(binary.BigEndian.Uint16(data[8:10]))
	arCount := int(binary.BigEndian.Uint16(data[10:12]))

	offset := headerLen
	var err error
	for i := 0; i < qdCount; i++ {
		var q domain.Question
		q, offset, err = parseQuestion(data, offset)
		if err != nil {
			return domain.Message{}, fmt.Errorf("question %d: %w", i, err)
		}
		m.Questions = append(m.Questions, q)
	}

	sections := []struct {
		name  string
		count int
		out   *[]domain.ResourceRecord
	}{
		{"answer", anCount, &m.Answers},
		{"authority", nsCount, &m.Authority},
		{"additional", arCount, &m.Additional},
	}
	for _, s := range sections {
		for i := 0; i < s.count; i++ {
			var rr domain.ResourceRecord
			rr, offset, err = c.parseResourceRecord(data, offset)
			if err != nil {
				return domain.Message{}, fmt.Errorf("%s record %d: %w", s.name, i, err)
			}
			*s.out = append(*s.out, rr)
		}
	}

	return m, nil
}

// parseQuestion extracts a single question entry starting at offset.
func parseQuestion(data []byte, offset int) (domain.Question, int, error) {
	if offset >= len(data) {
		return domain.Question{}, 0, fmt.Errorf("%w: question count exceeds entries", ErrMismatchedCounts)
	}
	name, offset, err := decodeName(data, offset)
	if err != nil {
		return domain.Question{}, 0, err
	}
	if offset+4 > len(data) {
		return domain.Question{}, 0, fmt.Errorf("%w: question type/class", ErrTruncated)
	}
	q := domain.Question{
		Name:  name,
		Type:  domain.RRType(binary.BigEndian.Uint16(data[offset : offset+2])),
		Class: domain.RRClass(binary.BigEndian.Uint16(data[offset+2 : offset+4])),
	}
	return q, offset + 4, nil
}

// parseResourceRecord extracts a single resource record starting at offset.
// RDATA of name-bearing types is expanded with whole-message compression
// context and re-encoded without pointers, so the returned record stands on
// its own outside this message.
func (c *messageCodec) parseResourceRecord(data []byte, offset int) (domain.ResourceRecord, int, error) {
	if offset >= len(data) {
		return domain.ResourceRecord{}, 0, fmt.Errorf("%w: record count exceeds entries", ErrMismatchedCounts)
	}
	name, offset, err := decodeName(data, offset)
	if err != nil {
		return domain.ResourceRecord{}, 0, fmt.Errorf("owner name: %w", err)
	}
	if offset+10 > len(data) {
		return domain.ResourceRecord{}, 0, fmt.Errorf("%w: record header", ErrTruncated)
	}

	rr := domain.ResourceRecord{
		Name:  name,
		Type:  domain.RRType(binary.BigEndian.Uint16(data[offset : offset+2])),
		Class: domain.RRClass(binary.BigEndian.Uint16(data[offset+2 : offset+4])),
		TTL:   binary.BigEndian.Uint32(data[offset+4 : offset+8]),
	}
	rdLen := int(binary.BigEndian.Uint16(data[offset+8 : offset+10]))
	rdStart := offset + 10
	rdEnd := rdStart + rdLen
	if rdEnd > len(data) {
		return domain.ResourceRecord{}, 0, fmt.Errorf("%w: rdata", ErrTruncated)
	}

	text, normalized, err := c.expandRData(data, rr.Type, rdStart, rdEnd)
	if err != nil {
		return domain.ResourceRecord{}, 0, err
	}
	rr.Text = text
	rr.Data = normalized

	return rr, rdEnd, nil
}

// expandRData produces the presentation text and the canonical
// (pointer-free) RDATA bytes for a record. Name-bearing types are decoded
// with message context; everything else is kept as an opaque copy with
// best-effort text.
func (c *messageCodec) expandRData(data []byte, typ domain.RRType, rdStart, rdEnd int) (string, []byte, error) {
	switch typ {
	case domain.RRTypeNS, domain.RRTypeCNAME, domain.RRTypePTR:
		target, err := nameInRData(data, rdStart, rdEnd)
		if err != nil {
			return "", nil, err
		}
		return reencode(typ, target)

	case domain.RRTypeMX:
		if rdEnd-rdStart < 3 {
			return "", nil, fmt.Errorf("%w: MX rdata", ErrTruncated)
		}
		pref := binary.BigEndian.Uint16(data[rdStart : rdStart+2])
		target, err := nameInRData(data, rdStart+2, rdEnd)
		if err != nil {
			return "", nil, err
		}
		return reencode(typ, fmt.Sprintf("%d %s", pref, target))

	case domain.RRTypeSRV:
		if rdEnd-rdStart < 7 {
			return "", nil, fmt.Errorf("%w: SRV rdata", ErrTruncated)
		}
		prio := binary.BigEndian.Uint16(data[rdStart : rdStart+2])
		weight := binary.BigEndian.Uint16(data[rdStart+2 : rdStart+4])
		port := binary.BigEndian.Uint16(data[rdStart+4 : rdStart+6])
		target, err := nameInRData(data, rdStart+6, rdEnd)
		if err != nil {
			return "", nil, err
		}
		return reencode(typ, fmt.Sprintf("%d %d %d %s", prio, weight, port, target))

	case domain.RRTypeSOA:
		mname, next, err := decodeName(data, rdStart)
		if err != nil {
			return "", nil, fmt.Errorf("SOA mname: %w", err)
		}
		rname, next, err := decodeName(data, next)
		if err != nil {
			return "", nil, fmt.Errorf("SOA rname: %w", err)
		}
		if next+20 > rdEnd {
			return "", nil, fmt.Errorf("%w: SOA integer fields", ErrTruncated)
		}
		var u32 [5]uint32
		for i := 0; i < 5; i++ {
			u32[i] = binary.BigEndian.Uint32(data[next+i*4 : next+(i+1)*4])
		}
		return reencode(typ, fmt.Sprintf("%s %s %d %d %d %d %d", mname, rname, u32[0], u32[1], u32[2], u32[3], u32[4]))

	default:
		raw := make([]byte, rdEnd-rdStart)
		copy(raw, data[rdStart:rdEnd])
		// Unknown or fixed-format types stay opaque; text is best-effort.
		text, err := rrdata.Decode(typ, raw)
		if err != nil {
			c.logger.Debug(map[string]any{
				"type":  typ.String(),
				"bytes": len(raw),
			}, "keeping rdata opaque")
			text = ""
		}
		return text, raw, nil
	}
}

// reencode converts presentation text back into canonical RDATA bytes.
func reencode(typ domain.RRType, text string) (string, []byte, error) {
	data, err := rrdata.Encode(typ, text)
	if err != nil {
		return "", nil, fmt.Errorf("re-encode %s rdata: %w", typ, err)
	}
	return text, data, nil
}

// nameInRData decodes a compressed name inside an RDATA window and verifies
// it does not run past the declared RDLENGTH.
func nameInRData(data []byte, start, rdEnd int) (string, error) {
	name, next, err := decodeName(data, start)
	if err != nil {
		return "", err
	}
	if next > rdEnd {
		return "", fmt.Errorf("%w: rdata name overruns RDLENGTH", ErrMalformedName)
	}
	return name, nil
}

// decodeName decodes a possibly compressed domain name starting at offset.
// It returns the lowercased name and the offset just past the name in the
// original byte stream.
//
// Compression pointers must form a strictly decreasing chain of offsets:
// the first pointer must target an offset before the name started, and every
// subsequent pointer must target an offset before the previous one. This
// bounds total work and makes pointer cycles impossible.
func decodeName(data []byte, offset int) (string, int, error) {
	if offset >= len(data) {
		return "", 0, fmt.Errorf("%w: name offset beyond buffer", ErrTruncated)
	}
	var labels []string
	pos := offset
	next := -1     // resume offset in the original stream, set at the first pointer
	limit := offset // every pointer must target an offset strictly below this
	nameLen := 0

	for {
		if pos >= len(data) {
			return "", 0, fmt.Errorf("%w: unterminated name", ErrTruncated)
		}
		b := data[pos]
		switch {
		case b == 0:
			if next < 0 {
				next = pos + 1
			}
			return strings.Join(labels, "."), next, nil

		case b&0xC0 == 0xC0:
			if pos+1 >= len(data) {
				return "", 0, fmt.Errorf("%w: pointer crosses buffer end", ErrTruncated)
			}
			ptr := int(binary.BigEndian.Uint16(data[pos:pos+2]) & maxPointerOffset)
			if ptr >= limit {
				return "", 0, fmt.Errorf("%w: pointer to offset %d does not strictly decrease", ErrMalformedName, ptr)
			}
			if next < 0 {
				next = pos + 2
			}
			limit = ptr
			pos = ptr

		case b&0xC0 != 0:
			// Top bits 01 and 10 read as label lengths > 63.
			return "", 0, fmt.Errorf("%w: label declares length %d", ErrBadLabelLength, b)

		default:
			l := int(b)
			nameLen += l + 1
			if nameLen+1 > maxNameLen {
				return "", 0, fmt.Errorf("%w: name exceeds %d octets", ErrBadLabelLength, maxNameLen)
			}
			if pos+1+l > len(data) {
				return "", 0, fmt.Errorf("%w: label crosses buffer end", ErrTruncated)
			}
			labels = append(labels, strings.ToLower(string(data[pos+1:pos+1+l])))
			pos += 1 + l
		}
	}
}

var _ DNSCodec = &messageCodec{}
