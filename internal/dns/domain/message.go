package domain

import "fmt"

// Message represents a complete DNS protocol unit: the header flags plus the
// question, answer, authority, and additional sections (RFC 1035 section 4.1).
// Section counts are never stored; the wire codec derives them from the
// actual section lengths when encoding.
type Message struct {
	ID                 uint16
	Response           bool
	Opcode             Opcode
	Authoritative      bool
	Truncated          bool
	RecursionDesired   bool
	RecursionAvailable bool
	RCode              RCode

	Questions  []Question
	Answers    []ResourceRecord
	Authority  []ResourceRecord
	Additional []ResourceRecord
}

// NewQueryMessage constructs a standard query message for a single question.
// Recursion desired is left unset: this server performs iteration itself and
// asks upstream servers for referrals, not recursion.
func NewQueryMessage(id uint16, q Question) (Message, error) {
	if err := q.Validate(); err != nil {
		return Message{}, fmt.Errorf("invalid question: %w", err)
	}
	return Message{
		ID:        id,
		Opcode:    OpcodeQuery,
		Questions: []Question{q},
	}, nil
}

// NewErrorResponse creates a minimal response message with the specified ID
// and response code. The question section is echoed when one is available.
func NewErrorResponse(id uint16, rcode RCode, questions []Question) Message {
	return Message{
		ID:                 id,
		Response:           true,
		Opcode:             OpcodeQuery,
		RecursionAvailable: true,
		RCode:              rcode,
		Questions:          questions,
	}
}

// Validate checks whether the Message fields are structurally valid.
func (m Message) Validate() error {
	if !m.RCode.IsValid() {
		return fmt.Errorf("invalid RCode: %d", m.RCode)
	}
	for i, q := range m.Questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("invalid question at index %d: %w", i, err)
		}
	}
	sections := []struct {
		name string
		rrs  []ResourceRecord
	}{
		{"answer", m.Answers},
		{"authority", m.Authority},
		{"additional", m.Additional},
	}
	for _, s := range sections {
		for i, rr := range s.rrs {
			if err := rr.Validate(); err != nil {
				return fmt.Errorf("invalid %s record at index %d: %w", s.name, i, err)
			}
		}
	}
	return nil
}

// Question returns the first question in the message, if any.
func (m Message) Question() (Question, bool) {
	if len(m.Questions) == 0 {
		return Question{}, false
	}
	return m.Questions[0], true
}

// IsError returns true if the message carries a non-zero response code.
func (m Message) IsError() bool {
	return m.RCode != NOERROR
}

// HasAnswers returns true if the answer section is non-empty.
func (m Message) HasAnswers() bool {
	return len(m.Answers) > 0
}
