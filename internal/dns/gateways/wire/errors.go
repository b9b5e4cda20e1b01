package wire

import "errors"

// Decode errors. All failures are classified into one of these sentinels so
// the server can answer FORMERR for client input and the resolver can treat
// bad upstream responses as retryable. Test with errors.Is; the returned
// errors carry wrapped context.
var (
	// ErrTruncated indicates a section or field runs past the buffer end.
	ErrTruncated = errors.New("message truncated")

	// ErrBadLabelLength indicates a label longer than 63 octets or a name
	// exceeding the 255-octet limit.
	ErrBadLabelLength = errors.New("bad label length")

	// ErrMalformedName indicates a compression pointer that does not point
	// to a strictly earlier offset, or otherwise invalid name structure.
	ErrMalformedName = errors.New("malformed name")

	// ErrMismatchedCounts indicates header counts that promise more section
	// entries than the message contains.
	ErrMismatchedCounts = errors.New("section count mismatch")
)
