// Package upstream sends single DNS queries to specific name servers over
// UDP. It handles the low-level networking concerns of one exchange while
// the service layer decides which server to ask and what to do with the
// answer.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/haukened/ir-dns/internal/dns/domain"
	"github.com/haukened/ir-dns/internal/dns/gateways/wire"
	"github.com/haukened/ir-dns/internal/dns/services/resolver"
)

const (
	errCodecRequired   = "DNS codec is required"
	errFailedToConnect = "failed to connect: %w"
	errEncodeFailed    = "encode failed: %w"
	errWriteFailed     = "write failed: %w"
	errReadFailed      = "read failed: %w"
	errDecodeFailed    = "decode failed: %w"
)

// ErrResponseMismatch is returned when a response arrives whose ID or
// question does not match the query it should answer.
var ErrResponseMismatch = errors.New("response does not match query")

// maxUDPResponse bounds the read buffer for a single UDP response.
const maxUDPResponse = 4096

// DialFunc defines a function type for establishing a network connection.
// It takes a context for cancellation, the network type (e.g., "tcp", "udp"),
// and the address to connect to, returning a net.Conn and an error if any
// occurs.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Client performs one-shot DNS exchanges with arbitrary servers.
type Client struct {
	timeout time.Duration // per-exchange timeout when the context has no deadline
	codec   wire.DNSCodec
	dial    DialFunc
}

// Options defines configuration parameters for the upstream client.
type Options struct {
	// Timeout bounds a single exchange when the caller's context carries no
	// deadline. Defaults to 3 seconds.
	Timeout time.Duration
	Codec   wire.DNSCodec
	// Dial is injectable for testing; defaults to a net.Dialer.
	Dial DialFunc
}

// NewClient creates an upstream client. Returns an error if the codec is not
// provided.
func NewClient(opts Options) (*Client, error) {
	if opts.Codec == nil {
		return nil, errors.New(errCodecRequired)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.Dial == nil {
		opts.Dial = (&net.Dialer{}).DialContext
	}
	return &Client{
		timeout: opts.Timeout,
		codec:   opts.Codec,
		dial:    opts.Dial,
	}, nil
}

// ensureContextDeadline ensures the context has a deadline, adding the
// client's default timeout if needed.
func (c *Client) ensureContextDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); !ok {
		return context.WithTimeout(ctx, c.timeout)
	}
	return ctx, nil
}

// Exchange sends the query to the given server (host:port) over UDP and
// returns the decoded response. The response must echo the query's ID and
// question or ErrResponseMismatch is returned.
func (c *Client) Exchange(ctx context.Context, server string, query domain.Message) (domain.Message, error) {
	ctx, cancel := c.ensureContextDeadline(ctx)
	if cancel != nil {
		defer cancel()
	}

	conn, err := c.dial(ctx, "udp", server)
	if err != nil {
		return domain.Message{}, fmt.Errorf(errFailedToConnect, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	queryBytes, err := c.codec.EncodeMessage(query)
	if err != nil {
		return domain.Message{}, fmt.Errorf(errEncodeFailed, err)
	}

	type result struct {
		response domain.Message
		err      error
	}
	resultChan := make(chan result, 1)

	// Write/read in a goroutine so the context can cancel a blocked socket.
	go func() {
		if _, err := conn.Write(queryBytes); err != nil {
			resultChan <- result{err: fmt.Errorf(errWriteFailed, err)}
			return
		}
		buf := make([]byte, maxUDPResponse)
		n, err := conn.Read(buf)
		if err != nil {
			resultChan <- result{err: fmt.Errorf(errReadFailed, err)}
			return
		}
		response, err := c.codec.DecodeMessage(buf[:n])
		if err != nil {
			resultChan <- result{err: fmt.Errorf(errDecodeFailed, err)}
			return
		}
		resultChan <- result{response: response}
	}()

	select {
	case res := <-resultChan:
		if res.err != nil {
			return domain.Message{}, res.err
		}
		if err := matchResponse(query, res.response); err != nil {
			return domain.Message{}, err
		}
		return res.response, nil
	case <-ctx.Done():
		// Unblock the goroutine's socket read.
		_ = conn.SetDeadline(time.Now())
		return domain.Message{}, fmt.Errorf("exchange with %s: %w", server, ctx.Err())
	}
}

// matchResponse verifies the response belongs to the query: same ID, the QR
// bit set, and the question echoed back.
func matchResponse(query, response domain.Message) error {
	if response.ID != query.ID {
		return fmt.Errorf("%w: id %d != %d", ErrResponseMismatch, response.ID, query.ID)
	}
	if !response.Response {
		return fmt.Errorf("%w: QR bit not set", ErrResponseMismatch)
	}
	q, ok := query.Question()
	if !ok {
		return nil
	}
	rq, ok := response.Question()
	if !ok || !rq.Matches(q) {
		return fmt.Errorf("%w: question not echoed", ErrResponseMismatch)
	}
	return nil
}

var _ resolver.Exchanger = (*Client)(nil)
