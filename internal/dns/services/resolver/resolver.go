// Package resolver contains the core DNS resolution orchestration: the
// request front door and the iterative lookup engine that walks delegations
// from the root servers down to an authoritative answer.
package resolver

import (
	"context"
	"net"
	"time"

	"github.com/haukened/ir-dns/internal/dns/common/clock"
	"github.com/haukened/ir-dns/internal/dns/common/log"
	"github.com/haukened/ir-dns/internal/dns/domain"
)

const (
	// defaultAttemptTimeout bounds a single upstream exchange.
	defaultAttemptTimeout = 3 * time.Second

	// defaultMaxAttempts bounds the total number of upstream exchanges one
	// client query may spend, across all delegations and CNAME hops.
	defaultMaxAttempts = 12

	// maxCnameHops bounds CNAME chain length.
	maxCnameHops = 8

	// maxReferrals bounds how many delegations a single lookup may follow.
	maxReferrals = 16

	// maxNestedDepth bounds recursion when resolving glueless name server
	// addresses.
	maxNestedDepth = 4
)

// Resolver answers client queries by iterating from the root servers. It is
// safe for concurrent use; all mutable state lives per-request.
type Resolver struct {
	blocklist      Blocklist
	cache          Cache
	clock          clock.Clock
	exchange       Exchanger
	logger         log.Logger
	roots          RootHints
	attemptTimeout time.Duration
	maxAttempts    int
}

// ResolverOptions carries the collaborators and tuning knobs for a Resolver.
type ResolverOptions struct {
	Blocklist Blocklist
	Cache     Cache
	Clock     clock.Clock
	Exchange  Exchanger
	Logger    log.Logger
	Roots     RootHints

	// AttemptTimeout bounds one upstream exchange; zero means the default.
	AttemptTimeout time.Duration
	// MaxAttempts bounds upstream exchanges per client query; zero means the
	// default.
	MaxAttempts int
}

// NewResolver constructs a Resolver from its options.
func NewResolver(opts ResolverOptions) *Resolver {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = defaultAttemptTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	return &Resolver{
		blocklist:      opts.Blocklist,
		cache:          opts.Cache,
		clock:          opts.Clock,
		exchange:       opts.Exchange,
		logger:         opts.Logger,
		roots:          opts.Roots,
		attemptTimeout: opts.AttemptTimeout,
		maxAttempts:    opts.MaxAttempts,
	}
}

// HandleQuery is the front door for one decoded client query. It always
// returns a response message; protocol errors become error RCODEs rather
// than silence.
func (r *Resolver) HandleQuery(ctx context.Context, query domain.Message, clientAddr net.Addr) domain.Message {
	if query.Response {
		// A response packet sent at a server is nonsense.
		return domain.NewErrorResponse(query.ID, domain.FORMERR, query.Questions)
	}
	if query.Opcode != domain.OpcodeQuery {
		return domain.NewErrorResponse(query.ID, domain.NOTIMP, query.Questions)
	}
	if len(query.Questions) != 1 {
		return domain.NewErrorResponse(query.ID, domain.FORMERR, query.Questions)
	}
	q := query.Questions[0]
	if err := q.Validate(); err != nil {
		r.logger.Debug(map[string]any{
			"client": clientAddr.String(),
			"error":  err.Error(),
		}, "rejecting invalid question")
		return domain.NewErrorResponse(query.ID, domain.FORMERR, query.Questions)
	}

	if r.blocklist != nil && r.blocklist.IsBlocked(q) {
		r.logger.Info(map[string]any{
			"client": clientAddr.String(),
			"name":   q.Name,
		}, "query blocked")
		return domain.NewErrorResponse(query.ID, domain.NXDOMAIN, query.Questions)
	}

	answers, rcode, err := r.resolve(ctx, q, 0)
	if err != nil {
		r.logger.Warn(map[string]any{
			"client": clientAddr.String(),
			"name":   q.Name,
			"type":   q.Type.String(),
			"error":  err.Error(),
		}, "resolution failed")
		return domain.NewErrorResponse(query.ID, domain.SERVFAIL, query.Questions)
	}

	resp := domain.Message{
		ID:                 query.ID,
		Response:           true,
		Opcode:             query.Opcode,
		RecursionDesired:   query.RecursionDesired,
		RecursionAvailable: true,
		RCode:              rcode,
		Questions:          query.Questions,
		Answers:            answers,
	}
	return resp
}

var _ DNSResponder = (*Resolver)(nil)
