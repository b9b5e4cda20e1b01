package resolver

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"net"
	"time"

	"github.com/haukened/ir-dns/internal/dns/common/rrdata"
	"github.com/haukened/ir-dns/internal/dns/common/utils"
	"github.com/haukened/ir-dns/internal/dns/domain"
)

// iterState names the phases of one iterative lookup.
type iterState int

const (
	stateCheckCache iterState = iota
	statePickServer
	stateAwaitResponse
	stateFollowReferral
)

// resolution is the per-request mutable state of the iterative engine.
// The question changes as CNAME hops are followed; servers, failed, and
// visited reset at each restart while the attempt and hop counters span the
// whole request.
type resolution struct {
	question   domain.Question
	servers    []string
	failed     map[string]bool
	visited    map[string]bool // zones already delegated through
	attempts   int
	referrals  int
	cnameHops  int
	chain      []domain.ResourceRecord // CNAME hops accumulated so far
	lastServer string
	last       domain.Message
}

// next returns the first candidate server that has not failed yet.
func (st *resolution) next() (string, bool) {
	for _, s := range st.servers {
		if !st.failed[s] {
			return s, true
		}
	}
	return "", false
}

// restart points the resolution at the root servers for its current
// question, clearing per-delegation state.
func (st *resolution) restart(roots []string) {
	st.servers = roots
	st.failed = map[string]bool{}
	st.visited = map[string]bool{"": true} // a referral to the root is never progress
}

// hopTo follows a CNAME chain segment and retargets the question.
func (st *resolution) hopTo(target string, hops []domain.ResourceRecord) error {
	st.chain = append(st.chain, hops...)
	st.cnameHops += len(hops)
	if st.cnameHops > maxCnameHops {
		return ErrCnameChainTooLong
	}
	st.question = domain.Question{
		Name:  utils.CanonicalDNSName(target),
		Type:  st.question.Type,
		Class: st.question.Class,
	}
	return nil
}

// resolve runs the iterative state machine for one question. It returns the
// answer records (CNAME chain included), the response code, and an error for
// policy failures that the caller maps to SERVFAIL. depth counts nested
// lookups spawned to resolve glueless name servers.
func (r *Resolver) resolve(ctx context.Context, q domain.Question, depth int) ([]domain.ResourceRecord, domain.RCode, error) {
	if depth > maxNestedDepth {
		return nil, domain.SERVFAIL, ErrReferralDepthExceeded
	}

	st := &resolution{question: q}
	state := stateCheckCache

	for {
		if err := ctx.Err(); err != nil {
			return nil, domain.SERVFAIL, err
		}

		switch state {
		case stateCheckCache:
			done, rcode, err := r.checkCache(st)
			if err != nil {
				return nil, domain.SERVFAIL, err
			}
			if done {
				return st.chain, rcode, nil
			}
			if st.servers == nil {
				st.restart(r.roots.Addresses())
			}
			state = statePickServer

		case statePickServer:
			if st.attempts >= r.maxAttempts {
				return nil, domain.SERVFAIL, ErrServerUnreachable
			}
			server, ok := st.next()
			if !ok {
				return nil, domain.SERVFAIL, ErrNoReachableServer
			}
			st.lastServer = server
			state = stateAwaitResponse

		case stateAwaitResponse:
			st.attempts++
			resp, err := r.ask(ctx, st.lastServer, st.question, st.attempts)
			if err != nil {
				st.failed[st.lastServer] = true
				state = statePickServer
				continue
			}
			st.last = resp

			next, rcode, done, err := r.classify(st)
			if err != nil {
				return nil, domain.SERVFAIL, err
			}
			if done {
				return st.chain, rcode, nil
			}
			state = next

		case stateFollowReferral:
			ok, err := r.followReferral(ctx, st, depth)
			if err != nil {
				return nil, domain.SERVFAIL, err
			}
			if !ok {
				// Unusable referral; treat the server as lame.
				st.failed[st.lastServer] = true
			}
			state = statePickServer
		}
	}
}

// checkCache serves the current question from cache when possible. It also
// follows cached CNAME records so a previously stored chain costs no
// network traffic. Returns done=true with the final rcode when the cache
// settles the question.
func (r *Resolver) checkCache(st *resolution) (bool, domain.RCode, error) {
	for {
		ans, ok := r.cache.Get(st.question, r.clock.Now())
		if ok {
			if ans.Negative {
				return true, ans.RCode, nil
			}
			hops, final, target := splitAnswer(st.question, ans.Records)
			if len(final) > 0 {
				st.chain = append(st.chain, hops...)
				st.chain = append(st.chain, final...)
				return true, domain.NOERROR, nil
			}
			if target != "" {
				if err := st.hopTo(target, hops); err != nil {
					return false, 0, err
				}
				st.servers = nil
				continue
			}
		}

		if st.question.Type == domain.RRTypeCNAME {
			return false, 0, nil
		}
		// An answer for the name may be cached under its CNAME.
		alias := domain.Question{Name: st.question.Name, Type: domain.RRTypeCNAME, Class: st.question.Class}
		ans, ok = r.cache.Get(alias, r.clock.Now())
		if !ok || ans.Negative || len(ans.Records) == 0 {
			return false, 0, nil
		}
		if err := st.hopTo(ans.Records[0].Text, ans.Records[:1]); err != nil {
			return false, 0, err
		}
		st.servers = nil
	}
}

// ask performs one upstream exchange with its own timeout and logs the
// attempt.
func (r *Resolver) ask(ctx context.Context, server string, q domain.Question, attempt int) (domain.Message, error) {
	query, err := domain.NewQueryMessage(newID(), q)
	if err != nil {
		return domain.Message{}, err
	}

	actx, cancel := context.WithTimeout(ctx, r.attemptTimeout)
	defer cancel()

	resp, err := r.exchange.Exchange(actx, server, query)
	fields := map[string]any{
		"server":  server,
		"name":    q.Name,
		"apex":    utils.GetApexDomain(q.Name),
		"type":    q.Type.String(),
		"attempt": attempt,
	}
	if err != nil {
		fields["error"] = err.Error()
		r.logger.Warn(fields, "upstream exchange failed")
		return domain.Message{}, err
	}
	fields["rcode"] = resp.RCode.String()
	fields["answers"] = len(resp.Answers)
	fields["authority"] = len(resp.Authority)
	r.logger.Info(fields, "upstream exchange")
	return resp, nil
}

// classify decides what the response in st.last means for the resolution.
// It returns the next state, or done=true with the final rcode.
func (r *Resolver) classify(st *resolution) (next iterState, rcode domain.RCode, done bool, err error) {
	resp := st.last
	now := r.clock.Now()

	switch {
	case resp.RCode == domain.NXDOMAIN:
		if ttl := negativeTTL(resp); ttl > 0 {
			r.cache.PutNegative(st.question, domain.NXDOMAIN, ttl, now)
		}
		return 0, domain.NXDOMAIN, true, nil

	case resp.RCode != domain.NOERROR:
		// REFUSED, SERVFAIL and friends: try another server.
		st.failed[st.lastServer] = true
		return statePickServer, 0, false, nil

	case resp.HasAnswers():
		r.cache.Put(resp.Answers, now)
		hops, final, target := splitAnswer(st.question, resp.Answers)
		if len(final) > 0 {
			st.chain = append(st.chain, hops...)
			st.chain = append(st.chain, final...)
			return 0, domain.NOERROR, true, nil
		}
		if target != "" {
			if err := st.hopTo(target, hops); err != nil {
				return 0, 0, false, err
			}
			st.servers = nil
			return stateCheckCache, 0, false, nil
		}
		// Answers unrelated to the question: lame server.
		st.failed[st.lastServer] = true
		return statePickServer, 0, false, nil

	case isReferral(resp):
		return stateFollowReferral, 0, false, nil

	default:
		// Empty NOERROR: the name exists but has no records of this type.
		if ttl := negativeTTL(resp); ttl > 0 {
			r.cache.PutNegative(st.question, domain.NOERROR, ttl, now)
		}
		return 0, domain.NOERROR, true, nil
	}
}

// isReferral reports whether the response delegates to another zone via NS
// records in the authority section.
func isReferral(resp domain.Message) bool {
	for _, rr := range resp.Authority {
		if rr.Type == domain.RRTypeNS {
			return true
		}
	}
	return false
}

// followReferral moves the resolution to the servers named by the referral's
// NS records, preferring glue addresses from the additional section and
// resolving one glueless server name when no glue exists. Returns false if
// the referral yields no usable address.
func (r *Resolver) followReferral(ctx context.Context, st *resolution, depth int) (bool, error) {
	resp := st.last
	now := r.clock.Now()

	var nsNames []string
	zone := ""
	for _, rr := range resp.Authority {
		if rr.Type != domain.RRTypeNS {
			continue
		}
		if zone == "" {
			zone = utils.CanonicalDNSName(rr.Name)
		}
		if target := utils.CanonicalDNSName(rr.Text); target != "" {
			nsNames = append(nsNames, target)
		}
	}
	if len(nsNames) == 0 {
		return false, nil
	}

	if st.visited[zone] {
		return false, ErrReferralLoop
	}
	st.visited[zone] = true
	st.referrals++
	if st.referrals > maxReferrals {
		return false, ErrTooManyReferrals
	}

	// Remember the delegation and its glue for future lookups.
	r.cache.Put(resp.Authority, now)
	r.cache.Put(resp.Additional, now)

	addrs := glueAddresses(nsNames, resp.Additional)
	if len(addrs) == 0 {
		addrs = r.resolveGlueless(ctx, nsNames, depth)
	}
	if len(addrs) == 0 {
		return false, nil
	}

	r.logger.Debug(map[string]any{
		"zone":    zone,
		"servers": len(addrs),
		"name":    st.question.Name,
	}, "following referral")

	st.servers = addrs
	st.failed = map[string]bool{}
	return true, nil
}

// glueAddresses collects host:port addresses from additional-section A and
// AAAA records belonging to the referral's name servers.
func glueAddresses(nsNames []string, additional []domain.ResourceRecord) []string {
	wanted := make(map[string]bool, len(nsNames))
	for _, n := range nsNames {
		wanted[n] = true
	}
	var addrs []string
	for _, rr := range additional {
		if rr.Type != domain.RRTypeA && rr.Type != domain.RRTypeAAAA {
			continue
		}
		if !wanted[utils.CanonicalDNSName(rr.Name)] || rr.Text == "" {
			continue
		}
		addrs = append(addrs, net.JoinHostPort(rr.Text, "53"))
	}
	return addrs
}

// resolveGlueless looks up addresses for name servers the referral did not
// provide glue for. The first name that resolves wins.
func (r *Resolver) resolveGlueless(ctx context.Context, nsNames []string, depth int) []string {
	for _, name := range nsNames {
		q := domain.Question{Name: name, Type: domain.RRTypeA, Class: domain.RRClassIN}
		records, rcode, err := r.resolve(ctx, q, depth+1)
		if err != nil || rcode != domain.NOERROR {
			continue
		}
		var addrs []string
		for _, rr := range records {
			if rr.Type == domain.RRTypeA && rr.Text != "" {
				addrs = append(addrs, net.JoinHostPort(rr.Text, "53"))
			}
		}
		if len(addrs) > 0 {
			return addrs
		}
	}
	return nil
}

// splitAnswer walks the answer records from the question's name, collecting
// in-message CNAME hops. It returns the hops walked, the records that answer
// the question's type, and, when the chain leaves the record set, the target
// name to continue from.
func splitAnswer(q domain.Question, answers []domain.ResourceRecord) (hops, final []domain.ResourceRecord, target string) {
	name := utils.CanonicalDNSName(q.Name)
	seen := map[string]bool{name: true}

	for {
		var cname *domain.ResourceRecord
		for i := range answers {
			rr := answers[i]
			if utils.CanonicalDNSName(rr.Name) != name {
				continue
			}
			if rr.Type == q.Type {
				final = append(final, rr)
			} else if rr.Type == domain.RRTypeCNAME && cname == nil {
				cname = &answers[i]
			}
		}
		if len(final) > 0 {
			return hops, final, ""
		}
		if cname == nil {
			if len(hops) > 0 {
				return hops, nil, name
			}
			return nil, nil, ""
		}
		hops = append(hops, *cname)
		name = utils.CanonicalDNSName(cname.Text)
		if seen[name] {
			// In-message loop; surface what we have and let the hop
			// counters terminate the chase.
			return hops, nil, name
		}
		seen[name] = true
	}
}

// negativeTTL derives the negative-caching TTL from the SOA record in the
// authority section (RFC 2308: the smaller of the SOA minimum and the SOA's
// own TTL). Returns zero when no SOA is present.
func negativeTTL(resp domain.Message) uint32 {
	for _, rr := range resp.Authority {
		if rr.Type != domain.RRTypeSOA {
			continue
		}
		minimum, ok := rrdata.SOAMinimum(rr.Text)
		if !ok {
			return 0
		}
		if rr.TTL < minimum {
			return rr.TTL
		}
		return minimum
	}
	return 0
}

// newID returns an unpredictable query ID.
func newID() uint16 {
	var b [2]byte
	if _, err := cryptorand.Read(b[:]); err == nil {
		return binary.BigEndian.Uint16(b[:])
	}
	return uint16(time.Now().UnixNano())
}
