package resolver

import "errors"

// Sentinel errors for resolution policy failures. The front end maps all of
// them to SERVFAIL; they stay distinct so logs and tests can tell the
// failure modes apart.
var (
	// ErrNoReachableServer is returned when every candidate server for the
	// current delegation has failed.
	ErrNoReachableServer = errors.New("no reachable name server")

	// ErrServerUnreachable is returned when the per-query attempt budget
	// runs out before a usable response arrives.
	ErrServerUnreachable = errors.New("attempt budget exhausted")

	// ErrReferralLoop is returned when a delegation points back to a zone
	// already visited during this resolution.
	ErrReferralLoop = errors.New("referral loop detected")

	// ErrTooManyReferrals is returned when a resolution follows more
	// delegations than the configured ceiling.
	ErrTooManyReferrals = errors.New("too many referrals")

	// ErrCnameChainTooLong is returned when a CNAME chain exceeds the
	// configured number of hops.
	ErrCnameChainTooLong = errors.New("cname chain too long")

	// ErrReferralDepthExceeded is returned when resolving glueless name
	// server addresses nests deeper than allowed.
	ErrReferralDepthExceeded = errors.New("nested resolution depth exceeded")
)
