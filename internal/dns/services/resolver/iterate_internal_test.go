package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/ir-dns/internal/dns/domain"
)

func rr(name string, t domain.RRType, text string) domain.ResourceRecord {
	return domain.ResourceRecord{Name: name, Type: t, Class: domain.RRClassIN, TTL: 300, Text: text}
}

func TestSplitAnswerDirect(t *testing.T) {
	q := domain.Question{Name: "example.com", Type: domain.RRTypeA, Class: domain.RRClassIN}
	hops, final, target := splitAnswer(q, []domain.ResourceRecord{
		rr("example.com", domain.RRTypeA, "192.0.2.1"),
		rr("example.com", domain.RRTypeA, "192.0.2.2"),
	})
	assert.Empty(t, hops)
	assert.Len(t, final, 2)
	assert.Empty(t, target)
}

func TestSplitAnswerFollowsChain(t *testing.T) {
	q := domain.Question{Name: "www.example.com", Type: domain.RRTypeA, Class: domain.RRClassIN}
	hops, final, target := splitAnswer(q, []domain.ResourceRecord{
		rr("www.example.com", domain.RRTypeCNAME, "web.example.com"),
		rr("web.example.com", domain.RRTypeA, "192.0.2.1"),
	})
	require.Len(t, hops, 1)
	require.Len(t, final, 1)
	assert.Equal(t, "192.0.2.1", final[0].Text)
	assert.Empty(t, target)
}

func TestSplitAnswerDanglingChain(t *testing.T) {
	q := domain.Question{Name: "www.example.com", Type: domain.RRTypeA, Class: domain.RRClassIN}
	hops, final, target := splitAnswer(q, []domain.ResourceRecord{
		rr("www.example.com", domain.RRTypeCNAME, "cdn.example.org"),
	})
	require.Len(t, hops, 1)
	assert.Empty(t, final)
	assert.Equal(t, "cdn.example.org", target)
}

func TestSplitAnswerCnameQueryType(t *testing.T) {
	// A CNAME query is answered by the CNAME record itself, not chased.
	q := domain.Question{Name: "www.example.com", Type: domain.RRTypeCNAME, Class: domain.RRClassIN}
	hops, final, target := splitAnswer(q, []domain.ResourceRecord{
		rr("www.example.com", domain.RRTypeCNAME, "web.example.com"),
	})
	assert.Empty(t, hops)
	require.Len(t, final, 1)
	assert.Empty(t, target)
}

func TestSplitAnswerInMessageLoopTerminates(t *testing.T) {
	q := domain.Question{Name: "a.example.com", Type: domain.RRTypeA, Class: domain.RRClassIN}
	hops, final, target := splitAnswer(q, []domain.ResourceRecord{
		rr("a.example.com", domain.RRTypeCNAME, "b.example.com"),
		rr("b.example.com", domain.RRTypeCNAME, "a.example.com"),
	})
	assert.Len(t, hops, 2)
	assert.Empty(t, final)
	assert.NotEmpty(t, target)
}

func TestSplitAnswerUnrelatedRecords(t *testing.T) {
	q := domain.Question{Name: "example.com", Type: domain.RRTypeA, Class: domain.RRClassIN}
	hops, final, target := splitAnswer(q, []domain.ResourceRecord{
		rr("other.com", domain.RRTypeA, "192.0.2.1"),
	})
	assert.Empty(t, hops)
	assert.Empty(t, final)
	assert.Empty(t, target)
}

func TestNegativeTTLUsesSOAMinimum(t *testing.T) {
	resp := domain.Message{
		Authority: []domain.ResourceRecord{
			{Name: "example.com", Type: domain.RRTypeSOA, Class: domain.RRClassIN, TTL: 3600,
				Text: "ns1.example.com admin.example.com 1 7200 900 86400 60"},
		},
	}
	assert.Equal(t, uint32(60), negativeTTL(resp))
}

func TestNegativeTTLCappedBySOATTL(t *testing.T) {
	resp := domain.Message{
		Authority: []domain.ResourceRecord{
			{Name: "example.com", Type: domain.RRTypeSOA, Class: domain.RRClassIN, TTL: 30,
				Text: "ns1.example.com admin.example.com 1 7200 900 86400 86400"},
		},
	}
	assert.Equal(t, uint32(30), negativeTTL(resp))
}

func TestNegativeTTLWithoutSOA(t *testing.T) {
	assert.Equal(t, uint32(0), negativeTTL(domain.Message{}))
}

func TestHopToEnforcesChainLimit(t *testing.T) {
	st := &resolution{question: domain.Question{Name: "start.example.com", Type: domain.RRTypeA, Class: domain.RRClassIN}}
	var err error
	for i := 0; i <= maxCnameHops; i++ {
		err = st.hopTo("next.example.com", []domain.ResourceRecord{
			rr("hop.example.com", domain.RRTypeCNAME, "next.example.com"),
		})
		if err != nil {
			break
		}
	}
	assert.ErrorIs(t, err, ErrCnameChainTooLong)
}

func TestGlueAddresses(t *testing.T) {
	addrs := glueAddresses(
		[]string{"ns1.example.com", "ns2.example.com"},
		[]domain.ResourceRecord{
			rr("ns1.example.com", domain.RRTypeA, "192.0.2.1"),
			rr("ns2.example.com", domain.RRTypeAAAA, "2001:db8::1"),
			rr("unrelated.example.com", domain.RRTypeA, "192.0.2.99"),
			rr("ns1.example.com", domain.RRTypeTXT, "not an address"),
		},
	)
	assert.Equal(t, []string{"192.0.2.1:53", "[2001:db8::1]:53"}, addrs)
}

func TestIsReferral(t *testing.T) {
	assert.True(t, isReferral(domain.Message{Authority: []domain.ResourceRecord{rr("com", domain.RRTypeNS, "a.gtld-servers.net")}}))
	assert.False(t, isReferral(domain.Message{Authority: []domain.ResourceRecord{rr("com", domain.RRTypeSOA, "soa data")}}))
	assert.False(t, isReferral(domain.Message{}))
}
