// Package captivedns answers every DNS query with the access point address.
//
// Clients joining the hotspot resolve any name to the portal, which is what
// makes their captive-portal detection open the configuration page. The
// Server only receives and transmits; each query is handed to the owner of
// Queries and answered through Serve, so the poll loop decides when DNS
// work happens.
package captivedns

import (
	"net"
	"strings"

	"github.com/miekg/dns"
)

// DefaultTTL is the TTL of captive answers, in seconds.
const DefaultTTL = 60

// AnyDomain makes the responder answer every name.
const AnyDomain = "*"

// Responder builds captive answers.
type Responder struct {
	Address net.IP
	TTL     uint32
	// Domain limits answers to one name (a leading "www." is ignored).
	// Empty or AnyDomain answers everything.
	Domain string
}

// NewResponder returns a Responder answering every name with addr.
func NewResponder(addr net.IP) *Responder {
	return &Responder{Address: addr.To4(), TTL: DefaultTTL, Domain: AnyDomain}
}

// Answer builds the reply to req: one A record with the access point
// address per matching question, whatever the type asked for. A request
// with no matching question gets NXDOMAIN.
func (r *Responder) Answer(req *dns.Msg) *dns.Msg {
	m := new(dns.Msg)

	if req.Opcode != dns.OpcodeQuery {
		return m.SetRcode(req, dns.RcodeNotImplemented)
	}
	if len(req.Question) == 0 {
		return m.SetRcode(req, dns.RcodeFormatError)
	}

	m.SetReply(req)
	m.Authoritative = true
	for _, q := range req.Question {
		if !r.matches(q.Name) {
			continue
		}
		m.Answer = append(m.Answer, &dns.A{
			Hdr: dns.RR_Header{
				Name:   q.Name,
				Rrtype: dns.TypeA,
				Class:  dns.ClassINET,
				Ttl:    r.TTL,
			},
			A: r.Address,
		})
	}
	if len(m.Answer) == 0 {
		m.Rcode = dns.RcodeNameError
	}
	return m
}

func (r *Responder) matches(name string) bool {
	if r.Domain == "" || r.Domain == AnyDomain {
		return true
	}
	name = strings.TrimPrefix(strings.ToLower(name), "www.")
	return name == strings.ToLower(dns.Fqdn(r.Domain))
}

// questionNames lists the names in req for logging.
func questionNames(req *dns.Msg) []string {
	names := make([]string, 0, len(req.Question))
	for _, q := range req.Question {
		names = append(names, q.Name)
	}
	return names
}
