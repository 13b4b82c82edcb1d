package probe

import (
	"context"
	"net"
	"time"

	"github.com/miekg/dns"
)

// serverLookup asks one DNS server directly instead of going through the
// system resolver configuration.
type serverLookup struct {
	addr   string
	client *dns.Client
}

func newServerLookup(server string, timeout time.Duration) serverLookup {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return serverLookup{addr: server, client: &dns.Client{Timeout: timeout}}
}

func (s serverLookup) query(ctx context.Context, host string, qtype uint16) (*dns.Msg, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), qtype)
	m.RecursionDesired = true

	in, _, err := s.client.ExchangeContext(ctx, m, s.addr)
	if err != nil {
		return nil, &net.DNSError{Err: err.Error(), Name: host, Server: s.addr, IsTimeout: isTimeout(err), IsTemporary: true}
	}
	switch in.Rcode {
	case dns.RcodeSuccess:
		return in, nil
	case dns.RcodeNameError:
		return nil, &net.DNSError{Err: "no such host", Name: host, Server: s.addr, IsNotFound: true}
	default:
		return nil, &net.DNSError{Err: dns.RcodeToString[in.Rcode], Name: host, Server: s.addr, IsTemporary: true}
	}
}

func (s serverLookup) LookupIP(ctx context.Context, host string) ([]net.IP, error) {
	var ips []net.IP
	for _, qt := range []uint16{dns.TypeA, dns.TypeAAAA} {
		in, err := s.query(ctx, host, qt)
		if err != nil {
			if len(ips) > 0 {
				break
			}
			return nil, err
		}
		for _, rr := range in.Answer {
			switch v := rr.(type) {
			case *dns.A:
				ips = append(ips, v.A)
			case *dns.AAAA:
				ips = append(ips, v.AAAA)
			}
		}
	}
	if len(ips) == 0 {
		return nil, &net.DNSError{Err: "no A or AAAA records", Name: host, Server: s.addr, IsNotFound: true}
	}
	return ips, nil
}

func (s serverLookup) LookupCNAME(ctx context.Context, host string) (string, error) {
	in, err := s.query(ctx, host, dns.TypeCNAME)
	if err != nil {
		return "", err
	}
	for _, rr := range in.Answer {
		if c, ok := rr.(*dns.CNAME); ok {
			return c.Target, nil
		}
	}
	return dns.Fqdn(host), nil
}

func (s serverLookup) LookupNS(ctx context.Context, host string) ([]string, error) {
	in, err := s.query(ctx, host, dns.TypeNS)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, rr := range in.Answer {
		if ns, ok := rr.(*dns.NS); ok {
			out = append(out, ns.Ns)
		}
	}
	return out, nil
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
