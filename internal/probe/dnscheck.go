package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// DNS classes reported by CheckDNS.
const (
	DNSResolves     = "RESOLVES"
	DNSNXDomain     = "NXDOMAIN"
	DNSNoARecord    = "NO_A_RECORD"
	DNSServFail     = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName  = "INVALID_NAME"
	defaultDNSLimit = 3 * time.Second
)

type DNSStatus struct {
	Domain        string
	HasAOrAAAA    bool
	IPs           []net.IP
	CNAME         string
	HasNS         bool
	Nameservers   []string
	Class         string
	ResolverError string
}

// dnsLookup is the subset of resolver calls CheckDNS needs. Failures must be
// *net.DNSError so they can be classified.
type dnsLookup interface {
	LookupIP(ctx context.Context, host string) ([]net.IP, error)
	LookupCNAME(ctx context.Context, host string) (string, error)
	LookupNS(ctx context.Context, host string) ([]string, error)
}

type systemLookup struct {
	r *net.Resolver
}

func (s systemLookup) LookupIP(ctx context.Context, host string) ([]net.IP, error) {
	return s.r.LookupIP(ctx, "ip", host)
}

func (s systemLookup) LookupCNAME(ctx context.Context, host string) (string, error) {
	return s.r.LookupCNAME(ctx, host)
}

func (s systemLookup) LookupNS(ctx context.Context, host string) ([]string, error) {
	ns, err := s.r.LookupNS(ctx, host)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Host)
	}
	return out, nil
}

func checkDNS(ctx context.Context, l dnsLookup, domain string) DNSStatus {
	s := DNSStatus{Domain: strings.TrimSpace(domain)}
	if s.Domain == "" || strings.Contains(s.Domain, "://") {
		s.Class = DNSInvalidName
		return s
	}

	ips, err := l.LookupIP(ctx, s.Domain)
	if err == nil && len(ips) > 0 {
		s.HasAOrAAAA = true
		s.IPs = ips
		s.Class = DNSResolves
	} else if err != nil {
		var de *net.DNSError
		s.ResolverError = err.Error()
		if errors.As(err, &de) {
			if de.IsNotFound {
				s.Class = DNSNXDomain
			} else if de.IsTemporary || de.Timeout() {
				s.Class = DNSServFail
			}
		}
	}

	if cname, err := l.LookupCNAME(ctx, s.Domain); err == nil && cname != "" && !strings.EqualFold(cname, s.Domain+".") {
		s.CNAME = strings.TrimSuffix(cname, ".")
	}

	if ns, err := l.LookupNS(ctx, s.Domain); err == nil && len(ns) > 0 {
		s.HasNS = true
		for _, n := range ns {
			s.Nameservers = append(s.Nameservers, strings.TrimSuffix(n, "."))
		}
		if s.Class == DNSNXDomain {
			s.Class = DNSNoARecord
		}
	}

	if s.Class == "" {
		if s.HasAOrAAAA {
			s.Class = DNSResolves
		} else if s.HasNS {
			s.Class = DNSNoARecord
		} else if s.ResolverError != "" {
			s.Class = DNSServFail
		} else {
			s.Class = DNSNXDomain
		}
	}
	return s
}
