package probe

import (
	"context"
	"net"
	"net/url"
	"time"
)

// Diagnoser explains a connection failure by classifying the target's DNS.
// It never changes what gets recorded, it only feeds the logs.
type Diagnoser struct {
	lookup  dnsLookup
	timeout time.Duration
}

// NewDiagnoser uses the system resolver when server is empty, otherwise it
// queries server ("host" or "host:port") directly.
func NewDiagnoser(server string) *Diagnoser {
	d := &Diagnoser{timeout: defaultDNSLimit}
	if server == "" {
		d.lookup = systemLookup{r: &net.Resolver{}}
	} else {
		d.lookup = newServerLookup(server, d.timeout)
	}
	return d
}

func (d *Diagnoser) Diagnose(ctx context.Context, target string) DNSStatus {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return checkDNS(ctx, d.lookup, extractHost(target))
}

func extractHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
