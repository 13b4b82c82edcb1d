package probe

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/hamed0406/apimonitor/internal/domain"
)

// maxDrainBytes bounds how much of a response body is read before the
// latency is taken.
const maxDrainBytes = 1 << 20

// Prober performs one bounded GET and never fails: every path ends in an
// Outcome.
type Prober interface {
	Probe(ctx context.Context, url string, timeout time.Duration) domain.Outcome
}

type HTTPProber struct {
	Client *http.Client
}

// NewHTTPProber returns a prober without a client-wide timeout; each probe
// bounds itself through its context.
func NewHTTPProber() *HTTPProber {
	return &HTTPProber{
		Client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
}

func (h *HTTPProber) Probe(ctx context.Context, target string, timeout time.Duration) domain.Outcome {
	if timeout <= 0 {
		timeout = domain.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return domain.Unexpected(shortError(err))
	}

	start := time.Now() // monotonic reading
	resp, err := h.Client.Do(req)
	if err != nil {
		return Classify(err, timeout)
	}
	// the response counts once status and headers are in; latency stops here
	out := domain.Succeeded(resp.StatusCode, time.Since(start))

	// Draining keeps the connection reusable. A body that stalls or breaks
	// ends at the probe deadline and does not change the outcome.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	_ = resp.Body.Close()
	return out
}

// CloseIdle drops pooled connections, used on shutdown.
func (h *HTTPProber) CloseIdle() {
	if h == nil || h.Client == nil {
		return
	}
	h.Client.CloseIdleConnections()
}
