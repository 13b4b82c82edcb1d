package scheduler

import (
	"context"

	"go.uber.org/zap"

	"github.com/hamed0406/apimonitor/internal/domain"
	"github.com/hamed0406/apimonitor/internal/probe"
)

type Recorder interface {
	Record(ctx context.Context, targetName string, out domain.Outcome) (domain.Observation, bool)
}

type Diagnoser interface {
	Diagnose(ctx context.Context, target string) probe.DNSStatus
}

// Monitor is the Job that probes a target and records the outcome.
type Monitor struct {
	Logger   *zap.Logger
	Prober   probe.Prober
	Recorder Recorder
	// Diagnoser is optional; when set, connection failures get a DNS
	// classification in the logs.
	Diagnoser Diagnoser
}

func (m *Monitor) Run(ctx context.Context, t domain.Target) {
	out := m.Prober.Probe(ctx, t.URL, t.Timeout)
	if ctx.Err() != nil {
		// shutting down: the probe was cut short, do not record it
		m.Logger.Debug("cycle_abandoned", zap.String("target", t.Name))
		return
	}

	fields := []zap.Field{
		zap.String("target", t.Name),
		zap.String("url", t.URL),
		zap.String("status", out.Status.String()),
		zap.Int("status_code", out.StatusCode),
		zap.Float64("latency_ms", out.LatencyMS),
	}
	if out.Status == domain.StatusSuccess {
		m.Logger.Info("probe_completed", fields...)
	} else {
		m.Logger.Warn("probe_failed", append(fields, zap.String("error", out.ErrorMessage))...)
	}

	m.Recorder.Record(ctx, t.Name, out)

	if out.Status == domain.StatusConnectionError && m.Diagnoser != nil {
		dns := m.Diagnoser.Diagnose(ctx, t.URL)
		m.Logger.Info("dns_check",
			zap.String("target", t.Name),
			zap.String("domain", dns.Domain),
			zap.String("class", dns.Class),
			zap.Bool("has_a_or_aaaa", dns.HasAOrAAAA),
			zap.Strings("nameservers", dns.Nameservers),
			zap.String("cname", dns.CNAME),
			zap.String("resolver_error", dns.ResolverError),
		)
	}
}
