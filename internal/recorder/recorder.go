package recorder

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/apimonitor/internal/domain"
	"github.com/hamed0406/apimonitor/internal/repo"
)

// writeTimeout bounds a single append once it has started.
const writeTimeout = 5 * time.Second

// Recorder stamps outcomes and appends them to the store. A failed write is
// logged and dropped; it is never retried or returned. After Close no write
// starts.
type Recorder struct {
	Logger *zap.Logger
	Store  repo.Writer
	Now    func() time.Time

	mu     sync.RWMutex // held shared for the length of each write
	closed bool
}

func New(logger *zap.Logger, store repo.Writer) *Recorder {
	return &Recorder{Logger: logger, Store: store, Now: time.Now}
}

// Record returns the stored observation and whether the write succeeded.
func (r *Recorder) Record(ctx context.Context, targetName string, out domain.Outcome) (domain.Observation, bool) {
	obs := domain.NewObservation(targetName, out, r.Now())

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.Logger.Debug("record_refused", zap.String("target", targetName))
		return obs, false
	}

	// a write that has started finishes even if the caller is shutting down
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := r.Store.Append(wctx, &obs); err != nil {
		r.Logger.Warn("record_dropped",
			zap.String("target", targetName),
			zap.String("status", out.Status.String()),
			zap.Error(err),
		)
		return obs, false
	}
	r.Logger.Debug("recorded",
		zap.Int64("id", obs.ID),
		zap.String("target", targetName),
		zap.String("status", out.Status.String()),
		zap.Int("status_code", out.StatusCode),
		zap.Float64("latency_ms", out.LatencyMS),
	)
	return obs, true
}

// Close waits for writes in progress and refuses every later one. It is
// idempotent.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.closed = true
		r.Logger.Info("recorder_closed")
	}
}
