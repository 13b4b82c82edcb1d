package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/hamed0406/apimonitor/internal/domain"
)

var ErrStopped = errors.New("scheduler stopped")

// Job is one probe/record cycle for a target.
type Job interface {
	Run(ctx context.Context, t domain.Target)
}

type JobFunc func(ctx context.Context, t domain.Target)

func (f JobFunc) Run(ctx context.Context, t domain.Target) { f(ctx, t) }

// Scheduler runs every registered target on its own ticker. A target whose
// previous cycle is still running when its ticker fires skips that tick, so
// cycles of one target never overlap. Targets share nothing but the Job.
type Scheduler struct {
	Logger *zap.Logger
	Job    Job
	// Immediate runs a first cycle as soon as a target starts instead of
	// waiting one interval.
	Immediate bool

	mu      sync.Mutex
	entries map[string]*entry
	slots   map[string]*slot
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	stopped bool

	loops sync.WaitGroup
	runs  sync.WaitGroup
}

// slot is the Idle/Running state of a target name. It outlives
// re-registration so a replaced timer cannot overlap a cycle of its
// predecessor.
type slot struct {
	running *atomic.Bool
	skipped *atomic.Int64
	ran     *atomic.Int64
}

type entry struct {
	target domain.Target
	id     xid.ID
	stop   context.CancelFunc
}

func New(logger *zap.Logger, job Job) *Scheduler {
	return &Scheduler{
		Logger:  logger,
		Job:     job,
		entries: make(map[string]*entry),
		slots:   make(map[string]*slot),
	}
}

// Register adds t, replacing any registration with the same name. Before
// Start it only records the target; afterwards its ticker starts right away.
func (s *Scheduler) Register(t domain.Target) error {
	if t.Name == "" {
		return errors.New("target name is empty")
	}
	t = t.WithDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}

	if old := s.entries[t.Name]; old != nil {
		if old.stop != nil {
			old.stop()
		}
		s.Logger.Info("target_replaced",
			zap.String("target", t.Name),
			zap.String("old_registration", old.id.String()),
		)
	}
	e := &entry{target: t, id: xid.New()}
	s.entries[t.Name] = e
	if s.slots[t.Name] == nil {
		s.slots[t.Name] = &slot{
			running: atomic.NewBool(false),
			skipped: atomic.NewInt64(0),
			ran:     atomic.NewInt64(0),
		}
	}
	if s.started {
		s.launch(e)
	}
	return nil
}

// Start launches one goroutine per registered target. It is idempotent and
// a no-op after Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	for _, e := range s.entries {
		s.launch(e)
	}
	s.Logger.Info("scheduler_started", zap.Int("targets", len(s.entries)))
}

// launch must be called with s.mu held.
func (s *Scheduler) launch(e *entry) {
	ctx, cancel := context.WithCancel(s.ctx)
	e.stop = cancel
	sl := s.slots[e.target.Name]
	s.loops.Add(1)
	go s.loop(ctx, e, sl)
	s.Logger.Debug("target_scheduled",
		zap.String("target", e.target.Name),
		zap.String("registration", e.id.String()),
		zap.Duration("interval", e.target.Interval),
		zap.Duration("timeout", e.target.Timeout),
	)
}

func (s *Scheduler) loop(ctx context.Context, e *entry, sl *slot) {
	defer s.loops.Done()

	if s.Immediate {
		s.tick(ctx, e, sl)
	}

	t := time.NewTicker(e.target.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.tick(ctx, e, sl)
		}
	}
}

// tick moves the target from Idle to Running, or skips when it is already
// Running.
func (s *Scheduler) tick(ctx context.Context, e *entry, sl *slot) {
	if ctx.Err() != nil {
		return
	}
	if !sl.running.CompareAndSwap(false, true) {
		sl.skipped.Inc()
		s.Logger.Debug("tick_skipped", zap.String("target", e.target.Name))
		return
	}
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		defer sl.running.Store(false)
		sl.ran.Inc()
		s.runJob(ctx, e.target)
	}()
}

func (s *Scheduler) runJob(ctx context.Context, t domain.Target) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.Logger.Error("job_panic",
				zap.String("target", t.Name),
				zap.String("correlation_id", correlationID),
				zap.String("panic", fmt.Sprintf("%v", r)),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()
	s.Job.Run(ctx, t)
}

// Stop cancels every ticker and in-flight cycle and waits for them to
// return. It is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	first := !s.stopped
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.loops.Wait()
	s.runs.Wait()
	if first {
		s.Logger.Info("scheduler_stopped")
	}
}

// Run starts the scheduler and blocks until ctx is done, then stops it.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Start(ctx)
	<-ctx.Done()
	s.Stop()
	return nil
}

// Targets returns the current registrations sorted by name.
func (s *Scheduler) Targets() []domain.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Target, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.target)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Stats reports how many cycles of a target ran and how many ticks were
// skipped because a cycle was still running.
func (s *Scheduler) Stats(name string) (ran, skipped int64) {
	s.mu.Lock()
	sl := s.slots[name]
	s.mu.Unlock()
	if sl == nil {
		return 0, 0
	}
	return sl.ran.Load(), sl.skipped.Load()
}
