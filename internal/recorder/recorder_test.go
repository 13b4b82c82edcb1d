package recorder

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hamed0406/apimonitor/internal/domain"
	"github.com/hamed0406/apimonitor/internal/repo"
	"github.com/hamed0406/apimonitor/internal/repo/memory"
)

type failingStore struct{ calls int }

func (f *failingStore) Append(ctx context.Context, o *domain.Observation) error {
	f.calls++
	return fmt.Errorf("%w: disk full", repo.ErrWrite)
}

func TestRecorder_StampsAndAppends(t *testing.T) {
	store := memory.New()
	rec := New(zap.NewNop(), store)
	rec.Now = func() time.Time { return time.Date(2025, 8, 18, 12, 0, 3, 700_000_000, time.UTC) }

	obs, ok := rec.Record(context.Background(), "Google", domain.Succeeded(200, 42*time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, int64(1), obs.ID)
	assert.Equal(t, time.Date(2025, 8, 18, 12, 0, 3, 0, time.UTC), obs.Timestamp)

	got, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, obs, got[0])
}

func TestRecorder_WriteFailureIsLoggedAndDropped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store := &failingStore{}
	rec := New(zap.New(core), store)

	_, ok := rec.Record(context.Background(), "GitHub", domain.ConnectionFailed())
	assert.False(t, ok)
	assert.Equal(t, 1, store.calls, "no retry")

	entries := logs.FilterMessage("record_dropped").All()
	require.Len(t, entries, 1)
	ctxMap := entries[0].ContextMap()
	assert.Equal(t, "GitHub", ctxMap["target"])
	assert.Contains(t, ctxMap["error"], "disk full")
}

// ctxStore fails like a real driver does when its context is already done.
type ctxStore struct{ *memory.Store }

func (c *ctxStore) Append(ctx context.Context, o *domain.Observation) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(repo.ErrWrite, err)
	}
	return c.Store.Append(ctx, o)
}

func TestRecorder_WriteSurvivesCanceledCaller(t *testing.T) {
	store := &ctxStore{Store: memory.New()}
	rec := New(zap.NewNop(), store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := rec.Record(ctx, "Google", domain.TimedOut(5*time.Second))
	assert.True(t, ok)
}

func TestRecorder_ClosedRefusesWrites(t *testing.T) {
	store := memory.New()
	rec := New(zap.NewNop(), store)
	rec.Close()
	rec.Close()

	_, ok := rec.Record(context.Background(), "Google", domain.Succeeded(200, time.Millisecond))
	assert.False(t, ok)
	got, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// blockingStore holds each append until released.
type blockingStore struct {
	*memory.Store
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) Append(ctx context.Context, o *domain.Observation) error {
	close(b.entered)
	<-b.release
	return b.Store.Append(ctx, o)
}

func TestRecorder_CloseWaitsForWriteInProgress(t *testing.T) {
	store := &blockingStore{Store: memory.New(), entered: make(chan struct{}), release: make(chan struct{})}
	rec := New(zap.NewNop(), store)

	wrote := make(chan bool, 1)
	go func() {
		_, ok := rec.Record(context.Background(), "GitHub", domain.Succeeded(200, time.Millisecond))
		wrote <- ok
	}()
	<-store.entered

	closed := make(chan struct{})
	go func() {
		rec.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a write was in progress")
	case <-time.After(50 * time.Millisecond):
	}

	close(store.release)
	assert.True(t, <-wrote)
	<-closed

	got, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
