// Package repotest holds the behaviour every repo.ObservationStore must share.
// Adapter packages call Run from their own tests.
package repotest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/apimonitor/internal/domain"
	"github.com/hamed0406/apimonitor/internal/repo"
)

// Factory returns a fresh, empty store. Run calls Init itself.
type Factory func(t *testing.T) repo.ObservationStore

func Run(t *testing.T, newStore Factory) {
	t.Helper()
	cases := []struct {
		name string
		run  func(t *testing.T, s repo.ObservationStore)
	}{
		{"EmptyRecent", testEmptyRecent},
		{"InitIdempotent", testInitIdempotent},
		{"RoundTrip", testRoundTrip},
		{"RecentOrderAndBound", testRecentOrderAndBound},
		{"RecentNonPositiveLimit", testRecentNonPositiveLimit},
		{"RecentLargeLimit", testRecentLargeLimit},
		{"ConcurrentAppend", testConcurrentAppend},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			require.NoError(t, s.Init(context.Background()))
			c.run(t, s)
		})
	}
}

var base = time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)

func sample(i int) domain.Observation {
	var out domain.Outcome
	switch i % 4 {
	case 0:
		out = domain.Succeeded(200, time.Duration(i+1)*time.Millisecond)
	case 1:
		out = domain.TimedOut(5 * time.Second)
	case 2:
		out = domain.ConnectionFailed()
	default:
		out = domain.Unexpected(fmt.Sprintf("stopped after %d redirects", i))
	}
	return domain.NewObservation(fmt.Sprintf("target-%d", i%3), out, base.Add(time.Duration(i)*time.Second))
}

func appendN(t *testing.T, s repo.ObservationStore, n int) []domain.Observation {
	t.Helper()
	out := make([]domain.Observation, 0, n)
	for i := 0; i < n; i++ {
		o := sample(i)
		require.NoError(t, s.Append(context.Background(), &o))
		out = append(out, o)
	}
	return out
}

func assertSameObservation(t *testing.T, want, got domain.Observation) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, want.Timestamp.Equal(got.Timestamp), "timestamp want=%s got=%s", want.Timestamp, got.Timestamp)
	assert.Equal(t, want.TargetName, got.TargetName)
	assert.Equal(t, want.Outcome, got.Outcome)
}

func testEmptyRecent(t *testing.T, s repo.ObservationStore) {
	got, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testInitIdempotent(t *testing.T, s repo.ObservationStore) {
	ctx := context.Background()
	written := appendN(t, s, 3)

	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Init(ctx))

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assertSameObservation(t, written[2], got[0])

	// ids keep growing after re-init
	next := sample(3)
	require.NoError(t, s.Append(ctx, &next))
	assert.Greater(t, next.ID, written[2].ID)
}

func testRoundTrip(t *testing.T, s repo.ObservationStore) {
	written := appendN(t, s, 4)
	got, err := s.Recent(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i := range got {
		assertSameObservation(t, written[len(written)-1-i], got[i])
	}
}

func testRecentOrderAndBound(t *testing.T, s repo.ObservationStore) {
	ctx := context.Background()
	appendN(t, s, 12)

	all, err := s.Recent(ctx, 50)
	require.NoError(t, err)
	require.Len(t, all, 12)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i-1].ID, all[i].ID)
	}

	for n := 1; n <= 12; n++ {
		got, err := s.Recent(ctx, n)
		require.NoError(t, err)
		require.Len(t, got, n)
		for i := range got {
			assert.Equal(t, all[i].ID, got[i].ID, "recent(%d) is not a prefix", n)
		}
	}
}

// A limit of zero or less asks for nothing; defaults belong to callers.
func testRecentNonPositiveLimit(t *testing.T, s repo.ObservationStore) {
	appendN(t, s, 3)
	for _, limit := range []int{0, -1} {
		got, err := s.Recent(context.Background(), limit)
		require.NoError(t, err)
		assert.NotNil(t, got, "recent(%d)", limit)
		assert.Empty(t, got, "recent(%d)", limit)
	}
}

func testRecentLargeLimit(t *testing.T, s repo.ObservationStore) {
	written := appendN(t, s, 105)
	got, err := s.Recent(context.Background(), 1000)
	require.NoError(t, err)
	require.Len(t, got, 105)
	assert.Equal(t, written[104].ID, got[0].ID)
}

func testConcurrentAppend(t *testing.T, s repo.ObservationStore) {
	const writers, each = 6, 10
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, writers*each)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				o := sample(w*each + i)
				if err := s.Append(ctx, &o); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.Recent(ctx, writers*each+10)
	require.NoError(t, err)
	require.Len(t, got, writers*each)
	seen := make(map[int64]bool, len(got))
	for i, o := range got {
		assert.False(t, seen[o.ID], "duplicate id %d", o.ID)
		seen[o.ID] = true
		if i > 0 {
			assert.Greater(t, got[i-1].ID, o.ID)
		}
	}
}
