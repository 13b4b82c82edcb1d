package query

import (
	"context"
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

type spyReader struct {
	limits []int
	err    error
}

func (s *spyReader) Recent(ctx context.Context, limit int) ([]domain.Observation, error) {
	s.limits = append(s.limits, limit)
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Observation{}, nil
}

func TestService_LimitDefaultsAndCap(t *testing.T) {
	spy := &spyReader{}
	svc := New(zap.NewNop(), spy)

	svc.Recent(context.Background(), 0)
	svc.Recent(context.Background(), -1)
	svc.Recent(context.Background(), 25)
	svc.Recent(context.Background(), 5000)

	assert.Equal(t, []int{MaxLimit, MaxLimit, 25, MaxLimit}, spy.limits)
}

func TestService_ReadErrorReturnsEmpty(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	svc := New(zap.New(core), &spyReader{err: fmt.Errorf("%w: database is locked", repo.ErrRead)})

	got := svc.Recent(context.Background(), 10)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 1, logs.FilterMessage("query_recent_failed").Len())
}

func TestService_DelegatesToStore(t *testing.T) {
	store := memory.New()
	for i := 0; i < 3; i++ {
		o := domain.NewObservation("GitHub", domain.Succeeded(200, time.Millisecond), time.Now())
		require.NoError(t, store.Append(context.Background(), &o))
	}
	got := New(zap.NewNop(), store).Recent(context.Background(), 2)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
}
