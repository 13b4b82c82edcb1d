package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/apimonitor/internal/domain"
	"github.com/hamed0406/apimonitor/internal/repo"
	"github.com/hamed0406/apimonitor/internal/repo/repotest"
)

func TestSQLiteStore_Contract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repo.ObservationStore {
		s, err := Open(filepath.Join(t.TempDir(), "perf.db"), zap.NewNop())
		require.NoError(t, err)
		return s
	})
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "perf.db")

	s, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Init(ctx))
	o := domain.NewObservation("GitHub", domain.ConnectionFailed(), fixedTime)
	require.NoError(t, s.Append(ctx, &o))
	require.NoError(t, s.Close())

	s2, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	defer s2.Close()
	require.NoError(t, s2.Init(ctx))

	got, err := s2.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, o.ID, got[0].ID)
	assert.Equal(t, domain.MsgConnectionError, got[0].ErrorMessage)
}

func TestSQLiteStore_PathWithURIDelimiters(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "perf?mode=ro#1%.db")

	s, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Init(ctx))
	o := domain.NewObservation("Google", domain.Succeeded(200, time.Millisecond), fixedTime)
	require.NoError(t, s.Append(ctx, &o))
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	require.NoError(t, err, "database file must be created under its literal name")
	_, err = os.Stat(filepath.Join(dir, "perf"))
	assert.True(t, os.IsNotExist(err))

	s2, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	defer s2.Close()
	require.NoError(t, s2.Init(ctx))
	got, err := s2.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDSN_EscapesPath(t *testing.T) {
	got := dsn("/data/a?b#c%d.db")
	assert.True(t, strings.HasPrefix(got, "file:/data/a%3Fb%23c%25d.db?"), got)
	assert.Contains(t, got, "_pragma=journal_mode%28WAL%29")
}

func TestSQLiteStore_MigratesLegacyTable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "legacy.db")

	raw, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	_, err = raw.Exec(`CREATE TABLE response_times (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		api_name TEXT NOT NULL,
		response_time REAL NOT NULL,
		status_code INTEGER NOT NULL,
		error_message TEXT)`)
	require.NoError(t, err)
	_, err = raw.Exec(`INSERT INTO response_times (timestamp, api_name, response_time, status_code, error_message)
		VALUES ('2025-08-18 12:00:00', 'Google', 5000.0, -1, 'Timeout'),
		       ('2025-08-18 12:00:10', 'Google', 81.5, 200, NULL)`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	s, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Init(ctx))

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.StatusSuccess, got[0].Status)
	assert.Equal(t, 200, got[0].StatusCode)
	assert.Equal(t, domain.StatusTimeout, got[1].Status)
	assert.Equal(t, 5000.0, got[1].LatencyMS)
}

func TestSQLiteStore_InitFailsOnUnwritablePath(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "perf.db"), zap.NewNop())
	if err != nil {
		require.True(t, errors.Is(err, repo.ErrInit))
		return
	}
	defer s.Close()
	err = s.Init(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, repo.ErrInit), "got %v", err)
}

func TestSQLiteStore_ClosedStoreReportsReadAndWriteErrors(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "perf.db"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Close())

	o := domain.NewObservation("x", domain.ConnectionFailed(), fixedTime)
	assert.ErrorIs(t, s.Append(ctx, &o), repo.ErrWrite)
	_, err = s.Recent(ctx, 1)
	assert.ErrorIs(t, err, repo.ErrRead)
}

var fixedTime = time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
