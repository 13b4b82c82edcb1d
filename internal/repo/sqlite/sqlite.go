// Package sqlite stores observations in a single SQLite file, the layout
// the monitor has always used (table response_times).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/hamed0406/apimonitor/internal/domain"
	"github.com/hamed0406/apimonitor/internal/repo"
)

const timeLayout = "2006-01-02 15:04:05"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS response_times (
  id            INTEGER PRIMARY KEY AUTOINCREMENT,
  timestamp     TEXT    NOT NULL,
  api_name      TEXT    NOT NULL,
  response_time REAL    NOT NULL,
  status_code   INTEGER NOT NULL,
  error_message TEXT,
  status        TEXT    NOT NULL DEFAULT ''
)`

var _ repo.ObservationStore = (*Store)(nil)

type Store struct {
	db   *sql.DB
	path string
	log  *zap.Logger
}

// Open prepares a store backed by the file at path. The file is not touched
// until Init.
func Open(path string, log *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", repo.ErrInit, path, err)
	}
	return &Store{db: db, path: path, log: log}, nil
}

// WAL lets readers run next to the single writer; busy_timeout makes
// concurrent writers wait for the lock instead of failing.
func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	return "file:" + uriPath.Replace(path) + "?" + q.Encode()
}

// uriPath escapes the characters that would end the path part of a SQLite
// URI filename. SQLite decodes them again when opening the file.
var uriPath = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Init(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping %s: %w", repo.ErrInit, s.path, err)
	}
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("%w: create table: %w", repo.ErrInit, err)
	}
	has, err := s.hasColumn(ctx, "status")
	if err != nil {
		return fmt.Errorf("%w: inspect table: %w", repo.ErrInit, err)
	}
	if !has {
		// stores written before the status column existed
		if _, err := s.db.ExecContext(ctx,
			`ALTER TABLE response_times ADD COLUMN status TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("%w: add status column: %w", repo.ErrInit, err)
		}
		s.log.Info("store_migrated", zap.String("path", s.path), zap.String("column", "status"))
	}
	s.log.Info("store_ready", zap.String("driver", "sqlite"), zap.String("path", s.path))
	return nil
}

func (s *Store) hasColumn(ctx context.Context, name string) (bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info('response_times')`)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return false, err
		}
		if col == name {
			return true, nil
		}
	}
	return false, rows.Err()
}

// Append runs a single autocommit INSERT, which is its own short transaction.
func (s *Store) Append(ctx context.Context, o *domain.Observation) error {
	var msg sql.NullString
	if o.ErrorMessage != "" {
		msg = sql.NullString{String: o.ErrorMessage, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO response_times
		   (timestamp, api_name, response_time, status_code, error_message, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		o.Timestamp.UTC().Format(timeLayout), o.TargetName, o.LatencyMS, o.StatusCode, msg, string(o.Status),
	)
	if err != nil {
		return fmt.Errorf("%w: insert observation: %w", repo.ErrWrite, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%w: last insert id: %w", repo.ErrWrite, err)
	}
	o.ID = id
	return nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]domain.Observation, error) {
	if limit <= 0 {
		return []domain.Observation{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, api_name, response_time, status_code, error_message, status
		   FROM response_times
		  ORDER BY id DESC
		  LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query recent: %w", repo.ErrRead, err)
	}
	defer rows.Close()

	out := make([]domain.Observation, 0)
	for rows.Next() {
		var (
			o      domain.Observation
			ts     string
			msg    sql.NullString
			status string
		)
		if err := rows.Scan(&o.ID, &ts, &o.TargetName, &o.LatencyMS, &o.StatusCode, &msg, &status); err != nil {
			return nil, fmt.Errorf("%w: scan observation: %w", repo.ErrRead, err)
		}
		o.Timestamp, err = time.ParseInLocation(timeLayout, ts, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: parse timestamp %q: %w", repo.ErrRead, ts, err)
		}
		o.ErrorMessage = msg.String
		o.Status = domain.Status(status)
		if !o.Status.Valid() {
			o.Status = domain.StatusFromLegacy(o.StatusCode, o.ErrorMessage)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate rows: %w", repo.ErrRead, err)
	}
	return out, nil
}
