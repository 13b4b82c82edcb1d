package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/apimonitor/internal/domain"
	"github.com/hamed0406/apimonitor/internal/repo"
)

var _ repo.ObservationStore = (*Store)(nil)

const defaultTable = "response_times"

type Store struct {
	pool  *pgxpool.Pool
	log   *zap.Logger
	table string
}

type Option func(*Store)

// WithTable stores observations in a table other than response_times.
func WithTable(name string) Option {
	return func(s *Store) { s.table = name }
}

func New(ctx context.Context, dsn string, log *zap.Logger, opts ...Option) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: pgxpool.New: %w", repo.ErrInit, err)
	}
	s := &Store{pool: pool, log: log, table: defaultTable}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) ident() string {
	return pgx.Identifier{s.table}.Sanitize()
}

func (s *Store) Init(ctx context.Context) error {
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.pool.Ping(ctxPing); err != nil {
		return fmt.Errorf("%w: ping: %w", repo.ErrInit, err)
	}

	t := s.ident()
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + t + ` (
		   id            BIGSERIAL PRIMARY KEY,
		   timestamp     TIMESTAMPTZ      NOT NULL,
		   api_name      TEXT             NOT NULL,
		   response_time DOUBLE PRECISION NOT NULL,
		   status_code   INTEGER          NOT NULL,
		   error_message TEXT             NULL
		 )`,
		// stores written before the status column existed
		`ALTER TABLE ` + t + ` ADD COLUMN IF NOT EXISTS status TEXT NOT NULL DEFAULT ''`,
	}
	for _, q := range stmts {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("%w: apply schema: %w", repo.ErrInit, err)
		}
	}
	s.log.Info("store_ready", zap.String("driver", "postgres"), zap.String("table", s.table))
	return nil
}

func (s *Store) Append(ctx context.Context, o *domain.Observation) error {
	var msgPtr *string
	if o.ErrorMessage != "" {
		msgPtr = &o.ErrorMessage
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO `+s.ident()+`
		   (timestamp, api_name, response_time, status_code, error_message, status)
		 VALUES
		   ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		o.Timestamp.UTC(), o.TargetName, o.LatencyMS, o.StatusCode, msgPtr, string(o.Status),
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("%w: insert observation: %w", repo.ErrWrite, err)
	}
	return nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]domain.Observation, error) {
	if limit <= 0 {
		return []domain.Observation{}, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, timestamp, api_name, response_time, status_code, error_message, status
		   FROM `+s.ident()+`
		  ORDER BY id DESC
		  LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query recent: %w", repo.ErrRead, err)
	}
	defer rows.Close()

	out := make([]domain.Observation, 0)
	for rows.Next() {
		var (
			o      domain.Observation
			ts     time.Time
			msg    sql.NullString
			status string
		)
		if err := rows.Scan(&o.ID, &ts, &o.TargetName, &o.LatencyMS, &o.StatusCode, &msg, &status); err != nil {
			return nil, fmt.Errorf("%w: scan observation: %w", repo.ErrRead, err)
		}
		o.Timestamp = ts.UTC()
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
