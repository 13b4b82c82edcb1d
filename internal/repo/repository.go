package repo

import (
	"context"
	"errors"

	"github.com/hamed0406/apimonitor/internal/domain"
)

// Storage failure classes. Adapters wrap the driver error together with one
// of these so callers can use errors.Is.
var (
	ErrInit  = errors.New("storage init")
	ErrWrite = errors.New("storage write")
	ErrRead  = errors.New("storage read")
)

// ObservationStore is the append-only metrics log.
type ObservationStore interface {
	// Init creates the backing schema when missing. It must be safe to call
	// on every start against a populated store.
	Init(ctx context.Context) error
	// Append writes one observation in its own short transaction and sets
	// o.ID to the id the store assigned.
	Append(ctx context.Context, o *domain.Observation) error
	// Recent returns up to limit observations, newest (highest id) first.
	// A limit of zero or less returns an empty slice.
	Recent(ctx context.Context, limit int) ([]domain.Observation, error)
	Close() error
}

// Writer is the part of the store the recorder needs.
type Writer interface {
	Append(ctx context.Context, o *domain.Observation) error
}

// Reader is the part of the store the query service needs.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]domain.Observation, error)
}
