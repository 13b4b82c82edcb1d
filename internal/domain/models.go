package domain

import "time"

const (
	DefaultInterval = 10 * time.Second
	DefaultTimeout  = 5 * time.Second
)

// Target is one statically configured endpoint. Targets are built once at
// startup and never change while the process runs.
type Target struct {
	Name     string        `json:"name"`
	URL      string        `json:"url"`
	Interval time.Duration `json:"interval"`
	Timeout  time.Duration `json:"timeout"`
}

// WithDefaults fills a zero interval or timeout.
func (t Target) WithDefaults() Target {
	if t.Interval <= 0 {
		t.Interval = DefaultInterval
	}
	if t.Timeout <= 0 {
		t.Timeout = DefaultTimeout
	}
	return t
}

// Observation is a persisted Outcome. ID is assigned by the store and
// Timestamp carries second precision.
type Observation struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	TargetName string    `json:"target_name"`
	Outcome
}

// NewObservation stamps an outcome for a target. The timestamp is truncated
// to the second and kept in UTC.
func NewObservation(targetName string, out Outcome, at time.Time) Observation {
	return Observation{
		Timestamp:  at.UTC().Truncate(time.Second),
		TargetName: targetName,
		Outcome:    out,
	}
}
