package domain

import "time"

// Status is the closed set of probe results. Adding a member means every
// switch over Status has to be revisited.
type Status string

const (
	StatusSuccess         Status = "success"
	StatusTimeout         Status = "timeout"
	StatusConnectionError Status = "connection_error"
	StatusUnexpectedError Status = "unexpected_error"
)

// NoStatusCode marks an outcome that never got an HTTP response.
const NoStatusCode = -1

const (
	MsgTimeout         = "Timeout"
	MsgConnectionError = "Connection Error"
)

func (s Status) String() string { return string(s) }

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusSuccess, StatusTimeout, StatusConnectionError, StatusUnexpectedError:
		return true
	}
	return false
}

// Outcome is the result of a single probe. Only the constructors below
// should build one so the status, code and message stay consistent.
type Outcome struct {
	Status       Status  `json:"status"`
	StatusCode   int     `json:"status_code"`
	LatencyMS    float64 `json:"latency_ms"`
	ErrorMessage string  `json:"error_message,omitempty"`
}

// Succeeded means the probe got a response, whatever its HTTP code.
func Succeeded(code int, latency time.Duration) Outcome {
	return Outcome{
		Status:     StatusSuccess,
		StatusCode: code,
		LatencyMS:  durationMS(latency),
	}
}

// TimedOut reports the full timeout as latency.
func TimedOut(timeout time.Duration) Outcome {
	return Outcome{
		Status:       StatusTimeout,
		StatusCode:   NoStatusCode,
		LatencyMS:    durationMS(timeout),
		ErrorMessage: MsgTimeout,
	}
}

func ConnectionFailed() Outcome {
	return Outcome{
		Status:       StatusConnectionError,
		StatusCode:   NoStatusCode,
		ErrorMessage: MsgConnectionError,
	}
}

func Unexpected(msg string) Outcome {
	if msg == "" {
		msg = "unexpected error"
	}
	return Outcome{
		Status:       StatusUnexpectedError,
		StatusCode:   NoStatusCode,
		ErrorMessage: msg,
	}
}

// StatusFromLegacy derives the status of rows written before the status
// column existed, from their code and message alone.
func StatusFromLegacy(code int, msg string) Status {
	switch {
	case code != NoStatusCode && msg == "":
		return StatusSuccess
	case msg == MsgTimeout:
		return StatusTimeout
	case msg == MsgConnectionError:
		return StatusConnectionError
	default:
		return StatusUnexpectedError
	}
}

func durationMS(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
