package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeConstructors_Consistent(t *testing.T) {
	cases := []Outcome{
		TimedOut(5 * time.Second),
		ConnectionFailed(),
		Unexpected("tls: bad certificate"),
		Unexpected(""),
	}
	for _, o := range cases {
		assert.NotEqual(t, StatusSuccess, o.Status)
		assert.Equal(t, NoStatusCode, o.StatusCode, "status %s", o.Status)
		assert.NotEmpty(t, o.ErrorMessage, "status %s", o.Status)
		assert.True(t, o.Status.Valid())
	}

	ok := Succeeded(503, 120*time.Millisecond)
	assert.Equal(t, StatusSuccess, ok.Status)
	assert.Equal(t, 503, ok.StatusCode)
	assert.Empty(t, ok.ErrorMessage)
	assert.InDelta(t, 120.0, ok.LatencyMS, 1e-9)
}

func TestTimedOut_LatencyIsTimeout(t *testing.T) {
	o := TimedOut(5 * time.Second)
	assert.Equal(t, 5000.0, o.LatencyMS)
	assert.Equal(t, MsgTimeout, o.ErrorMessage)
}

func TestStatusFromLegacy(t *testing.T) {
	assert.Equal(t, StatusSuccess, StatusFromLegacy(200, ""))
	assert.Equal(t, StatusTimeout, StatusFromLegacy(NoStatusCode, MsgTimeout))
	assert.Equal(t, StatusConnectionError, StatusFromLegacy(NoStatusCode, MsgConnectionError))
	assert.Equal(t, StatusUnexpectedError, StatusFromLegacy(NoStatusCode, "boom"))
	assert.False(t, Status("degraded").Valid())
}

func TestNewObservation_TruncatesToSecond(t *testing.T) {
	at := time.Date(2025, 8, 18, 12, 0, 7, 900_000_000, time.FixedZone("CEST", 2*3600))
	obs := NewObservation("GitHub", Succeeded(200, time.Millisecond), at)
	assert.Equal(t, time.Date(2025, 8, 18, 10, 0, 7, 0, time.UTC), obs.Timestamp)
	assert.Equal(t, "GitHub", obs.TargetName)
	assert.Zero(t, obs.ID)
}

func TestTarget_WithDefaults(t *testing.T) {
	tg := Target{Name: "x", URL: "https://x"}.WithDefaults()
	assert.Equal(t, DefaultInterval, tg.Interval)
	assert.Equal(t, DefaultTimeout, tg.Timeout)

	tg = Target{Interval: time.Minute, Timeout: time.Second}.WithDefaults()
	assert.Equal(t, time.Minute, tg.Interval)
	assert.Equal(t, time.Second, tg.Timeout)
}
