package kite

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalMarshalEmitsStringForm(t *testing.T) {
	cases := map[Interval]string{
		IntervalDay:      `"day"`,
		IntervalMinute:   `"minute"`,
		Interval3Minute:  `"3minute"`,
		Interval5Minute:  `"5minute"`,
		Interval10Minute: `"10minute"`,
		Interval15Minute: `"15minute"`,
		Interval30Minute: `"30minute"`,
		Interval60Minute: `"60minute"`,
	}
	for interval, want := range cases {
		got, err := json.Marshal(interval)
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}
}

func TestIntervalUnmarshalAcceptsBothForms(t *testing.T) {
	var iv Interval

	require.NoError(t, json.Unmarshal([]byte(`"5minute"`), &iv))
	assert.Equal(t, Interval5Minute, iv)

	require.NoError(t, json.Unmarshal([]byte(`3`), &iv))
	assert.Equal(t, Interval5Minute, iv)

	require.NoError(t, json.Unmarshal([]byte(`0`), &iv))
	assert.Equal(t, IntervalDay, iv)
}

func TestIntervalUnmarshalRejectsUnknown(t *testing.T) {
	var iv Interval
	assert.Error(t, json.Unmarshal([]byte(`"2minute"`), &iv))
	assert.Error(t, json.Unmarshal([]byte(`8`), &iv))
	assert.Error(t, json.Unmarshal([]byte(`-1`), &iv))
	assert.Error(t, json.Unmarshal([]byte(`{"interval":"day"}`), &iv))
}

func TestIntervalMaxSpanDays(t *testing.T) {
	cases := map[Interval]int{
		IntervalDay:      2000,
		IntervalMinute:   60,
		Interval3Minute:  100,
		Interval5Minute:  100,
		Interval10Minute: 100,
		Interval15Minute: 200,
		Interval30Minute: 200,
		Interval60Minute: 400,
	}
	for interval, want := range cases {
		assert.Equal(t, want, interval.MaxSpanDays(), interval.String())
	}
}

func TestIntervalGap(t *testing.T) {
	cases := map[Interval]time.Duration{
		IntervalDay:      24 * time.Hour,
		Interval60Minute: time.Hour,
		Interval30Minute: 30 * time.Minute,
		Interval15Minute: 15 * time.Minute,
		Interval10Minute: 10 * time.Minute,
		Interval5Minute:  5 * time.Minute,
		Interval3Minute:  3 * time.Minute,
		IntervalMinute:   time.Minute,
	}
	for interval, want := range cases {
		assert.Equal(t, want, interval.gap(), interval.String())
	}
}

func TestParseInterval(t *testing.T) {
	iv, err := ParseInterval("60minute")
	require.NoError(t, err)
	assert.Equal(t, Interval60Minute, iv)

	_, err = ParseInterval("hourly")
	require.Error(t, err)
	var kerr *Error
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, InputException, kerr.Kind)
}
