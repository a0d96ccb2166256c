package kite

import (
	"encoding/json"
	"time"
)

// Interval is a candle interval. It serializes as the broker's string
// form ("day", "minute", ...) but deserializes from either the string
// form or the compact integer form (0-7).
type Interval int

const (
	IntervalDay Interval = iota
	IntervalMinute
	Interval3Minute
	Interval5Minute
	Interval10Minute
	Interval15Minute
	Interval30Minute
	Interval60Minute
)

var intervalNames = [...]string{
	IntervalDay:      "day",
	IntervalMinute:   "minute",
	Interval3Minute:  "3minute",
	Interval5Minute:  "5minute",
	Interval10Minute: "10minute",
	Interval15Minute: "15minute",
	Interval30Minute: "30minute",
	Interval60Minute: "60minute",
}

func (i Interval) valid() bool {
	return i >= IntervalDay && i <= Interval60Minute
}

func (i Interval) String() string {
	if !i.valid() {
		return "unknown"
	}
	return intervalNames[i]
}

// ParseInterval converts the broker's string form to an Interval.
func ParseInterval(s string) (Interval, error) {
	for iv, name := range intervalNames {
		if name == s {
			return Interval(iv), nil
		}
	}
	return 0, inputError("invalid interval %q", s)
}

// MaxSpanDays is the broker's per-request ceiling on the date span for
// this interval.
func (i Interval) MaxSpanDays() int {
	switch i {
	case IntervalDay:
		return 2000
	case IntervalMinute:
		return 60
	case Interval3Minute, Interval5Minute, Interval10Minute:
		return 100
	case Interval15Minute, Interval30Minute:
		return 200
	case Interval60Minute:
		return 400
	default:
		return 0
	}
}

// gap is the step between the end of one chunk and the start of the
// next, chosen so adjacent chunks never share a candle.
func (i Interval) gap() time.Duration {
	switch i {
	case IntervalDay:
		return 24 * time.Hour
	case Interval60Minute:
		return time.Hour
	case Interval30Minute:
		return 30 * time.Minute
	case Interval15Minute:
		return 15 * time.Minute
	case Interval10Minute:
		return 10 * time.Minute
	case Interval5Minute:
		return 5 * time.Minute
	case Interval3Minute:
		return 3 * time.Minute
	default:
		return time.Minute
	}
}

// MarshalJSON always emits the string form.
func (i Interval) MarshalJSON() ([]byte, error) {
	if !i.valid() {
		return nil, inputError("invalid interval %d", int(i))
	}
	return json.Marshal(i.String())
}

// UnmarshalJSON accepts both the string and integer forms.
func (i *Interval) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		iv, perr := ParseInterval(s)
		if perr != nil {
			return perr
		}
		*i = iv
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return inputError("interval must be a string or integer: %s", string(data))
	}
	iv := Interval(n)
	if !iv.valid() {
		return inputError("invalid interval %d", n)
	}
	*i = iv
	return nil
}
