package kite

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Candle is one OHLCV(+OI) bar. The broker serves candles either as a
// positional array [date, open, high, low, close, volume, oi?] or as a
// named-field object; both decode into this one shape. OI is nil for
// instruments without open interest.
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume uint64    `json:"volume"`
	OI     *uint64   `json:"oi"`
}

// Timestamp layouts candles may carry: ISO-8601 with a Z suffix or a
// colonless offset (e.g. 2024-12-20T09:15:00+0530). Anything else,
// unix seconds aside, is a data error.
var candleTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
}

// MarshalJSON always emits the object form with an RFC3339 UTC date.
func (c Candle) MarshalJSON() ([]byte, error) {
	type wire struct {
		Date   string  `json:"date"`
		Open   float64 `json:"open"`
		High   float64 `json:"high"`
		Low    float64 `json:"low"`
		Close  float64 `json:"close"`
		Volume uint64  `json:"volume"`
		OI     *uint64 `json:"oi"`
	}
	return json.Marshal(wire{
		Date:   c.Date.UTC().Format(time.RFC3339),
		Open:   c.Open,
		High:   c.High,
		Low:    c.Low,
		Close:  c.Close,
		Volume: c.Volume,
		OI:     c.OI,
	})
}

// UnmarshalJSON branches on the JSON kind: arrays decode positionally,
// everything else decodes as the named-field object.
func (c *Candle) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return c.unmarshalArray(trimmed)
	}
	return c.unmarshalObject(trimmed)
}

func (c *Candle) unmarshalArray(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return dataError("malformed candle array: %v", err)
	}
	if len(fields) != 6 && len(fields) != 7 {
		return dataError("candle array has %d elements, want 6 or 7", len(fields))
	}

	date, err := parseCandleTime(fields[0])
	if err != nil {
		return err
	}

	out := Candle{Date: date}
	for i, dst := range []*float64{&out.Open, &out.High, &out.Low, &out.Close} {
		v, err := parseCandleFloat(fields[i+1])
		if err != nil {
			return err
		}
		*dst = v
	}
	if out.Volume, err = parseCandleUint(fields[5]); err != nil {
		return err
	}
	if len(fields) == 7 {
		oi, err := parseCandleUint(fields[6])
		if err != nil {
			return err
		}
		out.OI = &oi
	}
	*c = out
	return nil
}

func (c *Candle) unmarshalObject(data []byte) error {
	var raw struct {
		Date   json.RawMessage `json:"date"`
		Open   json.RawMessage `json:"open"`
		High   json.RawMessage `json:"high"`
		Low    json.RawMessage `json:"low"`
		Close  json.RawMessage `json:"close"`
		Volume json.RawMessage `json:"volume"`
		OI     json.RawMessage `json:"oi"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return dataError("malformed candle object: %v", err)
	}
	if raw.Date == nil {
		return dataError("candle object missing date")
	}

	date, err := parseCandleTime(raw.Date)
	if err != nil {
		return err
	}

	out := Candle{Date: date}
	for _, f := range []struct {
		raw json.RawMessage
		dst *float64
	}{
		{raw.Open, &out.Open},
		{raw.High, &out.High},
		{raw.Low, &out.Low},
		{raw.Close, &out.Close},
	} {
		if f.raw == nil {
			continue
		}
		v, err := parseCandleFloat(f.raw)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	if raw.Volume != nil {
		if out.Volume, err = parseCandleUint(raw.Volume); err != nil {
			return err
		}
	}
	if raw.OI != nil && !bytes.Equal(bytes.TrimSpace(raw.OI), []byte("null")) {
		oi, err := parseCandleUint(raw.OI)
		if err != nil {
			return err
		}
		out.OI = &oi
	}
	*c = out
	return nil
}

// parseCandleTime accepts an ISO-8601 string (with offset or Z suffix)
// or integer Unix seconds. The result is always UTC.
func parseCandleTime(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return time.Time{}, dataError("empty candle date")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, dataError("malformed candle date: %v", err)
		}
		for _, layout := range candleTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, dataError("unrecognized candle date %q", s)
	}

	var secs int64
	if err := json.Unmarshal(raw, &secs); err != nil {
		return time.Time{}, dataError("unrecognized candle date %s", string(raw))
	}
	return time.Unix(secs, 0).UTC(), nil
}

// parseCandleFloat accepts a JSON number or a numeric string. Mutual
// fund feeds serve numbers as strings.
func parseCandleFloat(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, dataError("malformed candle number: %v", err)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, dataError("candle value %q is not numeric", s)
		}
		return v, nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, dataError("candle value %s is not numeric", string(raw))
	}
	return v, nil
}

// parseCandleUint parses via float64 first so scientific notation in
// volume fields survives.
func parseCandleUint(raw json.RawMessage) (uint64, error) {
	v, err := parseCandleFloat(raw)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, dataError("candle value %v is negative", v)
	}
	return uint64(v), nil
}
