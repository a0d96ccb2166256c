package kite

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandleUnmarshalArraySixElements(t *testing.T) {
	raw := `["2023-12-20T09:15:00+0530", 21500.5, 21550.0, 21480.25, 21520.75, 145000]`

	var c Candle
	require.NoError(t, json.Unmarshal([]byte(raw), &c))

	assert.Equal(t, time.Date(2023, 12, 20, 3, 45, 0, 0, time.UTC), c.Date)
	assert.Equal(t, 21500.5, c.Open)
	assert.Equal(t, 21550.0, c.High)
	assert.Equal(t, 21480.25, c.Low)
	assert.Equal(t, 21520.75, c.Close)
	assert.Equal(t, uint64(145000), c.Volume)
	assert.Nil(t, c.OI)
}

func TestCandleUnmarshalArrayWithOpenInterest(t *testing.T) {
	raw := `["2023-12-20T09:15:00Z", 100, 101, 99, 100.5, 5000, 12500]`

	var c Candle
	require.NoError(t, json.Unmarshal([]byte(raw), &c))

	require.NotNil(t, c.OI)
	assert.Equal(t, uint64(12500), *c.OI)
	assert.Equal(t, time.Date(2023, 12, 20, 9, 15, 0, 0, time.UTC), c.Date)
}

func TestCandleUnmarshalObjectForm(t *testing.T) {
	raw := `{"date":"2023-12-20T09:15:00Z","open":100,"high":101,"low":99,"close":100.5,"volume":5000,"oi":750}`

	var c Candle
	require.NoError(t, json.Unmarshal([]byte(raw), &c))

	assert.Equal(t, time.Date(2023, 12, 20, 9, 15, 0, 0, time.UTC), c.Date)
	assert.Equal(t, 100.0, c.Open)
	require.NotNil(t, c.OI)
	assert.Equal(t, uint64(750), *c.OI)
}

func TestCandleUnmarshalObjectNullOI(t *testing.T) {
	raw := `{"date":"2023-12-20T09:15:00Z","open":1,"high":1,"low":1,"close":1,"volume":1,"oi":null}`

	var c Candle
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	assert.Nil(t, c.OI)
}

func TestCandleUnmarshalUnixSeconds(t *testing.T) {
	raw := `[1703059200, 1, 2, 0.5, 1.5, 10]`

	var c Candle
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	assert.Equal(t, time.Date(2023, 12, 20, 8, 0, 0, 0, time.UTC), c.Date)
}

func TestCandleUnmarshalNumericStrings(t *testing.T) {
	raw := `["2023-12-20T09:15:00Z", "100.5", "101", "99.25", "100", "5e3"]`

	var c Candle
	require.NoError(t, json.Unmarshal([]byte(raw), &c))

	assert.Equal(t, 100.5, c.Open)
	assert.Equal(t, 99.25, c.Low)
	assert.Equal(t, uint64(5000), c.Volume)
}

func TestCandleUnmarshalRejectsBadShapes(t *testing.T) {
	cases := []string{
		`["2023-12-20T09:15:00Z", 1, 2, 3]`,
		`["2023-12-20T09:15:00Z", 1, 2, 3, 4, 5, 6, 7]`,
		`["not a date", 1, 2, 3, 4, 5]`,
		`["2023-12-20 09:15:00", 1, 2, 3, 4, 5]`, // no offset, no Z
		`["2023-12-20T09:15:00Z", "abc", 2, 3, 4, 5]`,
		`["2023-12-20T09:15:00Z", 1, 2, 3, 4, -5]`,
		`{"open":1,"high":1,"low":1,"close":1,"volume":1}`,
	}
	for _, raw := range cases {
		var c Candle
		err := json.Unmarshal([]byte(raw), &c)
		require.Error(t, err, raw)

		var kerr *Error
		require.ErrorAs(t, err, &kerr, raw)
		assert.Equal(t, DataException, kerr.Kind, raw)
	}
}

func TestCandleMarshalObjectForm(t *testing.T) {
	oi := uint64(42)
	c := Candle{
		Date:   time.Date(2023, 12, 20, 9, 15, 0, 0, time.UTC),
		Open:   100,
		High:   101,
		Low:    99,
		Close:  100.5,
		Volume: 5000,
		OI:     &oi,
	}

	out, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2023-12-20T09:15:00Z","open":100,"high":101,"low":99,"close":100.5,"volume":5000,"oi":42}`, string(out))

	var back Candle
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, c, back)
}
