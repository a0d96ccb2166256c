package kite

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetQuote(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, []string{"NSE:INFY", "NSE:TCS"}, r.URL.Query()["i"])
		writeEnvelope(w, http.StatusOK, `{"status":"success","data":{
			"NSE:INFY":{"instrument_token":408065,"last_price":1520.5,"ohlc":{"open":1500,"high":1530,"low":1495,"close":1510},
				"depth":{"buy":[{"price":1520.4,"quantity":100,"orders":3}],"sell":[{"price":1520.6,"quantity":50,"orders":1}]}}
		}}`)
	}))

	quotes, err := c.GetQuote(context.Background(), "NSE:INFY", "NSE:TCS")
	require.NoError(t, err)

	infy, ok := quotes["NSE:INFY"]
	require.True(t, ok)
	assert.Equal(t, uint32(408065), infy.InstrumentToken)
	assert.Equal(t, 1520.5, infy.LastPrice)
	assert.Equal(t, 1500.0, infy.OHLC.Open)
	require.Len(t, infy.Depth.Buy, 1)
	assert.Equal(t, uint32(100), infy.Depth.Buy[0].Quantity)
}

func TestGetLTP(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote/ltp", r.URL.Path)
		writeEnvelope(w, http.StatusOK, `{"status":"success","data":{"NSE:INFY":{"instrument_token":408065,"last_price":1520.5}}}`)
	}))

	quotes, err := c.GetLTP(context.Background(), "NSE:INFY")
	require.NoError(t, err)
	assert.Equal(t, 1520.5, quotes["NSE:INFY"].LastPrice)
}

func TestQuoteRequiresInstruments(t *testing.T) {
	c := New(ClientConfig{APIKey: "test_key"})

	for _, call := range []func() error{
		func() error { _, err := c.GetQuote(context.Background()); return err },
		func() error { _, err := c.GetLTP(context.Background()); return err },
		func() error { _, err := c.GetOHLC(context.Background()); return err },
	} {
		err := call()
		var kerr *Error
		require.ErrorAs(t, err, &kerr)
		assert.Equal(t, InputException, kerr.Kind)
	}
}
