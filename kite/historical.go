package kite

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/SPRAGE/kiteconnect-go/internal/metrics"
	"github.com/SPRAGE/kiteconnect-go/internal/ratelimit"
)

// HistoricalDataRequest describes one candle query. From and To are
// naive exchange-local datetimes, as the broker expects.
type HistoricalDataRequest struct {
	InstrumentToken uint32
	From            time.Time
	To              time.Time
	Interval        Interval
	// Continuous requests the stitched series for derivative contracts.
	Continuous bool
	// OI requests open interest alongside OHLCV.
	OI bool
}

// WithContinuous returns a copy with the continuous flag set.
func (r HistoricalDataRequest) WithContinuous() HistoricalDataRequest {
	r.Continuous = true
	return r
}

// WithOI returns a copy with the open interest flag set.
func (r HistoricalDataRequest) WithOI() HistoricalDataRequest {
	r.OI = true
	return r
}

// HistoricalData is the merged, chronologically ascending result of a
// historical query.
type HistoricalData struct {
	InstrumentToken uint32   `json:"instrument_token"`
	Interval        Interval `json:"interval"`
	Count           int      `json:"count"`
	Candles         []Candle `json:"candles"`
}

const historicalTimeLayout = "2006-01-02 15:04:05"

// GetHistoricalData fetches candles for the request's full range. Spans
// beyond the interval's per-request ceiling are split into sequential
// non-overlapping chunks, oldest first, and the results concatenated.
// Any non-retryable chunk failure aborts the whole call.
func (c *Client) GetHistoricalData(ctx context.Context, req HistoricalDataRequest) (*HistoricalData, error) {
	if err := c.validateHistorical(req); err != nil {
		return nil, err
	}

	chunks := []timeRange{{From: req.From, To: req.To}}
	if !fitsInOneRequest(req.From, req.To, req.Interval) {
		chunks = splitForward(req.From, req.To, req.Interval)
	}

	var candles []Candle
	for i, chunk := range chunks {
		got, err := c.fetchChunk(ctx, req, chunk)
		if err != nil {
			return nil, err
		}
		c.log.Debug().
			Uint32("token", req.InstrumentToken).
			Int("chunk", i+1).
			Int("chunks", len(chunks)).
			Int("candles", len(got)).
			Msg("historical chunk fetched")
		candles = append(candles, got...)
	}
	return c.mergedHistorical(req, candles), nil
}

// GetFullHistoricalData walks the range newest to oldest, stopping at
// the first chunk with no candles: everything older is taken to be
// before the instrument's listing. The result is still chronologically
// ascending.
func (c *Client) GetFullHistoricalData(ctx context.Context, req HistoricalDataRequest) (*HistoricalData, error) {
	if err := c.validateHistorical(req); err != nil {
		return nil, err
	}

	chunks := splitReverse(req.From, req.To, req.Interval)
	collected := make([][]Candle, 0, len(chunks))
	for _, chunk := range chunks {
		got, err := c.fetchChunk(ctx, req, chunk)
		if err != nil {
			return nil, err
		}
		if len(got) == 0 {
			break
		}
		collected = append(collected, got)
	}

	var candles []Candle
	for i := len(collected) - 1; i >= 0; i-- {
		candles = append(candles, collected[i]...)
	}
	return c.mergedHistorical(req, candles), nil
}

func (c *Client) validateHistorical(req HistoricalDataRequest) error {
	if !req.Interval.valid() {
		return inputError("invalid interval %d", int(req.Interval))
	}
	return validateRange(req.From, req.To)
}

func (c *Client) mergedHistorical(req HistoricalDataRequest, candles []Candle) *HistoricalData {
	metrics.HistoricalCandles.WithLabelValues(req.Interval.String()).Add(float64(len(candles)))
	return &HistoricalData{
		InstrumentToken: req.InstrumentToken,
		Interval:        req.Interval,
		Count:           len(candles),
		Candles:         candles,
	}
}

// fetchChunk issues one rate-limited, retry-wrapped request for a
// single chunk and decodes its candles.
func (c *Client) fetchChunk(ctx context.Context, req HistoricalDataRequest, chunk timeRange) ([]Candle, error) {
	path := fmt.Sprintf("/instruments/historical/%d/%s", req.InstrumentToken, req.Interval)

	q := url.Values{}
	q.Set("from", chunk.From.Format(historicalTimeLayout))
	q.Set("to", chunk.To.Format(historicalTimeLayout))
	if req.Continuous {
		q.Set("continuous", "1")
	}
	if req.OI {
		q.Set("oi", "1")
	}

	var payload struct {
		Candles []Candle `json:"candles"`
	}
	if err := c.doEnvelope(ctx, ratelimit.CategoryHistorical, http.MethodGet, path, q, nil, &payload); err != nil {
		return nil, err
	}
	metrics.HistoricalChunks.WithLabelValues(req.Interval.String()).Inc()
	return payload.Candles, nil
}
