package kite

import (
	"context"
	"net/http"
	"net/url"

	"github.com/SPRAGE/kiteconnect-go/internal/ratelimit"
)

// DepthItem is one level of the order book.
type DepthItem struct {
	Price    float64 `json:"price"`
	Quantity uint32  `json:"quantity"`
	Orders   uint32  `json:"orders"`
}

// Depth holds five levels per side.
type Depth struct {
	Buy  []DepthItem `json:"buy"`
	Sell []DepthItem `json:"sell"`
}

// OHLC is the day's open/high/low and previous close.
type OHLC struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Quote is the full market snapshot for one instrument.
type Quote struct {
	InstrumentToken   uint32  `json:"instrument_token"`
	Timestamp         Time    `json:"timestamp"`
	LastPrice         float64 `json:"last_price"`
	LastQuantity      uint32  `json:"last_quantity"`
	LastTradeTime     Time    `json:"last_trade_time"`
	AveragePrice      float64 `json:"average_price"`
	Volume            uint64  `json:"volume"`
	BuyQuantity       uint64  `json:"buy_quantity"`
	SellQuantity      uint64  `json:"sell_quantity"`
	OHLC              OHLC    `json:"ohlc"`
	NetChange         float64 `json:"net_change"`
	OI                float64 `json:"oi"`
	OIDayHigh         float64 `json:"oi_day_high"`
	OIDayLow          float64 `json:"oi_day_low"`
	LowerCircuitLimit float64 `json:"lower_circuit_limit"`
	UpperCircuitLimit float64 `json:"upper_circuit_limit"`
	Depth             Depth   `json:"depth"`
}

// QuoteLTP is the minimal last-price snapshot.
type QuoteLTP struct {
	InstrumentToken uint32  `json:"instrument_token"`
	LastPrice       float64 `json:"last_price"`
}

// QuoteOHLC is the last price plus the day's OHLC.
type QuoteOHLC struct {
	InstrumentToken uint32  `json:"instrument_token"`
	LastPrice       float64 `json:"last_price"`
	OHLC            OHLC    `json:"ohlc"`
}

func instrumentsQuery(instruments []string) (url.Values, error) {
	if len(instruments) == 0 {
		return nil, inputError("at least one instrument is required")
	}
	q := url.Values{}
	for _, instrument := range instruments {
		q.Add("i", instrument)
	}
	return q, nil
}

// GetQuote fetches full quotes, keyed by "EXCHANGE:TRADINGSYMBOL".
func (c *Client) GetQuote(ctx context.Context, instruments ...string) (map[string]Quote, error) {
	q, err := instrumentsQuery(instruments)
	if err != nil {
		return nil, err
	}
	var quotes map[string]Quote
	err = c.doEnvelope(ctx, ratelimit.CategoryQuote, http.MethodGet, "/quote", q, nil, &quotes)
	return quotes, err
}

// GetLTP fetches last traded prices.
func (c *Client) GetLTP(ctx context.Context, instruments ...string) (map[string]QuoteLTP, error) {
	q, err := instrumentsQuery(instruments)
	if err != nil {
		return nil, err
	}
	var quotes map[string]QuoteLTP
	err = c.doEnvelope(ctx, ratelimit.CategoryQuote, http.MethodGet, "/quote/ltp", q, nil, &quotes)
	return quotes, err
}

// GetOHLC fetches last prices with the day's OHLC.
func (c *Client) GetOHLC(ctx context.Context, instruments ...string) (map[string]QuoteOHLC, error) {
	q, err := instrumentsQuery(instruments)
	if err != nil {
		return nil, err
	}
	var quotes map[string]QuoteOHLC
	err = c.doEnvelope(ctx, ratelimit.CategoryQuote, http.MethodGet, "/quote/ohlc", q, nil, &quotes)
	return quotes, err
}
