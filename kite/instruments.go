package kite

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/SPRAGE/kiteconnect-go/internal/metrics"
	"github.com/SPRAGE/kiteconnect-go/internal/ratelimit"
)

// Instrument is one row of the exchange instruments dump.
type Instrument struct {
	InstrumentToken uint32  `json:"instrument_token"`
	ExchangeToken   uint32  `json:"exchange_token"`
	TradingSymbol   string  `json:"tradingsymbol"`
	Name            string  `json:"name"`
	LastPrice       float64 `json:"last_price"`
	Expiry          Time    `json:"expiry"`
	Strike          float64 `json:"strike"`
	TickSize        float64 `json:"tick_size"`
	LotSize         uint32  `json:"lot_size"`
	InstrumentType  string  `json:"instrument_type"`
	Segment         string  `json:"segment"`
	Exchange        string  `json:"exchange"`
}

// MFInstrument is one row of the mutual fund instruments dump.
type MFInstrument struct {
	TradingSymbol              string  `json:"tradingsymbol"`
	AMC                        string  `json:"amc"`
	Name                       string  `json:"name"`
	PurchaseAllowed            bool    `json:"purchase_allowed"`
	RedemptionAllowed          bool    `json:"redemption_allowed"`
	MinimumPurchaseAmount      float64 `json:"minimum_purchase_amount"`
	PurchaseAmountMultiplier   float64 `json:"purchase_amount_multiplier"`
	MinimumAdditionalPurchase  float64 `json:"minimum_additional_purchase_amount"`
	MinimumRedemptionQuantity  float64 `json:"minimum_redemption_quantity"`
	RedemptionQuantityMultiple float64 `json:"redemption_quantity_multiplier"`
	DividendType               string  `json:"dividend_type"`
	SchemeType                 string  `json:"scheme_type"`
	Plan                       string  `json:"plan"`
	SettlementType             string  `json:"settlement_type"`
	LastPrice                  float64 `json:"last_price"`
	LastPriceDate              Time    `json:"last_price_date"`
}

// instrumentCache memoizes instrument dumps per endpoint key. Misses
// on the same key coalesce into one upstream fetch via singleflight;
// the lock is never held across the fetch itself.
type instrumentCache struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

func newInstrumentCache(ttl time.Duration) *instrumentCache {
	return &instrumentCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (ic *instrumentCache) get(key string) (any, bool) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	entry, ok := ic.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(ic.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (ic *instrumentCache) fetch(key string, fn func() (any, error)) (any, error) {
	if v, ok := ic.get(key); ok {
		metrics.InstrumentCacheHits.WithLabelValues(key).Inc()
		return v, nil
	}
	metrics.InstrumentCacheMisses.WithLabelValues(key).Inc()

	v, err, _ := ic.group.Do(key, func() (any, error) {
		// A waiter that queued behind the winner may find the entry
		// already promoted.
		if v, ok := ic.get(key); ok {
			return v, nil
		}
		v, err := fn()
		if err != nil {
			return nil, err
		}
		ic.mu.Lock()
		ic.entries[key] = cacheEntry{value: v, expiresAt: time.Now().Add(ic.ttl)}
		ic.mu.Unlock()
		return v, nil
	})
	return v, err
}

func (ic *instrumentCache) invalidate() {
	ic.mu.Lock()
	ic.entries = make(map[string]cacheEntry)
	ic.mu.Unlock()
}

// Instruments fetches the full instruments dump across exchanges.
// Results are cached in-process for the configured TTL.
func (c *Client) Instruments(ctx context.Context) ([]Instrument, error) {
	return c.instruments(ctx, "/instruments")
}

// InstrumentsByExchange fetches the instruments dump for one exchange.
func (c *Client) InstrumentsByExchange(ctx context.Context, exchange string) ([]Instrument, error) {
	if exchange == "" {
		return nil, inputError("exchange is required")
	}
	return c.instruments(ctx, "/instruments/"+exchange)
}

func (c *Client) instruments(ctx context.Context, path string) ([]Instrument, error) {
	v, err := c.instCache.fetch(path, func() (any, error) {
		body, err := c.doRaw(ctx, ratelimit.CategoryStandard, path, nil)
		if err != nil {
			return nil, err
		}
		rows, err := parseInstrumentsCSV(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		metrics.InstrumentsLoaded.WithLabelValues(path).Set(float64(len(rows)))
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Instrument), nil
}

// MFInstruments fetches the mutual fund instruments dump.
func (c *Client) MFInstruments(ctx context.Context) ([]MFInstrument, error) {
	const path = "/mf/instruments"
	v, err := c.instCache.fetch(path, func() (any, error) {
		body, err := c.doRaw(ctx, ratelimit.CategoryStandard, path, nil)
		if err != nil {
			return nil, err
		}
		rows, err := parseMFInstrumentsCSV(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		metrics.InstrumentsLoaded.WithLabelValues(path).Set(float64(len(rows)))
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]MFInstrument), nil
}

// InvalidateInstrumentsCache drops every cached dump so the next call
// refetches.
func (c *Client) InvalidateInstrumentsCache() {
	c.instCache.invalidate()
}

// parseInstrumentsCSV decodes the 12-column instruments dump. The first
// row is a header. A malformed row fails the whole parse.
func parseInstrumentsCSV(r io.Reader) ([]Instrument, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 12
	reader.ReuseRecord = true

	var out []Instrument
	for line := 0; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, dataError("instruments csv row %d: %v", line, err)
		}
		if line == 0 {
			continue // header
		}

		row, err := parseInstrumentRow(record)
		if err != nil {
			return nil, dataError("instruments csv row %d: %v", line, err)
		}
		out = append(out, row)
	}
}

func parseInstrumentRow(record []string) (Instrument, error) {
	token, err := strconv.ParseUint(record[0], 10, 32)
	if err != nil {
		return Instrument{}, err
	}
	exchangeToken, err := strconv.ParseUint(record[1], 10, 32)
	if err != nil {
		return Instrument{}, err
	}
	lastPrice, err := parseCSVFloat(record[4])
	if err != nil {
		return Instrument{}, err
	}
	expiry, err := parseCSVDate(record[5])
	if err != nil {
		return Instrument{}, err
	}
	strike, err := parseCSVFloat(record[6])
	if err != nil {
		return Instrument{}, err
	}
	tickSize, err := parseCSVFloat(record[7])
	if err != nil {
		return Instrument{}, err
	}
	lotSize, err := strconv.ParseUint(record[8], 10, 32)
	if err != nil {
		return Instrument{}, err
	}

	return Instrument{
		InstrumentToken: uint32(token),
		ExchangeToken:   uint32(exchangeToken),
		TradingSymbol:   record[2],
		Name:            record[3],
		LastPrice:       lastPrice,
		Expiry:          expiry,
		Strike:          strike,
		TickSize:        tickSize,
		LotSize:         uint32(lotSize),
		InstrumentType:  record[9],
		Segment:         record[10],
		Exchange:        record[11],
	}, nil
}

// parseMFInstrumentsCSV decodes the 16-column mutual fund dump.
func parseMFInstrumentsCSV(r io.Reader) ([]MFInstrument, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 16
	reader.ReuseRecord = true

	var out []MFInstrument
	for line := 0; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, dataError("mf instruments csv row %d: %v", line, err)
		}
		if line == 0 {
			continue
		}

		row, err := parseMFInstrumentRow(record)
		if err != nil {
			return nil, dataError("mf instruments csv row %d: %v", line, err)
		}
		out = append(out, row)
	}
}

func parseMFInstrumentRow(record []string) (MFInstrument, error) {
	minPurchase, err := parseCSVFloat(record[5])
	if err != nil {
		return MFInstrument{}, err
	}
	purchaseMultiplier, err := parseCSVFloat(record[6])
	if err != nil {
		return MFInstrument{}, err
	}
	minAdditional, err := parseCSVFloat(record[7])
	if err != nil {
		return MFInstrument{}, err
	}
	minRedemption, err := parseCSVFloat(record[8])
	if err != nil {
		return MFInstrument{}, err
	}
	redemptionMultiple, err := parseCSVFloat(record[9])
	if err != nil {
		return MFInstrument{}, err
	}
	lastPrice, err := parseCSVFloat(record[14])
	if err != nil {
		return MFInstrument{}, err
	}
	lastPriceDate, err := parseCSVDate(record[15])
	if err != nil {
		return MFInstrument{}, err
	}

	return MFInstrument{
		TradingSymbol:              record[0],
		AMC:                        record[1],
		Name:                       record[2],
		PurchaseAllowed:            record[3] == "1",
		RedemptionAllowed:          record[4] == "1",
		MinimumPurchaseAmount:      minPurchase,
		PurchaseAmountMultiplier:   purchaseMultiplier,
		MinimumAdditionalPurchase:  minAdditional,
		MinimumRedemptionQuantity:  minRedemption,
		RedemptionQuantityMultiple: redemptionMultiple,
		DividendType:               record[10],
		SchemeType:                 record[11],
		Plan:                       record[12],
		SettlementType:             record[13],
		LastPrice:                  lastPrice,
		LastPriceDate:              lastPriceDate,
	}, nil
}

func parseCSVFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseCSVDate(s string) (Time, error) {
	if s == "" {
		return Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Time{}, err
	}
	return Time{Time: t}, nil
}
