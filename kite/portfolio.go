package kite

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/SPRAGE/kiteconnect-go/internal/ratelimit"
)

// Holding is one demat holding.
type Holding struct {
	TradingSymbol   string `json:"tradingsymbol"`
	Exchange        string `json:"exchange"`
	InstrumentToken uint32 `json:"instrument_token"`
	ISIN            string `json:"isin"`
	Product         string `json:"product"`

	Price              float64 `json:"price"`
	UsedQuantity       int     `json:"used_quantity"`
	Quantity           int     `json:"quantity"`
	T1Quantity         int     `json:"t1_quantity"`
	RealisedQuantity   int     `json:"realised_quantity"`
	AuthorisedQuantity int     `json:"authorised_quantity"`
	AuthorisedDate     Time    `json:"authorised_date"`
	OpeningQuantity    int     `json:"opening_quantity"`
	CollateralQuantity int     `json:"collateral_quantity"`
	CollateralType     string  `json:"collateral_type"`

	Discrepancy         bool    `json:"discrepancy"`
	AveragePrice        float64 `json:"average_price"`
	LastPrice           float64 `json:"last_price"`
	ClosePrice          float64 `json:"close_price"`
	PnL                 float64 `json:"pnl"`
	DayChange           float64 `json:"day_change"`
	DayChangePercentage float64 `json:"day_change_percentage"`
}

// Position is one open position in a segment.
type Position struct {
	TradingSymbol   string `json:"tradingsymbol"`
	Exchange        string `json:"exchange"`
	InstrumentToken uint32 `json:"instrument_token"`
	Product         string `json:"product"`

	Quantity          int     `json:"quantity"`
	OvernightQuantity int     `json:"overnight_quantity"`
	Multiplier        float64 `json:"multiplier"`

	AveragePrice float64 `json:"average_price"`
	ClosePrice   float64 `json:"close_price"`
	LastPrice    float64 `json:"last_price"`
	Value        float64 `json:"value"`
	PnL          float64 `json:"pnl"`
	M2M          float64 `json:"m2m"`
	Unrealised   float64 `json:"unrealised"`
	Realised     float64 `json:"realised"`

	BuyQuantity int     `json:"buy_quantity"`
	BuyPrice    float64 `json:"buy_price"`
	BuyValue    float64 `json:"buy_value"`
	BuyM2M      float64 `json:"buy_m2m"`

	SellQuantity int     `json:"sell_quantity"`
	SellPrice    float64 `json:"sell_price"`
	SellValue    float64 `json:"sell_value"`
	SellM2M      float64 `json:"sell_m2m"`

	DayBuyQuantity int     `json:"day_buy_quantity"`
	DayBuyPrice    float64 `json:"day_buy_price"`
	DayBuyValue    float64 `json:"day_buy_value"`

	DaySellQuantity int     `json:"day_sell_quantity"`
	DaySellPrice    float64 `json:"day_sell_price"`
	DaySellValue    float64 `json:"day_sell_value"`
}

// Positions splits the position book into intraday and net views.
type Positions struct {
	Net []Position `json:"net"`
	Day []Position `json:"day"`
}

// ConvertPositionParams describe a product conversion of an open
// position.
type ConvertPositionParams struct {
	Exchange        string
	TradingSymbol   string
	OldProduct      string
	NewProduct      string
	PositionType    string
	TransactionType string
	Quantity        int
}

// GetHoldings fetches the demat holdings.
func (c *Client) GetHoldings(ctx context.Context) ([]Holding, error) {
	var holdings []Holding
	err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodGet, "/portfolio/holdings", nil, nil, &holdings)
	return holdings, err
}

// GetPositions fetches the day and net position books.
func (c *Client) GetPositions(ctx context.Context) (*Positions, error) {
	var positions Positions
	if err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodGet, "/portfolio/positions", nil, nil, &positions); err != nil {
		return nil, err
	}
	return &positions, nil
}

// ConvertPosition switches an open position between products.
func (c *Client) ConvertPosition(ctx context.Context, params ConvertPositionParams) error {
	form := url.Values{}
	form.Set("exchange", params.Exchange)
	form.Set("tradingsymbol", params.TradingSymbol)
	form.Set("old_product", params.OldProduct)
	form.Set("new_product", params.NewProduct)
	form.Set("position_type", params.PositionType)
	form.Set("transaction_type", params.TransactionType)
	form.Set("quantity", strconv.Itoa(params.Quantity))
	return c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodPut, "/portfolio/positions", nil, form, nil)
}
