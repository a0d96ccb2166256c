package kite

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/SPRAGE/kiteconnect-go/internal/ratelimit"
)

// MFOrder is one mutual fund order.
type MFOrder struct {
	OrderID           string  `json:"order_id"`
	ExchangeOrderID   string  `json:"exchange_order_id"`
	TradingSymbol     string  `json:"tradingsymbol"`
	Status            string  `json:"status"`
	StatusMessage     string  `json:"status_message"`
	Folio             string  `json:"folio"`
	Fund              string  `json:"fund"`
	OrderTimestamp    Time    `json:"order_timestamp"`
	ExchangeTimestamp Time    `json:"exchange_timestamp"`
	SettlementID      string  `json:"settlement_id"`
	TransactionType   string  `json:"transaction_type"`
	Variety           string  `json:"variety"`
	PurchaseType      string  `json:"purchase_type"`
	Quantity          float64 `json:"quantity"`
	Amount            float64 `json:"amount"`
	LastPrice         float64 `json:"last_price"`
	LastPriceDate     Time    `json:"last_price_date"`
	AveragePrice      float64 `json:"average_price"`
	PlacedBy          string  `json:"placed_by"`
	Tag               string  `json:"tag"`
}

// MFOrderParams describe a new mutual fund order. Purchases use
// Amount; redemptions use Quantity.
type MFOrderParams struct {
	TradingSymbol   string
	TransactionType string
	Quantity        float64
	Amount          float64
	Tag             string
}

// MFOrderResponse acknowledges a mutual fund order mutation.
type MFOrderResponse struct {
	OrderID string `json:"order_id"`
}

// MFSIP is one systematic investment plan.
type MFSIP struct {
	ID                   string  `json:"sip_id"`
	TradingSymbol        string  `json:"tradingsymbol"`
	Fund                 string  `json:"fund"`
	DividendType         string  `json:"dividend_type"`
	TransactionType      string  `json:"transaction_type"`
	Status               string  `json:"status"`
	SIPType              string  `json:"sip_type"`
	Created              Time    `json:"created"`
	Frequency            string  `json:"frequency"`
	InstalmentAmount     float64 `json:"instalment_amount"`
	Instalments          int     `json:"instalments"`
	LastInstalment       Time    `json:"last_instalment"`
	PendingInstalments   int     `json:"pending_instalments"`
	InstalmentDay        int     `json:"instalment_day"`
	CompletedInstalments int     `json:"completed_instalments"`
	NextInstalment       string  `json:"next_instalment"`
	TriggerPrice         float64 `json:"trigger_price"`
	Tag                  string  `json:"tag"`
}

// MFSIPParams describe a new SIP registration.
type MFSIPParams struct {
	TradingSymbol string
	Amount        float64
	Instalments   int
	Frequency     string
	InstalmentDay int
	InitialAmount float64
	TriggerPrice  float64
	Tag           string
}

// MFSIPModifyParams describe an amendment to a SIP.
type MFSIPModifyParams struct {
	Amount        float64
	Frequency     string
	InstalmentDay int
	Instalments   int
	Status        string
}

// MFSIPResponse acknowledges a SIP mutation.
type MFSIPResponse struct {
	SIPID string `json:"sip_id"`
}

// MFHolding is one mutual fund holding.
type MFHolding struct {
	Folio         string  `json:"folio"`
	Fund          string  `json:"fund"`
	TradingSymbol string  `json:"tradingsymbol"`
	AveragePrice  float64 `json:"average_price"`
	LastPrice     float64 `json:"last_price"`
	LastPriceDate Time    `json:"last_price_date"`
	PnL           float64 `json:"pnl"`
	Quantity      float64 `json:"quantity"`
}

// GetMFOrders fetches all mutual fund orders.
func (c *Client) GetMFOrders(ctx context.Context) ([]MFOrder, error) {
	var orders []MFOrder
	err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodGet, "/mf/orders", nil, nil, &orders)
	return orders, err
}

// GetMFOrderInfo fetches one mutual fund order by id.
func (c *Client) GetMFOrderInfo(ctx context.Context, orderID string) (*MFOrder, error) {
	if orderID == "" {
		return nil, inputError("order id is required")
	}
	var order MFOrder
	if err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodGet, "/mf/orders/"+orderID, nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// PlaceMFOrder submits a mutual fund purchase or redemption.
func (c *Client) PlaceMFOrder(ctx context.Context, params MFOrderParams) (*MFOrderResponse, error) {
	form := url.Values{}
	form.Set("tradingsymbol", params.TradingSymbol)
	form.Set("transaction_type", params.TransactionType)
	if params.Quantity > 0 {
		form.Set("quantity", strconv.FormatFloat(params.Quantity, 'f', -1, 64))
	}
	if params.Amount > 0 {
		form.Set("amount", strconv.FormatFloat(params.Amount, 'f', -1, 64))
	}
	if params.Tag != "" {
		form.Set("tag", params.Tag)
	}

	var resp MFOrderResponse
	if err := c.doEnvelope(ctx, ratelimit.CategoryOrder, http.MethodPost, "/mf/orders", nil, form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelMFOrder cancels a pending mutual fund order.
func (c *Client) CancelMFOrder(ctx context.Context, orderID string) (*MFOrderResponse, error) {
	if orderID == "" {
		return nil, inputError("order id is required")
	}
	var resp MFOrderResponse
	if err := c.doEnvelope(ctx, ratelimit.CategoryOrder, http.MethodDelete, "/mf/orders/"+orderID, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetMFSIPs fetches all SIP registrations.
func (c *Client) GetMFSIPs(ctx context.Context) ([]MFSIP, error) {
	var sips []MFSIP
	err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodGet, "/mf/sips", nil, nil, &sips)
	return sips, err
}

// GetMFSIPInfo fetches one SIP by id.
func (c *Client) GetMFSIPInfo(ctx context.Context, sipID string) (*MFSIP, error) {
	if sipID == "" {
		return nil, inputError("sip id is required")
	}
	var sip MFSIP
	if err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodGet, "/mf/sips/"+sipID, nil, nil, &sip); err != nil {
		return nil, err
	}
	return &sip, nil
}

// PlaceMFSIP registers a new SIP.
func (c *Client) PlaceMFSIP(ctx context.Context, params MFSIPParams) (*MFSIPResponse, error) {
	form := url.Values{}
	form.Set("tradingsymbol", params.TradingSymbol)
	form.Set("amount", strconv.FormatFloat(params.Amount, 'f', -1, 64))
	form.Set("instalments", strconv.Itoa(params.Instalments))
	form.Set("frequency", params.Frequency)
	if params.InstalmentDay > 0 {
		form.Set("instalment_day", strconv.Itoa(params.InstalmentDay))
	}
	if params.InitialAmount > 0 {
		form.Set("initial_amount", strconv.FormatFloat(params.InitialAmount, 'f', -1, 64))
	}
	if params.TriggerPrice > 0 {
		form.Set("trigger_price", strconv.FormatFloat(params.TriggerPrice, 'f', -1, 64))
	}
	if params.Tag != "" {
		form.Set("tag", params.Tag)
	}

	var resp MFSIPResponse
	if err := c.doEnvelope(ctx, ratelimit.CategoryOrder, http.MethodPost, "/mf/sips", nil, form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ModifyMFSIP amends a SIP registration.
func (c *Client) ModifyMFSIP(ctx context.Context, sipID string, params MFSIPModifyParams) (*MFSIPResponse, error) {
	if sipID == "" {
		return nil, inputError("sip id is required")
	}
	form := url.Values{}
	if params.Amount > 0 {
		form.Set("amount", strconv.FormatFloat(params.Amount, 'f', -1, 64))
	}
	if params.Frequency != "" {
		form.Set("frequency", params.Frequency)
	}
	if params.InstalmentDay > 0 {
		form.Set("instalment_day", strconv.Itoa(params.InstalmentDay))
	}
	if params.Instalments > 0 {
		form.Set("instalments", strconv.Itoa(params.Instalments))
	}
	if params.Status != "" {
		form.Set("status", params.Status)
	}

	var resp MFSIPResponse
	if err := c.doEnvelope(ctx, ratelimit.CategoryOrder, http.MethodPut, "/mf/sips/"+sipID, nil, form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelMFSIP cancels a SIP registration.
func (c *Client) CancelMFSIP(ctx context.Context, sipID string) (*MFSIPResponse, error) {
	if sipID == "" {
		return nil, inputError("sip id is required")
	}
	var resp MFSIPResponse
	if err := c.doEnvelope(ctx, ratelimit.CategoryOrder, http.MethodDelete, "/mf/sips/"+sipID, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetMFHoldings fetches the mutual fund holdings.
func (c *Client) GetMFHoldings(ctx context.Context) ([]MFHolding, error) {
	var holdings []MFHolding
	err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodGet, "/mf/holdings", nil, nil, &holdings)
	return holdings, err
}
