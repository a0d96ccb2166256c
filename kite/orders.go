package kite

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/SPRAGE/kiteconnect-go/internal/ratelimit"
)

// Order varieties accepted by the order endpoints.
const (
	VarietyRegular = "regular"
	VarietyAMO     = "amo"
	VarietyCO      = "co"
	VarietyIceberg = "iceberg"
	VarietyAuction = "auction"
)

// Transaction types.
const (
	TransactionTypeBuy  = "BUY"
	TransactionTypeSell = "SELL"
)

// Order is one entry of the order book.
type Order struct {
	AccountID string `json:"account_id"`
	PlacedBy  string `json:"placed_by"`

	OrderID                 string `json:"order_id"`
	ExchangeOrderID         string `json:"exchange_order_id"`
	ParentOrderID           string `json:"parent_order_id"`
	Status                  string `json:"status"`
	StatusMessage           string `json:"status_message"`
	OrderTimestamp          Time   `json:"order_timestamp"`
	ExchangeUpdateTimestamp Time   `json:"exchange_update_timestamp"`
	ExchangeTimestamp       Time   `json:"exchange_timestamp"`
	Variety                 string `json:"variety"`

	Exchange        string `json:"exchange"`
	TradingSymbol   string `json:"tradingsymbol"`
	InstrumentToken uint32 `json:"instrument_token"`

	OrderType         string  `json:"order_type"`
	TransactionType   string  `json:"transaction_type"`
	Validity          string  `json:"validity"`
	Product           string  `json:"product"`
	Quantity          float64 `json:"quantity"`
	DisclosedQuantity float64 `json:"disclosed_quantity"`
	Price             float64 `json:"price"`
	TriggerPrice      float64 `json:"trigger_price"`

	AveragePrice      float64 `json:"average_price"`
	FilledQuantity    float64 `json:"filled_quantity"`
	PendingQuantity   float64 `json:"pending_quantity"`
	CancelledQuantity float64 `json:"cancelled_quantity"`

	Tag string `json:"tag"`
}

// OrderParams are the writable fields of an order.
type OrderParams struct {
	Exchange      string
	TradingSymbol string

	Validity        string
	ValidityTTL     int
	Product         string
	OrderType       string
	TransactionType string

	Quantity          int
	DisclosedQuantity int
	Price             float64
	TriggerPrice      float64

	Squareoff        float64
	Stoploss         float64
	TrailingStoploss float64

	IcebergLegs     int
	IcebergQuantity int

	Tag string
}

func (p OrderParams) values() url.Values {
	form := url.Values{}
	setIfNotEmpty := func(key, value string) {
		if value != "" {
			form.Set(key, value)
		}
	}
	setIfNotEmpty("exchange", p.Exchange)
	setIfNotEmpty("tradingsymbol", p.TradingSymbol)
	setIfNotEmpty("validity", p.Validity)
	setIfNotEmpty("product", p.Product)
	setIfNotEmpty("order_type", p.OrderType)
	setIfNotEmpty("transaction_type", p.TransactionType)
	setIfNotEmpty("tag", p.Tag)

	setPositiveInt := func(key string, value int) {
		if value > 0 {
			form.Set(key, strconv.Itoa(value))
		}
	}
	setPositiveInt("validity_ttl", p.ValidityTTL)
	setPositiveInt("quantity", p.Quantity)
	setPositiveInt("disclosed_quantity", p.DisclosedQuantity)
	setPositiveInt("iceberg_legs", p.IcebergLegs)
	setPositiveInt("iceberg_quantity", p.IcebergQuantity)

	setPositiveFloat := func(key string, value float64) {
		if value > 0 {
			form.Set(key, strconv.FormatFloat(value, 'f', -1, 64))
		}
	}
	setPositiveFloat("price", p.Price)
	setPositiveFloat("trigger_price", p.TriggerPrice)
	setPositiveFloat("squareoff", p.Squareoff)
	setPositiveFloat("stoploss", p.Stoploss)
	setPositiveFloat("trailing_stoploss", p.TrailingStoploss)
	return form
}

// OrderResponse acknowledges an order mutation.
type OrderResponse struct {
	OrderID string `json:"order_id"`
}

// Trade is one fill from the trade book.
type Trade struct {
	TradeID           string  `json:"trade_id"`
	OrderID           string  `json:"order_id"`
	ExchangeOrderID   string  `json:"exchange_order_id"`
	TradingSymbol     string  `json:"tradingsymbol"`
	Exchange          string  `json:"exchange"`
	InstrumentToken   uint32  `json:"instrument_token"`
	TransactionType   string  `json:"transaction_type"`
	Product           string  `json:"product"`
	AveragePrice      float64 `json:"average_price"`
	Quantity          float64 `json:"quantity"`
	FillTimestamp     Time    `json:"fill_timestamp"`
	ExchangeTimestamp Time    `json:"exchange_timestamp"`
}

// GetOrders fetches the day's order book.
func (c *Client) GetOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodGet, "/orders", nil, nil, &orders)
	return orders, err
}

// GetOrderHistory fetches the state transitions of one order.
func (c *Client) GetOrderHistory(ctx context.Context, orderID string) ([]Order, error) {
	if orderID == "" {
		return nil, inputError("order id is required")
	}
	var history []Order
	err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodGet, "/orders/"+orderID, nil, nil, &history)
	return history, err
}

// PlaceOrder submits a new order under the given variety.
func (c *Client) PlaceOrder(ctx context.Context, variety string, params OrderParams) (*OrderResponse, error) {
	if variety == "" {
		return nil, inputError("variety is required")
	}
	var resp OrderResponse
	err := c.doEnvelope(ctx, ratelimit.CategoryOrder, http.MethodPost, "/orders/"+variety, nil, params.values(), &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ModifyOrder amends a pending order.
func (c *Client) ModifyOrder(ctx context.Context, variety, orderID string, params OrderParams) (*OrderResponse, error) {
	if variety == "" || orderID == "" {
		return nil, inputError("variety and order id are required")
	}
	var resp OrderResponse
	err := c.doEnvelope(ctx, ratelimit.CategoryOrder, http.MethodPut, "/orders/"+variety+"/"+orderID, nil, params.values(), &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelOrder cancels a pending order. parentOrderID is required only
// when cancelling the second leg of a cover order.
func (c *Client) CancelOrder(ctx context.Context, variety, orderID, parentOrderID string) (*OrderResponse, error) {
	if variety == "" || orderID == "" {
		return nil, inputError("variety and order id are required")
	}
	var q url.Values
	if parentOrderID != "" {
		q = url.Values{}
		q.Set("parent_order_id", parentOrderID)
	}
	var resp OrderResponse
	err := c.doEnvelope(ctx, ratelimit.CategoryOrder, http.MethodDelete, "/orders/"+variety+"/"+orderID, q, nil, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTrades fetches the day's trade book.
func (c *Client) GetTrades(ctx context.Context) ([]Trade, error) {
	var trades []Trade
	err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodGet, "/trades", nil, nil, &trades)
	return trades, err
}

// GetOrderTrades fetches the fills generated by one order.
func (c *Client) GetOrderTrades(ctx context.Context, orderID string) ([]Trade, error) {
	if orderID == "" {
		return nil, inputError("order id is required")
	}
	var trades []Trade
	err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodGet, "/orders/"+orderID+"/trades", nil, nil, &trades)
	return trades, err
}
