package kite

import (
	"context"
	"net/http"
	"net/url"

	"github.com/SPRAGE/kiteconnect-go/internal/ratelimit"
)

// OrderMarginParam describes one order for margin computation.
type OrderMarginParam struct {
	Exchange        string  `json:"exchange"`
	TradingSymbol   string  `json:"tradingsymbol"`
	TransactionType string  `json:"transaction_type"`
	Variety         string  `json:"variety"`
	Product         string  `json:"product"`
	OrderType       string  `json:"order_type"`
	Quantity        float64 `json:"quantity"`
	Price           float64 `json:"price,omitempty"`
	TriggerPrice    float64 `json:"trigger_price,omitempty"`
}

// OrderMargins is the margin requirement for one order.
type OrderMargins struct {
	Type          string  `json:"type"`
	TradingSymbol string  `json:"tradingsymbol"`
	Exchange      string  `json:"exchange"`
	SPAN          float64 `json:"span"`
	Exposure      float64 `json:"exposure"`
	OptionPremium float64 `json:"option_premium"`
	Additional    float64 `json:"additional"`
	BO            float64 `json:"bo"`
	Cash          float64 `json:"cash"`
	VAR           float64 `json:"var"`
	PNL           struct {
		Realised   float64 `json:"realised"`
		Unrealised float64 `json:"unrealised"`
	} `json:"pnl"`
	Leverage float64 `json:"leverage"`
	Charges  Charges `json:"charges"`
	Total    float64 `json:"total"`
}

// Charges is the statutory charge breakup for one order.
type Charges struct {
	TransactionTax     float64 `json:"transaction_tax"`
	TransactionTaxType string  `json:"transaction_tax_type"`
	ExchangeTurnover   float64 `json:"exchange_turnover_charge"`
	SEBITurnover       float64 `json:"sebi_turnover_charge"`
	Brokerage          float64 `json:"brokerage"`
	StampDuty          float64 `json:"stamp_duty"`
	GST                struct {
		IGST  float64 `json:"igst"`
		CGST  float64 `json:"cgst"`
		SGST  float64 `json:"sgst"`
		Total float64 `json:"total"`
	} `json:"gst"`
	Total float64 `json:"total"`
}

// OrderCharges is the charge estimate for one executed order.
type OrderCharges struct {
	Exchange        string  `json:"exchange"`
	TradingSymbol   string  `json:"tradingsymbol"`
	TransactionType string  `json:"transaction_type"`
	Variety         string  `json:"variety"`
	Product         string  `json:"product"`
	OrderType       string  `json:"order_type"`
	Quantity        float64 `json:"quantity"`
	Price           float64 `json:"price"`
	Charges         Charges `json:"charges"`
}

// OrderChargesParam describes one executed order for charge estimation.
type OrderChargesParam struct {
	OrderID         string  `json:"order_id"`
	Exchange        string  `json:"exchange"`
	TradingSymbol   string  `json:"tradingsymbol"`
	TransactionType string  `json:"transaction_type"`
	Variety         string  `json:"variety"`
	Product         string  `json:"product"`
	OrderType       string  `json:"order_type"`
	Quantity        float64 `json:"quantity"`
	AveragePrice    float64 `json:"average_price"`
}

// BasketMargins is the combined requirement for a basket of orders.
type BasketMargins struct {
	Initial OrderMargins   `json:"initial"`
	Final   OrderMargins   `json:"final"`
	Orders  []OrderMargins `json:"orders"`
}

// GetOrderMargins computes margin requirements for the given orders.
func (c *Client) GetOrderMargins(ctx context.Context, orders []OrderMarginParam) ([]OrderMargins, error) {
	if len(orders) == 0 {
		return nil, inputError("at least one order is required")
	}
	var margins []OrderMargins
	err := c.doEnvelopeJSON(ctx, ratelimit.CategoryStandard, http.MethodPost, "/margins/orders", nil, orders, &margins)
	return margins, err
}

// GetBasketMargins computes the combined requirement for a basket,
// accounting for hedges when considerPositions is set.
func (c *Client) GetBasketMargins(ctx context.Context, orders []OrderMarginParam, considerPositions bool) (*BasketMargins, error) {
	if len(orders) == 0 {
		return nil, inputError("at least one order is required")
	}
	q := url.Values{}
	if considerPositions {
		q.Set("consider_positions", "true")
	}
	var margins BasketMargins
	if err := c.doEnvelopeJSON(ctx, ratelimit.CategoryStandard, http.MethodPost, "/margins/basket", q, orders, &margins); err != nil {
		return nil, err
	}
	return &margins, nil
}

// GetOrderCharges estimates the statutory charges for executed orders.
func (c *Client) GetOrderCharges(ctx context.Context, orders []OrderChargesParam) ([]OrderCharges, error) {
	if len(orders) == 0 {
		return nil, inputError("at least one order is required")
	}
	var charges []OrderCharges
	err := c.doEnvelopeJSON(ctx, ratelimit.CategoryStandard, http.MethodPost, "/charges/orders", nil, orders, &charges)
	return charges, err
}
