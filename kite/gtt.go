package kite

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/SPRAGE/kiteconnect-go/internal/ratelimit"
)

// GTTType is the trigger arrangement of a GTT.
type GTTType string

const (
	// GTTTypeSingle fires one order at one trigger price.
	GTTTypeSingle GTTType = "single"
	// GTTTypeOCO holds an upper and a lower leg; the first to trigger
	// cancels the other.
	GTTTypeOCO GTTType = "two-leg"
)

// GTTCondition is the market condition a GTT waits on.
type GTTCondition struct {
	Exchange        string    `json:"exchange"`
	TradingSymbol   string    `json:"tradingsymbol"`
	InstrumentToken uint32    `json:"instrument_token,omitempty"`
	LastPrice       float64   `json:"last_price"`
	TriggerValues   []float64 `json:"trigger_values"`
}

// GTTOrder is one leg placed when its trigger fires.
type GTTOrder struct {
	Exchange        string  `json:"exchange"`
	TradingSymbol   string  `json:"tradingsymbol"`
	TransactionType string  `json:"transaction_type"`
	Product         string  `json:"product"`
	OrderType       string  `json:"order_type"`
	Quantity        float64 `json:"quantity"`
	Price           float64 `json:"price"`

	Result *GTTOrderResult `json:"result,omitempty"`
}

// GTTOrderResult reports what happened when a leg fired.
type GTTOrderResult struct {
	OrderID         string `json:"order_id"`
	RejectionReason string `json:"rejection_reason"`
}

// GTT is one stored trigger.
type GTT struct {
	ID        int          `json:"id"`
	UserID    string       `json:"user_id"`
	Type      GTTType      `json:"type"`
	Status    string       `json:"status"`
	Condition GTTCondition `json:"condition"`
	Orders    []GTTOrder   `json:"orders"`
	CreatedAt Time         `json:"created_at"`
	UpdatedAt Time         `json:"updated_at"`
	ExpiresAt Time         `json:"expires_at"`
}

// TriggerParams is one leg's trigger price, limit price and quantity.
type TriggerParams struct {
	TriggerValue float64
	LimitPrice   float64
	Quantity     float64
}

// Trigger abstracts over single-leg and OCO trigger shapes.
type Trigger interface {
	TriggerType() GTTType
	TriggerValues() []float64
	LimitPrices() []float64
	Quantities() []float64
}

// GTTSingleLegTrigger fires one order at one price.
type GTTSingleLegTrigger struct {
	TriggerParams
}

func (t *GTTSingleLegTrigger) TriggerType() GTTType     { return GTTTypeSingle }
func (t *GTTSingleLegTrigger) TriggerValues() []float64 { return []float64{t.TriggerValue} }
func (t *GTTSingleLegTrigger) LimitPrices() []float64   { return []float64{t.LimitPrice} }
func (t *GTTSingleLegTrigger) Quantities() []float64    { return []float64{t.Quantity} }

// GTTOneCancelsOtherTrigger holds a lower (stoploss) and upper (target)
// leg.
type GTTOneCancelsOtherTrigger struct {
	Lower TriggerParams
	Upper TriggerParams
}

func (t *GTTOneCancelsOtherTrigger) TriggerType() GTTType { return GTTTypeOCO }
func (t *GTTOneCancelsOtherTrigger) TriggerValues() []float64 {
	return []float64{t.Lower.TriggerValue, t.Upper.TriggerValue}
}
func (t *GTTOneCancelsOtherTrigger) LimitPrices() []float64 {
	return []float64{t.Lower.LimitPrice, t.Upper.LimitPrice}
}
func (t *GTTOneCancelsOtherTrigger) Quantities() []float64 {
	return []float64{t.Lower.Quantity, t.Upper.Quantity}
}

// GTTParams describe a new or replacement trigger.
type GTTParams struct {
	TradingSymbol   string
	Exchange        string
	LastPrice       float64
	TransactionType string
	Product         string
	Trigger         Trigger
}

// GTTResponse acknowledges a trigger mutation.
type GTTResponse struct {
	TriggerID int `json:"trigger_id"`
}

func (p GTTParams) values() (url.Values, error) {
	if p.Trigger == nil {
		return nil, inputError("gtt trigger is required")
	}

	condition, err := json.Marshal(GTTCondition{
		Exchange:      p.Exchange,
		TradingSymbol: p.TradingSymbol,
		LastPrice:     p.LastPrice,
		TriggerValues: p.Trigger.TriggerValues(),
	})
	if err != nil {
		return nil, inputError("gtt condition encode: %v", err)
	}

	prices := p.Trigger.LimitPrices()
	quantities := p.Trigger.Quantities()
	legs := make([]GTTOrder, len(prices))
	for i := range prices {
		legs[i] = GTTOrder{
			Exchange:        p.Exchange,
			TradingSymbol:   p.TradingSymbol,
			TransactionType: p.TransactionType,
			Product:         p.Product,
			OrderType:       "LIMIT",
			Quantity:        quantities[i],
			Price:           prices[i],
		}
	}
	orders, err := json.Marshal(legs)
	if err != nil {
		return nil, inputError("gtt orders encode: %v", err)
	}

	form := url.Values{}
	form.Set("type", string(p.Trigger.TriggerType()))
	form.Set("condition", string(condition))
	form.Set("orders", string(orders))
	return form, nil
}

// GetGTTs fetches every stored trigger.
func (c *Client) GetGTTs(ctx context.Context) ([]GTT, error) {
	var gtts []GTT
	err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodGet, "/gtt/triggers", nil, nil, &gtts)
	return gtts, err
}

// GetGTT fetches one trigger by id.
func (c *Client) GetGTT(ctx context.Context, triggerID int) (*GTT, error) {
	var gtt GTT
	if err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodGet, "/gtt/triggers/"+strconv.Itoa(triggerID), nil, nil, &gtt); err != nil {
		return nil, err
	}
	return &gtt, nil
}

// PlaceGTT stores a new trigger.
func (c *Client) PlaceGTT(ctx context.Context, params GTTParams) (*GTTResponse, error) {
	form, err := params.values()
	if err != nil {
		return nil, err
	}
	var resp GTTResponse
	if err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodPost, "/gtt/triggers", nil, form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ModifyGTT replaces a stored trigger's condition and legs.
func (c *Client) ModifyGTT(ctx context.Context, triggerID int, params GTTParams) (*GTTResponse, error) {
	form, err := params.values()
	if err != nil {
		return nil, err
	}
	var resp GTTResponse
	if err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodPut, "/gtt/triggers/"+strconv.Itoa(triggerID), nil, form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteGTT removes a stored trigger.
func (c *Client) DeleteGTT(ctx context.Context, triggerID int) (*GTTResponse, error) {
	var resp GTTResponse
	if err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodDelete, "/gtt/triggers/"+strconv.Itoa(triggerID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
