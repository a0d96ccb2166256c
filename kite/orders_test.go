package kite

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderParamsValues(t *testing.T) {
	form := OrderParams{
		Exchange:        "NSE",
		TradingSymbol:   "INFY",
		TransactionType: TransactionTypeBuy,
		OrderType:       "LIMIT",
		Product:         "CNC",
		Quantity:        10,
		Price:           1520.5,
		Tag:             "strategy-a",
	}.values()

	assert.Equal(t, "NSE", form.Get("exchange"))
	assert.Equal(t, "INFY", form.Get("tradingsymbol"))
	assert.Equal(t, "BUY", form.Get("transaction_type"))
	assert.Equal(t, "10", form.Get("quantity"))
	assert.Equal(t, "1520.5", form.Get("price"))
	assert.Equal(t, "strategy-a", form.Get("tag"))

	// Zero-valued fields stay off the wire.
	assert.False(t, form.Has("trigger_price"))
	assert.False(t, form.Has("disclosed_quantity"))
	assert.False(t, form.Has("validity"))
}

func TestPlaceOrder(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders/regular", r.URL.Path)
		assert.Equal(t, "INFY", r.PostForm.Get("tradingsymbol"))
		writeEnvelope(w, http.StatusOK, `{"status":"success","data":{"order_id":"230101000000001"}}`)
	}))

	resp, err := c.PlaceOrder(context.Background(), VarietyRegular, OrderParams{
		Exchange:        "NSE",
		TradingSymbol:   "INFY",
		TransactionType: TransactionTypeBuy,
		OrderType:       "MARKET",
		Product:         "CNC",
		Quantity:        1,
	})
	require.NoError(t, err)
	assert.Equal(t, "230101000000001", resp.OrderID)

	_, err = c.PlaceOrder(context.Background(), "", OrderParams{})
	var kerr *Error
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, InputException, kerr.Kind)
}

func TestCancelOrderWithParent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/orders/co/oid2", r.URL.Path)
		assert.Equal(t, "oid1", r.URL.Query().Get("parent_order_id"))
		writeEnvelope(w, http.StatusOK, `{"status":"success","data":{"order_id":"oid2"}}`)
	}))

	resp, err := c.CancelOrder(context.Background(), VarietyCO, "oid2", "oid1")
	require.NoError(t, err)
	assert.Equal(t, "oid2", resp.OrderID)
}

func TestGetOrdersDecodesTimestamps(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, `{"status":"success","data":[
			{"order_id":"1","status":"COMPLETE","order_timestamp":"2023-12-20 09:15:01","tradingsymbol":"INFY","quantity":10,"filled_quantity":10}
		]}`)
	}))

	orders, err := c.GetOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "COMPLETE", orders[0].Status)
	assert.Equal(t, 2023, orders[0].OrderTimestamp.Year())
	assert.Equal(t, 10.0, orders[0].FilledQuantity)
}

func TestGetOrderTrades(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/oid1/trades", r.URL.Path)
		writeEnvelope(w, http.StatusOK, `{"status":"success","data":[{"trade_id":"t1","order_id":"oid1","average_price":99.5}]}`)
	}))

	trades, err := c.GetOrderTrades(context.Background(), "oid1")
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "t1", trades[0].TradeID)

	_, err = c.GetOrderTrades(context.Background(), "")
	require.Error(t, err)
}
