package kite

import (
	"context"
	"net/http"

	"github.com/SPRAGE/kiteconnect-go/internal/ratelimit"
)

// UserProfile holds the account metadata behind the session.
type UserProfile struct {
	UserID        string   `json:"user_id"`
	UserName      string   `json:"user_name"`
	UserShortName string   `json:"user_shortname"`
	UserType      string   `json:"user_type"`
	Email         string   `json:"email"`
	Broker        string   `json:"broker"`
	Exchanges     []string `json:"exchanges"`
	Products      []string `json:"products"`
	OrderTypes    []string `json:"order_types"`
	AvatarURL     string   `json:"avatar_url"`
	Meta          struct {
		DematConsent string `json:"demat_consent"`
	} `json:"meta"`
}

// AvailableMargins is the funds side of a segment's margin statement.
type AvailableMargins struct {
	AdhocMargin    float64 `json:"adhoc_margin"`
	Cash           float64 `json:"cash"`
	Collateral     float64 `json:"collateral"`
	IntradayPayin  float64 `json:"intraday_payin"`
	LiveBalance    float64 `json:"live_balance"`
	OpeningBalance float64 `json:"opening_balance"`
}

// UsedMargins is the utilization side of a segment's margin statement.
type UsedMargins struct {
	Debits           float64 `json:"debits"`
	Exposure         float64 `json:"exposure"`
	M2MRealised      float64 `json:"m2m_realised"`
	M2MUnrealised    float64 `json:"m2m_unrealised"`
	OptionPremium    float64 `json:"option_premium"`
	Payout           float64 `json:"payout"`
	Span             float64 `json:"span"`
	HoldingSales     float64 `json:"holding_sales"`
	Turnover         float64 `json:"turnover"`
	LiquidCollateral float64 `json:"liquid_collateral"`
	StockCollateral  float64 `json:"stock_collateral"`
	Delivery         float64 `json:"delivery"`
}

// Margins is one segment's margin statement.
type Margins struct {
	Category  string           `json:"-"`
	Enabled   bool             `json:"enabled"`
	Net       float64          `json:"net"`
	Available AvailableMargins `json:"available"`
	Used      UsedMargins      `json:"utilised"`
}

// AllMargins covers both trading segments.
type AllMargins struct {
	Equity    Margins `json:"equity"`
	Commodity Margins `json:"commodity"`
}

// GetUserProfile fetches the logged-in user's profile.
func (c *Client) GetUserProfile(ctx context.Context) (*UserProfile, error) {
	var profile UserProfile
	if err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodGet, "/user/profile", nil, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetUserMargins fetches margins for both segments.
func (c *Client) GetUserMargins(ctx context.Context) (*AllMargins, error) {
	var margins AllMargins
	if err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodGet, "/user/margins", nil, nil, &margins); err != nil {
		return nil, err
	}
	return &margins, nil
}

// GetUserSegmentMargins fetches margins for one segment, "equity" or
// "commodity".
func (c *Client) GetUserSegmentMargins(ctx context.Context, segment string) (*Margins, error) {
	if segment == "" {
		return nil, inputError("segment is required")
	}
	var margins Margins
	if err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodGet, "/user/margins/"+segment, nil, nil, &margins); err != nil {
		return nil, err
	}
	margins.Category = segment
	return &margins, nil
}
