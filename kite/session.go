package kite

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"

	"github.com/SPRAGE/kiteconnect-go/internal/ratelimit"
)

// UserSession is the result of a completed login handshake.
type UserSession struct {
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
	LoginTime     Time     `json:"login_time"`

	APIKey       string `json:"api_key"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	PublicToken  string `json:"public_token"`
}

// AccessTokens is the payload of the refresh-token renewal endpoint.
type AccessTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginURL returns the browser URL that starts the OAuth-style login.
// The broker redirects back with a short-lived request token.
func (c *Client) LoginURL() string {
	return c.LoginURLWithRedirect("", "")
}

// LoginURLWithRedirect is LoginURL with the optional redirect_url and
// state parameters.
func (c *Client) LoginURLWithRedirect(redirectURL, state string) string {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("v", kiteVersion)
	if redirectURL != "" {
		q.Set("redirect_url", redirectURL)
	}
	if state != "" {
		q.Set("state", state)
	}
	return defaultLoginURL + "?" + q.Encode()
}

// sessionChecksum is SHA-256(api_key + token + api_secret), lowercase hex.
func sessionChecksum(apiKey, token, apiSecret string) string {
	sum := sha256.Sum256([]byte(apiKey + token + apiSecret))
	return hex.EncodeToString(sum[:])
}

// GenerateSession exchanges a request token and the API secret for a
// durable access token, and installs that token on the client. Access
// tokens expire at 06:00 local time the next day; the broker signals
// expiry with TokenException.
func (c *Client) GenerateSession(ctx context.Context, requestToken, apiSecret string) (*UserSession, error) {
	if requestToken == "" {
		return nil, inputError("request token is required")
	}

	form := url.Values{}
	form.Set("api_key", c.apiKey)
	form.Set("request_token", requestToken)
	form.Set("checksum", sessionChecksum(c.apiKey, requestToken, apiSecret))

	var session UserSession
	if err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodPost, "/session/token", nil, form, &session); err != nil {
		return nil, err
	}
	c.SetAccessToken(session.AccessToken)
	return &session, nil
}

// RenewAccessToken trades a refresh token for a fresh access token and
// installs it on the client.
func (c *Client) RenewAccessToken(ctx context.Context, refreshToken, apiSecret string) (*AccessTokens, error) {
	if refreshToken == "" {
		return nil, inputError("refresh token is required")
	}

	form := url.Values{}
	form.Set("api_key", c.apiKey)
	form.Set("refresh_token", refreshToken)
	form.Set("checksum", sessionChecksum(c.apiKey, refreshToken, apiSecret))

	var tokens AccessTokens
	if err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodPost, "/session/refresh_token", nil, form, &tokens); err != nil {
		return nil, err
	}
	c.SetAccessToken(tokens.AccessToken)
	return &tokens, nil
}

// InvalidateAccessToken logs the current session out and clears the
// token held by the client.
func (c *Client) InvalidateAccessToken(ctx context.Context) error {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("access_token", c.AccessToken())

	if err := c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodDelete, "/session/token", q, nil, nil); err != nil {
		return err
	}
	c.SetAccessToken("")
	return nil
}

// InvalidateRefreshToken revokes a refresh token.
func (c *Client) InvalidateRefreshToken(ctx context.Context, refreshToken string) error {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("refresh_token", refreshToken)
	return c.doEnvelope(ctx, ratelimit.CategoryStandard, http.MethodDelete, "/session/refresh_token", q, nil, nil)
}
