// Package kite is a client for the Zerodha KiteConnect v3 REST API.
//
// A Client is safe for concurrent use. All remote calls honour the
// caller's context, respect the broker's published rate limits and
// retry transient transport failures with exponential backoff.
package kite

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/SPRAGE/kiteconnect-go/internal/ratelimit"
	"github.com/SPRAGE/kiteconnect-go/internal/retry"
)

const (
	defaultBaseURL  = "https://api.kite.trade"
	defaultLoginURL = "https://kite.trade/connect/login"
	defaultTimeout  = 30 * time.Second

	kiteVersion = "3"
	userAgent   = "kiteconnect-go/1.0"
)

// ClientConfig holds construction-time configuration. Zero values fall
// back to broker defaults.
type ClientConfig struct {
	// APIKey is the application's API key. Required.
	APIKey string
	// AccessToken may be set up front when resuming a session; it can
	// also be installed later via SetAccessToken or GenerateSession.
	AccessToken string
	// BaseURL overrides the production API root.
	BaseURL string
	// Timeout bounds each HTTP request. Defaults to 30s.
	Timeout time.Duration
	// Retry overrides the backoff policy for retryable failures.
	Retry *retry.Policy
	// DisableRateLimit turns off client-side request throttling.
	DisableRateLimit bool
	// InstrumentsTTL bounds the in-process instruments dump cache.
	// Defaults to one hour.
	InstrumentsTTL time.Duration
	// Logger receives debug/warn events. Defaults to a disabled logger.
	Logger *zerolog.Logger
	// HTTPClient substitutes the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to the KiteConnect API on behalf of one API key.
type Client struct {
	apiKey     string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	log        zerolog.Logger
	instCache  *instrumentCache

	mu               sync.RWMutex
	accessToken      string
	baseURL          string
	timeout          time.Duration
	retryPolicy      retry.Policy
	onSessionExpired func()
}

// New creates a Client. The access token, if any, is sent verbatim in
// the Authorization header of every request until replaced.
func New(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.InstrumentsTTL == 0 {
		cfg.InstrumentsTTL = time.Hour
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	policy := retry.DefaultPolicy()
	if cfg.Retry != nil {
		policy = *cfg.Retry
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	limiter := ratelimit.New()
	if cfg.DisableRateLimit {
		limiter.SetEnabled(false)
	}

	return &Client{
		apiKey:      cfg.APIKey,
		httpClient:  cfg.HTTPClient,
		limiter:     limiter,
		log:         logger,
		instCache:   newInstrumentCache(cfg.InstrumentsTTL),
		accessToken: cfg.AccessToken,
		baseURL:     cfg.BaseURL,
		timeout:     cfg.Timeout,
		retryPolicy: policy,
	}
}

// SetAccessToken installs the durable token from a completed login.
// Requests already in flight observe either the old or the new value.
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

// AccessToken returns the token currently attached to requests.
func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// SetBaseURL redirects subsequent requests, e.g. at a sandbox.
func (c *Client) SetBaseURL(u string) {
	c.mu.Lock()
	c.baseURL = u
	c.mu.Unlock()
}

// SetTimeout changes the per-request deadline.
func (c *Client) SetTimeout(d time.Duration) {
	c.mu.Lock()
	c.timeout = d
	c.mu.Unlock()
}

// SetRetryPolicy replaces the backoff schedule for retryable errors.
func (c *Client) SetRetryPolicy(p retry.Policy) {
	c.mu.Lock()
	c.retryPolicy = p
	c.mu.Unlock()
}

// OnSessionExpired installs a hook fired (once per occurrence, on its
// own goroutine) whenever the broker reports TokenException. The
// failing call still fails; the hook exists so callers can schedule a
// fresh login.
func (c *Client) OnSessionExpired(fn func()) {
	c.mu.Lock()
	c.onSessionExpired = fn
	c.mu.Unlock()
}

// SetRateLimitEnabled toggles client-side throttling, mainly for tests
// against local fakes.
func (c *Client) SetRateLimitEnabled(enabled bool) {
	c.limiter.SetEnabled(enabled)
}

// RateLimitStats exposes the current bucket state for one category.
func (c *Client) RateLimitStats(cat ratelimit.Category) ratelimit.Stats {
	return c.limiter.Stats(cat)
}

func (c *Client) config() (baseURL string, timeout time.Duration, token string, policy retry.Policy) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL, c.timeout, c.accessToken, c.retryPolicy
}

func (c *Client) sessionExpiredHook() func() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.onSessionExpired
}
