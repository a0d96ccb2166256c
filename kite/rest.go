package kite

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SPRAGE/kiteconnect-go/internal/metrics"
	"github.com/SPRAGE/kiteconnect-go/internal/ratelimit"
	"github.com/SPRAGE/kiteconnect-go/internal/retry"
)

// envelope is the JSON wrapper around every non-CSV response.
type envelope struct {
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message"`
	ErrorType string          `json:"error_type"`
}

// doEnvelope acquires a rate limit token, then dispatches the request
// under the retry policy and decodes the envelope's data field into
// out. out may be nil when the payload is irrelevant.
func (c *Client) doEnvelope(ctx context.Context, cat ratelimit.Category, method, path string, query, form url.Values, out any) error {
	if err := c.acquire(ctx, cat); err != nil {
		return err
	}

	_, _, _, policy := c.config()
	group := endpointGroup(path)
	attempt := 0
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		if attempt > 0 {
			metrics.Retries.WithLabelValues(group).Inc()
			c.log.Warn().Str("path", path).Int("attempt", attempt).Msg("retrying request")
		}
		attempt++
		return c.dispatch(ctx, method, path, query, form, out)
	}, func(err error) bool {
		return IsRetryable(err)
	})
	return asClientError(err)
}

// doRaw is doEnvelope for the CSV endpoints: it advertises gzip,
// returns the (decompressed) body verbatim and applies no envelope.
func (c *Client) doRaw(ctx context.Context, cat ratelimit.Category, path string, query url.Values) ([]byte, error) {
	if err := c.acquire(ctx, cat); err != nil {
		return nil, err
	}

	_, _, _, policy := c.config()
	var body []byte
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		var err error
		body, err = c.dispatchRaw(ctx, path, query)
		return err
	}, func(err error) bool {
		return IsRetryable(err)
	})
	return body, asClientError(err)
}

// asClientError normalizes bare context errors escaping the retry
// controller's backoff sleep into the transport kind.
func asClientError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*Error); ok {
		return err
	}
	return transportError(err)
}

// doEnvelopeJSON is doEnvelope for the few endpoints that take a JSON
// request body (margin and charge calculators).
func (c *Client) doEnvelopeJSON(ctx context.Context, cat ratelimit.Category, method, path string, query url.Values, payload, out any) error {
	if err := c.acquire(ctx, cat); err != nil {
		return err
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return inputError("request encode: %v", err)
	}

	_, _, _, policy := c.config()
	err = retry.Do(ctx, policy, func(ctx context.Context) error {
		group := endpointGroup(path)
		start := time.Now()

		_, timeout, _, _ := c.config()
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		resp, err := c.send(ctx, method, path, query, bytes.NewReader(encoded), "application/json", false)
		if err != nil {
			metrics.RecordRequest(group, method, time.Since(start), string(TransportException))
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			metrics.RecordRequest(group, method, time.Since(start), string(TransportException))
			return transportError(err)
		}

		err = c.decodeEnvelope(resp.StatusCode, body, out)
		errKind := ""
		if kerr, ok := err.(*Error); ok {
			errKind = string(kerr.Kind)
		}
		metrics.RecordRequest(group, method, time.Since(start), errKind)
		return err
	}, func(err error) bool {
		return IsRetryable(err)
	})
	return asClientError(err)
}

// acquire waits on the category's token bucket, mapping limiter
// failures into the client error taxonomy.
func (c *Client) acquire(ctx context.Context, cat ratelimit.Category) error {
	timer := metrics.NewTimer()
	err := c.limiter.Wait(ctx, cat)
	timer.ObserveDuration(metrics.RateLimitWait, string(cat))
	switch {
	case err == nil:
		return nil
	case err == ratelimit.ErrDailyLimit:
		return inputError("daily limit reached for %s requests", cat)
	default:
		return transportError(err)
	}
}

// dispatch performs one HTTP round trip against a JSON endpoint.
// Non-empty forms are sent urlencoded on POST and PUT.
func (c *Client) dispatch(ctx context.Context, method, path string, query, form url.Values, out any) error {
	group := endpointGroup(path)
	start := time.Now()

	_, timeout, _, _ := c.config()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reqBody io.Reader
	if len(form) > 0 && (method == http.MethodPost || method == http.MethodPut) {
		reqBody = strings.NewReader(form.Encode())
	}

	resp, err := c.send(ctx, method, path, query, reqBody, "application/x-www-form-urlencoded", false)
	if err != nil {
		metrics.RecordRequest(group, method, time.Since(start), string(TransportException))
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordRequest(group, method, time.Since(start), string(TransportException))
		return transportError(err)
	}

	err = c.decodeEnvelope(resp.StatusCode, body, out)
	errKind := ""
	if kerr, ok := err.(*Error); ok {
		errKind = string(kerr.Kind)
	}
	metrics.RecordRequest(group, method, time.Since(start), errKind)

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request complete")
	return err
}

// dispatchRaw performs one round trip against a CSV endpoint, gunzipping
// the body when the server says it is compressed.
func (c *Client) dispatchRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	group := endpointGroup(path)
	start := time.Now()

	_, timeout, _, _ := c.config()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.send(ctx, http.MethodGet, path, query, nil, "", true)
	if err != nil {
		metrics.RecordRequest(group, http.MethodGet, time.Since(start), string(TransportException))
		return nil, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if strings.Contains(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, dataError("corrupt gzip body: %v", err)
		}
		defer gz.Close()
		reader = gz
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		metrics.RecordRequest(group, http.MethodGet, time.Since(start), string(TransportException))
		return nil, transportError(err)
	}

	if resp.StatusCode != http.StatusOK {
		// Error bodies on the CSV endpoints are the usual JSON envelope.
		kerr := c.classifyBody(resp.StatusCode, body)
		metrics.RecordRequest(group, http.MethodGet, time.Since(start), string(kerr.Kind))
		return nil, kerr
	}

	metrics.RecordRequest(group, http.MethodGet, time.Since(start), "")
	return body, nil
}

// send builds and executes the HTTP request. It is the only place that
// touches the wire. The caller owns the request deadline.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, wantGzip bool) (*http.Response, error) {
	baseURL, _, token, _ := c.config()

	endpoint := baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, transportError(err)
	}

	req.Header.Set("X-Kite-Version", kiteVersion)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("token %s:%s", c.apiKey, token))
	}
	if wantGzip {
		// Setting this ourselves disables the transport's transparent
		// decompression, so Content-Encoding stays visible upstream.
		req.Header.Set("Accept-Encoding", "gzip")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	return resp, nil
}

// decodeEnvelope applies the status/error_type classification rules and
// decodes the success payload into out.
func (c *Client) decodeEnvelope(status int, body []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if status >= 200 && status < 300 {
			return dataError("malformed response envelope: %v", err)
		}
		return classifyError(status, "", strings.TrimSpace(string(body)))
	}

	if env.Status != "success" || status < 200 || status >= 300 {
		kerr := classifyError(status, env.ErrorType, env.Message)
		c.notifySessionExpired(kerr)
		return kerr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return dataError("unexpected payload shape: %v", err)
	}
	return nil
}

// classifyBody handles error responses on the raw endpoints, which may
// or may not carry the JSON envelope.
func (c *Client) classifyBody(status int, body []byte) *Error {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Status == "error" {
		kerr := classifyError(status, env.ErrorType, env.Message)
		c.notifySessionExpired(kerr)
		return kerr
	}
	return classifyError(status, "", strings.TrimSpace(string(body)))
}

// notifySessionExpired fires the caller's hook once per TokenException
// occurrence, fire and forget.
func (c *Client) notifySessionExpired(kerr *Error) {
	if kerr == nil || kerr.Kind != TokenException {
		return
	}
	metrics.SessionExpiries.Inc()
	if hook := c.sessionExpiredHook(); hook != nil {
		go hook()
	}
}

// endpointGroup buckets paths for metrics labels so instrument tokens
// and order ids do not explode cardinality.
func endpointGroup(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i > 0 {
		trimmed = trimmed[:i]
	}
	if trimmed == "" {
		return "root"
	}
	return trimmed
}
