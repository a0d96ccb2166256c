package kite

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginURL(t *testing.T) {
	c := New(ClientConfig{APIKey: "test_key"})

	assert.Equal(t, "https://kite.trade/connect/login?api_key=test_key&v=3", c.LoginURL())

	withRedirect := c.LoginURLWithRedirect("https://example.com/cb", "xyz")
	assert.Contains(t, withRedirect, "redirect_url=https%3A%2F%2Fexample.com%2Fcb")
	assert.Contains(t, withRedirect, "state=xyz")
}

func TestSessionChecksum(t *testing.T) {
	sum := sha256.Sum256([]byte("keytokensecret"))
	assert.Equal(t, hex.EncodeToString(sum[:]), sessionChecksum("key", "token", "secret"))
}

func TestGenerateSessionInstallsToken(t *testing.T) {
	var gotForm map[string]string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"api_key":       r.PostForm.Get("api_key"),
			"request_token": r.PostForm.Get("request_token"),
			"checksum":      r.PostForm.Get("checksum"),
		}
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/session/token", r.URL.Path)
		writeEnvelope(w, http.StatusOK,
			`{"status":"success","data":{"user_id":"AB1234","access_token":"fresh_token","login_time":"2023-12-20 09:00:00"}}`)
	}))

	session, err := c.GenerateSession(context.Background(), "req_token", "secret")
	require.NoError(t, err)

	assert.Equal(t, "test_key", gotForm["api_key"])
	assert.Equal(t, "req_token", gotForm["request_token"])
	assert.Equal(t, sessionChecksum("test_key", "req_token", "secret"), gotForm["checksum"])

	assert.Equal(t, "AB1234", session.UserID)
	assert.Equal(t, "fresh_token", session.AccessToken)
	assert.Equal(t, "fresh_token", c.AccessToken(), "token must be installed on the client")
}

func TestGenerateSessionRequiresRequestToken(t *testing.T) {
	c := New(ClientConfig{APIKey: "test_key"})
	_, err := c.GenerateSession(context.Background(), "", "secret")
	var kerr *Error
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, InputException, kerr.Kind)
}

func TestRenewAccessToken(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/session/refresh_token", r.URL.Path)
		assert.Equal(t, "refresh_1", r.PostForm.Get("refresh_token"))
		assert.Equal(t, sessionChecksum("test_key", "refresh_1", "secret"), r.PostForm.Get("checksum"))
		writeEnvelope(w, http.StatusOK,
			`{"status":"success","data":{"access_token":"renewed","refresh_token":"refresh_2"}}`)
	}))

	tokens, err := c.RenewAccessToken(context.Background(), "refresh_1", "secret")
	require.NoError(t, err)
	assert.Equal(t, "renewed", tokens.AccessToken)
	assert.Equal(t, "refresh_2", tokens.RefreshToken)
	assert.Equal(t, "renewed", c.AccessToken())
}

func TestInvalidateAccessToken(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/session/token", r.URL.Path)
		assert.Equal(t, "test_key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "test_token", r.URL.Query().Get("access_token"))
		writeEnvelope(w, http.StatusOK, `{"status":"success","data":true}`)
	}))

	require.NoError(t, c.InvalidateAccessToken(context.Background()))
	assert.Empty(t, c.AccessToken(), "token must be cleared after logout")
}
