package kite

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyErrorTypeTakesPrecedence(t *testing.T) {
	// A 500 status with an explicit error_type keeps the envelope's kind.
	kerr := classifyError(http.StatusInternalServerError, "InputException", "bad quantity")
	assert.Equal(t, InputException, kerr.Kind)
	assert.Equal(t, http.StatusInternalServerError, kerr.Status)
	assert.Equal(t, "InputException", kerr.ErrorType)
	assert.Equal(t, "bad quantity", kerr.Message)
}

func TestClassifyStatusFallback(t *testing.T) {
	cases := map[int]ErrorKind{
		http.StatusBadRequest:          InputException,
		http.StatusForbidden:           TokenException,
		http.StatusInternalServerError: GeneralException,
		http.StatusBadGateway:          NetworkException,
		http.StatusServiceUnavailable:  NetworkException,
		http.StatusGatewayTimeout:      NetworkException,
		http.StatusTooManyRequests:     APIException,
		http.StatusNotFound:            APIException,
	}
	for status, want := range cases {
		kerr := classifyError(status, "", "boom")
		assert.Equal(t, want, kerr.Kind, fmt.Sprintf("status %d", status))
	}
}

func TestClassifyUnknownErrorType(t *testing.T) {
	kerr := classifyError(http.StatusTeapot, "ExoticException", "whatever")
	assert.Equal(t, APIException, kerr.Kind)
	assert.Equal(t, "ExoticException", kerr.ErrorType)
}

func TestErrorPredicates(t *testing.T) {
	token := classifyError(http.StatusForbidden, "TokenException", "expired")
	assert.True(t, token.RequiresReauth())
	assert.True(t, token.IsClientError())
	assert.False(t, token.IsRetryable())
	assert.False(t, token.IsServerError())

	network := classifyError(http.StatusBadGateway, "", "upstream down")
	assert.True(t, network.IsRetryable())
	assert.True(t, network.IsServerError())
	assert.False(t, network.IsClientError())

	throttled := classifyError(http.StatusTooManyRequests, "", "slow down")
	assert.Equal(t, APIException, throttled.Kind)
	assert.True(t, throttled.IsRetryable())
	assert.True(t, throttled.IsClientError())

	input := classifyError(http.StatusBadRequest, "", "missing field")
	assert.False(t, input.IsRetryable())
	assert.True(t, input.IsClientError())

	transport := transportError(errors.New("dial tcp: refused"))
	assert.True(t, transport.IsRetryable())
	assert.False(t, transport.RequiresReauth())
}

func TestPackageIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(transportError(errors.New("timeout"))))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", classifyError(http.StatusServiceUnavailable, "", ""))))
	assert.False(t, IsRetryable(inputError("no")))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	kerr := transportError(cause)
	require.ErrorIs(t, kerr, cause)
	assert.Contains(t, kerr.Error(), "TransportException")
	assert.Contains(t, kerr.Error(), "connection reset")
}

func TestErrorStringForms(t *testing.T) {
	withStatus := classifyError(http.StatusForbidden, "TokenException", "expired")
	assert.Equal(t, "kite: TokenException (403): expired", withStatus.Error())

	bare := newError(GeneralException, "something broke")
	assert.Equal(t, "kite: GeneralException: something broke", bare.Error())
}
