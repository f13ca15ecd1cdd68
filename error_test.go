package fauna

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorHTTPStatusDefaults(t *testing.T) {
	cases := map[int]ErrorKind{
		http.StatusBadRequest:          KindBadRequest,
		http.StatusUnauthorized:        KindUnauthorized,
		http.StatusForbidden:           KindPermissionDenied,
		http.StatusNotFound:            KindNotFound,
		http.StatusConflict:            KindTransactionContention,
		http.StatusTooManyRequests:     KindTooManyRequests,
		http.StatusInternalServerError: KindInternal,
		http.StatusBadGateway:          KindBadGateway,
		http.StatusServiceUnavailable:  KindUnavailable,
		http.StatusGatewayTimeout:      KindProcessingTimeLimitExceeded,
		599:                            KindUnknown,
	}

	for status, want := range cases {
		err := mapError(status, []byte("not json"))
		assert.Equal(t, want, err.Kind, "status %d", status)
		assert.Equal(t, status, err.HTTPStatus)
	}
}

func TestMapErrorUnparseable503(t *testing.T) {
	err := mapError(http.StatusServiceUnavailable, nil)
	assert.Equal(t, KindUnavailable, err.Kind)
	assert.Equal(t, "unparseable response", err.Message)
}

func TestMapErrorCodeRefinement(t *testing.T) {
	body := []byte(`{"errors":[{"code":"validation failed","description":"d","failures":[{"field":["data","uniqueTest1"],"code":"duplicate value","description":"x"}]}]}`)

	err := mapError(http.StatusBadRequest, body)
	require.Equal(t, KindValidationFailed, err.Kind)
	require.Len(t, err.Failures, 1)
	assert.Equal(t, []string{"data", "uniqueTest1"}, err.Failures[0].Field)
	assert.Equal(t, "duplicate value", err.Failures[0].Code)
}

func TestMapErrorFunctionCallChildren(t *testing.T) {
	body := []byte(`{"errors":[{"code":"call error","description":"outer"},{"code":"invalid argument","description":"inner"}]}`)

	err := mapError(http.StatusBadRequest, body)
	require.Equal(t, KindFunctionCall, err.Kind)
	require.Len(t, err.Children, 1)
	assert.Equal(t, KindInvalidArgument, err.Children[0].Kind)
}

func TestMapErrorUnknownCodeFallsBackToHTTPStatus(t *testing.T) {
	body := []byte(`{"errors":[{"code":"something new","description":"d"}]}`)
	err := mapError(http.StatusBadRequest, body)
	assert.Equal(t, KindBadRequest, err.Kind)
}

func TestMapErrorUnknownCodeWithUnmappedStatusStaysUnknown(t *testing.T) {
	body := []byte(`{"errors":[{"code":"something new","description":"d"}]}`)
	err := mapError(599, body)
	assert.Equal(t, KindUnknown, err.Kind)
}

func TestErrorMessageConcatenation(t *testing.T) {
	err := &Error{QueryErrors: []QueryError{
		{Code: "invalid argument", Description: "bad path"},
		{Code: "invalid expression", Description: "bad node"},
	}}
	assert.Equal(t, "invalid argument: bad path, invalid expression: bad node", err.Error())
}

func TestTransportErrorMapsToUnavailable(t *testing.T) {
	cause := errors.New("boom")
	err := transportError(cause)
	assert.Equal(t, KindUnavailable, err.Kind)
	assert.Equal(t, cause, err.Unwrap())
}
