package fauna

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := newH2CTestServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient("secret",
		WithRootURL(srv.URL),
		WithVersionCheckOnBuild(false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, srv
}

func TestHappyPathSingleQuery(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, authHeaderFor("secret"), r.Header.Get(HeaderAuthorization))
		assert.Equal(t, "4", r.Header.Get(HeaderAPIVersion))

		w.Header().Set(HeaderTxnTime, "1620000000000000")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"resource":{"@ref":"classes/spells/1234"}}`))
	})

	q := NewQueryClient(c)
	val, err := q.Query(context.Background(), map[string]any{"get": map[string]any{"@ref": "classes/spells/1234"}}, 0, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"@ref":"classes/spells/1234"}`, string(val))
	assert.EqualValues(t, 1620000000000000, c.GetLastTxnTime())
}

func TestAuthenticationFailure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"code":"unauthorized","description":"bad secret"}]}`))
	})

	q := NewQueryClient(c)
	_, err := q.Query(context.Background(), map[string]any{}, 0, nil)
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindUnauthorized, fe.Kind)
	assert.Equal(t, http.StatusUnauthorized, fe.HTTPStatus)
}

func TestBatchedQuery(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"resource":[1,2]}`))
	})

	q := NewQueryClient(c)
	vals, err := q.QueryBatch(context.Background(), []any{map[string]any{"a": 1}, map[string]any{"b": 2}}, 0, nil)
	require.NoError(t, err)
	require.Len(t, vals, 2)
	assert.Equal(t, "1", string(vals[0]))
	assert.Equal(t, "2", string(vals[1]))
}

func TestValidationErrorRefinement(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"code":"validation failed","description":"d","failures":[{"field":["data","uniqueTest1"],"code":"duplicate value","description":"x"}]}]}`))
	})

	q := NewQueryClient(c)
	_, err := q.Query(context.Background(), map[string]any{}, 0, nil)
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindValidationFailed, fe.Kind)
	require.Len(t, fe.Failures, 1)
	assert.Equal(t, []string{"data", "uniqueTest1"}, fe.Failures[0].Field)
	assert.Equal(t, "duplicate value", fe.Failures[0].Code)
}

func TestTxnTimeMonotonicityUnderConcurrency(t *testing.T) {
	var mu sync.Mutex
	next := int64(1000)

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		next += 1000
		v := next
		mu.Unlock()

		w.Header().Set(HeaderTxnTime, fmt.Sprintf("%d", v))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"resource":null}`))
	})

	q := NewQueryClient(c)
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Query(context.Background(), map[string]any{}, 0, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, next, c.GetLastTxnTime())
}

func TestQueryNullResource(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"resource":null}`))
	})

	q := NewQueryClient(c)
	val, err := q.Query(context.Background(), map[string]any{}, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(val))
}

func TestQueryMissingResourceField(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"unrelated":true}`))
	})

	q := NewQueryClient(c)
	_, err := q.Query(context.Background(), map[string]any{}, 0, nil)
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindUnknown, fe.Kind)
	assert.Equal(t, "invalid JSON", fe.Message)
}

func TestClientCloseIsIdempotent(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	q := NewQueryClient(c)
	_, err := q.Query(context.Background(), map[string]any{}, 0, nil)
	require.Error(t, err)
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindClientClosed, fe.Kind)
}

func TestSessionConnectionInheritsTxnTimeAtDerivation(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(HeaderTxnTime, "5000")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"resource":null}`))
	})

	q := NewQueryClient(c)
	_, err := q.Query(context.Background(), map[string]any{}, 0, nil)
	require.NoError(t, err)
	require.EqualValues(t, 5000, c.GetLastTxnTime())

	session, err := c.NewSessionClient("session-secret")
	require.NoError(t, err)
	defer session.Close()

	assert.GreaterOrEqual(t, session.GetLastTxnTime(), c.GetLastTxnTime())
	assert.Equal(t, DriverGoSession, session.driverTag)
	assert.NotEqual(t, c.authHeader, session.authHeader)
}

func TestSessionDerivationFailsAfterParentClosed(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	require.NoError(t, c.Close())

	_, err := c.NewSessionClient("x")
	require.Error(t, err)
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindClientClosed, fe.Kind)
}

func TestClosingParentDoesNotCloseSession(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"resource":null}`))
	})

	session, err := c.NewSessionClient("session-secret")
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, c.Close())

	q := NewQueryClient(session)
	_, err = q.Query(context.Background(), map[string]any{}, 0, nil)
	assert.NoError(t, err, "session must stay usable after its parent is closed")
}
