// Package fauna implements the transport and query-dispatch core of a
// client driver for a remote document/query database: a connection object,
// a query client layered on it, a pull-based streaming publisher, and the
// structured error taxonomy all three share.
package fauna

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"
)

// DriverTag names the caller dialect sent as X-Fauna-Driver: one of a
// fixed small enumeration identifying the caller.
type DriverTag string

const (
	// DriverGo identifies a root connection created directly by a caller.
	DriverGo DriverTag = "go"
	// DriverGoSession identifies a session connection derived from a parent
	// via NewSessionClient.
	DriverGoSession DriverTag = "go-session"
)

// DefaultRootURL is the default root URL a Client resolves relative paths
// against.
const DefaultRootURL = "https://db.fauna.com"

// Client is a connection to the database: it owns an HTTP transport,
// authentication state, a monotonically advancing transaction-time
// watermark, and per-connection request defaults, and it multiplexes
// concurrent query requests over transport resources shared (via reference
// counting) with any session connections derived from it.
type Client struct {
	rootURL        *url.URL
	authHeader     string
	driverTag      DriverTag
	transport      *transportHandle
	metrics        MetricsSink
	txnTime        *txnTime
	defaultTimeout time.Duration
	extraHeaders   map[string]string
	logger         Logger

	closed atomic.Bool

	streamsMu sync.Mutex
	streams   map[*StreamPublisher]struct{}
}

// NewClient constructs a root Client from a secret and a set of options.
func NewClient(secret string, opts ...ClientOption) (*Client, error) {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	root, err := url.Parse(cfg.rootURL)
	if err != nil {
		return nil, errInvalidArgument("invalid root URL: " + err.Error())
	}

	transport := cfg.transport
	if transport == nil {
		transport = newDefaultTransportHandle(cfg.connectTimeout, root.Scheme == "http")
	}

	c := &Client{
		rootURL:        root,
		authHeader:     authHeaderFor(secret),
		driverTag:      cfg.driverTag,
		transport:      transport,
		metrics:        cfg.metrics,
		txnTime:        newTxnTimeFrom(cfg.initialTxnTime),
		defaultTimeout: cfg.defaultTimeout,
		extraHeaders:   cfg.headers,
		logger:         cfg.logger,
		streams:        make(map[*StreamPublisher]struct{}),
	}

	if cfg.versionCheckOnBuild {
		checkDriverVersionOnce(c)
	}

	return c, nil
}

// NewSessionClient derives a session connection sharing this connection's
// transport and metrics, with its own secret-derived auth header and its
// own independently-evolving txn-time watermark seeded from the parent's
// current value at the moment of derivation.
func (c *Client) NewSessionClient(secret string) (*Client, error) {
	if c.closed.Load() {
		return nil, errClientClosed()
	}
	if err := c.transport.retain(); err != nil {
		return nil, errClientClosed()
	}

	headers := make(map[string]string, len(c.extraHeaders))
	for k, v := range c.extraHeaders {
		headers[k] = v
	}

	session := &Client{
		rootURL:        c.rootURL,
		authHeader:     authHeaderFor(secret),
		driverTag:      DriverGoSession,
		transport:      c.transport,
		metrics:        c.metrics,
		txnTime:        newTxnTimeFrom(c.txnTime.get()),
		defaultTimeout: c.defaultTimeout,
		extraHeaders:   headers,
		logger:         c.logger,
		streams:        make(map[*StreamPublisher]struct{}),
	}

	return session, nil
}

// GetLastTxnTime returns the freshest transaction-time watermark seen by
// this connection.
func (c *Client) GetLastTxnTime() int64 {
	return c.txnTime.get()
}

// SyncLastTxnTime advances this connection's watermark to at least
// candidate. It is a no-op if candidate does not exceed the current value.
func (c *Client) SyncLastTxnTime(candidate int64) {
	c.txnTime.sync(candidate)
}

// Close idempotently releases this connection's reference on the shared
// transport and terminates any streams it owns with ClientClosed. Only the
// first call has effect; subsequent calls are no-ops.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.streamsMu.Lock()
	streams := c.streams
	c.streams = nil
	c.streamsMu.Unlock()
	for s := range streams {
		s.terminateWithClientClosed()
	}

	c.transport.release()
	return nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values, timeoutOverride time.Duration, params *RequestParameters) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, query, nil, timeoutOverride, params)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body []byte, timeoutOverride time.Duration, params *RequestParameters) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, nil, body, timeoutOverride, params)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body []byte, timeoutOverride time.Duration, params *RequestParameters) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, nil, body, timeoutOverride, params)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body []byte, timeoutOverride time.Duration, params *RequestParameters) (*Response, error) {
	return c.do(ctx, http.MethodPatch, path, nil, body, timeoutOverride, params)
}

// do implements the shared request/response contract for all four verbs.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, timeoutOverride time.Duration, params *RequestParameters) (*Response, error) {
	if c.closed.Load() {
		return nil, errClientClosed()
	}

	req, err := c.buildRequest(ctx, method, path, query, body, timeoutOverride, params)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.transport.send(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	bodyBytes, readErr := io.ReadAll(resp.Body)
	c.metrics.Timer("fauna-request").Record(time.Since(start))
	if readErr != nil {
		return nil, transportError(readErr)
	}

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: bodyBytes}
	c.logger.LogResponse(body, resp)

	if resp.StatusCode < 300 {
		if txn, ok := out.TxnTime(); ok {
			c.SyncLastTxnTime(txn)
		}
		return out, nil
	}

	return out, mapError(resp.StatusCode, bodyBytes)
}

// StreamRequest issues a long-lived request whose response body is a
// sequence of newline-delimited JSON objects, returning a StreamPublisher
// that pulls events from it on demand.
func (c *Client) StreamRequest(ctx context.Context, method, path string, body []byte, extraHeaders map[string]string) (*StreamPublisher, error) {
	if c.closed.Load() {
		return nil, errClientClosed()
	}

	req, err := c.buildRequest(ctx, method, path, nil, body, 0, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.transport.send(req)
	if err != nil {
		return nil, transportError(err)
	}

	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, mapError(resp.StatusCode, bodyBytes)
	}

	pub := newStreamPublisher(resp.Body, bufio.NewScanner(resp.Body))

	c.streamsMu.Lock()
	if c.streams == nil {
		c.streamsMu.Unlock()
		resp.Body.Close()
		return nil, errClientClosed()
	}
	c.streams[pub] = struct{}{}
	c.streamsMu.Unlock()

	pub.onDone = func() {
		c.streamsMu.Lock()
		if c.streams != nil {
			delete(c.streams, pub)
		}
		c.streamsMu.Unlock()
	}

	return pub, nil
}
