package fauna

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/net/http2"
)

// DefaultConnectTimeout is the connect timeout used when no transport handle
// is injected at connection construction.
const DefaultConnectTimeout = 10 * time.Second

// defaultReadIdleTimeout governs the HTTP/2 read-idle ping.
const defaultReadIdleTimeout = 3 * time.Minute

// transportHandle wraps an *http.Client with a reference count: retain
// increments iff the counter is positive, release decrements and, on
// reaching zero, invokes an at-most-once teardown.
type transportHandle struct {
	client   *http.Client
	refCount atomic.Int64
}

var errTransportReleased = errors.New("transport handle already released")

// newDefaultTransportHandle builds the default HTTP/2-over-cleartext-or-TLS
// transport, with a single owning reference.
func newDefaultTransportHandle(connectTimeout time.Duration, allowH2C bool) *transportHandle {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}

	dialer := &net.Dialer{Timeout: connectTimeout}

	h := &transportHandle{
		client: &http.Client{
			Transport: &http2.Transport{
				DialTLSContext: func(ctx context.Context, network, addr string, cfg *tls.Config) (net.Conn, error) {
					if allowH2C {
						return dialer.DialContext(ctx, network, addr)
					}
					return tls.DialWithDialer(dialer, network, addr, cfg)
				},
				AllowHTTP:        allowH2C,
				ReadIdleTimeout:  defaultReadIdleTimeout,
				PingTimeout:      3 * time.Second,
				WriteByteTimeout: 5 * time.Second,
			},
		},
	}
	h.refCount.Store(1)
	return h
}

// wrapTransportHandle adopts a caller-injected *http.Client as a
// reference-counted transport handle, starting with a single owning
// reference.
func wrapTransportHandle(client *http.Client) *transportHandle {
	h := &transportHandle{client: client}
	h.refCount.Store(1)
	return h
}

// retain acquires an additional reference, failing if the transport has
// already reached zero references.
func (h *transportHandle) retain() error {
	for {
		cur := h.refCount.Load()
		if cur <= 0 {
			return errTransportReleased
		}
		if h.refCount.CompareAndSwap(cur, cur+1) {
			return nil
		}
	}
}

// release decrements the reference count and tears down the underlying
// transport exactly once, when the count reaches zero.
func (h *transportHandle) release() {
	if h.refCount.Add(-1) == 0 {
		h.client.CloseIdleConnections()
	}
}

// send executes req and returns the full response. Callers are responsible
// for closing resp.Body (unary callers read-and-close immediately; the
// streaming publisher keeps it open for the life of the stream).
func (h *transportHandle) send(req *http.Request) (*http.Response, error) {
	return h.client.Do(req)
}
