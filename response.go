package fauna

import (
	"net/http"
	"strconv"
	"time"
)

// Response is the connection-level result of a Get/Post/Put/Patch call: the
// full status, headers, and body bytes of one HTTP response. The query
// client layers decoding and error-mapping on top of this.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Response-statistics accessors, pulled from response headers rather than
// requiring callers to know header names.

func (r *Response) intHeader(key string) int {
	v, err := strconv.Atoi(r.Header.Get(key))
	if err != nil {
		return 0
	}
	return v
}

// ReadOps returns the X-Read-Ops header value, or 0 if absent/unparseable.
func (r *Response) ReadOps() int { return r.intHeader("X-Read-Ops") }

// WriteOps returns the X-Write-Ops header value, or 0 if absent/unparseable.
func (r *Response) WriteOps() int { return r.intHeader("X-Write-Ops") }

// ComputeOps returns the X-Compute-Ops header value, or 0 if absent/unparseable.
func (r *Response) ComputeOps() int { return r.intHeader("X-Compute-Ops") }

// ByteReadOps returns the X-Byte-Read-Ops header value.
func (r *Response) ByteReadOps() int { return r.intHeader("X-Byte-Read-Ops") }

// ByteWriteOps returns the X-Byte-Write-Ops header value.
func (r *Response) ByteWriteOps() int { return r.intHeader("X-Byte-Write-Ops") }

// StorageBytesRead returns the X-Storage-Bytes-Read header value.
func (r *Response) StorageBytesRead() int { return r.intHeader("X-Storage-Bytes-Read") }

// StorageBytesWrite returns the X-Storage-Bytes-Write header value.
func (r *Response) StorageBytesWrite() int { return r.intHeader("X-Storage-Bytes-Write") }

// QueryTime returns the X-Query-Time header value as a Duration.
func (r *Response) QueryTime() time.Duration {
	return time.Duration(r.intHeader("X-Query-Time")) * time.Millisecond
}

// FaunaBuild returns the X-FaunaDB-Build header value.
func (r *Response) FaunaBuild() string { return r.Header.Get(HeaderFaunaBuild) }

// FaunaHost returns the X-FaunaDB-Host header value.
func (r *Response) FaunaHost() string { return r.Header.Get(HeaderFaunaHost) }

// TxnTime returns the parsed X-Txn-Time header value in microseconds, and
// whether the header was present and well-formed.
func (r *Response) TxnTime() (int64, bool) {
	raw := r.Header.Get(HeaderTxnTime)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
