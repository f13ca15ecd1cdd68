package fauna

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Header names used on the wire (bit-exact).
const (
	HeaderAuthorization = "Authorization"
	HeaderAPIVersion    = "X-FaunaDB-API-Version"
	HeaderDriver        = "X-Fauna-Driver"
	HeaderQueryTimeout  = "X-Query-Timeout"
	HeaderLastSeenTxn   = "X-Last-Seen-Txn"
	HeaderContentType   = "Content-Type"
	HeaderTxnTime       = "X-Txn-Time"
	HeaderFaunaHost     = "X-FaunaDB-Host"
	HeaderFaunaBuild    = "X-FaunaDB-Build"

	// Ambient request-tagging headers carrying a RequestParameters'
	// traceId/tags.
	HeaderTraceID = "X-Fauna-Trace-Id"
	HeaderTags    = "X-Fauna-Tags"

	apiVersion = "4"
)

// buildRequest assembles an *http.Request for one verb call: path joined
// against rootURL, headers added unconditionally (Authorization, API
// version, driver tag), the query timeout header derived from
// defaultTimeout/override, and the last-seen-txn header when txnTime > 0.
func (c *Client) buildRequest(ctx context.Context, method, path string, query url.Values, body []byte, timeoutOverride time.Duration, params *RequestParameters) (*http.Request, error) {
	target, err := c.rootURL.Parse(path)
	if err != nil {
		return nil, errInvalidArgument(fmt.Sprintf("invalid request path %q: %v", path, err))
	}
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var bodyReader *bytes.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), bodyReader)
	if err != nil {
		return nil, errInvalidArgument(fmt.Sprintf("invalid request: %v", err))
	}

	req.Header.Set(HeaderAuthorization, c.authHeader)
	req.Header.Set(HeaderAPIVersion, apiVersion)
	req.Header.Set(HeaderDriver, string(c.driverTag))
	if body != nil {
		req.Header.Set(HeaderContentType, "application/json; charset=utf-8")
	}

	timeout := c.defaultTimeout
	if timeoutOverride > 0 {
		timeout = timeoutOverride
	}
	if params != nil && params.Timeout() > 0 {
		timeout = params.Timeout()
	}
	if timeout > 0 {
		req.Header.Set(HeaderQueryTimeout, strconv.FormatInt(timeout.Milliseconds(), 10))
	}

	if lastSeen := c.txnTime.string(); lastSeen != "" {
		req.Header.Set(HeaderLastSeenTxn, lastSeen)
	}

	if params != nil {
		if params.TraceID() != "" {
			req.Header.Set(HeaderTraceID, params.TraceID())
		}
		if tags := params.Tags(); len(tags) > 0 {
			req.Header.Set(HeaderTags, encodeTags(tags))
		}
	}

	for k, v := range c.extraHeaders {
		req.Header.Set(k, v)
	}

	return req, nil
}

func encodeTags(tags map[string]string) string {
	vals := url.Values{}
	for k, v := range tags {
		vals.Set(k, v)
	}
	return vals.Encode()
}
