package fauna

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// jsonAPI is the shared jsoniter configuration used throughout this package
// for encoding query bodies and decoding response/error envelopes, in place
// of encoding/json.
var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// jsoniterMessage defers decoding of a JSON value, mirroring
// encoding/json.RawMessage but satisfying jsoniter's own marshaler
// interfaces so partial decodes (e.g. a stream event's inner "event" value)
// round-trip without copying through the standard library.
type jsoniterMessage = jsoniter.RawMessage

// QueryClient layers query dispatch on top of a Client: it encodes an
// opaque query expression tree, posts it, decodes the `resource` envelope,
// and raises taxonomized errors. The expression DSL and the typed
// value-projection layer are external collaborators; this type only ever
// sees and returns raw JSON.
type QueryClient struct {
	conn *Client
}

// NewQueryClient wraps conn for query dispatch.
func NewQueryClient(conn *Client) *QueryClient {
	return &QueryClient{conn: conn}
}

// nullValue is the sentinel returned by Query when the response's resource
// field is an explicit JSON null.
var nullValue = jsoniterMessage("null")

// Query serializes expr to JSON, posts it to the connection's root path,
// and decodes the resource field of the response. A zero timeout leaves
// the connection's default (or the params override) in effect.
func (q *QueryClient) Query(ctx context.Context, expr any, timeout time.Duration, params *RequestParameters) (jsoniterMessage, error) {
	body, err := jsonAPI.Marshal(expr)
	if err != nil {
		return nil, errInvalidArgument("invalid query expression: " + err.Error())
	}

	resp, err := q.conn.Post(ctx, "", body, timeout, params)
	if err != nil {
		return nil, err
	}

	return decodeResource(resp.Body)
}

// QueryBatch serializes a sequence of expressions as a single JSON array
// request body, and decodes the resource field as an ordered sequence of
// values. The number of values returned is not checked against len(exprs).
func (q *QueryClient) QueryBatch(ctx context.Context, exprs []any, timeout time.Duration, params *RequestParameters) ([]jsoniterMessage, error) {
	body, err := jsonAPI.Marshal(exprs)
	if err != nil {
		return nil, errInvalidArgument("invalid query expression: " + err.Error())
	}

	resp, err := q.conn.Post(ctx, "", body, timeout, params)
	if err != nil {
		return nil, err
	}

	resource, err := decodeResource(resp.Body)
	if err != nil {
		return nil, err
	}

	var values []jsoniterMessage
	if err := jsonAPI.Unmarshal(resource, &values); err != nil {
		return nil, &Error{Kind: KindUnknown, Message: "invalid JSON", Cause: err}
	}
	return values, nil
}

// decodeResource implements the decode rule: a missing resource field is
// Unknown("invalid JSON"); an explicit JSON null returns the null value
// sentinel; otherwise the raw resource bytes are returned for the caller's
// projection layer to interpret.
func decodeResource(body []byte) (jsoniterMessage, error) {
	raw := map[string]jsoniterMessage{}
	if err := jsonAPI.Unmarshal(body, &raw); err != nil {
		return nil, &Error{Kind: KindUnknown, Message: "invalid JSON", Cause: err}
	}

	resource, found := raw["resource"]
	if !found {
		return nil, &Error{Kind: KindUnknown, Message: "invalid JSON"}
	}

	trimmed := trimJSONSpace(resource)
	if string(trimmed) == "null" {
		return nullValue, nil
	}
	return resource, nil
}

func trimJSONSpace(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && isJSONSpace(b[start]) {
		start++
	}
	for end > start && isJSONSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
