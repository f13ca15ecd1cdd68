package fauna

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	maxTags         = 25
	maxTagKeyLength = 40
	maxTagValLength = 80
)

var tagTokenRe = regexp.MustCompile(`^\w+$`)

// RequestParameters holds optional per-request metadata: timeout, trace
// identifier, and a bounded tag map. Values are validated at construction
// and the result is immutable.
type RequestParameters struct {
	timeout time.Duration
	traceID string
	tags    map[string]string
}

// NewRequestParameters validates and constructs a RequestParameters value.
// A nil tags map is rejected with InvalidArgument; callers that have no
// tags to send must pass a non-nil, empty map. A tags map over the size
// bound, or containing an invalid key/value, also fails construction with
// InvalidArgument.
func NewRequestParameters(timeout time.Duration, traceID string, tags map[string]string) (*RequestParameters, error) {
	if tags == nil {
		return nil, errInvalidArgument("tags: must not be nil")
	}
	if len(tags) > maxTags {
		return nil, errInvalidArgument(fmt.Sprintf("tags: at most %d entries are allowed, got %d", maxTags, len(tags)))
	}

	copied := make(map[string]string, len(tags))
	for k, v := range tags {
		if err := validateTagToken("key", k, maxTagKeyLength); err != nil {
			return nil, err
		}
		if err := validateTagToken("value", v, maxTagValLength); err != nil {
			return nil, err
		}
		copied[k] = v
	}

	return &RequestParameters{timeout: timeout, traceID: traceID, tags: copied}, nil
}

// RequestParametersFromTimeout builds a RequestParameters value with only a
// timeout set; its Tags is empty.
func RequestParametersFromTimeout(timeout time.Duration) *RequestParameters {
	p, _ := NewRequestParameters(timeout, "", map[string]string{})
	return p
}

// Timeout returns the configured per-request timeout, or zero if unset.
func (p *RequestParameters) Timeout() time.Duration {
	if p == nil {
		return 0
	}
	return p.timeout
}

// TraceID returns the configured trace identifier, or "" if unset.
func (p *RequestParameters) TraceID() string {
	if p == nil {
		return ""
	}
	return p.traceID
}

// Tags returns a copy of the configured tag map.
func (p *RequestParameters) Tags() map[string]string {
	if p == nil || len(p.tags) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(p.tags))
	for k, v := range p.tags {
		out[k] = v
	}
	return out
}

func validateTagToken(kind, val string, maxLen int) error {
	trimmed := strings.TrimSpace(val)
	if trimmed == "" {
		return errInvalidArgument(fmt.Sprintf("tag %s must not be empty: %q", kind, val))
	}
	if len(trimmed) > maxLen {
		return errInvalidArgument(fmt.Sprintf("tag %s exceeds max length %d: %q", kind, maxLen, val))
	}
	if !tagTokenRe.MatchString(trimmed) {
		return errInvalidArgument(fmt.Sprintf("tag %s must match ^\\w+$: %q", kind, val))
	}
	return nil
}
