package fauna

import (
	"net/http"
	"time"
)

// ClientOption configures a Client at construction, using the standard
// functional-options pattern rather than a field-setting builder struct.
type ClientOption func(*clientConfig)

type clientConfig struct {
	rootURL             string
	driverTag           DriverTag
	metrics             MetricsSink
	initialTxnTime      int64
	defaultTimeout      time.Duration
	transport           *transportHandle
	connectTimeout      time.Duration
	versionCheckOnBuild bool
	headers             map[string]string
	logger              Logger
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		rootURL:             DefaultRootURL,
		driverTag:           DriverGo,
		metrics:             noopMetrics{},
		connectTimeout:      DefaultConnectTimeout,
		versionCheckOnBuild: true,
		headers:             map[string]string{},
		logger:              DefaultLogger(),
	}
}

// knownDriverTags is the fixed small enumeration allowed for the driver tag
// builder option.
var knownDriverTags = []DriverTag{DriverGo, DriverGoSession}

// WithDriverTag overrides the default X-Fauna-Driver value. tag must be one
// of the recognized enumeration values; an unrecognized tag is ignored and
// the default is kept.
func WithDriverTag(tag DriverTag) ClientOption {
	return func(c *clientConfig) {
		if arrayContains(knownDriverTags, tag) {
			c.driverTag = tag
		}
	}
}

// WithRootURL overrides the default root URL.
func WithRootURL(rootURL string) ClientOption {
	return func(c *clientConfig) { c.rootURL = rootURL }
}

// WithMetrics installs a MetricsSink to receive timer/counter updates.
func WithMetrics(sink MetricsSink) ClientOption {
	return func(c *clientConfig) { c.metrics = sink }
}

// WithInitialTxnTime seeds the txn-time watermark's initial value.
func WithInitialTxnTime(microseconds int64) ClientOption {
	return func(c *clientConfig) { c.initialTxnTime = microseconds }
}

// WithDefaultTimeout sets the default per-request query timeout.
func WithDefaultTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) { c.defaultTimeout = d }
}

// WithTransportHandle injects a pre-built *http.Client as this connection's
// (reference-counted) transport, in place of the default one built with a
// 10s connect timeout.
func WithTransportHandle(client *http.Client) ClientOption {
	return func(c *clientConfig) { c.transport = wrapTransportHandle(client) }
}

// WithConnectTimeout overrides the connect timeout used when building the
// default transport (ignored if WithTransportHandle is also supplied).
func WithConnectTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) { c.connectTimeout = d }
}

// WithVersionCheckOnBuild toggles the opt-in, once-per-process driver
// version advisory.
func WithVersionCheckOnBuild(enabled bool) ClientOption {
	return func(c *clientConfig) { c.versionCheckOnBuild = enabled }
}

// WithHeaders merges additional headers sent on every request made by this
// connection (and, by inheritance, any session derived from it).
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *clientConfig) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithLogger installs a Logger for request/response diagnostics.
func WithLogger(logger Logger) ClientOption {
	return func(c *clientConfig) { c.logger = logger }
}
