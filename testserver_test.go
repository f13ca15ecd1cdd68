package fauna

import (
	"net/http"
	"net/http/httptest"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// newH2CTestServer starts a cleartext HTTP/2 test server, matching the
// default transport this module's Client builds for http:// root URLs
// (transport.go's newDefaultTransportHandle sets AllowHTTP when the root
// URL scheme is "http", which requires an h2c-speaking peer rather than
// plain HTTP/1.1).
func newH2CTestServer(handler http.Handler) *httptest.Server {
	return httptest.NewServer(h2c.NewHandler(handler, &http2.Server{}))
}
