package fauna

import "encoding/base64"

// authHeaderFor builds the fixed Authorization header value from a secret:
// "Basic " + base64(secret + ":"). Computed once at connection (or session)
// construction and never logged.
func authHeaderFor(secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(secret+":"))
}
