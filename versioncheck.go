package fauna

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/fauna/corefauna/internal/fingerprinting"
)

// driverVersion is this module's own recorded version, compared against the
// remote metadata document by the version-check side task.
const driverVersion = "0.1.0"

const versionMetadataURL = "https://raw.githubusercontent.com/fauna/fauna-go/main/version.json"

var (
	versionCheckOnce  sync.Once
	versionCheckLimit = rate.NewLimiter(rate.Every(time.Hour), 1)
)

type versionMetadata struct {
	Version string `json:"version"`
}

// checkDriverVersionOnce runs the opt-in, once-per-process advisory check:
// it fetches a remote metadata document and, if its version differs from
// driverVersion, logs a one-line advisory. Any failure is swallowed; the
// check never affects request outcomes.
//
// The process-wide sync.Once guards the check across every Client built in
// this process, not just c; the rate limiter additionally caps how often
// the underlying HTTP call can fire if a future caller ever relaxes the
// Once to allow retries.
func checkDriverVersionOnce(c *Client) {
	versionCheckOnce.Do(func() {
		go runVersionCheck(c)
	})
}

func runVersionCheck(c *Client) {
	defer func() {
		// Never let a panic in this peripheral task affect the caller.
		_ = recover()
	}()

	if !versionCheckLimit.Allow() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, versionMetadataURL, nil)
	if err != nil {
		return
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return
	}

	var meta versionMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return
	}

	if meta.Version == "" || meta.Version == driverVersion {
		return
	}

	c.logger.Info(fmt.Sprintf(
		"a new version of this driver is available: %s (running %s on %s/%s, %s)",
		meta.Version, driverVersion,
		fingerprinting.EnvironmentOS(), fingerprinting.Environment(), fingerprinting.Version()))
}
