package fauna

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientAppliesOptions(t *testing.T) {
	c, err := NewClient("secret",
		WithRootURL("https://example.test"),
		WithDefaultTimeout(30*time.Second),
		WithInitialTxnTime(42),
		WithDriverTag(DriverGoSession),
		WithHeaders(map[string]string{"X-Extra": "1"}),
		WithVersionCheckOnBuild(false))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "example.test", c.rootURL.Host)
	assert.Equal(t, 30*time.Second, c.defaultTimeout)
	assert.EqualValues(t, 42, c.GetLastTxnTime())
	assert.Equal(t, DriverGoSession, c.driverTag)
	assert.Equal(t, "1", c.extraHeaders["X-Extra"])
}

func TestWithDriverTagIgnoresUnknownValue(t *testing.T) {
	c, err := NewClient("secret", WithDriverTag("bogus"), WithVersionCheckOnBuild(false))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, DriverGo, c.driverTag)
}

func TestNewClientRejectsInvalidRootURL(t *testing.T) {
	_, err := NewClient("secret", WithRootURL("://bad"), WithVersionCheckOnBuild(false))
	require.Error(t, err)
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindInvalidArgument, fe.Kind)
}
