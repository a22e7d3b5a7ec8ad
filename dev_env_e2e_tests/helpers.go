//go:build e2e
// +build e2e

package e2e

import (
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

const defaultAPI = "http://localhost:8000"

// client returns a resty client for the live stack, skipping the test when
// the service is not reachable. Set CAPTURE_API to target another deployment.
func client(t *testing.T) *resty.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	api := os.Getenv("CAPTURE_API")
	if api == "" {
		api = defaultAPI
	}
	c := resty.New().
		SetBaseURL(api).
		SetTimeout(90 * time.Second).
		SetHeader("Content-Type", "application/json")

	resp, err := c.R().Get("/health")
	if err != nil || resp.StatusCode() != http.StatusOK {
		t.Skipf("service %s unreachable: %v", api, err)
	}
	waitForHealthy(t, c, 30*time.Second)
	return c
}

// waitForHealthy polls /api/health until the store dependency is up.
func waitForHealthy(t *testing.T, c *resty.Client, timeout time.Duration) {
	t.Helper()
	var body struct {
		Status string `json:"status"`
	}
	require.Eventually(t, func() bool {
		resp, err := c.R().SetResult(&body).Get("/api/health")
		return err == nil && resp.StatusCode() == http.StatusOK && body.Status == "healthy"
	}, timeout, 100*time.Millisecond, "capture-service not healthy at %s", c.BaseURL)
}

// ok fails the test unless the call succeeded with a 2xx status.
func ok(t *testing.T, resp *resty.Response, err error) *resty.Response {
	t.Helper()
	require.NoError(t, err)
	require.Truef(t, resp.IsSuccess(), "%s %s: http %d: %s",
		resp.Request.Method, resp.Request.URL, resp.StatusCode(), resp.String())
	return resp
}
