// Package httpx provides a shared retrying HTTP client for outbound calls
// to flaky third-party endpoints (SEC EDGAR, data vendors).
package httpx

import (
	"io"
	"log"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"net/http"
)

// NewRetryingClient returns a *http.Client backed by retryablehttp with
// exponential backoff, silencing its own logger (callers log at the call
// site instead).
func NewRetryingClient(maxRetries int, timeout time.Duration) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = maxRetries
	rc.Logger = log.New(io.Discard, "", 0)
	rc.HTTPClient.Timeout = timeout
	return rc.StandardClient()
}
