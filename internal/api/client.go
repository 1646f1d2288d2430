// Package api provides the HTTP client shared by outbound collaborators.
//
// Connection pooling lets the Telegram notifier reuse one keep-alive
// connection across tickets filed in the same session. http.Client is safe
// for concurrent use; the mutex only guards swapping the shared instance.
package api

import (
	"net/http"
	"sync"
	"time"
)

var (
	sharedClient *http.Client
	sharedMu     sync.RWMutex
)

func init() {
	sharedClient = NewHTTPClient(15 * time.Second)
}

// GetHTTPClient returns the shared HTTP client instance.
func GetHTTPClient() *http.Client {
	sharedMu.RLock()
	defer sharedMu.RUnlock()
	return sharedClient
}

// NewHTTPClient creates an HTTP client with a small keep-alive pool.
//
// Parameters:
//   - timeout: Maximum time for a complete request (including reading response)
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
}

// SetHTTPClient replaces the shared client. Called once at startup with the
// configured timeout, and by tests.
func SetHTTPClient(client *http.Client) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	sharedClient = client
}
