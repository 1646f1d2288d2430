package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient(3 * time.Second)
	assert.Equal(t, 3*time.Second, c.Timeout)

	tr, ok := c.Transport.(*http.Transport)
	if assert.True(t, ok) {
		assert.Equal(t, 2, tr.MaxIdleConnsPerHost)
	}
}

func TestSetHTTPClient(t *testing.T) {
	orig := GetHTTPClient()
	t.Cleanup(func() { SetHTTPClient(orig) })

	assert.Equal(t, 15*time.Second, orig.Timeout)

	replacement := &http.Client{Timeout: time.Second}
	SetHTTPClient(replacement)
	assert.Same(t, replacement, GetHTTPClient())
}
