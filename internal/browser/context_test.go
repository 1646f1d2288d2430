package browser

import (
	"testing"

	"complaintdesk/internal/logger"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingChrome() Options {
	return Options{ExecPath: "/nonexistent/chrome"}
}

func TestHolderStartsLazilyAndReusesContext(t *testing.T) {
	h := NewHolder(missingChrome(), logger.Discard())
	defer h.Close()

	assert.Nil(t, h.ctx, "nothing is started before Get")

	first := h.Get()
	require.NotNil(t, first)
	assert.NotNil(t, chromedp.FromContext(first))
	assert.Same(t, chromedp.FromContext(first), chromedp.FromContext(h.Get()))
}

func TestRunFailsWithoutChrome(t *testing.T) {
	h := NewHolder(missingChrome(), logger.Discard())
	defer h.Close()

	assert.Error(t, chromedp.Run(h.Get()))
}

func TestRestartReplacesContext(t *testing.T) {
	h := NewHolder(missingChrome(), logger.Discard())
	defer h.Close()

	old := h.Get()
	fresh := h.Restart()
	assert.NotSame(t, chromedp.FromContext(old), chromedp.FromContext(fresh))
	assert.Error(t, old.Err(), "the replaced context is cancelled")
	assert.Same(t, chromedp.FromContext(fresh), chromedp.FromContext(h.Get()))
}

func TestCloseIsIdempotent(t *testing.T) {
	h := NewHolder(missingChrome(), logger.Discard())
	ctx := h.Get()

	h.Close()
	h.Close()
	assert.Error(t, ctx.Err())
	assert.Nil(t, h.ctx)

	// A closed holder starts again on demand.
	again := h.Get()
	defer h.Close()
	require.NotNil(t, again)
	assert.NotSame(t, chromedp.FromContext(ctx), chromedp.FromContext(again))
}
