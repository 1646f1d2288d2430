// Package browser manages the headless Chrome instance used to print
// receipts.
//
// Chrome is expensive to start, so a Holder starts it lazily on first use
// and keeps it for the rest of the process. After a failed print the
// caller can Restart it once before giving up.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chromedp/chromedp"
)

// Options configure the Chrome process.
type Options struct {
	// ExecPath overrides Chrome discovery (CHROME_PATH). Empty lets chromedp
	// search the usual install locations.
	ExecPath string
	Debug    bool
}

// Holder owns one browser context and hands it out to callers.
//
// Thread-safety:
//   - All methods lock; Get may be called from several goroutines
type Holder struct {
	opts Options
	log  *slog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHolder creates a holder. No process is started until Get.
func NewHolder(opts Options, log *slog.Logger) *Holder {
	if log == nil {
		log = slog.Default()
	}
	return &Holder{opts: opts, log: log}
}

// Get returns the browser context, starting Chrome if needed.
func (h *Holder) Get() context.Context {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ctx == nil {
		h.start()
	}
	return h.ctx
}

// Restart discards the current browser and starts a fresh one.
func (h *Holder) Restart() context.Context {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.log.Warn("⚠️  Restarting browser context...")
	if h.cancel != nil {
		h.cancel()
	}
	h.start()
	return h.ctx
}

// start launches Chrome on the holder's own context. The first Run binds the
// browser process to the context it is given, so it must not be a caller's
// short-lived one. A start failure is logged and surfaces again on the
// caller's first Run.
func (h *Holder) start() {
	h.ctx, h.cancel = NewContext(context.Background(), h.opts, h.log)
	if err := chromedp.Run(h.ctx); err != nil {
		h.log.Warn("⚠️  Failed to start browser", "error", err)
		return
	}
	h.log.Info("✓ Browser started")
}

// Close shuts Chrome down. Safe to call more than once.
func (h *Holder) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
		h.ctx = nil
	}
}

// NewContext allocates a headless Chrome under parent.
//
// The returned cancel stops both the tab and the browser process.
func NewContext(parent context.Context, opts Options, log *slog.Logger) (context.Context, context.CancelFunc) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts, chromedp.DisableGPU)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)

	ctxOpts := []chromedp.ContextOption{
		chromedp.WithErrorf(func(format string, args ...interface{}) {
			log.Debug("chromedp: " + fmt.Sprintf(format, args...))
		}),
	}
	if opts.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithLogf(func(format string, args ...interface{}) {
			log.Debug("chromedp: " + fmt.Sprintf(format, args...))
		}))
	}
	ctx, cancel := chromedp.NewContext(allocCtx, ctxOpts...)

	log.Debug("  ✓ Browser context created", "exec_path", opts.ExecPath)
	return ctx, func() {
		cancel()
		allocCancel()
	}
}
