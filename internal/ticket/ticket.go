// Package ticket issues human-readable ticket identifiers such as TCKT1001.
//
// The next identifier is derived from what is already on disk: the highest
// numeric suffix found in the ledger's Ticket ID column plus one. A small
// in-process memory of the last issued number keeps consecutive calls strictly
// increasing before their rows are appended, and serves as the fallback when
// the ledger cannot be read.
package ticket

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// Source yields every identifier recorded so far.
type Source interface {
	Column(ctx context.Context, name string) ([]string, error)
}

// IDColumn is the ledger column scanned for existing identifiers.
const IDColumn = "Ticket ID"

// MaxSuffix returns the highest number n such that prefix+n (digits only)
// appears in ids. ok is false when no value matches.
func MaxSuffix(ids []string, prefix string) (max int, ok bool) {
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		digits, found := strings.CutPrefix(id, prefix)
		if !found || digits == "" || !allDigits(digits) {
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			continue
		}
		if !ok || n > max {
			max, ok = n, true
		}
	}
	return max, ok
}

// Next derives the identifier that follows ids.
//
// Numbers below start are ignored, so an empty or foreign ledger yields
// prefix+start.
func Next(ids []string, prefix string, start int) string {
	return Format(prefix, nextNumber(ids, prefix, start))
}

// Format renders prefix followed by n in plain decimal.
func Format(prefix string, n int) string {
	return prefix + strconv.Itoa(n)
}

func nextNumber(ids []string, prefix string, start int) int {
	max, ok := MaxSuffix(ids, prefix)
	if !ok || max < start {
		return start
	}
	return max + 1
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Generator hands out identifiers backed by a Source.
type Generator struct {
	mu     sync.Mutex
	source Source
	prefix string
	start  int
	last   int // last number issued by this process, start-1 before the first
	log    *slog.Logger
}

// NewGenerator creates a generator for prefix, numbering from start.
func NewGenerator(source Source, prefix string, start int, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{
		source: source,
		prefix: prefix,
		start:  start,
		last:   start - 1,
		log:    log,
	}
}

// NextID issues the next identifier.
//
// The ledger is rescanned on every call so edits made between runs are
// honoured. When the scan fails the generator continues from its own
// counter and logs a warning instead of returning an error; uniqueness is
// best-effort in that case.
func (g *Generator) NextID(ctx context.Context) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.peek(ctx)
	g.last = n
	return Format(g.prefix, n)
}

// Release hands back an identifier whose row was never written, so the
// next call can issue it again. It is a no-op unless id is the most recent
// one issued.
func (g *Generator) Release(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := MaxSuffix([]string{id}, g.prefix)
	if !ok || n != g.last {
		return
	}
	g.last = n - 1
	g.log.Debug("Released unused ticket ID", "ticket_id", id)
}

// Peek returns the identifier NextID would issue, without consuming it.
func (g *Generator) Peek(ctx context.Context) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Format(g.prefix, g.peek(ctx))
}

func (g *Generator) peek(ctx context.Context) int {
	ids, err := g.source.Column(ctx, IDColumn)
	if err != nil {
		g.log.Warn("⚠️  Could not scan ledger for ticket IDs, using in-memory counter",
			"error", err, "last", g.last)
		return g.last + 1
	}

	n := nextNumber(ids, g.prefix, g.start)
	if n <= g.last {
		n = g.last + 1
	}
	return n
}
