// Package translate localises spoken prompts with the Google Cloud
// Translation API.
//
// The voice dialogue is written in English; when VOICE_LANGUAGE is set (the
// original deployment used Telugu, "te") each prompt is translated before it
// is spoken.
//
// Graceful degradation: NewTranslator returns nil when no API key or target
// language is configured, and Translate on a nil *Translator (or after any API
// error) returns the input unchanged.
package translate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// backend is the subset of *translate.Client the translator uses.
type backend interface {
	Translate(ctx context.Context, inputs []string, target language.Tag, opts *translate.Options) ([]translate.Translation, error)
	Close() error
}

// Translator wraps the Cloud Translation client with a prompt cache.
type Translator struct {
	client backend
	target language.Tag
	log    *slog.Logger

	mu    sync.Mutex
	cache map[string]string
}

// NewTranslator creates a Translator for the target language.
//
// Returns nil (and no error) when apiKey or target is empty.
func NewTranslator(ctx context.Context, apiKey, target string, log *slog.Logger) (*Translator, error) {
	if log == nil {
		log = slog.Default()
	}
	if apiKey == "" || target == "" {
		log.Debug("⚠️  GOOGLE_TRANSLATE_API_KEY or VOICE_LANGUAGE not set. Prompt translation disabled.")
		return nil, nil
	}

	tag, err := language.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid VOICE_LANGUAGE %q: %w", target, err)
	}

	client, err := translate.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create translate client: %w", err)
	}

	log.Info("✓ Prompt translation configured", "language", tag.String())
	return newWithBackend(client, tag, log), nil
}

func newWithBackend(client backend, target language.Tag, log *slog.Logger) *Translator {
	return &Translator{
		client: client,
		target: target,
		log:    log,
		cache:  make(map[string]string),
	}
}

// Translate returns text in the target language, or text itself when
// translation is unavailable.
func (t *Translator) Translate(ctx context.Context, text string) string {
	if t == nil || text == "" {
		return text
	}

	t.mu.Lock()
	cached, ok := t.cache[text]
	t.mu.Unlock()
	if ok {
		return cached
	}

	resp, err := t.client.Translate(ctx, []string{text}, t.target, &translate.Options{
		Source: language.English,
		Format: translate.Text,
	})
	if err != nil || len(resp) == 0 {
		t.log.Warn("  ⚠️  Translation failed, speaking English", "error", err)
		return text
	}

	out := resp[0].Text
	t.mu.Lock()
	t.cache[text] = out
	t.mu.Unlock()
	return out
}

// Close releases the API client. Safe on nil.
func (t *Translator) Close() error {
	if t == nil {
		return nil
	}
	return t.client.Close()
}
