package translate

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/translate"
	"golang.org/x/text/language"

	"complaintdesk/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	calls  int
	err    error
	target language.Tag
	closed bool
}

func (f *fakeBackend) Translate(_ context.Context, inputs []string, target language.Tag, _ *translate.Options) ([]translate.Translation, error) {
	f.calls++
	f.target = target
	if f.err != nil {
		return nil, f.err
	}
	out := make([]translate.Translation, len(inputs))
	for i, in := range inputs {
		out[i] = translate.Translation{Text: "[" + target.String() + "] " + in}
	}
	return out, nil
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

func TestNewTranslatorDisabled(t *testing.T) {
	tr, err := NewTranslator(context.Background(), "", "te", logger.Discard())
	require.NoError(t, err)
	assert.Nil(t, tr)

	tr, err = NewTranslator(context.Background(), "key", "", logger.Discard())
	require.NoError(t, err)
	assert.Nil(t, tr)

	assert.Equal(t, "hello", tr.Translate(context.Background(), "hello"))
	assert.NoError(t, tr.Close())
}

func TestNewTranslatorRejectsBadLanguage(t *testing.T) {
	_, err := NewTranslator(context.Background(), "key", "not a tag!", logger.Discard())
	assert.Error(t, err)
}

func TestTranslateCaches(t *testing.T) {
	fake := &fakeBackend{}
	tr := newWithBackend(fake, language.Telugu, logger.Discard())
	ctx := context.Background()

	assert.Equal(t, "[te] Please say your name.", tr.Translate(ctx, "Please say your name."))
	assert.Equal(t, "[te] Please say your name.", tr.Translate(ctx, "Please say your name."))
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, language.Telugu, fake.target)

	assert.Equal(t, "", tr.Translate(ctx, ""))
	assert.Equal(t, 1, fake.calls)

	require.NoError(t, tr.Close())
	assert.True(t, fake.closed)
}

func TestTranslateFallsBackOnError(t *testing.T) {
	fake := &fakeBackend{err: errors.New("quota exceeded")}
	tr := newWithBackend(fake, language.Telugu, logger.Discard())

	assert.Equal(t, "Please describe your complaint.", tr.Translate(context.Background(), "Please describe your complaint."))
}
