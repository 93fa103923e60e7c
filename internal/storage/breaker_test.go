package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docmgmt/internal/config"
	"docmgmt/internal/logging"
)

// flakyStorage fails every call while down is set.
type flakyStorage struct {
	down  bool
	calls int
	err   error
}

func (f *flakyStorage) fail() error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.down {
		return errors.New("connection refused")
	}
	return nil
}

func (f *flakyStorage) Put(_ context.Context, key string, _ io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	if err := f.fail(); err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{Key: key, Size: opt.Size}, nil
}

func (f *flakyStorage) Get(_ context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	if err := f.fail(); err != nil {
		return nil, ObjectInfo{}, err
	}
	return io.NopCloser(strings.NewReader("data")), ObjectInfo{Key: key}, nil
}

func (f *flakyStorage) Delete(context.Context, string) error { return f.fail() }

func (f *flakyStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	if err := f.fail(); err != nil {
		return "", err
	}
	return "https://signed/" + key, nil
}

func (f *flakyStorage) ObjectURL(key string) string { return "http://plain/" + key }

func breakerConfig() config.BreakerConfig {
	return config.BreakerConfig{Enabled: true, MinRequests: 2, FailureRatio: 0.5, OpenTimeout: time.Minute}
}

func TestBreaker_PassesThroughWhenHealthy(t *testing.T) {
	backend := &flakyStorage{}
	b := NewBreaker(backend, breakerConfig(), logging.Discard())
	ctx := context.Background()

	info, err := b.Put(ctx, "documents/a.pdf", strings.NewReader("x"), PutObjectOptions{Size: 1})
	require.NoError(t, err)
	assert.Equal(t, "documents/a.pdf", info.Key)

	rc, _, err := b.Get(ctx, "documents/a.pdf")
	require.NoError(t, err)
	rc.Close()

	url, err := b.PresignGet(ctx, "documents/a.pdf", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "https://signed/documents/a.pdf", url)
	assert.Equal(t, "http://plain/documents/a.pdf", b.ObjectURL("documents/a.pdf"))
	assert.NoError(t, b.Delete(ctx, "documents/a.pdf"))
	assert.Equal(t, 4, backend.calls)
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	backend := &flakyStorage{down: true}
	b := NewBreaker(backend, breakerConfig(), logging.Discard())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := b.Put(ctx, "k", strings.NewReader("x"), PutObjectOptions{Size: 1})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}

	_, err := b.PresignGet(ctx, "k", time.Hour)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, backend.calls, "open breaker must not reach the backend")
}

func TestBreaker_IgnoresCancelledContexts(t *testing.T) {
	backend := &flakyStorage{err: context.Canceled}
	b := NewBreaker(backend, breakerConfig(), logging.Discard())

	for i := 0; i < 5; i++ {
		err := b.Delete(context.Background(), "k")
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, 5, backend.calls)
}
