package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/sony/gobreaker/v2"

	"docmgmt/internal/config"
)

// ErrUnavailable is returned without contacting the backend while the breaker is open.
var ErrUnavailable = errors.New("object storage unavailable")

// Breaker guards a Storage with a circuit breaker so that a failing object store
// makes uploads fail fast instead of holding requests until the client times out.
type Breaker struct {
	next Storage
	cb   *gobreaker.CircuitBreaker[any]
}

var _ Storage = (*Breaker)(nil)

// NewBreaker wraps next. Missing objects and cancelled contexts are not counted as failures.
func NewBreaker(next Storage, cfg config.BreakerConfig, logger *slog.Logger) *Breaker {
	minRequests := uint32(max(cfg.MinRequests, 1))
	settings := gobreaker.Settings{
		Name:        "object_storage",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded) ||
				minio.ToErrorResponse(err).Code == "NoSuchKey"
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit_breaker_state_change", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

func (b *Breaker) execute(fn func() (any, error)) (any, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v, err
}

func (b *Breaker) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	v, err := b.execute(func() (any, error) {
		return b.next.Put(ctx, key, r, opt)
	})
	if err != nil {
		return ObjectInfo{}, err
	}
	return v.(ObjectInfo), nil
}

type getResult struct {
	rc   io.ReadCloser
	info ObjectInfo
}

func (b *Breaker) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	v, err := b.execute(func() (any, error) {
		rc, info, err := b.next.Get(ctx, key)
		return getResult{rc: rc, info: info}, err
	})
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	res := v.(getResult)
	return res.rc, res.info, nil
}

func (b *Breaker) Delete(ctx context.Context, key string) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.next.Delete(ctx, key)
	})
	return err
}

func (b *Breaker) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	v, err := b.execute(func() (any, error) {
		return b.next.PresignGet(ctx, key, expiry)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// ObjectURL is computed locally and never trips the breaker.
func (b *Breaker) ObjectURL(key string) string {
	return b.next.ObjectURL(key)
}
