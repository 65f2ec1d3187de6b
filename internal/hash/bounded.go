package hash

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"
)

// Bounded limits how many hash computations run at once. Callers past the
// limit wait for a slot or for their context to end.
type Bounded struct {
	alg     Algorithm
	sem     *semaphore.Weighted
	observe func(op string, d time.Duration)
}

type Option func(*Bounded)

// WithObserver reports the duration of every completed hash or verify.
func WithObserver(fn func(op string, d time.Duration)) Option {
	return func(b *Bounded) { b.observe = fn }
}

func NewBounded(alg Algorithm, limit int, opts ...Option) *Bounded {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	b := &Bounded{alg: alg, sem: semaphore.NewWeighted(int64(limit))}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Bounded) Hash(ctx context.Context, password string) (string, error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer b.sem.Release(1)

	start := time.Now()
	h, err := b.alg.Hash(password)
	b.record("hash", start)
	return h, err
}

// Verify returns an error only when ctx ends before a slot is free.
func (b *Bounded) Verify(ctx context.Context, hash, password string) (bool, error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer b.sem.Release(1)

	start := time.Now()
	ok := b.alg.Verify(hash, password)
	b.record("verify", start)
	return ok, nil
}

func (b *Bounded) record(op string, start time.Time) {
	if b.observe != nil {
		b.observe(op, time.Since(start))
	}
}
