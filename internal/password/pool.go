package password

import (
	"context"
	"time"

	"github.com/ErlanBelekov/jwt-auth/internal/metrics"
)

// Pool bounds how many hash or verify computations run at once. Callers wait
// for a free slot or give up when ctx is done; the computation itself is not
// interruptible.
type Pool struct {
	hasher Hasher
	sem    chan struct{}
}

func NewPool(hasher Hasher, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		hasher: hasher,
		sem:    make(chan struct{}, size),
	}
}

func (p *Pool) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := p.acquire(ctx); err != nil {
		return "", err
	}
	defer p.release()

	start := time.Now()
	hash, err := p.hasher.Hash(plaintext)
	metrics.PasswordHashDuration.WithLabelValues("hash").Observe(time.Since(start).Seconds())
	return hash, err
}

func (p *Pool) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	if err := p.acquire(ctx); err != nil {
		return false, err
	}
	defer p.release()

	start := time.Now()
	ok := p.hasher.Verify(plaintext, hash)
	metrics.PasswordHashDuration.WithLabelValues("verify").Observe(time.Since(start).Seconds())
	return ok, nil
}

func (p *Pool) acquire(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		metrics.PasswordHashesInFlight.Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) release() {
	metrics.PasswordHashesInFlight.Dec()
	<-p.sem
}
