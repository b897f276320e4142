package llm

import (
	"context"
	"math/rand/v2"
	"time"

	"readmegen/internal/llmclient"
)

// Backoff controls the pause between retry attempts. The zero value retries
// immediately.
type Backoff struct {
	// Base is the delay before the second attempt; it doubles after that.
	Base time.Duration
	// Max caps a single delay. Zero means no cap.
	Max time.Duration
	// Jitter spreads each delay uniformly over [d/2, d].
	Jitter bool
}

// Immediate retries without pausing.
var Immediate = Backoff{}

// Delay returns the pause after the given zero-based failed attempt.
func (b Backoff) Delay(attempt int) time.Duration {
	if b.Base <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := b.Base << attempt
	if b.Max > 0 && (d > b.Max || d <= 0) {
		d = b.Max
	}
	if b.Jitter && d > 1 {
		half := d / 2
		d = half + time.Duration(rand.Int64N(int64(d-half)+1))
	}
	return d
}

// Retry retries Complete and CountTokens up to maxAttempts calls in total.
// It stops early on success, on a PermanentError, or when ctx is done.
func Retry(maxAttempts int, backoff Backoff) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return func(next llmclient.Client) llmclient.Client {
		return &retrying{next: next, max: maxAttempts, backoff: backoff}
	}
}

type retrying struct {
	next    llmclient.Client
	max     int
	backoff Backoff
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) Complete(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
	var resp llmclient.Response
	err := r.do(ctx, func() error {
		var err error
		resp, err = r.next.Complete(ctx, req)
		return err
	})
	return resp, err
}

func (r *retrying) CountTokens(ctx context.Context, req llmclient.Request) (int, error) {
	var n int
	err := r.do(ctx, func() error {
		var err error
		n, err = r.next.CountTokens(ctx, req)
		return err
	})
	return n, err
}

func (r *retrying) do(ctx context.Context, call func() error) error {
	var last error
	for i := 0; i < r.max; i++ {
		err := call()
		if err == nil {
			return nil
		}
		// Permanent errors are not retried, even though they are non-success
		// statuses; Groq's 400 context_length_exceeded is one.
		if llmclient.IsPermanent(err) {
			return err
		}
		last = err
		if i == r.max-1 {
			break
		}
		if err := sleepCtx(ctx, r.backoff.Delay(i)); err != nil {
			return err
		}
	}
	return last
}

// sleepCtx waits for d or until ctx is done. A zero delay still observes
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
