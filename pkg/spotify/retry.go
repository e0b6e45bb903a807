package spotify

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryPolicy bounds how often and how long an operation is retried.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int
	// BaseDelay is the first backoff step; each further attempt doubles it.
	BaseDelay time.Duration
	// MaxDelay caps every delay, including server supplied Retry-After.
	MaxDelay time.Duration
	// MaxJitter is the upper bound of the random delay added to backoff.
	MaxJitter time.Duration
}

// DefaultRetryPolicy returns three attempts with 1s exponential backoff,
// up to one second of jitter and a 30s ceiling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		MaxJitter:   time.Second,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = d.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = d.MaxDelay
	}
	if p.MaxJitter < 0 {
		p.MaxJitter = 0
	}
	return p
}

// Retrier runs operations under a RetryPolicy. Sleeping only blocks the
// calling goroutine so concurrent operations keep making progress.
type Retrier struct {
	policy RetryPolicy
	log    logrus.FieldLogger
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(max time.Duration) time.Duration
}

// NewRetrier returns a Retrier using policy. Zero fields take their default.
func NewRetrier(policy RetryPolicy, log logrus.FieldLogger) *Retrier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Retrier{
		policy: policy.withDefaults(),
		log:    log,
		sleep:  sleepWithContext,
		jitter: randomJitter,
	}
}

// Do calls fn until it succeeds, fails with a non-retryable error, the
// context is done or the attempt ceiling is reached. Any failure is returned
// as an *OperationError naming op and the number of attempts made.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	for attempt := 1; ; attempt++ {
		probe := &retryProbe{}
		err := fn(withProbe(ctx, probe))
		if err == nil {
			requestsTotal.WithLabelValues(op, "ok").Inc()
			return nil
		}
		err = classify(err, probe.status, probe.retryAfter)
		entry := r.log.WithFields(logrus.Fields{
			"op":      op,
			"attempt": attempt,
			"status":  HTTPStatus(err),
		}).WithError(err)

		if ctx.Err() != nil {
			requestsTotal.WithLabelValues(op, "canceled").Inc()
			return &OperationError{Op: op, Attempts: attempt, Err: err}
		}
		if !isRetryable(err) {
			requestsTotal.WithLabelValues(op, "failed").Inc()
			entry.Debug("catalog request failed permanently")
			return &OperationError{Op: op, Attempts: attempt, Err: err}
		}
		if attempt >= r.policy.MaxAttempts {
			requestsTotal.WithLabelValues(op, "exhausted").Inc()
			entry.Warn("catalog request retries exhausted")
			return &OperationError{Op: op, Attempts: attempt, Err: err}
		}

		delay := r.backoff(attempt, retryAfterOf(err))
		retriesTotal.WithLabelValues(op, retryReason(err)).Inc()
		backoffSeconds.WithLabelValues(op).Observe(delay.Seconds())
		entry.WithField("delay", delay).Warn("retrying catalog request")
		if serr := r.sleep(ctx, delay); serr != nil {
			requestsTotal.WithLabelValues(op, "canceled").Inc()
			return &OperationError{Op: op, Attempts: attempt, Err: errors.Join(serr, err)}
		}
	}
}

// backoff returns the delay before the attempt following attempt. A server
// supplied Retry-After wins over exponential backoff; both are capped.
func (r *Retrier) backoff(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return min(retryAfter, r.policy.MaxDelay)
	}
	d := r.policy.BaseDelay << (attempt - 1)
	if d <= 0 || d > r.policy.MaxDelay {
		d = r.policy.MaxDelay
	}
	if r.policy.MaxJitter > 0 {
		d += r.jitter(r.policy.MaxJitter)
	}
	return min(d, r.policy.MaxDelay)
}

func retryAfterOf(err error) time.Duration {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryAfter
	}
	return 0
}

func retryReason(err error) string {
	switch status := HTTPStatus(err); {
	case status == http.StatusTooManyRequests:
		return "rate_limited"
	case status >= 500:
		return "server"
	case status != 0:
		return "status_" + strconv.Itoa(status)
	}
	return "network"
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}

// sleepWithContext waits for d or until ctx is done.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryProbe collects the status and Retry-After hint of the single HTTP
// exchange made by one attempt. The transport fills it in from the response.
// The status matters when the error body could not be decoded and the
// library's error carries no status of its own.
type retryProbe struct {
	status     int
	retryAfter time.Duration
}

type probeKey struct{}

func withProbe(ctx context.Context, p *retryProbe) context.Context {
	return context.WithValue(ctx, probeKey{}, p)
}

func probeFrom(ctx context.Context) *retryProbe {
	p, _ := ctx.Value(probeKey{}).(*retryProbe)
	return p
}

// observe records the status of failed responses and the server's
// Retry-After on throttling responses.
func (p *retryProbe) observe(resp *http.Response, now time.Time) {
	if resp.StatusCode >= 400 {
		p.status = resp.StatusCode
	}
	if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusServiceUnavailable {
		return
	}
	if d, ok := parseRetryAfter(resp.Header.Get("Retry-After"), now); ok {
		p.retryAfter = d
	}
}

// parseRetryAfter accepts either delta seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		d := t.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
