package spotify

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const tracerName = "Playlist-Pulse/pkg/spotify"

// tokenProvider is the part of CredentialManager the executor and transport
// depend on.
type tokenProvider interface {
	Token(ctx context.Context) (AccessToken, error)
}

// Executor wraps outbound catalog calls with authentication, client-side
// pacing, retries and tracing.
type Executor struct {
	creds   tokenProvider
	retrier *Retrier
	limiter *rate.Limiter
	tracer  trace.Tracer
}

// NewExecutor builds an Executor. limiter may be nil to disable pacing.
func NewExecutor(creds tokenProvider, retrier *Retrier, limiter *rate.Limiter) *Executor {
	if retrier == nil {
		retrier = NewRetrier(DefaultRetryPolicy(), nil)
	}
	return &Executor{
		creds:   creds,
		retrier: retrier,
		limiter: limiter,
		tracer:  otel.Tracer(tracerName),
	}
}

// Execute runs fn as the named operation. Before every attempt it makes
// sure a valid token is held and waits for the rate limiter; failures are
// classified and retried by the executor's Retrier.
func Execute[T any](ctx context.Context, e *Executor, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, span := e.tracer.Start(ctx, "spotify."+op)
	defer span.End()

	var (
		out      T
		attempts int
	)
	err := e.retrier.Do(ctx, op, func(ctx context.Context) error {
		attempts++
		if e.creds != nil {
			if _, err := e.creds.Token(ctx); err != nil {
				return err
			}
		}
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	span.SetAttributes(attribute.Int("spotify.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var zero T
		return zero, err
	}
	return out, nil
}
