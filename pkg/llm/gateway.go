// Package llm is the timeout-guarded path to the external generative-text
// service. Every call is raced against a hard budget so the live phone call
// is never kept waiting past it.
package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/constants"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/metrics"
)

// FallbackSentence is spoken whenever the generative call fails or runs past
// its budget.
const FallbackSentence = "I'd recommend trying this product based on your previous orders. It's a popular choice among our hotel customers."

// Client is the black-box completion service: a prompt in, free text or an
// error out.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// TransientError marks transport-class failures worth retrying. Content
// failures from the upstream service are not wrapped and are not retried.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient transport error: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable transport failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

type Gateway struct {
	client        Client
	logger        *logrus.Logger
	metrics       *metrics.Metrics
	maxRetries    int
	retryDelay    time.Duration
	backoffFactor float64
}

func NewGateway(client Client, logger *logrus.Logger, m *metrics.Metrics) *Gateway {
	return &Gateway{
		client:        client,
		logger:        logger,
		metrics:       m,
		maxRetries:    constants.DefaultLLMMaxRetries,
		retryDelay:    constants.DefaultLLMRetryDelayMS * time.Millisecond,
		backoffFactor: constants.DefaultRetryBackoffFactor,
	}
}

// ResponseWithTimeout resolves within timeout: it races the completion call
// against a timer and returns FallbackSentence if the timer wins or the call
// errors. A late completion delivers into a buffered channel and is
// discarded; the loser is abandoned, never cancelled mid-flight.
func (g *Gateway) ResponseWithTimeout(ctx context.Context, prompt string, timeout time.Duration) string {
	start := time.Now()

	type completion struct {
		text string
		err  error
	}
	ch := make(chan completion, 1)

	go func() {
		text, err := g.completeWithRetry(ctx, prompt)
		ch <- completion{text: text, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case c := <-ch:
		g.metrics.GatewayDuration.Observe(time.Since(start).Seconds())
		if c.err != nil {
			g.metrics.GatewayRequests.WithLabelValues(metrics.GatewayResultError).Inc()
			g.logger.WithError(c.err).Warn("Generative call failed, using fallback sentence")
			return FallbackSentence
		}
		g.metrics.GatewayRequests.WithLabelValues(metrics.GatewayResultOK).Inc()
		return c.text

	case <-timer.C:
		g.metrics.GatewayRequests.WithLabelValues(metrics.GatewayResultTimeout).Inc()
		g.logger.WithField("timeout", timeout).Warn("Generative call exceeded budget, abandoning")
		return FallbackSentence

	case <-ctx.Done():
		g.metrics.GatewayRequests.WithLabelValues(metrics.GatewayResultError).Inc()
		return FallbackSentence
	}
}

// completeWithRetry retries transient transport failures with bounded
// exponential backoff. This is separate from the timeout race above: the
// race bounds total wait, retries bound transport flakiness.
func (g *Gateway) completeWithRetry(ctx context.Context, prompt string) (string, error) {
	delay := g.retryDelay
	var lastErr error

	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		text, err := g.client.Complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !IsTransient(err) || attempt == g.maxRetries {
			break
		}

		g.logger.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"delay":   delay,
		}).Debug("Retrying generative call after transient failure")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		delay = time.Duration(float64(delay) * g.backoffFactor)
	}

	return "", lastErr
}
