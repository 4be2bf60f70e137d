package llm

import (
	"context"
	"errors"
	"log"
	"time"
)

// Retry policy for model calls. Transport failures are transient and get
// up to three attempts with backoff. Contract violations get a single
// retry: at temperature 0 a second failure means the prompt and model
// disagree, not bad luck. Extraction and level-detection failures are
// never retried here; they fail before a model is called again.
const (
	maxTransportAttempts  = 3
	maxValidationAttempts = 2
	retryBaseDelay        = 2 * time.Second
)

// InvokeWithRetry calls Invoke, retrying per the policy above. The last
// error is returned unwrapped so callers can still classify it.
func (inv *Invoker) InvokeWithRetry(ctx context.Context, req InvokeRequest) (*InvokeResult, error) {
	var transportTries, validationTries int

	for {
		result, err := inv.Invoke(ctx, req)
		if err == nil {
			return result, nil
		}

		var te *TransportError
		var ve *ValidationError
		switch {
		case errors.As(err, &te):
			transportTries++
			if transportTries >= maxTransportAttempts {
				return nil, err
			}
			delay := retryBaseDelay * time.Duration(transportTries)
			log.Printf("[llm] %s transport error, retrying in %s (attempt %d/%d): %v",
				req.Stage, delay, transportTries+1, maxTransportAttempts, err)
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}

		case errors.As(err, &ve):
			validationTries++
			if validationTries >= maxValidationAttempts {
				return nil, err
			}
			log.Printf("[llm] %s returned invalid output, retrying once: %v", req.Stage, err)

		default:
			return nil, err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
