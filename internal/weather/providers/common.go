package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-analyzer/internal/weather"
)

// maxBodyBytes caps how much of a provider response is read.
const maxBodyBytes = 1 << 20

// BreakerConfig controls when the circuit opens and how long it stays open.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failed calls that opens the circuit.
	MaxFailures uint32
	// OpenTimeout is how long the circuit stays open before a probe is allowed.
	OpenTimeout time.Duration
}

// DefaultBreakerConfig opens after 5 consecutive failures for 2 minutes.
var DefaultBreakerConfig = BreakerConfig{
	MaxFailures: 5,
	OpenTimeout: 2 * time.Minute,
}

var (
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
	errBodyTooLarge = fmt.Errorf("response body exceeds %d bytes", maxBodyBytes)
)

// statusError is returned from inside the breaker so that non-2xx responses count as
// failures; it is converted to a TransportError afterwards.
type statusError struct {
	code int
}

func (e *statusError) Error() string { return http.StatusText(e.code) }

func newCircuitBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = DefaultBreakerConfig.MaxFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultBreakerConfig.OpenTimeout
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
	})
}

// doRequest executes req exactly once through the circuit breaker and returns the body.
// Every failure is a *weather.TransportError.
func doRequest(
	ctx context.Context,
	op string,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	req *http.Request,
) ([]byte, error) {
	if client == nil {
		return nil, &weather.TransportError{Op: op, Err: errNoHTTPClient}
	}

	// Ensure the request obeys context cancellation.
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			// Drain a little so the connection can be reused.
			_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
			return nil, &statusError{code: resp.StatusCode}
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
		if err != nil {
			return nil, err
		}
		if len(body) > maxBodyBytes {
			return nil, errBodyTooLarge
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &weather.TransportError{Op: op, Err: fmt.Errorf("%w: %v", errCircuitOpen, err)}
		}
		var se *statusError
		if errors.As(err, &se) {
			return nil, &weather.TransportError{Op: op, StatusCode: se.code, Err: se}
		}
		return nil, &weather.TransportError{Op: op, Err: err}
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, &weather.TransportError{Op: op, Err: fmt.Errorf("unexpected result type from circuit breaker")}
	}
	return body, nil
}
