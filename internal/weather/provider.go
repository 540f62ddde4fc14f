package weather

import "context"

// Provider abstracts the external weather endpoint. FetchRaw performs exactly one
// request and returns the undecoded payload; failures are *TransportError.
type Provider interface {
	Name() string
	FetchRaw(ctx context.Context) ([]byte, error)
}
