package providers

import (
	"context"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-analyzer/internal/weather"
)

// RapidAPI authentication headers.
const (
	HeaderRapidAPIKey  = "X-RapidAPI-Key"
	HeaderRapidAPIHost = "X-RapidAPI-Host"
)

// WeatherAPIClient fetches current conditions from WeatherAPI.com through RapidAPI.
type WeatherAPIClient struct {
	name    string
	url     string
	apiKey  string
	apiHost string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

var _ weather.Provider = (*WeatherAPIClient)(nil)

// Option customizes a WeatherAPIClient.
type Option func(*WeatherAPIClient)

// WithBreaker replaces the default circuit breaker settings.
func WithBreaker(cfg BreakerConfig) Option {
	return func(c *WeatherAPIClient) {
		c.circuit = newCircuitBreaker(c.name, cfg)
	}
}

// NewWeatherAPIClient returns a client for url. url already carries the query (for
// example ?q=Minsk); key and host are sent as RapidAPI headers.
func NewWeatherAPIClient(client *http.Client, url, key, host string, opts ...Option) *WeatherAPIClient {
	c := &WeatherAPIClient{
		name:    "weatherapi",
		url:     url,
		apiKey:  key,
		apiHost: host,
		client:  client,
	}
	c.circuit = newCircuitBreaker(c.name, DefaultBreakerConfig)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *WeatherAPIClient) Name() string {
	return c.name
}

// FetchRaw performs one GET and returns the raw JSON payload. It never retries.
func (c *WeatherAPIClient) FetchRaw(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &weather.TransportError{Op: "build weatherapi request", Err: err}
	}
	req.Header.Set(HeaderRapidAPIKey, c.apiKey)
	req.Header.Set(HeaderRapidAPIHost, c.apiHost)
	req.Header.Set("Accept", "application/json")

	return doRequest(ctx, "fetch weatherapi current", c.client, c.circuit, req)
}
