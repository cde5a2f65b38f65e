package places

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/trailpost/trailpost/pkg/geo"
)

// Provider represents a single external place backend.
type Provider interface {
	Name() string

	// Nearby returns candidates around point within radius meters, sorted
	// however the provider returned them. Transport failures, non-success
	// statuses and malformed payloads are downgraded to an empty list and
	// logged; an error is returned only when the context is done.
	Nearby(ctx context.Context, point geo.Point, radius float64) ([]Candidate, error)
}

// client holds the plumbing shared by the provider implementations.
type client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *ProximityCache
}

func newClient() client {
	return client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(10, 10),
		cache:      NewProximityCache(),
	}
}

// Option configures a provider client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit for provider calls.
func WithRateLimit(rps float64) Option {
	return func(c *client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

// WithCache replaces the provider's proximity cache. Useful for sharing a
// cache across clients or isolating it per tenant.
func WithCache(cache *ProximityCache) Option {
	return func(c *client) {
		c.cache = cache
	}
}
