package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/trailpost/trailpost/pkg/geo"
)

const googleNearbyURL = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"

// googleNearbyResponse is the JSON response from the Places nearby search API.
type googleNearbyResponse struct {
	Results []googleNearbyResult `json:"results"`
	Status  string               `json:"status"`
}

type googleNearbyResult struct {
	Name     string `json:"name"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Types []string `json:"types"`
}

// GoogleClient queries the Google Places nearby search API.
type GoogleClient struct {
	client
	key string
}

// NewGoogle creates a GoogleClient. An empty key yields a client whose
// Nearby always returns an empty list without touching the network.
func NewGoogle(key string, opts ...Option) *GoogleClient {
	g := &GoogleClient{client: newClient(), key: key}
	for _, opt := range opts {
		opt(&g.client)
	}
	return g
}

// Name implements Provider.
func (g *GoogleClient) Name() string { return "google" }

// Cache exposes the client's proximity cache.
func (g *GoogleClient) Cache() *ProximityCache { return g.cache }

// Nearby implements Provider. Google does not report distances, so each
// candidate's distance is computed from the returned coordinates.
func (g *GoogleClient) Nearby(ctx context.Context, point geo.Point, radius float64) ([]Candidate, error) {
	if g.key == "" {
		return nil, nil
	}

	if cached, ok := g.cache.Lookup(point, radius); ok {
		return cached, nil
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "places: google rate limit")
	}

	params := url.Values{
		"location": {fmt.Sprintf("%f,%f", point.Lat, point.Lon)},
		"radius":   {fmt.Sprintf("%.0f", radius)},
		"key":      {g.key},
	}
	reqURL := googleNearbyURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "places: google build request")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		// Transient transport failure: empty result, not cached, so the
		// next call retries.
		zap.L().Warn("google nearby request failed", zap.Error(err))
		return nil, nil
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		zap.L().Warn("google nearby returned non-200", zap.Int("status", resp.StatusCode))
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		zap.L().Warn("google nearby read body failed", zap.Error(err))
		return nil, nil
	}

	var parsed googleNearbyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		zap.L().Warn("google nearby malformed payload", zap.Error(err))
		return nil, nil
	}

	candidates := make([]Candidate, 0, len(parsed.Results))
	for _, res := range parsed.Results {
		loc := geo.NewPoint(res.Geometry.Location.Lat, res.Geometry.Location.Lng)
		candidates = append(candidates, Candidate{
			Label:          res.Name,
			Distance:       loc.Distance(point),
			Types:          res.Types,
			SuggestionType: SuggestionGoogle,
		})
	}

	// A successful-but-empty response is cached; it is a real answer.
	g.cache.Insert(point, candidates)
	return candidates, nil
}

// Verify at compile time that *GoogleClient implements Provider.
var _ Provider = (*GoogleClient)(nil)
