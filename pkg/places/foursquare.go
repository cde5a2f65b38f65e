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

const foursquareSearchURL = "https://api.foursquare.com/v3/places/search"

// foursquareSearchResponse is the JSON response from the place search API.
type foursquareSearchResponse struct {
	Results []foursquareResult `json:"results"`
}

type foursquareResult struct {
	Name       string  `json:"name"`
	Distance   float64 `json:"distance"`
	Categories []struct {
		Name string `json:"name"`
	} `json:"categories"`
}

// FoursquareClient queries the Foursquare place search API.
type FoursquareClient struct {
	client
	key string
}

// NewFoursquare creates a FoursquareClient. An empty key yields a client
// whose Nearby always returns an empty list without touching the network.
func NewFoursquare(key string, opts ...Option) *FoursquareClient {
	f := &FoursquareClient{client: newClient(), key: key}
	for _, opt := range opts {
		opt(&f.client)
	}
	return f
}

// Name implements Provider.
func (f *FoursquareClient) Name() string { return "foursquare" }

// Cache exposes the client's proximity cache.
func (f *FoursquareClient) Cache() *ProximityCache { return f.cache }

// Nearby implements Provider. Foursquare reports per-result distances
// directly, so they are taken verbatim from the response.
func (f *FoursquareClient) Nearby(ctx context.Context, point geo.Point, radius float64) ([]Candidate, error) {
	if f.key == "" {
		return nil, nil
	}

	if cached, ok := f.cache.Lookup(point, radius); ok {
		return cached, nil
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "places: foursquare rate limit")
	}

	params := url.Values{
		"ll":     {fmt.Sprintf("%f,%f", point.Lat, point.Lon)},
		"radius": {fmt.Sprintf("%.0f", radius)},
	}
	reqURL := foursquareSearchURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "places: foursquare build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", f.key)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		zap.L().Warn("foursquare search request failed", zap.Error(err))
		return nil, nil
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		zap.L().Warn("foursquare search returned non-200", zap.Int("status", resp.StatusCode))
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		zap.L().Warn("foursquare search read body failed", zap.Error(err))
		return nil, nil
	}

	var parsed foursquareSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		zap.L().Warn("foursquare search malformed payload", zap.Error(err))
		return nil, nil
	}

	candidates := make([]Candidate, 0, len(parsed.Results))
	for _, res := range parsed.Results {
		categories := make([]string, 0, len(res.Categories))
		for _, c := range res.Categories {
			categories = append(categories, c.Name)
		}
		candidates = append(candidates, Candidate{
			Label:          res.Name,
			Distance:       res.Distance,
			Types:          categories,
			SuggestionType: SuggestionFoursquare,
		})
	}

	f.cache.Insert(point, candidates)
	return candidates, nil
}

// Verify at compile time that *FoursquareClient implements Provider.
var _ Provider = (*FoursquareClient)(nil)
