package places

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

// GoogleSearcher implements Searcher on the Google Places text search API.
// The first declared place type serves as the category code.
type GoogleSearcher struct {
	client *maps.Client
}

// NewGoogleSearcher creates a GoogleSearcher.
func NewGoogleSearcher(apiKey string) (*GoogleSearcher, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &GoogleSearcher{client: client}, nil
}

// Search implements Searcher.
func (g *GoogleSearcher) Search(ctx context.Context, query string) ([]Place, error) {
	resp, err := g.client.TextSearch(ctx, &maps.TextSearchRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("place text search: %w", err)
	}

	results := make([]Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		category := ""
		if len(r.Types) > 0 {
			category = r.Types[0]
		}
		results = append(results, Place{
			ID:           r.PlaceID,
			Name:         r.Name,
			CategoryCode: category,
			Lat:          r.Geometry.Location.Lat,
			Lng:          r.Geometry.Location.Lng,
		})
	}
	return results, nil
}
