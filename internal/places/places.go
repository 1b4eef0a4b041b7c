// Package places wraps the external place-search provider that classifies a
// store into a category code. The engine only consumes the Searcher contract;
// resolution quality and geosearch belong to the provider.
package places

import "context"

// Place is one candidate store returned by the provider.
type Place struct {
	ID           string  `json:"id"`
	Name         string  `json:"place_name"`
	CategoryCode string  `json:"category_code"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
}

// Searcher resolves a free-text store query into candidate places. An empty
// result slice means no candidates; callers treat that as "nothing to match",
// not as an error.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Place, error)
}
