package maps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"
)

// ErrNoPlace is returned when a text search has no usable result.
var ErrNoPlace = errors.New("no matching place")

// minRating drops poorly rated matches; unrated places are kept.
const minRating = 3.5

type Place struct {
	Name    string
	Address string
	Rating  float32
	PlaceID string
}

// PlacesService resolves activity venues to street addresses through the
// Places text search.
type PlacesService struct {
	client *maps.Client
}

func NewPlacesService(apiKey string) (*PlacesService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &PlacesService{client: client}, nil
}

// LookupAddress finds the best match for venue in city.
func (s *PlacesService) LookupAddress(ctx context.Context, venue, city string) (Place, error) {
	query := strings.TrimSpace(venue)
	if query == "" {
		return Place{}, ErrNoPlace
	}
	if city != "" && !containsIgnoreCase(query, city) {
		query = fmt.Sprintf("%s, %s", query, city)
	}

	resp, err := s.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query:    query,
		Language: "en",
	})
	if err != nil {
		return Place{}, fmt.Errorf("places api error: %w", err)
	}

	for _, result := range resp.Results {
		if result.Rating > 0 && result.Rating < minRating {
			continue
		}
		if result.FormattedAddress == "" {
			continue
		}
		return Place{
			Name:    result.Name,
			Address: result.FormattedAddress,
			Rating:  result.Rating,
			PlaceID: result.PlaceID,
		}, nil
	}
	return Place{}, ErrNoPlace
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
