package maps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"googlemaps.github.io/maps"
)

// ErrNoRoute is returned when Directions has no leg between the two places.
var ErrNoRoute = errors.New("no route found")

// TravelEstimate is a single-leg ground estimate between two cities.
type TravelEstimate struct {
	Duration time.Duration
	Distance string
}

// Describe renders the estimate for an activity line, e.g. "about 2h 50m by road (286 km)".
func (e TravelEstimate) Describe() string {
	d := e.Duration.Round(10 * time.Minute)
	h, m := int(d.Hours()), int(d.Minutes())%60
	var span string
	switch {
	case h == 0:
		span = fmt.Sprintf("%dm", m)
	case m == 0:
		span = fmt.Sprintf("%dh", h)
	default:
		span = fmt.Sprintf("%dh %dm", h, m)
	}
	if e.Distance == "" {
		return fmt.Sprintf("about %s by road", span)
	}
	return fmt.Sprintf("about %s by road (%s)", span, e.Distance)
}

// RouteService wraps the Google Maps Directions API.
type RouteService struct {
	client *maps.Client
}

func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// EstimateTravel returns the driving time and distance between two cities.
func (s *RouteService) EstimateTravel(ctx context.Context, from, to string) (TravelEstimate, error) {
	r := &maps.DirectionsRequest{
		Origin:      from,
		Destination: to,
		Mode:        maps.TravelModeDriving,
		Language:    "en",
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return TravelEstimate{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return TravelEstimate{}, ErrNoRoute
	}

	leg := routes[0].Legs[0]
	return TravelEstimate{Duration: leg.Duration, Distance: leg.Distance.HumanReadable}, nil
}
