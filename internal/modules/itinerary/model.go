// README: Itinerary generation options, chunk plan and the generation error.
package itinerary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voyage/internal/maps"
)

// GenericDestination names the single chunk of a trip that has days but no city yet.
const GenericDestination = "Your Destination"

var ErrEmptyTrip = errors.New("trip has no days to plan")

type Stage string

const (
	StageChunk Stage = "chunk"
	StageTips  Stage = "tips"
)

// GenerationError reports the chunk that stopped generation. It unwraps to the
// upstream cause so callers can test for ai.ErrTimeout and friends.
type GenerationError struct {
	Destination string
	Stage       Stage
	Err         error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s for %s: %v", e.Stage, e.Destination, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Options carry the per-request inputs beyond the trip itself.
type Options struct {
	// StartDate defaults to today plus the configured lead.
	StartDate   time.Time
	Preferences map[string]string
	Constraints []string
}

type Config struct {
	StartLeadDays int
	// MaxAddressLookups bounds Places calls per itinerary; 0 disables them.
	MaxAddressLookups int
}

func DefaultConfig() Config {
	return Config{StartLeadDays: 1, MaxAddressLookups: 0}
}

// RouteEstimator estimates ground travel between consecutive cities.
type RouteEstimator interface {
	EstimateTravel(ctx context.Context, from, to string) (maps.TravelEstimate, error)
}

// AddressResolver fills in a street address for an activity venue.
type AddressResolver interface {
	LookupAddress(ctx context.Context, venue, city string) (maps.Place, error)
}

// chunk is one contiguous run of days in a single destination.
type chunk struct {
	Destination string
	Previous    string
	StartDay    int
	Days        int
}

func (c chunk) EndDay() int { return c.StartDay + c.Days - 1 }

// raw model output
type chunkResponse struct {
	Days []rawDay `json:"days"`
}

type rawDay struct {
	Day        int           `json:"day"`
	Title      string        `json:"title"`
	Activities []rawActivity `json:"activities"`
}

type rawActivity struct {
	Time        string `json:"time"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Address     string `json:"address"`
}

type tipsResponse struct {
	Tips []string `json:"tips"`
}
