// README: Generator tests (chunk ordering, travel days, fail-fast, tips fallback).
package itinerary_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyage/internal/ai"
	"voyage/internal/ai/aitest"
	"voyage/internal/maps"
	"voyage/internal/modules/itinerary"
	"voyage/internal/observability"
	"voyage/internal/types"
)

var fixedNow = time.Date(2026, 11, 1, 15, 30, 0, 0, time.UTC)

func chunkJSON(t *testing.T, firstDay, n int, city string) string {
	t.Helper()
	type act struct {
		Time        string `json:"time"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Address     string `json:"address"`
	}
	type day struct {
		Day        int    `json:"day"`
		Title      string `json:"title"`
		Activities []act  `json:"activities"`
	}
	var days []day
	for i := 0; i < n; i++ {
		days = append(days, day{
			Day:   firstDay + i,
			Title: fmt.Sprintf("%s day %d", city, i+1),
			Activities: []act{
				{Time: "09:00", Description: "Walk around " + city, Category: "sightseeing"},
				{Time: "13:00", Description: "Lunch in " + city, Category: "Food"},
			},
		})
	}
	b, err := json.Marshal(map[string]any{"days": days})
	require.NoError(t, err)
	return string(b)
}

func parisRome() types.ParsedTrip {
	return types.NewParsedTrip([]types.ParsedDestination{
		{Name: "Paris", Duration: 3},
		{Name: "Rome", Duration: 2},
	}, "")
}

func newGenerator(llm ai.Completer, opts ...itinerary.Option) *itinerary.Generator {
	opts = append(opts, itinerary.WithClock(func() time.Time { return fixedNow }))
	return itinerary.NewGenerator(llm, itinerary.DefaultConfig(), observability.Discard(), opts...)
}

func TestGenerateChunkedTrip(t *testing.T) {
	llm := aitest.Scripted(
		aitest.Reply{Text: chunkJSON(t, 1, 3, "Paris")},
		aitest.Reply{Text: chunkJSON(t, 1, 2, "Rome")},
		aitest.Reply{Text: `{"tips":["Carry water.","Validate train tickets."]}`},
	)

	it, err := newGenerator(llm).Generate(context.Background(), parisRome(), itinerary.Options{})
	require.NoError(t, err)

	require.Len(t, it.Days, 5)
	assert.Equal(t, "5-Day Adventure to Paris, Rome", it.Title)
	for i, d := range it.Days {
		assert.Equal(t, i+1, d.Day)
	}
	assert.Equal(t, "2026-11-02", it.Days[0].Date, "starts the day after today")
	assert.Equal(t, "2026-11-06", it.Days[4].Date)
	assert.Equal(t, "Paris", it.Days[2].Destination)
	assert.Equal(t, "Rome", it.Days[3].Destination)

	first := it.Days[3].Activities[0]
	assert.Equal(t, types.CategoryTravel, first.Category)
	assert.Contains(t, first.Description, "Paris")
	assert.Contains(t, first.Description, "Rome")
	assert.NotEqual(t, types.CategoryTravel, it.Days[0].Activities[0].Category)

	assert.Equal(t, types.CategoryLeisure, it.Days[0].Activities[0].Category, "synonyms normalised")
	assert.Equal(t, []string{"Carry water.", "Validate train tickets."}, it.QuickTips)
	require.NoError(t, it.Validate())

	assert.Equal(t, 2, llm.CallsFor("itinerary_chunk"))
	calls := llm.Calls()
	assert.Contains(t, calls[1].UserPrompt, "days 4-5")
	assert.Contains(t, calls[1].UserPrompt, "Rome")
	assert.Equal(t, ai.FormatJSON, calls[0].Format)
}

func TestGenerateAcceptsGlobalDayNumbers(t *testing.T) {
	llm := aitest.Scripted(
		aitest.Reply{Text: chunkJSON(t, 1, 3, "Paris")},
		aitest.Reply{Text: chunkJSON(t, 4, 2, "Rome")},
		aitest.Reply{Text: `{"tips":["x"]}`},
	)
	it, err := newGenerator(llm).Generate(context.Background(), parisRome(), itinerary.Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, it.Days[3].Day)
}

func TestGenerateFailsFastNamingDestination(t *testing.T) {
	upstream := &ai.UpstreamError{Provider: "test", StatusCode: 429, Kind: ai.ErrRateLimited, Err: errors.New("quota")}
	llm := aitest.Scripted(
		aitest.Reply{Text: chunkJSON(t, 1, 3, "Paris")},
		aitest.Reply{Err: upstream},
	)

	it, err := newGenerator(llm).Generate(context.Background(), parisRome(), itinerary.Options{})
	require.Error(t, err)
	assert.Nil(t, it)

	var genErr *itinerary.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "Rome", genErr.Destination)
	assert.Equal(t, itinerary.StageChunk, genErr.Stage)
	assert.ErrorIs(t, err, ai.ErrRateLimited)
	assert.Equal(t, 0, llm.CallsFor("itinerary_tips"), "no further calls after a failure")
}

func TestGenerateRejectsWrongDayCount(t *testing.T) {
	llm := aitest.Scripted(aitest.Reply{Text: chunkJSON(t, 1, 1, "Paris")})

	_, err := newGenerator(llm).Generate(context.Background(), parisRome(), itinerary.Options{})
	assert.ErrorIs(t, err, ai.ErrMalformedOutput)
	var genErr *itinerary.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "Paris", genErr.Destination)
}

func TestGenerateRejectsUnknownCategory(t *testing.T) {
	bad := `{"days":[{"day":1,"title":"x","activities":[{"time":"09:00","description":"Nap","category":"Sleeping"}]}]}`
	trip := types.NewParsedTrip([]types.ParsedDestination{{Name: "Oslo", Duration: 1}}, "")
	llm := aitest.Scripted(aitest.Reply{Text: bad})

	_, err := newGenerator(llm).Generate(context.Background(), trip, itinerary.Options{})
	assert.ErrorIs(t, err, ai.ErrMalformedOutput)
}

func TestGenerateTipsFallback(t *testing.T) {
	trip := types.NewParsedTrip([]types.ParsedDestination{{Name: "Oslo", Duration: 2}}, "")
	llm := aitest.Scripted(
		aitest.Reply{Text: chunkJSON(t, 1, 2, "Oslo")},
		aitest.Reply{Err: ai.ErrTimeout},
	)

	it, err := newGenerator(llm).Generate(context.Background(), trip, itinerary.Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, it.QuickTips)
	assert.Equal(t, "2-Day Adventure to Oslo", it.Title)
}

func TestGenerateGenericDestination(t *testing.T) {
	trip := types.ParsedTrip{Destinations: []types.ParsedDestination{}, UnassignedDays: 2}
	llm := aitest.Scripted(
		aitest.Reply{Text: chunkJSON(t, 1, 2, "anywhere")},
		aitest.Reply{Text: `{"tips":["x"]}`},
	)

	it, err := newGenerator(llm).Generate(context.Background(), trip, itinerary.Options{})
	require.NoError(t, err)
	assert.Equal(t, itinerary.GenericDestination, it.Days[0].Destination)
	assert.Equal(t, "2-Day Adventure to Your Destination", it.Title)
	calls := llm.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "itinerary_tips", calls[1].Operation)
	assert.Contains(t, calls[1].UserPrompt, "Trip: 2 days visiting Your Destination")
}

func TestGenerateEmptyTrip(t *testing.T) {
	_, err := newGenerator(aitest.Scripted()).Generate(context.Background(), types.ParsedTrip{}, itinerary.Options{})
	assert.ErrorIs(t, err, itinerary.ErrEmptyTrip)
}

type fakeRoutes struct{ calls []string }

func (f *fakeRoutes) EstimateTravel(_ context.Context, from, to string) (maps.TravelEstimate, error) {
	f.calls = append(f.calls, from+">"+to)
	if from == "London" {
		return maps.TravelEstimate{}, maps.ErrNoRoute
	}
	return maps.TravelEstimate{Duration: 2 * time.Hour, Distance: "300 km"}, nil
}

func TestGenerateTravelFromOriginAndEstimates(t *testing.T) {
	trip := parisRome()
	trip.Origin = "London"
	routes := &fakeRoutes{}
	llm := aitest.Scripted(
		aitest.Reply{Text: chunkJSON(t, 1, 3, "Paris")},
		aitest.Reply{Text: chunkJSON(t, 1, 2, "Rome")},
		aitest.Reply{Text: `{"tips":["x"]}`},
	)

	it, err := newGenerator(llm, itinerary.WithRouteEstimator(routes)).Generate(context.Background(), trip, itinerary.Options{
		StartDate:   time.Date(2027, 3, 10, 0, 0, 0, 0, time.UTC),
		Preferences: map[string]string{"style": "more relaxed"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Travel from London to Paris", it.Days[0].Activities[0].Description)
	assert.Equal(t, "Travel from Paris to Rome, about 2h by road (300 km)", it.Days[3].Activities[0].Description)
	assert.Equal(t, "2027-03-10", it.Days[0].Date)
	assert.Equal(t, []string{"London>Paris", "Paris>Rome"}, routes.calls)
	assert.True(t, strings.Contains(llm.Calls()[0].UserPrompt, "style: more relaxed"))
}

type fakePlaces struct{ n int }

func (f *fakePlaces) LookupAddress(_ context.Context, venue, city string) (maps.Place, error) {
	f.n++
	return maps.Place{Address: "1 Main St, " + city}, nil
}

func TestGenerateFillsAddressesUpToLimit(t *testing.T) {
	trip := types.NewParsedTrip([]types.ParsedDestination{{Name: "Oslo", Duration: 2}}, "")
	llm := aitest.Scripted(
		aitest.Reply{Text: chunkJSON(t, 1, 2, "Oslo")},
		aitest.Reply{Text: `{"tips":["x"]}`},
	)
	places := &fakePlaces{}
	cfg := itinerary.DefaultConfig()
	cfg.MaxAddressLookups = 3

	it, err := itinerary.NewGenerator(llm, cfg, observability.Discard(), itinerary.WithAddressResolver(places)).
		Generate(context.Background(), trip, itinerary.Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, places.n)
	assert.Equal(t, "1 Main St, Oslo", it.Days[0].Activities[0].Address)
	assert.Empty(t, it.Days[1].Activities[1].Address)
}
