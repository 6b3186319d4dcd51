// README: Chunked itinerary generator; one sequential upstream call per destination.
package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"voyage/internal/ai"
	"voyage/internal/observability"
	"voyage/internal/types"
)

type Generator struct {
	llm    ai.Completer
	routes RouteEstimator
	places AddressResolver
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Generator)

func WithRouteEstimator(r RouteEstimator) Option {
	return func(g *Generator) { g.routes = r }
}

func WithAddressResolver(r AddressResolver) Option {
	return func(g *Generator) { g.places = r }
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func NewGenerator(llm ai.Completer, cfg Config, logger *slog.Logger, opts ...Option) *Generator {
	if cfg.StartLeadDays < 0 {
		cfg.StartLeadDays = 0
	}
	g := &Generator{
		llm:    llm,
		cfg:    cfg,
		now:    time.Now,
		logger: observability.Component(logger, "itinerary"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate plans the trip chunk by chunk. The first failing chunk aborts the
// run with a *GenerationError naming its destination.
func (g *Generator) Generate(ctx context.Context, trip types.ParsedTrip, opts Options) (*types.Itinerary, error) {
	if g.llm == nil {
		return nil, ai.ErrNotConfigured
	}
	chunks, err := partition(trip)
	if err != nil {
		return nil, err
	}

	start := opts.StartDate
	if start.IsZero() {
		start = g.now().AddDate(0, 0, g.cfg.StartLeadDays)
	}
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	var days []types.Day
	for _, c := range chunks {
		chunkDays, err := g.generateChunk(ctx, trip, c, start, opts)
		if err != nil {
			g.logger.WarnContext(ctx, "chunk failed", "destination", c.Destination, "error", err)
			return nil, &GenerationError{Destination: c.Destination, Stage: StageChunk, Err: err}
		}
		g.logger.DebugContext(ctx, "chunk generated", "destination", c.Destination, "days", len(chunkDays))
		days = append(days, chunkDays...)
	}
	sort.SliceStable(days, func(i, j int) bool { return days[i].Day < days[j].Day })

	g.addTravel(ctx, days, chunks, trip.Origin)
	g.fillAddresses(ctx, days)

	names := make([]string, len(chunks))
	for i, c := range chunks {
		names[i] = c.Destination
	}
	total := chunks[len(chunks)-1].EndDay()

	return &types.Itinerary{
		Title:       fmt.Sprintf("%d-Day Adventure to %s", total, strings.Join(names, ", ")),
		Destination: strings.Join(names, ", "),
		Days:        days,
		QuickTips:   g.tips(ctx, trip, total, names, opts),
	}, nil
}

// partition splits the trip into contiguous chunks, skipping cities with no days.
func partition(trip types.ParsedTrip) ([]chunk, error) {
	var out []chunk
	next, prev := 1, ""
	for _, d := range trip.Destinations {
		if d.Duration <= 0 {
			continue
		}
		out = append(out, chunk{Destination: d.Name, Previous: prev, StartDay: next, Days: d.Duration})
		next += d.Duration
		prev = d.Name
	}
	if len(out) > 0 {
		return out, nil
	}
	if trip.UnassignedDays > 0 {
		return []chunk{{Destination: GenericDestination, StartDay: 1, Days: trip.UnassignedDays}}, nil
	}
	return nil, ErrEmptyTrip
}

func (g *Generator) generateChunk(ctx context.Context, trip types.ParsedTrip, c chunk, start time.Time, opts Options) ([]types.Day, error) {
	chunkStart := start.AddDate(0, 0, c.StartDay-1).Format(types.DateLayout)
	text, err := g.llm.Complete(ctx, ai.Request{
		SystemPrompt: chunkSystemPrompt,
		UserPrompt:   buildChunkPrompt(trip, c, chunkStart, opts),
		Format:       ai.FormatJSON,
		Operation:    "itinerary_chunk",
		Check: func(text string) error {
			_, err := parseChunk(text, c, start)
			return err
		},
	})
	if err != nil {
		return nil, err
	}
	return parseChunk(text, c, start)
}

// parseChunk decodes and validates one chunk reply. Day numbers may be local
// (1..n) or global; either way they are renumbered globally.
func parseChunk(text string, c chunk, start time.Time) ([]types.Day, error) {
	var resp chunkResponse
	if err := ai.DecodeJSON(text, &resp); err != nil {
		return nil, err
	}
	if len(resp.Days) != c.Days {
		return nil, fmt.Errorf("%w: got %d days for %s, want %d", ai.ErrMalformedOutput, len(resp.Days), c.Destination, c.Days)
	}

	global := true
	local := true
	for i, d := range resp.Days {
		if d.Day != i+1 {
			local = false
		}
		if d.Day != c.StartDay+i {
			global = false
		}
	}
	if !local && !global {
		return nil, fmt.Errorf("%w: day numbers for %s are neither 1-%d nor %d-%d",
			ai.ErrMalformedOutput, c.Destination, c.Days, c.StartDay, c.EndDay())
	}

	days := make([]types.Day, len(resp.Days))
	for i, rd := range resp.Days {
		n := c.StartDay + i
		acts := make([]types.Activity, 0, len(rd.Activities))
		for _, ra := range rd.Activities {
			a, err := types.NewActivity(ra.Time, ra.Description, ra.Category, ra.Address)
			if err != nil {
				return nil, fmt.Errorf("%w: day %d: %v", ai.ErrMalformedOutput, n, err)
			}
			acts = append(acts, a)
		}
		title := strings.TrimSpace(rd.Title)
		if title == "" {
			title = fmt.Sprintf("Day %d in %s", n, c.Destination)
		}
		days[i] = types.Day{
			Day:         n,
			Date:        start.AddDate(0, 0, n-1).Format(types.DateLayout),
			Title:       title,
			Destination: c.Destination,
			Activities:  acts,
		}
	}
	return days, nil
}

// addTravel prepends a Travel activity on the first day of every chunk that
// follows another stop (or the origin).
func (g *Generator) addTravel(ctx context.Context, days []types.Day, chunks []chunk, origin string) {
	byDay := make(map[int]int, len(days))
	for i, d := range days {
		byDay[d.Day] = i
	}
	for _, c := range chunks {
		from := c.Previous
		if from == "" {
			from = origin
		}
		if from == "" || strings.EqualFold(from, c.Destination) {
			continue
		}
		i, ok := byDay[c.StartDay]
		if !ok {
			continue
		}
		desc := fmt.Sprintf("Travel from %s to %s", from, c.Destination)
		if g.routes != nil {
			if est, err := g.routes.EstimateTravel(ctx, from, c.Destination); err == nil {
				desc += ", " + est.Describe()
			} else {
				g.logger.DebugContext(ctx, "route estimate unavailable", "from", from, "to", c.Destination, "error", err)
			}
		}
		travel := types.Activity{Time: "08:00", Description: desc, Category: types.CategoryTravel}
		days[i].Activities = append([]types.Activity{travel}, days[i].Activities...)
	}
}

func (g *Generator) fillAddresses(ctx context.Context, days []types.Day) {
	if g.places == nil || g.cfg.MaxAddressLookups <= 0 {
		return
	}
	left := g.cfg.MaxAddressLookups
	for i := range days {
		for j := range days[i].Activities {
			a := &days[i].Activities[j]
			if left == 0 {
				return
			}
			if a.Address != "" || a.Category == types.CategoryTravel || days[i].Destination == GenericDestination {
				continue
			}
			left--
			place, err := g.places.LookupAddress(ctx, a.Description, days[i].Destination)
			if err != nil {
				continue
			}
			a.Address = place.Address
		}
	}
}

// tips never fails the itinerary; any error falls back to generic advice.
func (g *Generator) tips(ctx context.Context, trip types.ParsedTrip, total int, names []string, opts Options) []string {
	text, err := g.llm.Complete(ctx, ai.Request{
		SystemPrompt: tipsSystemPrompt,
		UserPrompt:   buildTipsPrompt(trip, total, names, opts),
		Format:       ai.FormatJSON,
		Operation:    "itinerary_tips",
		Check: func(text string) error {
			return ai.DecodeJSON(text, &tipsResponse{})
		},
	})
	if err == nil {
		var resp tipsResponse
		if err = ai.DecodeJSON(text, &resp); err == nil {
			if out := cleanTips(resp.Tips); len(out) > 0 {
				return out
			}
			err = errors.New("no tips returned")
		}
	}
	g.logger.WarnContext(ctx, "tips unavailable, using fallback",
		"error", &GenerationError{Destination: strings.Join(names, ", "), Stage: StageTips, Err: err})
	return append([]string(nil), fallbackTips...)
}

func cleanTips(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
