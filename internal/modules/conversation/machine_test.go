// README: State machine tests (merge rules, readiness, questions, transitions).
package conversation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyage/internal/ai"
	"voyage/internal/modules/extraction"
	"voyage/internal/observability"
	"voyage/internal/types"
)

var t0 = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func newMachine() *Machine {
	return NewMachine(DefaultLimits(), observability.Discard())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusGathering, StatusClarifying))
	assert.True(t, CanTransition(StatusReady, StatusGenerating))
	assert.True(t, CanTransition(StatusGenerating, StatusFailed))
	assert.True(t, CanTransition(StatusFailed, StatusGathering))
	assert.True(t, CanTransition(StatusClarifying, StatusClarifying))
	assert.False(t, CanTransition(StatusGathering, StatusGenerated))
	assert.False(t, CanTransition(StatusFailed, StatusReady))
	assert.False(t, CanTransition(StatusGenerating, StatusReady))

	st := NewState("s1", t0)
	assert.ErrorIs(t, st.Transition(StatusGenerated), ErrInvalidTransition)
	assert.Equal(t, StatusGathering, st.Status)
}

func TestMergeAccumulatesAcrossTurns(t *testing.T) {
	m := newMachine()
	st := NewState("s1", t0)

	require.NoError(t, m.MergeTrip(st, extraction.Extract("I want to visit Paris and Rome")))
	q, field := m.NextQuestion(st)
	assert.Equal(t, FieldDuration, field)
	assert.Equal(t, "How many days would you like to spend in each of Paris and Rome?", q)

	require.NoError(t, m.MergeTrip(st, extraction.Extract("3 days in Paris")))
	require.NoError(t, m.MergeTrip(st, extraction.Extract("Rome for 2 days")))

	trip := st.Trip()
	assert.Equal(t, []string{"Paris", "Rome"}, trip.Names())
	assert.Equal(t, 5, trip.TotalDays)
	assert.True(t, m.Ready(st))
}

func TestMergeLatestWinsAndZeroNeverOverwrites(t *testing.T) {
	m := newMachine()
	st := NewState("s1", t0)

	require.NoError(t, m.MergeTrip(st, extraction.Extract("5 days in Paris")))
	require.NoError(t, m.MergeTrip(st, extraction.Extract("actually let's go to paris")))
	assert.Equal(t, 5, st.Context.Destinations[0].Duration, "zero duration must not overwrite")

	require.NoError(t, m.MergeTrip(st, extraction.Extract("make that 4 days in Paris")))
	require.Len(t, st.Context.Destinations, 1)
	assert.Equal(t, 4, st.Context.Destinations[0].Duration)
}

func TestMergePartialNameMatch(t *testing.T) {
	m := newMachine()
	st := NewState("s1", t0)

	require.NoError(t, m.MergeTrip(st, types.NewParsedTrip([]types.ParsedDestination{{Name: "New York City", Duration: 0}}, "")))
	require.NoError(t, m.MergeTrip(st, types.NewParsedTrip([]types.ParsedDestination{{Name: "new york", Duration: 4}}, "")))

	require.Len(t, st.Context.Destinations, 1)
	assert.Equal(t, "New York City", st.Context.Destinations[0].Name)
	assert.Equal(t, 4, st.Context.Destinations[0].Duration)
}

func TestMergeKeepsNiceAndVeniceApart(t *testing.T) {
	m := newMachine()
	st := NewState("s1", t0)

	require.NoError(t, m.MergeTrip(st, extraction.Extract("3 days in Nice")))
	require.NoError(t, m.MergeTrip(st, extraction.Extract("2 days in Venice")))

	require.Len(t, st.Context.Destinations, 2)
	assert.Equal(t, "Nice", st.Context.Destinations[0].Name)
	assert.Equal(t, "Venice", st.Context.Destinations[1].Name)
	assert.Equal(t, 5, st.Trip().TotalDays)
}

func TestUnassignedDaysFillLater(t *testing.T) {
	m := newMachine()
	st := NewState("s1", t0)

	require.NoError(t, m.MergeTrip(st, extraction.Extract("I have a week off")))
	assert.Equal(t, 7, st.Context.UnassignedDays)
	q, field := m.NextQuestion(st)
	assert.Equal(t, FieldDestinations, field)
	assert.Equal(t, "Where would you like to spend your 7 days?", q)

	require.NoError(t, m.MergeTrip(st, extraction.Extract("I want to go to Lisbon")))
	assert.Equal(t, 7, st.Context.Destinations[0].Duration)
	assert.Zero(t, st.Context.UnassignedDays)
	assert.Equal(t, 7, st.Trip().TotalDays)
}

func TestUnassignedDaysRestateSingleDestination(t *testing.T) {
	m := newMachine()
	st := NewState("s1", t0)

	require.NoError(t, m.MergeTrip(st, extraction.Extract("5 days in Paris")))
	require.NoError(t, m.MergeTrip(st, extraction.Extract("let's make it 8 days")))
	assert.Equal(t, 8, st.Context.Destinations[0].Duration)
}

func TestPlanningLimits(t *testing.T) {
	m := newMachine()
	st := NewState("s1", t0)

	err := m.MergeTrip(st, extraction.Extract("45 days in Tokyo"))
	var verr *types.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "duration", verr.Field)
	assert.Empty(t, st.Context.Destinations, "state untouched on failure")

	require.NoError(t, m.MergeTrip(st, extraction.Extract("20 days in Tokyo")), "planning cap is 30, not 15")

	five := types.NewParsedTrip([]types.ParsedDestination{
		{Name: "Osaka"}, {Name: "Kyoto"}, {Name: "Nara"}, {Name: "Kobe"},
	}, "")
	require.NoError(t, m.MergeTrip(st, five))
	err = m.MergeTrip(st, types.NewParsedTrip([]types.ParsedDestination{{Name: "Sapporo"}}, ""))
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "destinations", verr.Field)
	assert.Len(t, st.Context.Destinations, 5)
}

func TestOriginAskedOnce(t *testing.T) {
	m := newMachine()
	st := NewState("s1", t0)
	require.NoError(t, m.MergeTrip(st, extraction.Extract("5 days in Paris")))

	q, err := m.Advance(st)
	require.NoError(t, err)
	assert.Equal(t, OriginQuestion, q)
	assert.Equal(t, StatusClarifying, st.Status)
	assert.Equal(t, FieldOrigin, st.PendingField)

	assert.True(t, m.AnswerOrigin(st, "skip"))
	assert.Empty(t, st.Context.Origin)

	q, err = m.Advance(st)
	require.NoError(t, err)
	assert.Empty(t, q, "origin is never asked twice")
	assert.Equal(t, StatusReady, st.Status)
}

func TestAnswerOriginBareCity(t *testing.T) {
	m := newMachine()
	st := NewState("s1", t0)
	st.SetQuestion(OriginQuestion, FieldOrigin)

	assert.True(t, m.AnswerOrigin(st, "london"))
	assert.Equal(t, "London", st.Context.Origin)
	assert.Empty(t, st.PendingField)

	st.SetQuestion(OriginQuestion, FieldOrigin)
	assert.True(t, m.AnswerOrigin(st, "from New York"))
	assert.Equal(t, "New York", st.Context.Origin)

	st.SetQuestion(OriginQuestion, FieldOrigin)
	assert.False(t, m.AnswerOrigin(st, "actually add 3 days in Rome too"))
}

func TestAnswerDuration(t *testing.T) {
	m := newMachine()
	st := NewState("s1", t0)
	require.NoError(t, m.MergeTrip(st, extraction.Extract("I want to go to Barcelona")))
	_, err := m.Advance(st)
	require.NoError(t, err)
	require.Equal(t, FieldDuration, st.PendingField)

	ok, err := m.AnswerDuration(st, "four")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, st.Trip().TotalDays)
}

func TestMergeFacts(t *testing.T) {
	m := newMachine()
	st := NewState("s1", t0)
	facts := &ai.Facts{
		Destinations: []ai.FactDestination{{Name: "Kyoto", Days: 4}},
		Origin:       "Tokyo",
		Preferences:  map[string]string{"Pace": "slow"},
		Constraints:  []string{"no flights", "No flights"},
	}

	require.NoError(t, m.MergeFacts(st, facts, t0))
	assert.Equal(t, "Kyoto", st.Context.Destinations[0].Name)
	assert.Equal(t, "Tokyo", st.Context.Origin)
	assert.Equal(t, "slow", st.Context.Preferences["pace"])
	assert.Equal(t, []string{"no flights"}, st.ConstraintTexts())
}

func TestFailedReturnsToGathering(t *testing.T) {
	m := newMachine()
	st := NewState("s1", t0)
	require.NoError(t, m.MergeTrip(st, extraction.Extract("5 days in Paris from London")))
	_, err := m.Advance(st)
	require.NoError(t, err)
	require.NoError(t, st.Transition(StatusGenerating))
	require.NoError(t, st.Transition(StatusFailed))

	_, err = m.Advance(st)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, st.Status)
}

func TestAddTurnCountsUserMessages(t *testing.T) {
	st := NewState("", t0)
	assert.NotEmpty(t, st.SessionID)

	st.AddTurn(RoleUser, "hi", "conversational", t0.Add(time.Minute))
	st.AddTurn(RoleAssistant, "Where would you like to go?", "", t0.Add(time.Minute))

	assert.Len(t, st.History, 2)
	assert.Equal(t, 1, st.Metadata.MessageCount)
	assert.Equal(t, t0.Add(time.Minute), st.Metadata.LastActivity)
	assert.NotEqual(t, st.History[0].ID, st.History[1].ID)
}
