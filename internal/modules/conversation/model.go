// README: Conversation state aggregate and status definitions.
package conversation

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"voyage/internal/modules/modification"
	"voyage/internal/types"
)

type Status string

const (
	StatusGathering  Status = "gathering"
	StatusClarifying Status = "clarifying"
	StatusReady      Status = "ready"
	StatusGenerating Status = "generating"
	StatusGenerated  Status = "generated"
	StatusFailed     Status = "failed"
)

// AllowedTransitions is the session status flow as code. Staying in the same
// status is always allowed.
var AllowedTransitions = map[Status][]Status{
	StatusGathering:  {StatusClarifying, StatusReady},
	StatusClarifying: {StatusGathering, StatusReady},
	StatusReady:      {StatusGenerating, StatusClarifying, StatusGathering},
	StatusGenerating: {StatusGenerated, StatusFailed},
	StatusGenerated:  {StatusGenerating, StatusClarifying, StatusReady, StatusGathering},
	StatusFailed:     {StatusGathering},
}

var ErrInvalidTransition = errors.New("invalid conversation transition")

func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Pending fields name what the last question asked for.
const (
	FieldDestinations = "destinations"
	FieldDuration     = "duration"
	FieldOrigin       = "origin"
)

type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Intent    string    `json:"intent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Constraint struct {
	Description string    `json:"description"`
	AddedAt     time.Time `json:"addedAt"`
}

// Context holds the trip facts gathered so far. Destinations keep their
// mention order and carry 0 days until a duration is known.
type Context struct {
	Destinations   []types.ParsedDestination `json:"destinations"`
	Origin         string                    `json:"origin,omitempty"`
	Preferences    map[string]string         `json:"preferences"`
	Constraints    []Constraint              `json:"constraints"`
	UnassignedDays int                       `json:"unassignedDays,omitempty"`
}

type Metadata struct {
	MessageCount int       `json:"messageCount"`
	StartTime    time.Time `json:"startTime"`
	LastActivity time.Time `json:"lastActivity"`
}

type State struct {
	SessionID string   `json:"sessionId"`
	Status    Status   `json:"status"`
	Context   Context  `json:"context"`
	History   []Turn   `json:"history"`
	Metadata  Metadata `json:"metadata"`

	PendingQuestion string `json:"pendingQuestion,omitempty"`
	PendingField    string `json:"pendingField,omitempty"`
	// OriginAsked is set once the origin question has been asked; it is never asked twice.
	OriginAsked bool `json:"originAsked"`

	// PendingModification waits for the user's yes or no.
	PendingModification *modification.Result `json:"pendingModification,omitempty"`

	Itinerary *types.Itinerary `json:"itinerary,omitempty"`
	// GeneratedFrom is the trip snapshot the itinerary was built from.
	GeneratedFrom *types.ParsedTrip `json:"generatedFrom,omitempty"`
}

// NewState starts an empty session. An empty id gets a fresh UUID.
func NewState(id string, now time.Time) *State {
	if id == "" {
		id = uuid.NewString()
	}
	return &State{
		SessionID: id,
		Status:    StatusGathering,
		Context: Context{
			Destinations: []types.ParsedDestination{},
			Preferences:  map[string]string{},
			Constraints:  []Constraint{},
		},
		History:  []Turn{},
		Metadata: Metadata{StartTime: now, LastActivity: now},
	}
}

// Trip returns the gathered context as a ParsedTrip.
func (s *State) Trip() types.ParsedTrip {
	t := types.NewParsedTrip(s.Context.Destinations, s.Context.Origin)
	t.UnassignedDays = s.Context.UnassignedDays
	return t
}

// AddTurn appends to the history. Only user turns count as messages.
func (s *State) AddTurn(role Role, content, intent string, now time.Time) {
	s.History = append(s.History, Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Intent:    intent,
		Timestamp: now,
	})
	if role == RoleUser {
		s.Metadata.MessageCount++
	}
	s.Metadata.LastActivity = now
}

// Transition moves the session to status to.
func (s *State) Transition(to Status) error {
	if !CanTransition(s.Status, to) {
		return ErrInvalidTransition
	}
	s.Status = to
	return nil
}

func (s *State) SetQuestion(q, field string) {
	s.PendingQuestion, s.PendingField = q, field
}

func (s *State) ClearQuestion() {
	s.PendingQuestion, s.PendingField = "", ""
}

func (s *State) HasItinerary() bool {
	return s.Itinerary != nil && len(s.Itinerary.Days) > 0
}

// ConstraintTexts returns the constraint descriptions in order.
func (s *State) ConstraintTexts() []string {
	out := make([]string, len(s.Context.Constraints))
	for i, c := range s.Context.Constraints {
		out[i] = c.Description
	}
	return out
}
