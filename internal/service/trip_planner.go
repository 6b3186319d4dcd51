package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"voyage/internal/modules/conversation"
	"voyage/internal/modules/intent"
	"voyage/internal/modules/itinerary"
	"voyage/internal/modules/modification"
	"voyage/internal/observability"
	"voyage/internal/types"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrSessionBusy  = errors.New("session is busy with another request")
	ErrNoItinerary  = errors.New("itinerary has no days")
)

type ResponseType string

const (
	ResponseItinerary     ResponseType = "itinerary"
	ResponseClarification ResponseType = "clarification"
	ResponseConfirmation  ResponseType = "confirmation"
	ResponseInformation   ResponseType = "information"
	ResponseError         ResponseType = "error"
)

type Response struct {
	ResponseType      ResponseType         `json:"responseType"`
	Itinerary         *types.Itinerary     `json:"itinerary,omitempty"`
	Question          string               `json:"question,omitempty"`
	Message           string               `json:"message,omitempty"`
	Modification      *modification.Result `json:"modification,omitempty"`
	ConversationState *conversation.State  `json:"conversationState"`
}

// Deps are the collaborators of a TripPlanner. Generator may be nil when no
// text-generation provider is configured; trips then stop at ready.
type Deps struct {
	Store       conversation.Store
	Classifier  *intent.Classifier
	Machine     *conversation.Machine
	Generator   *itinerary.Generator
	Modifier    *modification.Engine
	Metrics     *observability.Metrics
	Logger      *slog.Logger
	LockTimeout time.Duration
}

// TripPlanner runs one conversation turn at a time per session.
type TripPlanner struct {
	store       conversation.Store
	classifier  *intent.Classifier
	machine     *conversation.Machine
	generator   *itinerary.Generator
	modifier    *modification.Engine
	metrics     *observability.Metrics
	logger      *slog.Logger
	locks       *keyedLock
	lockTimeout time.Duration
	now         func() time.Time
}

func NewTripPlanner(d Deps) *TripPlanner {
	logger := observability.Component(d.Logger, "planner")
	if d.Store == nil {
		d.Store = conversation.NewMemoryStore(0)
	}
	if d.Classifier == nil {
		d.Classifier = intent.NewClassifier(nil, intent.DefaultThreshold, d.Logger)
	}
	if d.Machine == nil {
		d.Machine = conversation.NewMachine(conversation.DefaultLimits(), d.Logger)
	}
	if d.Modifier == nil {
		d.Modifier = modification.NewEngine(modification.DefaultLimits(), d.Logger, d.Metrics)
	}
	if d.LockTimeout <= 0 {
		d.LockTimeout = 2 * time.Minute
	}
	return &TripPlanner{
		store:       d.Store,
		classifier:  d.Classifier,
		machine:     d.Machine,
		generator:   d.Generator,
		modifier:    d.Modifier,
		metrics:     d.Metrics,
		logger:      logger,
		locks:       newKeyedLock(),
		lockTimeout: d.LockTimeout,
		now:         time.Now,
	}
}

// ClassifyAndRespond handles one user message. An empty sessionID starts a
// new session; the id is returned in the conversation state.
func (p *TripPlanner) ClassifyAndRespond(ctx context.Context, text, sessionID string) (*Response, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	lockCtx, cancel := context.WithTimeout(ctx, p.lockTimeout)
	unlock, err := p.locks.Lock(lockCtx, sessionID)
	cancel()
	if err != nil {
		return nil, err
	}
	defer unlock()

	st, err := p.store.Get(ctx, sessionID)
	if errors.Is(err, conversation.ErrSessionNotFound) {
		st = conversation.NewState(sessionID, p.now())
	} else if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	st.AddTurn(conversation.RoleUser, text, "", p.now())
	userTurn := len(st.History) - 1

	resp, tag := p.respond(ctx, st, text)
	st.History[userTurn].Intent = tag
	st.AddTurn(conversation.RoleAssistant, replyText(resp), "", p.now())
	resp.ConversationState = st

	if err := p.store.Put(ctx, st); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	p.metrics.ObserveTurn(string(resp.ResponseType))
	p.logger.InfoContext(ctx, "turn handled",
		"session_id", st.SessionID,
		"intent", tag,
		"response_type", resp.ResponseType,
		"status", st.Status,
	)
	return resp, nil
}

var (
	affirmations = []string{"yes", "y", "yep", "yeah", "sure", "ok", "okay", "go ahead", "do it", "confirm", "please do"}
	negations    = []string{"no", "n", "nope", "cancel", "never mind", "nevermind", "don't", "dont", "stop"}
	retries      = []string{"try again", "retry", "again", "please try again"}
)

func respondsWith(text string, words []string) bool {
	clean := strings.ToLower(strings.Trim(strings.TrimSpace(text), ".!?"))
	for _, w := range words {
		if clean == w || strings.HasPrefix(clean, w+",") || strings.HasPrefix(clean, w+" ") {
			return true
		}
	}
	return false
}

func (p *TripPlanner) respond(ctx context.Context, st *conversation.State, text string) (*Response, string) {
	if st.PendingModification != nil {
		pending := *st.PendingModification
		st.PendingModification = nil
		switch {
		case respondsWith(text, affirmations):
			return p.commitModification(ctx, st, pending), "confirmation"
		case respondsWith(text, negations):
			return &Response{
				ResponseType: ResponseInformation,
				Message:      "Okay, I left your itinerary unchanged.",
				Itinerary:    st.Itinerary,
			}, "confirmation"
		}
	}

	if p.machine.AnswerOrigin(st, text) {
		return p.proceed(ctx, st), "origin"
	}
	if handled, err := p.machine.AnswerDuration(st, text); handled {
		if err != nil {
			return validationResponse(err), "duration"
		}
		return p.proceed(ctx, st), "duration"
	}
	if respondsWith(text, retries) && !st.HasItinerary() && p.machine.Ready(st) {
		return p.proceed(ctx, st), "retry"
	}

	res := p.classifier.Classify(ctx, text, intent.SessionContext{
		HasItinerary: st.HasItinerary(),
		Known:        st.Trip(),
	})
	tag := string(res.Type)

	switch res.Type {
	case intent.TypeModification:
		return p.modify(ctx, st, text), tag
	case intent.TypeStructured, intent.TypeAmbiguous:
		if err := p.machine.MergeTrip(st, res.Trip); err != nil {
			return validationResponse(err), tag
		}
		return p.proceed(ctx, st), tag
	}

	before := extractionKey(st)
	if err := p.machine.MergeFacts(st, res.Facts, p.now()); err != nil {
		return validationResponse(err), tag
	}
	if extractionKey(st) != before {
		return p.proceed(ctx, st), tag
	}

	reply := ""
	if res.Facts != nil {
		reply = res.Facts.Reply
	}
	if st.HasItinerary() {
		if reply == "" {
			reply = "Your itinerary is ready. Tell me what you'd like to change, for example \"add Rome for 2 days\"."
		}
		return &Response{ResponseType: ResponseInformation, Message: reply, Itinerary: st.Itinerary}, tag
	}
	resp := p.proceed(ctx, st)
	if reply != "" {
		resp.Message = reply
	}
	return resp, tag
}

// extractionKey fingerprints the trip facts so a turn can tell whether it
// learned anything new.
func extractionKey(st *conversation.State) string {
	var b strings.Builder
	for _, d := range st.Context.Destinations {
		fmt.Fprintf(&b, "%s:%d|", strings.ToLower(d.Name), d.Duration)
	}
	fmt.Fprintf(&b, "o=%s|u=%d|p=%d|c=%d", st.Context.Origin, st.Context.UnassignedDays, len(st.Context.Preferences), len(st.Context.Constraints))
	return b.String()
}

// proceed asks the next question or, when the trip is complete, generates it.
func (p *TripPlanner) proceed(ctx context.Context, st *conversation.State) *Response {
	q, err := p.machine.Advance(st)
	if err != nil {
		p.logger.ErrorContext(ctx, "advance failed", "session_id", st.SessionID, "status", st.Status, "error", err)
		return &Response{ResponseType: ResponseError, Message: "Something went wrong with this conversation. Please start a new session."}
	}
	if q != "" {
		return &Response{ResponseType: ResponseClarification, Question: q}
	}
	if p.generator == nil {
		return &Response{
			ResponseType: ResponseInformation,
			Message:      "Your trip is ready to plan: " + describeTrip(st.Trip()) + ". Itinerary generation is not configured on this server.",
		}
	}
	return p.generate(ctx, st)
}

func (p *TripPlanner) generate(ctx context.Context, st *conversation.State) *Response {
	if err := st.Transition(conversation.StatusGenerating); err != nil {
		p.logger.ErrorContext(ctx, "cannot start generation", "status", st.Status, "error", err)
		return &Response{ResponseType: ResponseError, Message: "I can't plan this trip right now. Please start a new session."}
	}
	trip := st.Trip()
	it, err := p.generator.Generate(ctx, trip, itinerary.Options{
		Preferences: st.Context.Preferences,
		Constraints: st.ConstraintTexts(),
	})
	if err != nil {
		p.logger.WarnContext(ctx, "generation failed", "session_id", st.SessionID, "error", err)
		_ = st.Transition(conversation.StatusFailed)
		_ = st.Transition(conversation.StatusGathering)
		return &Response{ResponseType: ResponseError, Message: generationMessage(err)}
	}

	st.Itinerary = it
	st.GeneratedFrom = &trip
	_ = st.Transition(conversation.StatusGenerated)
	return &Response{
		ResponseType: ResponseItinerary,
		Itinerary:    it,
		Message:      fmt.Sprintf("Here's your %s.", it.Title),
	}
}

func generationMessage(err error) string {
	var genErr *itinerary.GenerationError
	if errors.As(err, &genErr) {
		return fmt.Sprintf("I couldn't finish planning %s. Say \"try again\" to retry or adjust your trip.", genErr.Destination)
	}
	return "I couldn't plan that trip. Say \"try again\" to retry or adjust your trip."
}

func (p *TripPlanner) modify(ctx context.Context, st *conversation.State, text string) *Response {
	res := p.modifier.ApplyToItinerary(text, *st.Itinerary, st.Context.Origin, st.Context.Preferences)
	if !res.Success {
		return &Response{ResponseType: ResponseInformation, Message: res.Reason, Modification: &res, Itinerary: st.Itinerary}
	}
	if res.RequiresConfirmation {
		st.PendingModification = &res
		return &Response{ResponseType: ResponseConfirmation, Question: res.ConfirmationPrompt, Modification: &res}
	}
	return p.commitModification(ctx, st, res)
}

func (p *TripPlanner) commitModification(ctx context.Context, st *conversation.State, res modification.Result) *Response {
	if res.Preferences != nil {
		st.Context.Preferences = res.Preferences
	}
	if !res.Regenerate {
		if res.Itinerary != nil {
			st.Itinerary = res.Itinerary
		}
		return &Response{ResponseType: ResponseItinerary, Itinerary: st.Itinerary, Message: res.Changes.Summary, Modification: &res}
	}

	prev := st.Context.Destinations
	st.Context.Destinations = res.Changes.After.Clone().Destinations
	if p.generator == nil {
		return &Response{ResponseType: ResponseInformation, Message: res.Changes.Summary, Modification: &res}
	}

	if err := st.Transition(conversation.StatusGenerating); err != nil {
		st.Context.Destinations = prev
		return &Response{ResponseType: ResponseError, Message: "I can't update this itinerary right now."}
	}
	trip := st.Trip()
	opts := itinerary.Options{Preferences: st.Context.Preferences, Constraints: st.ConstraintTexts()}
	if start, ok := st.Itinerary.StartDate(); ok {
		opts.StartDate = start
	}
	it, err := p.generator.Generate(ctx, trip, opts)
	if err != nil {
		p.logger.WarnContext(ctx, "regeneration failed", "session_id", st.SessionID, "error", err)
		st.Context.Destinations = prev
		_ = st.Transition(conversation.StatusGenerated)
		return &Response{
			ResponseType: ResponseError,
			Message:      generationMessage(err) + " Your previous itinerary is unchanged.",
			Itinerary:    st.Itinerary,
		}
	}
	st.Itinerary = it
	st.GeneratedFrom = &trip
	_ = st.Transition(conversation.StatusGenerated)
	return &Response{ResponseType: ResponseItinerary, Itinerary: it, Message: res.Changes.Summary, Modification: &res}
}

// ApplyModification runs the modification pipeline against an itinerary
// outside of any session. When the change needs a new itinerary body and
// no confirmation, the itinerary is regenerated as well; a failed
// regeneration returns the result together with its *itinerary.GenerationError.
// A malformed itinerary is rejected with a *types.ValidationError.
func (p *TripPlanner) ApplyModification(ctx context.Context, text string, it types.Itinerary) (modification.Result, error) {
	if strings.TrimSpace(text) == "" {
		return modification.Result{}, ErrEmptyMessage
	}
	if len(it.Days) == 0 {
		return modification.Result{}, ErrNoItinerary
	}
	if err := it.Validate(); err != nil {
		return modification.Result{}, err
	}
	res := p.modifier.ApplyToItinerary(text, it, "", nil)
	if !res.Success || !res.Regenerate || res.RequiresConfirmation || p.generator == nil {
		return res, nil
	}

	opts := itinerary.Options{Preferences: res.Preferences}
	if start, ok := it.StartDate(); ok {
		opts.StartDate = start
	}
	regenerated, err := p.generator.Generate(ctx, res.Changes.After, opts)
	if err != nil {
		p.logger.WarnContext(ctx, "stateless regeneration failed", "error", err)
		return res, err
	}
	res.Itinerary = regenerated
	return res, nil
}

// Session returns the stored state for id.
func (p *TripPlanner) Session(ctx context.Context, id string) (*conversation.State, error) {
	return p.store.Get(ctx, id)
}

// ClearSession forgets a session. Clearing an unknown id is not an error.
func (p *TripPlanner) ClearSession(ctx context.Context, id string) error {
	unlock, err := p.locks.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()
	return p.store.Delete(ctx, id)
}

func validationResponse(err error) *Response {
	var verr *types.ValidationError
	if errors.As(err, &verr) {
		return &Response{ResponseType: ResponseClarification, Question: verr.Reason}
	}
	return &Response{ResponseType: ResponseError, Message: err.Error()}
}

func replyText(r *Response) string {
	switch {
	case r.Question != "" && r.Message != "":
		return r.Message + " " + r.Question
	case r.Question != "":
		return r.Question
	default:
		return r.Message
	}
}

func describeTrip(t types.ParsedTrip) string {
	parts := make([]string, len(t.Destinations))
	for i, d := range t.Destinations {
		parts[i] = fmt.Sprintf("%s (%d days)", d.Name, d.Duration)
	}
	return strings.Join(parts, ", ")
}
