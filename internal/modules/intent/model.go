// README: Intent classification results and the session view the classifier reads.
package intent

import (
	"voyage/internal/ai"
	"voyage/internal/modules/modification"
	"voyage/internal/types"
)

type Type string

const (
	TypeModification   Type = "modification"
	TypeStructured     Type = "structured"
	TypeAmbiguous      Type = "ambiguous"
	TypeConversational Type = "conversational"
)

// Missing names the trip field a targeted question asks for.
type Missing string

const (
	MissingNone         Missing = ""
	MissingDestinations Missing = "destinations"
	MissingDuration     Missing = "duration"
)

// DefaultThreshold is the minimum confidence a non-fallback strategy needs.
const DefaultThreshold = 0.65

// SessionContext is what the classifier may know about the conversation so far.
type SessionContext struct {
	HasItinerary bool
	Known        types.ParsedTrip
}

type Result struct {
	Type       Type
	Confidence float64
	Strategy   string

	// Trip is set for structured and ambiguous matches.
	Trip types.ParsedTrip
	// Modification is set for modification matches.
	Modification *modification.Request
	// Facts is set by the conversational fallback when the extraction call succeeded.
	Facts *ai.Facts

	Question string
	Missing  Missing
}
