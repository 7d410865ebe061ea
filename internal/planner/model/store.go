package model

import "context"

// ConversationStore persists the full TripState of a conversation. The engine
// saves after every step so a suspended conversation can resume from exactly
// where it stopped, possibly from another process.
type ConversationStore interface {
	// Load returns the stored state, or (nil, nil) when the conversation is
	// unknown.
	Load(ctx context.Context, conversationID string) (*TripState, error)

	// Save stores the full state, replacing any previous snapshot.
	Save(ctx context.Context, conversationID string, state *TripState) error
}

// ItineraryStore persists a finalized itinerary keyed by conversation id.
type ItineraryStore interface {
	Save(ctx context.Context, conversationID string, itinerary *Itinerary) error
}
