package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tripflow/server/internal/planner/model"
)

// MemoryConversationStore is an in-process checkpointer for tests and local
// runs. States are kept serialized so loads return independent copies, same
// as the Redis-backed store.
type MemoryConversationStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{states: make(map[string][]byte)}
}

func (m *MemoryConversationStore) Load(ctx context.Context, conversationID string) (*model.TripState, error) {
	m.mu.RLock()
	raw, ok := m.states[conversationID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var st model.TripState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("unmarshal trip state: %w", err)
	}
	return &st, nil
}

func (m *MemoryConversationStore) Save(ctx context.Context, conversationID string, state *model.TripState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal trip state: %w", err)
	}
	m.mu.Lock()
	m.states[conversationID] = b
	m.mu.Unlock()
	return nil
}

// MemoryItineraryStore keeps finalized itineraries in memory, keyed by
// conversation id.
type MemoryItineraryStore struct {
	mu          sync.RWMutex
	itineraries map[string]model.Itinerary
}

func NewMemoryItineraryStore() *MemoryItineraryStore {
	return &MemoryItineraryStore{itineraries: make(map[string]model.Itinerary)}
}

func (m *MemoryItineraryStore) Save(ctx context.Context, conversationID string, itinerary *model.Itinerary) error {
	m.mu.Lock()
	m.itineraries[conversationID] = *itinerary
	m.mu.Unlock()
	return nil
}

// Get returns the stored itinerary for a conversation, if any.
func (m *MemoryItineraryStore) Get(conversationID string) (model.Itinerary, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.itineraries[conversationID]
	return it, ok
}

var (
	_ model.ConversationStore = (*MemoryConversationStore)(nil)
	_ model.ItineraryStore    = (*MemoryItineraryStore)(nil)
)
