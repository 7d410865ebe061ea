package model

// EventType tags entries of the step-wise progress stream.
type EventType string

const (
	EventStart     EventType = "start"
	EventResume    EventType = "resume"
	EventStep      EventType = "step"
	EventMessage   EventType = "message"
	EventInterrupt EventType = "interrupt"
	EventComplete  EventType = "complete"
	EventError     EventType = "error"
)

// Event is one entry of the progress stream: one per pipeline stage, carrying
// the stage name and partial data, terminated by a complete, interrupt, or
// error event.
type Event struct {
	Type           EventType      `json:"type"`
	ConversationID string         `json:"conversation_id"`
	Stage          Step           `json:"stage,omitempty"`
	Content        string         `json:"content,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
	Interrupt      *PendingInput  `json:"interrupt,omitempty"`
	Itinerary      *Itinerary     `json:"itinerary,omitempty"`
}
