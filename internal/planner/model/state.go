package model

// Status is the lifecycle tag of a conversation. The set is closed; the
// engine only moves between these values.
type Status string

const (
	StatusAnalyzing   Status = "analyzing"
	StatusMissingInfo Status = "missing_info"
	StatusResearching Status = "researching"
	StatusAnalyzed    Status = "analyzed"
	StatusPlanning    Status = "planning"
	StatusFinalizing  Status = "finalizing"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusGeneralChat Status = "general_chat"
)

// Step identifies one pipeline stage. Together with the persisted TripState
// it forms the serializable continuation: the engine resumes a suspended
// conversation by dispatching on TripState.Next.
type Step string

const (
	StepGeneral     Step = "general_handler"
	StepExtract     Step = "analyze_input"
	StepMissing     Step = "identify_missing"
	StepAskQuestion Step = "ask_question"
	StepResearch    Step = "research"
	StepAnalyze     Step = "analyze"
	StepSeasonTips  Step = "season_recs"
	StepPlanDays    Step = "plan_days"
	StepFinalize    Step = "finalize"
	StepEnd         Step = "end"
)

// PendingKind distinguishes the two suspend points.
type PendingKind string

const (
	PendingQuestion  PendingKind = "question"
	PendingSelection PendingKind = "destination_selection"
)

// PendingInput is the structured payload surfaced to the caller when the
// pipeline suspends for human input.
type PendingInput struct {
	Kind     PendingKind `json:"kind"`
	Field    string      `json:"field,omitempty"`
	Question string      `json:"question"`
	// Suggestion is a best-effort auto-selected value for the asked field,
	// derived from keyword heuristics over the original request.
	Suggestion string `json:"suggestion,omitempty"`
	// Missing is the full outstanding-field list for question interrupts.
	Missing []string `json:"missing,omitempty"`
	// Options and Allocation accompany destination-selection interrupts.
	Options    []LocationOption  `json:"options,omitempty"`
	Allocation *BudgetAllocation `json:"budget_allocation,omitempty"`
}

// ChatMessage is one entry of the accumulated conversation transcript.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TripState is the full mutable record of one conversation. It is created on
// the first message, mutated by every pipeline step, persisted after each
// step, and never deleted. Message and error lists are append-only.
type TripState struct {
	ConversationID string             `json:"conversation_id"`
	UserRequest    string             `json:"user_request"`
	Preferences    *TravelPreferences `json:"preferences,omitempty"`
	MissingInfo    []string           `json:"missing_info,omitempty"`

	ResearchData              []LocationCandidate `json:"research_data,omitempty"`
	NeedsDestinationResearch  bool                `json:"needs_destination_research"`
	NeedsDestinationSelection bool                `json:"needs_destination_selection"`

	BudgetAllocation  *BudgetAllocation   `json:"budget_allocation,omitempty"`
	FilteredLocations []LocationCandidate `json:"filtered_locations,omitempty"`
	SelectedLocation  *LocationCandidate  `json:"selected_location,omitempty"`

	SeasonRecommendations *string     `json:"season_recommendations,omitempty"`
	DailyPlans            []DailyPlan `json:"daily_plans,omitempty"`
	Itinerary             *Itinerary  `json:"itinerary,omitempty"`

	Messages []ChatMessage `json:"messages,omitempty"`
	Errors   []string      `json:"errors,omitempty"`

	RetryCount    int    `json:"retry_count"`
	Status        Status `json:"status"`
	IsGeneralChat bool   `json:"is_general_chat"`

	// Next is the continuation: the step to execute (or re-enter) next.
	Next Step `json:"next"`
	// Pending is non-nil while the conversation is suspended for human input.
	Pending *PendingInput `json:"pending,omitempty"`
}

// NewTripState creates the initial state for a conversation turn. Existing
// preferences (from an earlier completed turn) may be carried over.
func NewTripState(conversationID, userRequest string, prefs *TravelPreferences) *TripState {
	return &TripState{
		ConversationID: conversationID,
		UserRequest:    userRequest,
		Preferences:    prefs,
		Messages:       []ChatMessage{{Role: "user", Content: userRequest}},
		Status:         StatusAnalyzing,
		Next:           StepGeneral,
	}
}

// AppendMessage adds one transcript entry.
func (s *TripState) AppendMessage(role, content string) {
	s.Messages = append(s.Messages, ChatMessage{Role: role, Content: content})
}

// Fail records an error and moves the conversation to the terminal failed
// status. Errors accumulate; earlier entries are never dropped.
func (s *TripState) Fail(msg string) {
	s.Errors = append(s.Errors, msg)
	s.Status = StatusFailed
	s.Next = StepEnd
}

// Suspended reports whether the conversation is waiting for human input.
func (s *TripState) Suspended() bool {
	return s.Pending != nil
}
