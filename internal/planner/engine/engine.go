// Package engine drives the trip-planning pipeline as an explicit state
// machine. Every conversation is a persisted TripState whose Next field names
// the step to execute; the engine loads the state, dispatches steps in a loop,
// saves after every step, and stops when the state reaches the end step or
// suspends for human input. Because the continuation lives entirely in the
// stored record, a suspended conversation can be resumed by a different
// process hours later.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tripflow/server/internal/planner/llm"
	"github.com/tripflow/server/internal/planner/model"
	logx "github.com/tripflow/server/pkg/logger"
)

const defaultMaxRunSteps = 40

// Config wires the engine's collaborators. Extractor handles every
// structured-JSON step, Writer every prose step.
type Config struct {
	Conversations model.ConversationStore
	Itineraries   model.ItineraryStore

	Extractor          einomodel.BaseChatModel
	Writer             einomodel.BaseChatModel
	ExtractorModelName string
	WriterModelName    string

	// MaxRunSteps bounds one Run/Resume invocation. Zero means the default.
	MaxRunSteps int
	// Now is injectable for deterministic heuristics in tests.
	Now func() time.Time
}

// Engine executes trip-planning conversations.
type Engine struct {
	conversations model.ConversationStore
	itineraries   model.ItineraryStore

	extractor     einomodel.BaseChatModel
	writer        einomodel.BaseChatModel
	extractorName string
	writerName    string

	maxRunSteps int
	now         func() time.Time
}

// New creates an engine from explicit collaborators.
func New(cfg Config) *Engine {
	maxSteps := cfg.MaxRunSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxRunSteps
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		conversations: cfg.Conversations,
		itineraries:   cfg.Itineraries,
		extractor:     cfg.Extractor,
		writer:        cfg.Writer,
		extractorName: cfg.ExtractorModelName,
		writerName:    cfg.WriterModelName,
		maxRunSteps:   maxSteps,
		now:           now,
	}
}

// NewWithChatModels creates an engine on top of the Gemini chat-model pair.
func NewWithChatModels(models *llm.ChatModels, conversations model.ConversationStore, itineraries model.ItineraryStore, conf *model.ConversationConfig) *Engine {
	maxSteps := 0
	if conf != nil {
		maxSteps = conf.MaxRunSteps
	}
	return New(Config{
		Conversations:      conversations,
		Itineraries:        itineraries,
		Extractor:          models.Extractor,
		Writer:             models.Writer,
		ExtractorModelName: models.ExtractorModelName,
		WriterModelName:    models.WriterModelName,
		MaxRunSteps:        maxSteps,
	})
}

// Run processes one user message for a conversation and streams progress
// events until the pipeline completes, suspends, or fails. A message sent to a
// suspended conversation is treated as the answer to its pending input; a
// message sent after completion starts a fresh turn that keeps the earlier
// preferences.
func (e *Engine) Run(ctx context.Context, conversationID, message string) <-chan model.Event {
	ch := make(chan model.Event, 16)
	go func() {
		defer close(ch)
		emit := func(ev model.Event) {
			ev.ConversationID = conversationID
			select {
			case ch <- ev:
			case <-ctx.Done():
			}
		}

		st, err := e.conversations.Load(ctx, conversationID)
		if err != nil {
			emit(model.Event{Type: model.EventError, Content: fmt.Sprintf("load conversation: %v", err)})
			return
		}

		if st != nil && st.Suspended() {
			e.resume(ctx, st, message, emit)
			return
		}

		var prior *model.TravelPreferences
		if st != nil {
			prior = st.Preferences
		}
		st = model.NewTripState(conversationID, message, prior)

		logx.Info().
			Str("conversation_id", conversationID).
			Str("message", message).
			Msg("Starting trip planning run")
		emit(model.Event{Type: model.EventStart})

		if err := e.conversations.Save(ctx, conversationID, st); err != nil {
			emit(model.Event{Type: model.EventError, Content: fmt.Sprintf("save conversation: %v", err)})
			return
		}
		e.loop(ctx, st, emit)
	}()
	return ch
}

// Resume feeds an answer into a suspended conversation and streams progress
// events from the point of suspension. The answer is coerced by the pending
// input's kind: a preference value for question interrupts, an option index
// for destination selection.
func (e *Engine) Resume(ctx context.Context, conversationID string, answer any) <-chan model.Event {
	ch := make(chan model.Event, 16)
	go func() {
		defer close(ch)
		emit := func(ev model.Event) {
			ev.ConversationID = conversationID
			select {
			case ch <- ev:
			case <-ctx.Done():
			}
		}

		st, err := e.conversations.Load(ctx, conversationID)
		if err != nil {
			emit(model.Event{Type: model.EventError, Content: fmt.Sprintf("load conversation: %v", err)})
			return
		}
		if st == nil || !st.Suspended() {
			emit(model.Event{Type: model.EventError, Content: "no suspended conversation to resume"})
			return
		}
		e.resume(ctx, st, answer, emit)
	}()
	return ch
}

// resume applies the answer to the pending input. Invalid answers leave the
// conversation suspended so the caller can retry.
func (e *Engine) resume(ctx context.Context, st *model.TripState, answer any, emit func(model.Event)) {
	pending := st.Pending

	logx.Info().
		Str("conversation_id", st.ConversationID).
		Str("kind", string(pending.Kind)).
		Msg("Resuming suspended conversation")

	switch pending.Kind {
	case model.PendingQuestion:
		if st.Preferences == nil {
			st.Preferences = &model.TravelPreferences{}
		}
		if err := st.Preferences.ApplyAnswer(pending.Field, answer); err != nil {
			emit(model.Event{Type: model.EventError, Content: err.Error(), Interrupt: pending})
			return
		}
		st.AppendMessage("user", fmt.Sprint(answer))
		st.Pending = nil
		st.Next = model.StepMissing

	case model.PendingSelection:
		idx, err := selectionIndex(answer)
		if err != nil {
			emit(model.Event{Type: model.EventError, Content: err.Error(), Interrupt: pending})
			return
		}
		if idx < 0 || idx >= len(pending.Options) {
			emit(model.Event{
				Type:      model.EventError,
				Content:   fmt.Sprintf("selection index %d out of range [0, %d)", idx, len(pending.Options)),
				Interrupt: pending,
			})
			return
		}
		chosen := pending.Options[idx].LocationCandidate
		st.SelectedLocation = &chosen
		if st.Preferences == nil {
			st.Preferences = &model.TravelPreferences{}
		}
		name := chosen.Name
		st.Preferences.Destination = &name
		st.AppendMessage("user", fmt.Sprintf("selected option %d (%s)", idx, chosen.Name))
		st.NeedsDestinationSelection = false
		st.Pending = nil
		st.Status = model.StatusAnalyzed
		st.Next = model.StepSeasonTips

	default:
		st.Fail(fmt.Sprintf("unknown pending input kind %q", pending.Kind))
	}

	emit(model.Event{Type: model.EventResume, Stage: st.Next})
	if err := e.conversations.Save(ctx, st.ConversationID, st); err != nil {
		emit(model.Event{Type: model.EventError, Content: fmt.Sprintf("save conversation: %v", err)})
		return
	}
	e.loop(ctx, st, emit)
}

// loop dispatches steps until the state ends, suspends, or exhausts the step
// budget. The state is persisted after every step so a crash mid-pipeline
// loses at most the step in flight.
func (e *Engine) loop(ctx context.Context, st *model.TripState, emit func(model.Event)) {
	for i := 0; i < e.maxRunSteps; i++ {
		if st.Next == model.StepEnd || st.Suspended() {
			break
		}
		if err := ctx.Err(); err != nil {
			st.Fail(fmt.Sprintf("run cancelled: %v", err))
		} else {
			step := st.Next
			logx.Debug().
				Str("conversation_id", st.ConversationID).
				Str("step", string(step)).
				Msg("Executing pipeline step")
			e.execute(ctx, step, st, emit)
		}
		if err := e.conversations.Save(ctx, st.ConversationID, st); err != nil {
			emit(model.Event{Type: model.EventError, Content: fmt.Sprintf("save conversation: %v", err)})
			return
		}
	}

	if st.Next != model.StepEnd && !st.Suspended() {
		st.Fail(fmt.Sprintf("exceeded maximum of %d pipeline steps", e.maxRunSteps))
		if err := e.conversations.Save(ctx, st.ConversationID, st); err != nil {
			emit(model.Event{Type: model.EventError, Content: fmt.Sprintf("save conversation: %v", err)})
			return
		}
	}

	switch {
	case st.Suspended():
		emit(model.Event{Type: model.EventInterrupt, Stage: st.Next, Interrupt: st.Pending})
	case st.Status == model.StatusFailed:
		content := ""
		if n := len(st.Errors); n > 0 {
			content = st.Errors[n-1]
		}
		emit(model.Event{Type: model.EventError, Content: content})
	case st.Status == model.StatusCompleted:
		emit(model.Event{Type: model.EventComplete, Itinerary: st.Itinerary})
	case st.Status == model.StatusGeneralChat:
		// Chat turns end cleanly too; there is just no itinerary to attach.
		emit(model.Event{Type: model.EventComplete})
	}
}

// execute runs one step. Steps mutate the state and set Next themselves.
func (e *Engine) execute(ctx context.Context, step model.Step, st *model.TripState, emit func(model.Event)) {
	switch step {
	case model.StepGeneral:
		e.stepGeneral(ctx, st, emit)
	case model.StepExtract:
		e.stepExtract(ctx, st, emit)
	case model.StepMissing:
		e.stepMissing(ctx, st, emit)
	case model.StepAskQuestion:
		e.stepAskQuestion(ctx, st)
	case model.StepResearch:
		e.stepResearch(ctx, st, emit)
	case model.StepAnalyze:
		e.stepAnalyze(ctx, st, emit)
	case model.StepSeasonTips:
		e.stepSeasonTips(ctx, st, emit)
	case model.StepPlanDays:
		e.stepPlanDays(ctx, st, emit)
	case model.StepFinalize:
		e.stepFinalize(ctx, st, emit)
	default:
		st.Fail(fmt.Sprintf("unknown pipeline step %q", step))
	}
}

// generate calls a chat model and logs token usage for the stage.
func (e *Engine) generate(ctx context.Context, cm einomodel.BaseChatModel, modelName string, st *model.TripState, stage model.Step, msgs []*schema.Message) (*schema.Message, error) {
	out, err := cm.Generate(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stage, err)
	}
	llm.LogUsage(st.ConversationID, string(stage), modelName, out)
	return out, nil
}

// selectionIndex coerces a resume answer into an option index. JSON numbers
// arrive as float64, interactive callers may send strings.
func selectionIndex(answer any) (int, error) {
	switch v := answer.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("selection answer must be an option index: %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("selection answer must be an option index, got %T", answer)
	}
}
