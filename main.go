package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/tripflow/server/internal/core"
	"github.com/tripflow/server/internal/planner/engine"
	"github.com/tripflow/server/internal/planner/llm"
	"github.com/tripflow/server/internal/planner/model"
	"github.com/tripflow/server/internal/planner/store"
	logx "github.com/tripflow/server/pkg/logger"
	pkgredis "github.com/tripflow/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the planner example,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`

	// Infrastructure
	Redis pkgredis.Config
	// PostgresDSN is optional; itineraries stay in memory when empty.
	PostgresDSN string `envconfig:"POSTGRES_DSN"`

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Planner configs
	Extractor    model.ExtractorModelConfig
	Writer       model.WriterModelConfig
	Conversation model.ConversationConfig
}

func main() {
	fmt.Println("Testing trip planning engine...")
	ctx := context.Background()
	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Environment)})

	rdb, err := envCfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()

	fmt.Println("Connected to Redis successfully")

	ttl, err := time.ParseDuration(envCfg.Conversation.TTL)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_TTL '%s': %v", envCfg.Conversation.TTL, err)
	}
	conversations := store.NewRedisConversationStore(rdb, ttl)

	var itineraries model.ItineraryStore = store.NewMemoryItineraryStore()
	if envCfg.PostgresDSN != "" {
		db, err := store.OpenPostgres(envCfg.PostgresDSN)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		itineraries, err = store.NewPostgresItineraryStore(db)
		if err != nil {
			log.Fatalf("Failed to prepare itinerary store: %v", err)
		}
		fmt.Println("Connected to Postgres successfully")
	}

	models, err := llm.NewChatModels(ctx, llm.ChatModelConfig{
		APIKey:          envCfg.APIKey,
		BaseURL:         envCfg.BaseURL,
		ExtractorConfig: &envCfg.Extractor,
		WriterConfig:    &envCfg.Writer,
	})
	if err != nil {
		log.Fatalf("Failed to create chat models: %v", err)
	}

	eng := engine.NewWithChatModels(models, conversations, itineraries, &envCfg.Conversation)

	// One complete request: nothing missing, destination named, so the run
	// should go straight through to a finished itinerary.
	fmt.Println("\n=== Test 1: complete request ===")
	drain(eng.Run(ctx, "demo-complete-001",
		"Plan a 5-day summer trip to Lisbon for 2 people with a $3000 budget. We love food and history."))

	// A vague request: expect clarifying-question interrupts, answered one by
	// one, then possibly a destination selection.
	fmt.Println("\n=== Test 2: vague request with clarifications ===")
	convID := "demo-vague-001"
	answers := []any{"summer", 2500, 6}
	events := eng.Run(ctx, convID, "I want a relaxing beach vacation somewhere warm.")
	answered := 0
	for {
		interrupt := drain(events)
		if interrupt == nil {
			break
		}
		var answer any
		switch interrupt.Kind {
		case model.PendingQuestion:
			if answered >= len(answers) {
				log.Fatalf("Ran out of canned answers at question %q", interrupt.Question)
			}
			answer = answers[answered]
			answered++
			fmt.Printf("Answering %q with %v\n", interrupt.Field, answer)
		case model.PendingSelection:
			answer = 0
			fmt.Printf("Selecting option 0 of %d\n", len(interrupt.Options))
		}
		events = eng.Resume(ctx, convID, answer)
	}

	// Non-travel small talk should get a conversational reply and stop.
	fmt.Println("\n=== Test 3: general chat ===")
	drain(eng.Run(ctx, "demo-chat-001", "How are you doing today?"))

	fmt.Println("\nAll engine tests completed")
}

// drain prints the event stream and returns the pending input when the run
// suspended, nil otherwise.
func drain(events <-chan model.Event) *model.PendingInput {
	for ev := range events {
		switch ev.Type {
		case model.EventStep:
			fmt.Printf("  [%s] %v\n", ev.Stage, ev.Data)
		case model.EventMessage:
			fmt.Printf("  assistant: %s\n", ev.Content)
		case model.EventInterrupt:
			fmt.Printf("  ? %s\n", ev.Interrupt.Question)
			return ev.Interrupt
		case model.EventComplete:
			// Chat turns complete without an itinerary.
			if ev.Itinerary == nil {
				fmt.Println("  Done")
				break
			}
			it := ev.Itinerary
			fmt.Printf("  Done: %s, %d days, cost $%.2f of $%.2f\n",
				it.Destination, it.DurationDays, it.ActualCost, it.TotalBudget)
		case model.EventError:
			fmt.Printf("  Error: %s\n", ev.Content)
		default:
			fmt.Printf("  [%s]\n", ev.Type)
		}
	}
	return nil
}
