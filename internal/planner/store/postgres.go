package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	errx "github.com/tripflow/server/internal/core/error"
	"github.com/tripflow/server/internal/planner/model"
	logx "github.com/tripflow/server/pkg/logger"
)

// ItineraryRecord is the persisted form of a finalized itinerary.
type ItineraryRecord struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationID string    `gorm:"size:64;index"`

	Destination  string `gorm:"size:255;not null"`
	DurationDays int    `gorm:"not null"`
	Budget       float64
	Season       string `gorm:"size:50"`
	TravelDates  string `gorm:"size:100"`

	// Complete itinerary data
	Plan             []byte `gorm:"type:jsonb"`
	BudgetAllocation []byte `gorm:"type:jsonb"`

	CreatedAt time.Time
}

func (ItineraryRecord) TableName() string {
	return "itineraries"
}

func (r *ItineraryRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// OpenPostgres opens a gorm connection with the given DSN.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, errx.WrapPostgres(err)
	}
	return db, nil
}

// PostgresItineraryStore persists finalized itineraries in Postgres.
type PostgresItineraryStore struct {
	db *gorm.DB
}

func NewPostgresItineraryStore(db *gorm.DB) (*PostgresItineraryStore, error) {
	if err := db.AutoMigrate(&ItineraryRecord{}); err != nil {
		return nil, errx.WrapPostgres(err)
	}
	return &PostgresItineraryStore{db: db}, nil
}

func (s *PostgresItineraryStore) Save(ctx context.Context, conversationID string, itinerary *model.Itinerary) error {
	plan, err := json.Marshal(itinerary.DailyItinerary)
	if err != nil {
		return fmt.Errorf("marshal daily plans: %w", err)
	}
	alloc, err := json.Marshal(itinerary.BudgetAllocation)
	if err != nil {
		return fmt.Errorf("marshal budget allocation: %w", err)
	}

	rec := ItineraryRecord{
		ConversationID:   conversationID,
		Destination:      itinerary.Destination,
		DurationDays:     itinerary.DurationDays,
		Budget:           itinerary.TotalBudget,
		Season:           itinerary.Season,
		TravelDates:      itinerary.TravelDates,
		Plan:             plan,
		BudgetAllocation: alloc,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		logx.Error().Err(err).Str("conversationID", conversationID).Msg("failed to persist itinerary")
		return errx.WrapPostgres(err)
	}

	logx.Debug().
		Str("conversation_id", conversationID).
		Str("itinerary_id", rec.ID.String()).
		Str("destination", rec.Destination).
		Msg("Itinerary persisted")
	return nil
}

var _ model.ItineraryStore = (*PostgresItineraryStore)(nil)
