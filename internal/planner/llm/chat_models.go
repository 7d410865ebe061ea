package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/tripflow/server/internal/planner/model"
	logx "github.com/tripflow/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation.
type ChatModelConfig struct {
	APIKey          string
	BaseURL         string
	ExtractorConfig *model.ExtractorModelConfig
	WriterConfig    *model.WriterModelConfig
}

// ChatModels holds the two models the pipeline uses: a low-temperature
// extractor for structured-JSON steps and a higher-temperature writer for
// prose.
type ChatModels struct {
	Extractor          *gemini.ChatModel
	Writer             *gemini.ChatModel
	ExtractorModelName string
	WriterModelName    string
}

// NewChatModels creates both chat models on a shared Gemini client.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	extractor, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.ExtractorConfig.Model,
		Temperature: &config.ExtractorConfig.Temperature,
		MaxTokens:   &config.ExtractorConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating extractor model")
		return nil, fmt.Errorf("error creating extractor model: %w", err)
	}

	writer, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.WriterConfig.Model,
		Temperature: &config.WriterConfig.Temperature,
		MaxTokens:   &config.WriterConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating writer model")
		return nil, fmt.Errorf("error creating writer model: %w", err)
	}

	return &ChatModels{
		Extractor:          extractor,
		Writer:             writer,
		ExtractorModelName: config.ExtractorConfig.Model,
		WriterModelName:    config.WriterConfig.Model,
	}, nil
}
