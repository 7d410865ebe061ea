package model

// ================ Config ================

// ExtractorModelConfig drives the low-temperature model used for every
// structured-JSON step (extraction, research, day planning).
type ExtractorModelConfig struct {
	Model       string  `envconfig:"EXTRACTOR_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"EXTRACTOR_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"EXTRACTOR_TEMPERATURE" default:"0.1"`
}

// WriterModelConfig drives the higher-temperature model used for prose
// (general chat, season recommendations).
type WriterModelConfig struct {
	Model       string  `envconfig:"WRITER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"WRITER_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"WRITER_TEMPERATURE" default:"0.7"`
}

type ConversationConfig struct {
	TTL string `envconfig:"CONVERSATION_TTL" default:"30m"`
	// MaxRunSteps bounds one engine invocation so a bad transition can never
	// loop forever.
	MaxRunSteps int `envconfig:"CONVERSATION_MAX_RUN_STEPS" default:"40"`
}
