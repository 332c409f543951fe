package model

// ================ Config ================

// ConversationConfig bounds per-session state: history TTL in Redis, how much
// of the tail is replayed to the model, the per-turn tool budget, and the
// per-turn wall clock budget.
type ConversationConfig struct {
	TTL            string `envconfig:"CONVERSATION_TTL" default:"30m"`
	MaxTurns       int    `envconfig:"CONVERSATION_MAX_TURNS" default:"20"`
	RequestTimeout string `envconfig:"CONVERSATION_REQUEST_TIMEOUT" default:"60s"`
	Tools          struct {
		// One tool invocation per user turn; the model narrates the result
		// on the follow-up round-trip instead of chaining calls.
		MaxCalls int `envconfig:"CONVERSATION_TOOL_MAX_CALLS" default:"1"`
	}
}

// ResponseModelConfig carries the generation parameters for the reservation
// assistant model.
type ResponseModelConfig struct {
	Model       string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"RESPONSE_MAX_TOKENS" default:"2048"`
	Temperature float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.4"`
	TopP        float32 `envconfig:"RESPONSE_TOP_P" default:"0.95"`
	TopK        int32   `envconfig:"RESPONSE_TOP_K" default:"40"`
}

// ResponsePromptConfig parameterizes the assistant's system prompt.
type ResponsePromptConfig struct {
	BusinessName string `envconfig:"PROMPT_BUSINESS_NAME" default:"FoodieSpot"`
}

// CatalogConfig points at the restaurant catalog source file.
type CatalogConfig struct {
	Path string `envconfig:"CATALOG_PATH" default:"data/restaurants.json"`
}
