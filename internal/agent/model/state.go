package model

import (
	"github.com/cloudwego/eino/schema"
)

// AppState stores per-invocation state for the orchestration graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
//   - One turn per session runs at a time; the websocket shell and the REPL
//     both wait for the current Invoke before sending the next.
type AppState struct {
	ConversationID       string
	History              []*schema.Message // mutated only inside Eino state handlers
	ToolCallCount        int               // maintained in handlers (reset/increment)
	ToolCallLimitReached bool              // set when the per-turn tool budget is spent
	ToolCallIDSeq        int               // local sequence to synthesize tool_call_id when provider omits

	// PendingToolCalls holds the calls requested by the last assistant
	// message until the executor's results arrive and they can be paired
	// into ToolLog entries.
	PendingToolCalls []PendingToolCall
	// ToolLog is this turn's audit trail: every requested call with its
	// serialized result, success or error. Display-only; never replayed
	// to the model or the catalog.
	ToolLog []ToolCallRecord

	// Accumulated total LLM cost (USD) across model invocations for this turn.
	TotalCostUSD float64
}

// PendingToolCall is a tool request awaiting its result.
type PendingToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolCallRecord is one audit entry: the requested operation, its argument
// mapping, and the structured result it produced.
type ToolCallRecord struct {
	Name   string         `json:"name"`
	Args   map[string]any `json:"args"`
	Result map[string]any `json:"result"`
}

// QueryInput represents one user turn addressed to a conversation.
type QueryInput struct {
	ConversationID string `json:"conversation_id"`
	Query          string `json:"query"`
}

// Reply is the outcome of one turn: the user-facing text and the turn's
// tool-call audit entries for operator display.
type Reply struct {
	Text      string           `json:"text"`
	ToolCalls []ToolCallRecord `json:"tool_calls,omitempty"`
}
