package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Kaztic/foodiespot-reservation-agent/internal/agent/graph/conversations"
	"github.com/Kaztic/foodiespot-reservation-agent/internal/agent/graph/prompts"
	"github.com/Kaztic/foodiespot-reservation-agent/internal/agent/model"
	logx "github.com/Kaztic/foodiespot-reservation-agent/pkg/logger"
)

// Node keys for the conversation graph.
const (
	NodeInputConverter    = "InputConverter"
	NodeResponseChatModel = "ResponseChatModel"
	NodeToolExecutor      = "ToolExecutor"
	NodeReplyAssembler    = "ReplyAssembler"
)

// Fallback texts for turns the model could not finish usefully.
const (
	apologyReply          = "I'm sorry, I couldn't quite process that. Could you please try rephrasing your request?"
	emptyFollowUpReply    = "OK. What next?"
	unhelpfulReplyMarker  = "cannot fulfill this request"
)

// NewInputConverterPreHandler creates the pre-handler for InputConverter node
func NewInputConverterPreHandler() func(context.Context, model.QueryInput, *model.AppState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.AppState) (model.QueryInput, error) {
		if s.ConversationID == "" {
			s.ConversationID = in.ConversationID
		}
		// Reset per-turn state for each new query
		s.History = nil
		s.ToolCallCount = 0
		s.ToolCallLimitReached = false
		s.ToolCallIDSeq = 0
		s.PendingToolCalls = nil
		s.ToolLog = nil
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewInputConverterNode records the user turn and builds the model context:
// system prompt followed by the recent history window.
func NewInputConverterNode(
	mm *conversations.MessagesManager,
	responsePromptConfig *model.ResponsePromptConfig,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.QueryInput) ([]*schema.Message, error) {
		if err := mm.AppendUserMessage(ctx, input.ConversationID, input.Query); err != nil {
			return nil, fmt.Errorf("append user message: %w", err)
		}

		// Generate system prompt via Eino prompt component (enables prompt callbacks)
		systemPrompt, err := prompts.RenderResponseSystem(ctx, *responsePromptConfig)
		if err != nil {
			return nil, fmt.Errorf("render response system prompt: %w", err)
		}

		messages, err := mm.BuildResponseContext(ctx, input.ConversationID, systemPrompt)
		if err != nil {
			return nil, fmt.Errorf("build response context: %w", err)
		}

		return messages, nil
	})
}

// NewResponseChatModelPreHandler creates the pre-handler for ResponseChatModel node
func NewResponseChatModelPreHandler(maxToolCalls int) func(context.Context, []*schema.Message, *model.AppState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.AppState) ([]*schema.Message, error) {
		// Heuristic fix for Gemini OpenAI-compat: ensure tool results carry tool_call_id
		if len(in) > 0 {
			last := in[len(in)-1]
			if last != nil && last.Role == schema.Tool && strings.TrimSpace(last.ToolCallID) == "" {
				// Try to find the most recent assistant tool call id from history
				for i := len(state.History) - 1; i >= 0; i-- {
					msg := state.History[i]
					if msg == nil || msg.Role != schema.Assistant || len(msg.ToolCalls) == 0 {
						continue
					}
					id := msg.ToolCalls[0].ID
					if strings.TrimSpace(id) != "" {
						last.ToolCallID = id
					}
					break
				}
			}
		}

		state.History = append(state.History, in...)

		if checkAndMarkToolLimit(state, maxToolCalls) {
			maxToolCalls = normalizeMaxToolCalls(maxToolCalls)
			wrapUp := &schema.Message{
				Role: schema.System,
				Content: fmt.Sprintf(
					"SYSTEM NOTICE: You have reached the maximum tool call limit (%d) for this turn. "+
						"Please respond to the user using the information you've already gathered.",
					maxToolCalls,
				),
			}
			state.History = append(state.History, wrapUp)
		}

		logx.Debug().Msg("AI thinking...")

		return state.History, nil
	}
}

// NewResponseChatModelPostHandler creates the post-handler for ResponseChatModel node
func NewResponseChatModelPostHandler(
	mm *conversations.MessagesManager,
	modelName string,
) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		if out == nil {
			return nil, nil
		}

		// Compute usage cost if available
		if model.CostEnabled() && out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
			pricing := model.ResolvePricing(modelName)
			inC, outC, totalC := model.ComputeCost(out.ResponseMeta.Usage, pricing)
			if out.Extra == nil {
				out.Extra = map[string]any{}
			}
			out.Extra["usage_cost"] = map[string]any{
				"currency":          "USD",
				"model":             modelName,
				"prompt_tokens":     out.ResponseMeta.Usage.PromptTokens,
				"completion_tokens": out.ResponseMeta.Usage.CompletionTokens,
				"total_tokens":      out.ResponseMeta.Usage.TotalTokens,
				"input_cost":        inC,
				"output_cost":       outC,
				"total_cost":        totalC,
			}
			logx.Debug().
				Str("conversation_id", state.ConversationID).
				Str("node", NodeResponseChatModel).
				Str("model", modelName).
				Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
				Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
				Int("total_tokens", out.ResponseMeta.Usage.TotalTokens).
				Float64("input_cost_usd", inC).
				Float64("output_cost_usd", outC).
				Float64("total_cost_usd", totalC).
				Msg("LLM usage")

			// Accumulate only total cost into state
			state.TotalCostUSD += totalC
			// Also expose running total in the message Extra for visibility
			out.Extra["usage_cost_total_usd"] = state.TotalCostUSD
		}

		// Keep only the first valid tool call; a turn that acts does not also
		// speak, so any accompanying text is dropped.
		if len(out.ToolCalls) > 0 && !state.ToolCallLimitReached {
			first := firstValidToolCall(out.ToolCalls)
			if first != nil {
				if strings.TrimSpace(first.ID) == "" {
					state.ToolCallIDSeq++
					first.ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
				}
				out.ToolCalls = []schema.ToolCall{*first}
				out.Content = ""
			} else {
				// All requested calls were nameless noise; treat as plain text.
				out.ToolCalls = nil
			}
		} else if state.ToolCallLimitReached {
			// Budget spent: any further requested calls are discarded.
			out.ToolCalls = nil
		}

		state.History = append(state.History, out)

		if len(out.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
		} else {
			logx.Debug().Msg("AI response ready")
		}

		// Save only when it's a final assistant message (no further tool calls).
		if out.Role == schema.Assistant && len(out.ToolCalls) == 0 && strings.TrimSpace(out.Content) != "" {
			if err := mm.SaveResponse(ctx, state.ConversationID, out.Content); err != nil {
				logx.Error().
					Str("conversation_id", state.ConversationID).
					Err(err).
					Msg("Error saving assistant response in postHandlerResponse")
			}
		}

		return out, nil
	}
}

func firstValidToolCall(calls []schema.ToolCall) *schema.ToolCall {
	for i := range calls {
		if strings.TrimSpace(calls[i].Function.Name) != "" {
			c := calls[i]
			return &c
		}
	}
	return nil
}

// NewToolExecutorCondition creates the condition function for tool execution routing
func NewToolExecutorCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		// Check if tool limit was reached
		var limitReached bool
		compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			limitReached = state.ToolCallLimitReached
			return nil
		})

		if limitReached {
			logx.Debug().Msg("Tool limit reached previously - routing to reply assembler")
			return NodeReplyAssembler, nil
		}

		if len(input.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(input.ToolCalls)).Msg("Routing to ToolExecutor")
			return NodeToolExecutor, nil
		}

		logx.Debug().Msg("No tool calls - routing to reply assembler")
		return NodeReplyAssembler, nil
	}
}

// NewToolExecutorPreHandler spends the tool budget and records the requested
// calls so the post-handler can pair them with results for the audit log.
func NewToolExecutorPreHandler(maxToolCalls int) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, in *schema.Message, state *model.AppState) (*schema.Message, error) {
		exceeded := incrementToolCallAndCheck(state, maxToolCalls)

		logx.Debug().
			Int("tool_call_count", state.ToolCallCount).
			Str("conversation_id", state.ConversationID).
			Msg("Tool execution attempt")

		if exceeded {
			logx.Warn().
				Int("tool_call_count", state.ToolCallCount).
				Int("max_tool_calls", normalizeMaxToolCalls(maxToolCalls)).
				Str("conversation_id", state.ConversationID).
				Msg("Tool call limit exceeded - flagging and continuing")
		}

		if in != nil {
			for _, tc := range in.ToolCalls {
				state.PendingToolCalls = append(state.PendingToolCalls, model.PendingToolCall{
					ID:   tc.ID,
					Name: tc.Function.Name,
					Args: decodeArgs(tc.Function.Arguments),
				})
			}
		}

		return in, nil
	}
}

// NewToolExecutorPostHandler pairs executor results with the pending calls
// recorded by the pre-handler and appends them to the turn's audit log.
func NewToolExecutorPostHandler() func(context.Context, []*schema.Message, *model.AppState) ([]*schema.Message, error) {
	return func(ctx context.Context, out []*schema.Message, state *model.AppState) ([]*schema.Message, error) {
		pending := make(map[string]model.PendingToolCall, len(state.PendingToolCalls))
		for _, p := range state.PendingToolCalls {
			pending[p.ID] = p
		}

		for _, msg := range out {
			if msg == nil || msg.Role != schema.Tool {
				continue
			}
			rec := model.ToolCallRecord{Result: decodeResult(msg.Content)}
			if p, ok := pending[msg.ToolCallID]; ok {
				rec.Name = p.Name
				rec.Args = p.Args
				delete(pending, msg.ToolCallID)
			} else if len(state.PendingToolCalls) == 1 {
				// Single in-flight call; pair even if the provider lost the id.
				rec.Name = state.PendingToolCalls[0].Name
				rec.Args = state.PendingToolCalls[0].Args
			}
			state.ToolLog = append(state.ToolLog, rec)
		}

		state.PendingToolCalls = nil
		return out, nil
	}
}

// NewReplyAssemblerNode turns the final assistant message plus the turn's
// audit log into the public Reply. Empty or unhelpful model text is replaced
// with a friendly fallback; the audit log is preserved either way.
func NewReplyAssemblerNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input *schema.Message) (*model.Reply, error) {
		reply := &model.Reply{}
		if input != nil {
			reply.Text = strings.TrimSpace(input.Content)
		}

		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			reply.ToolCalls = state.ToolLog
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		if reply.Text == "" && len(reply.ToolCalls) > 0 {
			reply.Text = emptyFollowUpReply
		} else if reply.Text == "" || strings.Contains(strings.ToLower(reply.Text), unhelpfulReplyMarker) {
			reply.Text = apologyReply
		}

		return reply, nil
	})
}

func decodeArgs(raw string) map[string]any {
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		if strings.TrimSpace(raw) != "" {
			return map[string]any{"raw": raw}
		}
		return map[string]any{}
	}
	return m
}

func decodeResult(raw string) map[string]any {
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return map[string]any{"raw": raw}
	}
	return m
}
