package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/Kaztic/foodiespot-reservation-agent/internal/agent/graph/conversations"
	"github.com/Kaztic/foodiespot-reservation-agent/internal/agent/graph/nodes"
	"github.com/Kaztic/foodiespot-reservation-agent/internal/agent/graph/observers"
	"github.com/Kaztic/foodiespot-reservation-agent/internal/agent/graph/tools"
	"github.com/Kaztic/foodiespot-reservation-agent/internal/agent/model"
	"github.com/Kaztic/foodiespot-reservation-agent/internal/catalog"
	logx "github.com/Kaztic/foodiespot-reservation-agent/pkg/logger"
)

// technicalDifficultiesReply is returned whenever a turn fails outright. The
// real cause goes to the log, never to the user.
const technicalDifficultiesReply = "I seem to be having some technical difficulties at the moment. Please try again in a little bit!"

// defaultRequestTimeout bounds one turn when no valid timeout is configured.
const defaultRequestTimeout = 60 * time.Second

// Runner executes one conversation turn at a time. Invoke always produces a
// user-presentable Reply; failures are folded into a generic message.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) *model.Reply
	Reset(ctx context.Context, conversationID string) error
}

// Config holds everything needed to compose the full response graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs ChatModels and MessagesManager.
type Config struct {
	APIKey           string
	BaseURL          string
	ResponseModel    model.ResponseModelConfig
	ResponsePrompt   model.ResponsePromptConfig
	Conversation     model.ConversationConfig
	ConversationRepo model.ConversationRepository
	Store            *catalog.Store
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModels           *nodes.ChatModels
	MessagesManager      *conversations.MessagesManager
	ResponsePromptConfig *model.ResponsePromptConfig
	Store                *catalog.Store
	ToolMaxCalls         int
}

// GraphBuilder handles the construction of the agent conversation graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.QueryInput, *model.Reply]
}

type graphRunner struct {
	runnable       compose.Runnable[model.QueryInput, *model.Reply]
	mm             *conversations.MessagesManager
	requestTimeout time.Duration
}

func (r *graphRunner) Invoke(ctx context.Context, in model.QueryInput) *model.Reply {
	ctx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	defer cancel()

	out, err := r.runnable.Invoke(ctx, model.QueryInput{
		ConversationID: in.ConversationID,
		Query:          in.Query,
	}, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		logx.Error().
			Str("conversation_id", in.ConversationID).
			Err(err).
			Msg("Turn failed")
		return &model.Reply{Text: technicalDifficultiesReply}
	}
	if out == nil {
		return &model.Reply{Text: technicalDifficultiesReply}
	}
	return out
}

func (r *graphRunner) Reset(ctx context.Context, conversationID string) error {
	return r.mm.Reset(ctx, conversationID)
}

// BuildResponseGraph composes ChatModels, MessagesManager, builds the graph, and returns a Runner.
func BuildResponseGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.ConversationRepo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("catalog store is nil")
	}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		RespConfig: &cfg.ResponseModel,
	})
	if err != nil {
		return nil, err
	}

	return BuildResponseGraphWithModels(ctx, cfg, cms)
}

// BuildResponseGraphWithModels is BuildResponseGraph with the chat models
// supplied by the caller. Tests use it to inject a scripted model.
func BuildResponseGraphWithModels(ctx context.Context, cfg Config, cms *nodes.ChatModels) (Runner, error) {
	if cfg.ConversationRepo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("catalog store is nil")
	}

	mm := conversations.NewMessagesManager(cfg.ConversationRepo, cfg.Conversation)

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels:           cms,
		MessagesManager:      mm,
		ResponsePromptConfig: &cfg.ResponsePrompt,
		Store:                cfg.Store,
		ToolMaxCalls:         cfg.Conversation.Tools.MaxCalls,
	})
	if err != nil {
		return nil, err
	}

	timeout := defaultRequestTimeout
	if d, err := time.ParseDuration(cfg.Conversation.RequestTimeout); err == nil && d > 0 {
		timeout = d
	}

	logx.Debug().Msg("Response graph built successfully")
	return &graphRunner{runnable: runnable, mm: mm, requestTimeout: timeout}, nil
}

// BuildGraph constructs and returns the compiled agent graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.QueryInput, *model.Reply], error) {
	// Basic config validation
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Response == nil {
		return nil, fmt.Errorf("chat model is not properly initialized")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}
	if config.ResponsePromptConfig == nil {
		return nil, fmt.Errorf("response prompt config is nil")
	}
	if config.Store == nil {
		return nil, fmt.Errorf("catalog store is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.QueryInput, *model.Reply](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	if err := builder.setupTools(ctx); err != nil {
		return nil, err
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// setupTools configures reservation tools and binds them to the response model
func (b *GraphBuilder) setupTools(ctx context.Context) error {
	reservationTools := tools.Registry(b.config.Store)
	toolInfos, err := tools.ToolInfos(ctx, reservationTools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get tool infos")
		return fmt.Errorf("failed to get tool infos: %w", err)
	}

	if err := b.config.ChatModels.BindToolsToResponseModel(ctx, toolInfos); err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools to response model")
		return fmt.Errorf("failed to bind tools to response model: %w", err)
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               reservationTools,
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			// Gracefully handle hallucinated or malformed tool calls; the
			// model gets a structured miss it can rephrase for the user.
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", input).
				Msg("Unknown or invalid tool call; returning fallback result")
			b, err := json.Marshal(map[string]any{
				"error":   true,
				"message": fmt.Sprintf("Tool '%s' not found.", name),
			})
			if err != nil {
				return `{"error":true,"message":"Tool not found."}`, nil
			}
			return string(b), nil
		},
		ToolArgumentsHandler: sanitizeToolArguments,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}

	b.graph.AddToolsNode(nodes.NodeToolExecutor, toolsNode,
		compose.WithStatePreHandler(nodes.NewToolExecutorPreHandler(b.config.ToolMaxCalls)),
		compose.WithStatePostHandler(nodes.NewToolExecutorPostHandler()),
	)

	return nil
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeInputConverter,
		nodes.NewInputConverterNode(b.config.MessagesManager, b.config.ResponsePromptConfig),
		compose.WithStatePreHandler(nodes.NewInputConverterPreHandler()),
	)

	b.graph.AddChatModelNode(nodes.NodeResponseChatModel,
		nodes.NewResponseChatModelNode(b.config.ChatModels.Response),
		compose.WithStatePreHandler(nodes.NewResponseChatModelPreHandler(b.config.ToolMaxCalls)),
		compose.WithStatePostHandler(nodes.NewResponseChatModelPostHandler(b.config.MessagesManager, b.config.ChatModels.ResponseModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodeReplyAssembler,
		nodes.NewReplyAssemblerNode(),
	)
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeInputConverter},
		{nodes.NodeInputConverter, nodes.NodeResponseChatModel},
		{nodes.NodeToolExecutor, nodes.NodeResponseChatModel},
		{nodes.NodeReplyAssembler, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	decisionBranch := compose.NewGraphBranch(
		nodes.NewToolExecutorCondition(),
		map[string]bool{
			nodes.NodeToolExecutor:   true,
			nodes.NodeReplyAssembler: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeResponseChatModel, decisionBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding decision branch")
		return fmt.Errorf("error adding decision branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, *model.Reply], error) {
	// Limit total run steps to avoid infinite loops in branching or tool retries
	maxSteps := 10 + b.config.ToolMaxCalls*2
	if maxSteps < 20 {
		maxSteps = 20
	}

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}

// sanitizeToolArguments normalizes model-produced arguments before execution:
// string fields are trimmed and numeric fields sent as strings are coerced.
// Never fails hard; unusable input is passed through for the tool to reject.
func sanitizeToolArguments(ctx context.Context, name, arguments string) (string, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(arguments), &m); err != nil {
		// keep original if not JSON
		return arguments, nil
	}

	for key, v := range m {
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if key == "party_size" {
			if n, err := strconv.Atoi(s); err == nil {
				m[key] = n
			} else {
				delete(m, key)
			}
			continue
		}
		m[key] = s
	}

	b, err := json.Marshal(m)
	if err != nil {
		// fallback to original
		return arguments, nil
	}
	return string(b), nil
}
