// Command chat is an interactive terminal client for the reservation agent.
// Each run is one session; /reset clears it, /debug toggles tool-call
// display, /quit exits.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Kaztic/foodiespot-reservation-agent/internal/agent/graph"
	"github.com/Kaztic/foodiespot-reservation-agent/internal/agent/model"
	"github.com/Kaztic/foodiespot-reservation-agent/internal/agent/repo"
	"github.com/Kaztic/foodiespot-reservation-agent/internal/catalog"
	"github.com/Kaztic/foodiespot-reservation-agent/internal/core"
	logx "github.com/Kaztic/foodiespot-reservation-agent/pkg/logger"
	pkgredis "github.com/Kaztic/foodiespot-reservation-agent/pkg/redis"
)

type chatConfig struct {
	Env string `envconfig:"APP_ENV" default:"development"`

	Redis pkgredis.Config

	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	Response     model.ResponseModelConfig
	Prompt       model.ResponsePromptConfig
	Conversation model.ConversationConfig
	Catalog      model.CatalogConfig
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg chatConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Env)})

	conversationRepo := newConversationRepo(cfg)
	store := catalog.NewStoreFromFile(cfg.Catalog.Path)

	runner, err := graph.BuildResponseGraph(ctx, graph.Config{
		APIKey:           cfg.APIKey,
		BaseURL:          cfg.BaseURL,
		ResponseModel:    cfg.Response,
		ResponsePrompt:   cfg.Prompt,
		Conversation:     cfg.Conversation,
		ConversationRepo: conversationRepo,
		Store:            store,
	})
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}

	conversationID := uuid.NewString()
	debug := false

	fmt.Println("FoodieSpot reservation assistant. /reset clears the session, /debug toggles tool display, /quit exits.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return
		case "/reset":
			if err := runner.Reset(ctx, conversationID); err != nil {
				fmt.Println("reset failed:", err)
				continue
			}
			conversationID = uuid.NewString()
			fmt.Println("Conversation reset.")
			continue
		case "/debug":
			debug = !debug
			fmt.Println("Tool call display:", debug)
			continue
		}

		reply := runner.Invoke(ctx, model.QueryInput{ConversationID: conversationID, Query: line})
		fmt.Println()
		fmt.Println("agent>", reply.Text)
		if debug && len(reply.ToolCalls) > 0 {
			for _, rec := range reply.ToolCalls {
				if b, err := json.MarshalIndent(rec, "", "  "); err == nil {
					fmt.Println(string(b))
				}
			}
		}
		fmt.Println()
	}
}

func newConversationRepo(cfg chatConfig) model.ConversationRepository {
	if cfg.Redis.URL == "" {
		return repo.NewMemoryConversationRepository()
	}
	rdb, err := cfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	ttl, err := time.ParseDuration(cfg.Conversation.TTL)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_TTL %q: %v", cfg.Conversation.TTL, err)
	}
	return repo.NewRedisConversationRepository(rdb, ttl)
}
