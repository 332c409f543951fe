package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Kaztic/foodiespot-reservation-agent/internal/agent/graph"
	"github.com/Kaztic/foodiespot-reservation-agent/internal/agent/model"
	"github.com/Kaztic/foodiespot-reservation-agent/internal/agent/repo"
	"github.com/Kaztic/foodiespot-reservation-agent/internal/catalog"
	"github.com/Kaztic/foodiespot-reservation-agent/internal/core"
	"github.com/Kaztic/foodiespot-reservation-agent/internal/server"
	logx "github.com/Kaztic/foodiespot-reservation-agent/pkg/logger"
	pkgredis "github.com/Kaztic/foodiespot-reservation-agent/pkg/redis"
)

// AppConfig defines all configurable parameters for the reservation agent,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Env string `envconfig:"APP_ENV" default:"development"`

	// Infrastructure
	Redis  pkgredis.Config
	Server server.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
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

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Env)})

	conversationRepo, cleanup, err := newConversationRepo(envCfg)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to initialise conversation repository")
	}
	defer cleanup()

	store := catalog.NewStoreFromFile(envCfg.Catalog.Path)

	runner, err := graph.BuildResponseGraph(ctx, graph.Config{
		APIKey:           envCfg.APIKey,
		BaseURL:          envCfg.BaseURL,
		ResponseModel:    envCfg.Response,
		ResponsePrompt:   envCfg.Prompt,
		Conversation:     envCfg.Conversation,
		ConversationRepo: conversationRepo,
		Store:            store,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build graph")
	}

	srv := server.New(envCfg.Server, runner)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("Shutdown error")
	}
}

// newConversationRepo selects Redis-backed history when REDIS_URL is set and
// falls back to in-process history otherwise.
func newConversationRepo(cfg AppConfig) (model.ConversationRepository, func(), error) {
	if cfg.Redis.URL == "" {
		logx.Warn().Msg("REDIS_URL not set; conversation history is in-memory only")
		return repo.NewMemoryConversationRepository(), func() {}, nil
	}

	rdb, err := cfg.Redis.New()
	if err != nil {
		return nil, nil, err
	}

	ttl, err := time.ParseDuration(cfg.Conversation.TTL)
	if err != nil {
		rdb.Close()
		return nil, nil, err
	}

	logx.Info().Msg("Connected to Redis")
	return repo.NewRedisConversationRepository(rdb, ttl), func() { rdb.Close() }, nil
}
