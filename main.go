package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	_ "modernc.org/sqlite"

	"github.com/Chative-core-poc-v1/csagent/internal/agent/graph"
	"github.com/Chative-core-poc-v1/csagent/internal/agent/graph/conversations"
	"github.com/Chative-core-poc-v1/csagent/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/csagent/internal/agent/model"
	"github.com/Chative-core-poc-v1/csagent/internal/agent/repo"
	"github.com/Chative-core-poc-v1/csagent/internal/core"
	logx "github.com/Chative-core-poc-v1/csagent/pkg/logger"
	pkgredis "github.com/Chative-core-poc-v1/csagent/pkg/redis"
	"github.com/Chative-core-poc-v1/csagent/pkg/tokenizer"
)

// AppConfig defines all configurable parameters for the agent example,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Reasoning       model.ReasoningModelConfig
	Structured      model.StructuredModelConfig
	Conversation    model.ConversationConfig
	Engine          model.EngineConfig
	AgentConfigPath string `envconfig:"AGENT_CONFIG_PATH" default:"configs/agent.yaml"`
	SeedDatasets    bool   `envconfig:"DEMO_SEED_DATASETS" default:"true"`
}

func main() {
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

	logx.Init(logx.LoggerOpts{
		Environment: core.ParseEnvironment(envCfg.Environment),
		Level:       envCfg.LogLevel,
	})

	agentCfg, err := model.LoadAgentConfiguration(envCfg.AgentConfigPath)
	if err != nil {
		logx.Fatal().Err(err).Str("path", envCfg.AgentConfigPath).Msg("Failed to load agent configuration")
	}

	if envCfg.SeedDatasets {
		for _, ds := range agentCfg.DataSources {
			if err := seedDemoDataset(ds); err != nil {
				logx.Fatal().Err(err).Str("data_source", ds.Name).Msg("Failed to seed demo dataset")
			}
		}
	}

	rdb, err := envCfg.Redis.New()
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to initialise Redis client")
	}
	defer rdb.Close()
	logx.Info().Msg("Connected to Redis successfully")

	ttl, err := time.ParseDuration(envCfg.Conversation.TTL)
	if err != nil {
		logx.Fatal().Err(err).Str("ttl", envCfg.Conversation.TTL).Msg("Invalid CONVERSATION_TTL")
	}

	datasets := repo.NewSQLiteDatasetRunner()
	defer datasets.Close()

	cfg := graph.Config{
		APIKey:       envCfg.APIKey,
		BaseURL:      envCfg.BaseURL,
		Reasoning:    envCfg.Reasoning,
		Structured:   envCfg.Structured,
		Conversation: envCfg.Conversation,
		Engine:       envCfg.Engine,
		Agent:        agentCfg,
		Retriever:    tools.NewStaticFAQRetriever(tools.MockFAQ),
		Datasets:     datasets,
		Estimator:    tokenizer.Shared(),
	}
	if agentCfg.Memory.LongTerm {
		cfg.Memory = repo.NewRedisMemoryStore(rdb)
	}

	runner, err := graph.BuildTurnGraph(ctx, cfg)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build turn graph")
	}

	mm := conversations.NewMessagesManager(repo.NewRedisConversationRepository(rdb, ttl))
	conversationID := "demo-" + uuid.NewString()
	defer func() {
		if err := mm.Reset(ctx, conversationID); err != nil {
			logx.Warn().Err(err).Msg("Failed to clear demo conversation")
		}
	}()

	testQueries := []struct {
		description string
		query       string
	}{
		{description: "Greeting", query: "Halo, selamat siang"},
		{description: "Company FAQ", query: "apa itu visi perusahaan"},
		{description: "Dataset lookup", query: "Berapa harga kopi arabika 250 gram?"},
		{description: "Follow-up with thanks", query: "Terima kasih banyak"},
	}

	for i, test := range testQueries {
		fmt.Printf("\nTest %d: %s\n", i+1, test.description)
		fmt.Printf("Query: %q\n", test.query)

		in, err := mm.PrepareTurn(ctx, conversationID, test.query)
		if err != nil {
			logx.Fatal().Err(err).Msg("Failed to load conversation history")
		}

		result, err := runner.Run(ctx, in)
		if err != nil {
			logx.Fatal().Err(err).Int("test", i+1).Msg("Turn failed with a configuration defect")
		}
		if err := mm.SaveTurn(ctx, in, result); err != nil {
			logx.Error().Err(err).Msg("Failed to persist turn")
		}

		count, err := mm.MessageCount(ctx, conversationID)
		if err != nil {
			logx.Warn().Err(err).Msg("Failed to count stored messages")
		}

		fmt.Printf("Response %d: %s\n", i+1, result.Response)
		fmt.Printf("tokens=%d cost_usd=%.6f trust=%d rounds=%d category=%q stored_messages=%d\n",
			result.TotalTokens, result.TotalCostUSD, result.TrustLevel, result.Rounds, result.Category, count)

		// add slight delay between tests for readability
		time.Sleep(500 * time.Millisecond)
	}

	fmt.Println("All demo turns completed")
}

// seedDemoDataset creates a small sqlite table for a data source whose backing
// file does not exist yet.
func seedDemoDataset(ds model.DataSource) error {
	if ds.Path == "" {
		return nil
	}
	if _, err := os.Stat(ds.Path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(ds.Path), 0o755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", ds.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE %s (id INTEGER PRIMARY KEY, name TEXT NOT NULL, category TEXT, price INTEGER, stock INTEGER)`, ds.Name),
		fmt.Sprintf(`INSERT INTO %s (name, category, price, stock) VALUES
			('Kopi Arabika 250g', 'kopi', 85000, 40),
			('Kopi Robusta 250g', 'kopi', 65000, 25),
			('Teh Hijau 100g', 'teh', 45000, 0),
			('Gula Aren 500g', 'pemanis', 30000, 60)`, ds.Name),
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("seed %s: %w", ds.Name, err)
		}
	}
	logx.Info().Str("data_source", ds.Name).Str("path", ds.Path).Msg("Seeded demo dataset")
	return nil
}
