// Command contexta is the context engine CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/contexta-labs/contexta/internal/adapters/driven/config/file"
	"github.com/contexta-labs/contexta/internal/adapters/driven/embedding/ollama"
	"github.com/contexta-labs/contexta/internal/adapters/driven/embedding/openai"
	"github.com/contexta-labs/contexta/internal/adapters/driven/storage/memory"
	"github.com/contexta-labs/contexta/internal/adapters/driven/storage/sqlite"
	"github.com/contexta-labs/contexta/internal/adapters/driving/cli"
	"github.com/contexta-labs/contexta/internal/core/ports/driven"
	"github.com/contexta-labs/contexta/internal/core/services"
	"github.com/contexta-labs/contexta/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := file.NewConfigStore(os.Getenv("CONTEXTA_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := sqlite.NewStore(cfg.GetString("storage.data_dir"))
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	backend := buildEmbeddingBackend(cfg)
	if backend != nil {
		defer backend.Close()
	}

	var embedderOpts []services.EmbedderOption
	if size := cfg.GetInt("embedding.batch_size"); size > 0 {
		embedderOpts = append(embedderOpts, services.WithBatchSize(size))
	}
	if ms := cfg.GetInt("embedding.batch_interval_ms"); ms > 0 {
		embedderOpts = append(embedderOpts,
			services.WithBatchInterval(time.Duration(ms)*time.Millisecond))
	}
	embedder := services.NewEmbedder(backend, embedderOpts...)

	engine := services.NewEngine(store, embedder,
		services.WithTrainingData(memory.NewTrainingStore()))

	return cli.Execute(engine, version)
}

// buildEmbeddingBackend picks the embedding provider from configuration.
// Returns nil when no provider is usable; retrieval then degrades to
// keyword search with zero-vector embeddings.
func buildEmbeddingBackend(cfg driven.ConfigStore) driven.EmbeddingBackend {
	provider := cfg.GetString("embedding.provider")

	switch provider {
	case "openai":
		apiKey := cfg.GetString("openai.api_key")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		backend, err := openai.NewBackend(openai.Config{
			APIKey:  apiKey,
			BaseURL: cfg.GetString("openai.base_url"),
			Model:   cfg.GetString("embedding.model"),
		})
		if err != nil {
			logger.Warn("OpenAI embedding unavailable: %v", err)
			return nil
		}
		return backend

	case "", "ollama":
		return ollama.NewBackend(ollama.Config{
			BaseURL: cfg.GetString("ollama.base_url"),
			Model:   cfg.GetString("embedding.model"),
		})

	case "none":
		return nil

	default:
		logger.Warn("Unknown embedding provider %q, embeddings disabled", provider)
		return nil
	}
}
