// Command hybridqa-server exposes the orchestrator over HTTP for
// programmatic callers: POST /api/query with a question, receive the
// combined answer object as JSON.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"hybridqa/internal/classifier"
	"hybridqa/internal/config"
	"hybridqa/internal/document"
	"hybridqa/internal/llm"
	"hybridqa/internal/orchestrator"
	"hybridqa/internal/schema"
	"hybridqa/internal/server"
	"hybridqa/internal/structured"
	"hybridqa/internal/vectorstore"
	"hybridqa/internal/vectorstore/chromem"
	"hybridqa/internal/vectorstore/memory"
	"hybridqa/internal/vectorstore/pgvector"
	"hybridqa/internal/vectorstore/qdrant"
	"hybridqa/internal/warehouse"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "config.yaml", "Path to config YAML")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	client, err := llm.NewClient(llm.Config{
		BaseURL:         cfg.LLM.BaseURL,
		APIKeyEnv:       cfg.LLM.APIKeyEnv,
		CompletionModel: cfg.LLM.CompletionModel,
		EmbeddingModel:  cfg.LLM.EmbeddingModel,
		Timeout:         time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("llm client init failed: %v", err)
	}

	wh, err := warehouse.Open(cfg.Warehouse.Driver, cfg.Warehouse.DSN, logger)
	if err != nil {
		log.Fatalf("failed to open warehouse: %v", err)
	}

	var sc *schema.Schema
	if cfg.Warehouse.SchemaFile != "" {
		sc, err = schema.Load(cfg.Warehouse.SchemaFile)
	} else {
		sc, err = wh.Discover(ctx)
	}
	if err != nil {
		log.Fatalf("schema load failed: %v", err)
	}

	store, err := openStore(ctx, cfg, client)
	if err != nil {
		log.Fatalf("chunk store init failed: %v", err)
	}

	orc := orchestrator.New(
		classifier.New(client, logger),
		structured.New(client, wh, sc, logger),
		document.New(client, store, client, logger),
		cfg.Retrieval.TopK,
		logger,
	)
	srv := server.New(orc, logger)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Start(cfg.Server.Addr); err != nil {
		logger.Info("server stopped", "reason", err)
	}
}

func openStore(ctx context.Context, cfg *config.AppConfig, embedder *llm.Client) (vectorstore.Store, error) {
	switch cfg.VectorStore.Type {
	case "memory", "":
		return memory.New(), nil
	case "chromem":
		return chromem.New(cfg.VectorStore.Chromem.Path, cfg.VectorStore.Chromem.Collection, embedder)
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			return nil, errMissing("qdrant")
		}
		return qdrant.New(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		}), nil
	case "pgvector":
		if cfg.VectorStore.Pgvector == nil {
			return nil, errMissing("pgvector")
		}
		return pgvector.New(ctx, cfg.VectorStore.Pgvector.DSN, cfg.VectorStore.Pgvector.Table, cfg.VectorStore.Pgvector.Dimension)
	default:
		return nil, errMissing(cfg.VectorStore.Type)
	}
}

type errMissing string

func (e errMissing) Error() string { return "vector store misconfigured: " + string(e) }
