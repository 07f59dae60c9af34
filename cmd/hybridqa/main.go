// Command hybridqa is the interactive front-end: it answers questions in
// a chat TUI, runs one-shot questions with -ask, ingests documents with
// -ingest and seeds the demo warehouse with -seed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"hybridqa/internal/classifier"
	"hybridqa/internal/config"
	"hybridqa/internal/document"
	"hybridqa/internal/ingest"
	"hybridqa/internal/llm"
	"hybridqa/internal/orchestrator"
	"hybridqa/internal/schema"
	"hybridqa/internal/structured"
	"hybridqa/internal/tui"
	"hybridqa/internal/vectorstore"
	"hybridqa/internal/vectorstore/chromem"
	"hybridqa/internal/vectorstore/memory"
	"hybridqa/internal/vectorstore/pgvector"
	"hybridqa/internal/vectorstore/qdrant"
	"hybridqa/internal/warehouse"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath  = flag.String("config", "config.yaml", "Path to config YAML")
		ask      = flag.String("ask", "", "Answer a single question and print the response as JSON")
		doIngest = flag.Bool("ingest", false, "Ingest the document files given as arguments")
		seed     = flag.String("seed", "", "Execute a local SQL file against the warehouse and exit")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	wh, err := warehouse.Open(cfg.Warehouse.Driver, cfg.Warehouse.DSN, logger)
	if err != nil {
		log.Fatalf("failed to open warehouse: %v", err)
	}

	if *seed != "" {
		if err := wh.SeedFile(ctx, *seed); err != nil {
			log.Fatalf("seeding failed: %v", err)
		}
		return
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

	store, err := openStore(ctx, cfg, client)
	if err != nil {
		log.Fatalf("chunk store init failed: %v", err)
	}

	if *doIngest {
		pipe := ingest.New(client, store, cfg.Retrieval.SentencesPerChunk, cfg.Retrieval.OverlapSentences, logger)
		n, err := pipe.IngestFiles(ctx, flag.Args())
		if err != nil {
			log.Fatalf("ingest failed: %v", err)
		}
		fmt.Printf("ingested %d chunk(s)\n", n)
		return
	}

	sc, err := loadSchema(ctx, cfg, wh)
	if err != nil {
		log.Fatalf("schema load failed: %v", err)
	}

	orc := orchestrator.New(
		classifier.New(client, logger),
		structured.New(client, wh, sc, logger),
		document.New(client, store, client, logger),
		cfg.Retrieval.TopK,
		logger,
	)

	if *ask != "" {
		resp, err := orc.Process(ctx, *ask)
		if err != nil {
			log.Fatalf("query failed: %v", err)
		}
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(out))
		return
	}

	if _, err := tea.NewProgram(tui.New(orc), tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}

// openStore builds the configured chunk store backend.
func openStore(ctx context.Context, cfg *config.AppConfig, embedder *llm.Client) (vectorstore.Store, error) {
	switch cfg.VectorStore.Type {
	case "memory", "":
		return memory.New(), nil
	case "chromem":
		return chromem.New(cfg.VectorStore.Chromem.Path, cfg.VectorStore.Chromem.Collection, embedder)
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		return qdrant.New(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		}), nil
	case "pgvector":
		if cfg.VectorStore.Pgvector == nil {
			return nil, fmt.Errorf("pgvector config missing")
		}
		return pgvector.New(ctx, cfg.VectorStore.Pgvector.DSN, cfg.VectorStore.Pgvector.Table, cfg.VectorStore.Pgvector.Dimension)
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
}

// loadSchema prefers the declared schema file and falls back to live
// discovery from the warehouse.
func loadSchema(ctx context.Context, cfg *config.AppConfig, wh *warehouse.DB) (*schema.Schema, error) {
	if cfg.Warehouse.SchemaFile != "" {
		return schema.Load(cfg.Warehouse.SchemaFile)
	}
	return wh.Discover(ctx)
}
