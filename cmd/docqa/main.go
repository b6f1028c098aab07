package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/extract"
	"docqa/internal/llm"
	"docqa/internal/logger"
	"docqa/internal/pipeline"
	"docqa/internal/summarizer"
	"docqa/internal/tui"
	"docqa/internal/vectorstore/memory"
	"docqa/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docqa/config.yaml if not provided)")
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Println("Usage: docqa [--config=config.yaml] doc1.pdf [chart.png ...]")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}
	defer zlog.Sync()

	apiKey, err := cfg.LLM.Credential()
	if err != nil && (cfg.Embedder.Type == "openai" || cfg.Embedder.Type == "") {
		log.Fatalf("credential: %v", err)
	}

	// Assemble components. A fresh embedder instance per ingestion keeps a
	// failed re-ingest from disturbing the published knowledge base.
	var newEmbedder func() domain.Embedder
	switch cfg.Embedder.Type {
	case "openai", "":
		emb, err := embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			APIKey:  apiKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.Embedder.Model,
			Timeout: time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		// Stateless, safe to share across ingestions.
		newEmbedder = func() domain.Embedder { return emb }
	case "tfidf":
		newEmbedder = func() domain.Embedder { return embedding.NewTFIDFEmbedder() }
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}

	client, err := llm.NewClient(llm.Config{
		APIKey:    apiKey,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("llm client init failed: %v", err)
	}

	var newStore func() domain.VectorStore
	switch cfg.VectorStore.Type {
	case "memory", "":
		newStore = func() domain.VectorStore { return memory.NewStore() }
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			log.Fatalf("qdrant config missing")
		}
		qcfg := qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		}
		newStore = func() domain.VectorStore { return qdrant.NewStore(qcfg) }
	default:
		log.Fatalf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	p := pipeline.New(pipeline.Deps{
		Extractor:   extract.NewFileExtractor(zlog),
		Captioner:   client,
		NewEmbedder: newEmbedder,
		Generator:   client,
		Chunker:     chunker.NewTextChunker(cfg.Chunker.Size, cfg.Chunker.Overlap),
		Summarizer:  summarizer.NewFrequencySummarizer(),
		NewStore:    newStore,
		TopK:        cfg.Retrieval.TopK,
		Logger:      zlog,
	})

	fmt.Println("Processing documents... This may take a while for images.")
	if err := p.Ingest(context.Background(), inputs); err != nil {
		log.Fatalf("ingest failed: %v", err)
	}

	if _, err := tea.NewProgram(tui.New(p)).Run(); err != nil {
		log.Fatal(err)
	}
}
