package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gops/agent"

	"github.com/AnselmPowell/gov-project/ai"
	"github.com/AnselmPowell/gov-project/ai/aitest"
	"github.com/AnselmPowell/gov-project/ai/ollama"
	"github.com/AnselmPowell/gov-project/ai/openai"
	"github.com/AnselmPowell/gov-project/chunker"
	"github.com/AnselmPowell/gov-project/config"
	"github.com/AnselmPowell/gov-project/pipeline"
	"github.com/AnselmPowell/gov-project/practice"
	"github.com/AnselmPowell/gov-project/service"
	"github.com/AnselmPowell/gov-project/store"
	"github.com/AnselmPowell/gov-project/store/memstore"
	"github.com/AnselmPowell/gov-project/store/sqlite"
	"github.com/AnselmPowell/gov-project/vectordb"
	"github.com/AnselmPowell/gov-project/vectordb/mem"
	"github.com/AnselmPowell/gov-project/vectordb/sqlitevec"
)

func main() {
	startGops()
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "analyze":
		analyzeCmd(os.Args[2:])
	case "search":
		searchCmd(os.Args[2:])
	case "themes":
		themesCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: govpipe <command> [options]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  analyze  Run a governance document through the analysis pipeline")
	fmt.Fprintln(os.Stderr, "  search   Similarity search over extracted findings")
	fmt.Fprintln(os.Stderr, "  themes   Show the accumulated theme vocabulary")
}

func analyzeCmd(args []string) {
	flags := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml path (optional)")
	file := flags.String("file", "", "document path or URL (required)")
	fileID := flags.String("id", "", "external file id (defaults to file name)")
	fileType := flags.String("type", "", "MIME type: pdf/docx/odt constants accepted (required)")
	flags.Parse(args)

	if *file == "" || *fileType == "" {
		flags.Usage()
		os.Exit(2)
	}
	id := *fileID
	if id == "" {
		id = *file
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, cleanup := buildService(*configPath)
	defer cleanup()

	started := time.Now()
	resp, err := svc.Analyze(ctx, service.AnalyzeRequest{
		FileName: *file,
		FileURL:  *file,
		FileID:   id,
		FileType: *fileType,
		Logf:     log.Printf,
	})
	if err != nil {
		log.Fatalf("analyze: %v", err)
	}
	fmt.Printf("document %s: %s in %v\n", resp.DocumentID, resp.Status, time.Since(started))
	fmt.Printf("pages=%d chunks=%d words=%d chunk-errors=%d findings=%d\n",
		resp.TotalPages, resp.TotalChunks, resp.TotalWords, resp.ChunksWithErrors, len(resp.Findings))
	for _, finding := range resp.Findings {
		kind := "concern"
		if finding.IsBestPractice {
			kind = "best practice"
		}
		fmt.Printf("- [%s] p%d %.2f %s (themes: %v)\n", kind, finding.PageNumber, finding.Confidence, finding.Text, finding.Themes)
	}
}

func searchCmd(args []string) {
	flags := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml path (optional)")
	query := flags.String("query", "", "search query (required)")
	scope := flags.String("scope", service.ScopeFindings, "findings|documents")
	limit := flags.Int("limit", 10, "max results")
	threshold := flags.Float64("threshold", 0, "max distance, 0 disables")
	flags.Parse(args)

	if *query == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, cleanup := buildService(*configPath)
	defer cleanup()

	resp, err := svc.Search(ctx, service.SearchRequest{
		Query:     *query,
		Scope:     *scope,
		Limit:     *limit,
		Threshold: *threshold,
	})
	if err != nil {
		log.Fatalf("search: %v", err)
	}
	for _, match := range resp.Findings {
		fmt.Printf("%.4f %s (doc %s, p%d)\n", match.Distance, match.Finding.Text, match.Finding.DocumentID, match.Finding.PageNumber)
	}
	for _, match := range resp.Documents {
		fmt.Printf("%.4f %s %v\n", match.Distance, match.Document.Content, match.Document.Metadata)
	}
}

func themesCmd(args []string) {
	flags := flag.NewFlagSet("themes", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml path (optional)")
	flags.Parse(args)

	svc, cleanup := buildService(*configPath)
	defer cleanup()

	stats, err := svc.ThemeStats()
	if err != nil {
		log.Fatalf("themes: %v", err)
	}
	fmt.Printf("themes=%d\n", stats.TotalThemes)
	for _, theme := range stats.TopThemes {
		fmt.Printf("%4d %s\n", stats.Frequency[theme], theme)
	}
}

func buildService(configPath string) (*service.Service, func()) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var closers []func() error
	var docs store.DocStore
	switch cfg.Store.Driver {
	case config.StoreSQLite:
		st, err := sqlite.Open(cfg.Store.DSN)
		if err != nil {
			log.Fatalf("store: %v", err)
		}
		closers = append(closers, st.Close)
		docs = st
	default:
		docs = memstore.New()
	}

	var index vectordb.Index
	switch cfg.Vector.Backend {
	case config.VectorSQLiteVec:
		vs, err := sqlitevec.NewStore(sqlitevec.WithDSN(cfg.Vector.DSN))
		if err != nil {
			log.Fatalf("vector store: %v", err)
		}
		closers = append(closers, vs.Close)
		index = vs
	default:
		index = mem.New()
	}

	var embedder ai.Embedder
	switch cfg.Embedder.Provider {
	case config.EmbedOllama:
		embedder = ollama.NewClient(cfg.Embedder.BaseURL, cfg.OpenAI.EmbeddingModel)
	case config.EmbedLocal:
		embedder = &aitest.Embedder{Dim: cfg.OpenAI.Dimensions}
	default:
		if cfg.OpenAI.APIKey == "" {
			log.Printf("no OpenAI key configured, using deterministic local embeddings")
			embedder = &aitest.Embedder{Dim: cfg.OpenAI.Dimensions}
			break
		}
		embedder = openai.NewEmbeddingClient(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel)
	}
	chat := openai.NewChatClient(cfg.OpenAI.APIKey, cfg.OpenAI.ChatModel)
	chat.Temperature = cfg.OpenAI.Temperature

	extractor := practice.NewExtractor(chat, docs, practice.WithExtractorCacheCapacity(cfg.Cache.Capacity))
	classifier := practice.NewClassifier(chat, docs)
	summarizer := practice.NewSummarizer(chat)
	embeddings := vectordb.NewEmbeddingService(embedder,
		vectordb.WithEmbeddingCache(cfg.Cache.Capacity, cfg.Cache.EmbeddingTTL.Std()))

	orchestrator := pipeline.NewOrchestrator(docs, extractor,
		pipeline.WithClassifier(classifier),
		pipeline.WithSummarizer(summarizer),
		pipeline.WithVectorizer(embeddings, index),
		pipeline.WithBatchSize(cfg.Pipeline.BatchSize),
		pipeline.WithWorkers(cfg.Pipeline.Workers),
		pipeline.WithChunker(chunker.New(cfg.Pipeline.ChunkSize, cfg.Pipeline.ChunkOverlap)),
	)

	svc := service.New(docs, orchestrator,
		service.WithFetcher(pipeline.NewFetcher(cfg.DataDir)),
		service.WithClassifier(classifier),
		service.WithSearch(embeddings, index, index),
	)
	cleanup := func() {
		for _, closer := range closers {
			if err := closer(); err != nil {
				log.Printf("close: %v", err)
			}
		}
	}
	return svc, cleanup
}

func startGops() {
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		log.Printf("gops: %v", err)
	}
}
