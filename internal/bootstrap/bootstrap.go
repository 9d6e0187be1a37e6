package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/catalogue-assistant/internal/config"
	"github.com/kirillkom/catalogue-assistant/internal/core/ports"
	"github.com/kirillkom/catalogue-assistant/internal/core/usecase"
	"github.com/kirillkom/catalogue-assistant/internal/infrastructure/chunking"
	"github.com/kirillkom/catalogue-assistant/internal/infrastructure/extractor/pdfpage"
	"github.com/kirillkom/catalogue-assistant/internal/infrastructure/llm/deterministic"
	"github.com/kirillkom/catalogue-assistant/internal/infrastructure/llm/openai"
	"github.com/kirillkom/catalogue-assistant/internal/infrastructure/repository/memory"
	"github.com/kirillkom/catalogue-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/catalogue-assistant/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/catalogue-assistant/internal/infrastructure/tabular"
	"github.com/kirillkom/catalogue-assistant/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/catalogue-assistant/internal/observability/metrics"
)

// catalogueStore is what the wiring needs from a storage backend: the write
// side for ingestion and the scan side for retrieval.
type catalogueStore interface {
	ports.CatalogueStore
	ports.VectorStore
}

type App struct {
	Config config.Config

	Store     ports.CatalogueStore
	Ingestor  ports.CatalogueIngestor
	Chat      ports.ChatService
	Embedder  ports.Embedder
	Parser    *tabular.Parser
	Chunker   ports.Chunker
	Extractor ports.PageExtractor
	Storage   ports.ObjectStorage
	Metrics   *metrics.HTTPServerMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	var store catalogueStore
	closeFn := func() {}

	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewCatalogueRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		store = repo
		closeFn = func() { _ = db.Close() }
		slog.Info("storage_backend", "kind", "postgres")
	} else {
		store = memory.NewStore()
		slog.Info("storage_backend", "kind", "memory")
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("init upload archive: %w", err)
	}

	serverMetrics := metrics.NewHTTPServerMetrics("catalogue-assistant")

	var index ports.DocumentIndex
	if cfg.QdrantURL != "" {
		index = qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
		slog.Info("document_index", "kind", "qdrant", "collection", cfg.QdrantCollection)
	}

	embedder, generator := buildGateways(cfg, index, serverMetrics)

	retriever := usecase.NewRetrieveUseCase(store)
	ingestor := usecase.NewIngestUseCase(store, embedder)
	chat := usecase.NewChatUseCase(
		embedder,
		retriever,
		generator,
		cfg.RAGTopK,
		cfg.RAGContextSnippets,
		cfg.RAGSimilarityThreshold,
	)

	return &App{
		Config:    cfg,
		Store:     store,
		Ingestor:  ingestor,
		Chat:      chat,
		Embedder:  embedder,
		Parser:    tabular.NewParser(slog.Default()),
		Chunker:   chunking.NewSplitter(cfg.ChunkSize),
		Extractor: pdfpage.NewExtractor(slog.Default()),
		Storage:   storage,
		Metrics:   serverMetrics,
		closeFn:   closeFn,
	}, nil
}

// buildGateways selects the external gateways when an API key is present
// and the self-contained deterministic ones otherwise.
func buildGateways(
	cfg config.Config,
	index ports.DocumentIndex,
	serverMetrics *metrics.HTTPServerMetrics,
) (ports.Embedder, ports.CompletionGateway) {
	if cfg.OpenAIAPIKey == "" {
		slog.Info("llm_gateway", "kind", "deterministic")
		gateway := deterministic.New()
		return gateway, gateway
	}

	client := openai.New(
		cfg.OpenAIBaseURL,
		cfg.OpenAIAPIKey,
		cfg.OpenAIEmbedModel,
		cfg.OpenAIChatModel,
		openai.Options{Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second},
	)

	embedder := openai.NewEmbedder(client, index)
	embedder.SetFallbackHook(func(path string) {
		serverMetrics.RecordEmbeddingFallback("catalogue-assistant", path)
	})

	slog.Info("llm_gateway", "kind", "openai", "embed_model", cfg.OpenAIEmbedModel, "chat_model", cfg.OpenAIChatModel)
	return embedder, openai.NewGenerator(client)
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
