package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/kirillkom/catalogue-assistant/internal/core/domain"
	"github.com/kirillkom/catalogue-assistant/internal/core/usecase"
	"github.com/kirillkom/catalogue-assistant/internal/infrastructure/llm/deterministic"
	"github.com/kirillkom/catalogue-assistant/internal/infrastructure/repository/memory"
)

func seedProducts(t *testing.T, ingest *usecase.IngestUseCase) {
	t.Helper()
	price12 := 45.0
	price07 := 30.0
	products := []domain.Product{
		{ID: "12", Name: "Rise Again", Notes: "citrus-woody longevity 8-10h", Price: &price12},
		{ID: "07", Name: "Lost Words", Notes: "fresh-woody longevity 6-8h", Price: &price07},
	}
	if _, err := ingest.IngestProducts(context.Background(), products); err != nil {
		t.Fatalf("IngestProducts() error = %v", err)
	}
}

func TestCompareQueryEndToEnd(t *testing.T) {
	store := memory.NewStore()
	gateway := deterministic.New()
	ingest := usecase.NewIngestUseCase(store, gateway)
	retriever := usecase.NewRetrieveUseCase(store)
	chat := usecase.NewChatUseCase(gateway, retriever, gateway, 8, 3, 0.25)
	ctx := context.Background()

	seedProducts(t, ingest)

	query := "Compare Rise Again and Lost Words for longevity."
	queryVector, err := gateway.EmbedQuery(ctx, query)
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	hits, err := retriever.Retrieve(ctx, queryVector, 8, 0.25)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(hits) < 2 {
		t.Fatalf("expected at least 2 retrieved records, got %d", len(hits))
	}
	for _, hit := range hits {
		if !strings.HasPrefix(hit.ID, "p_") {
			t.Fatalf("expected product records, got id %s", hit.ID)
		}
	}

	completion, err := chat.Chat(ctx, []domain.Message{{Role: "user", Content: query}}, domain.ModeFast, nil)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if len(completion.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %v", completion.Citations)
	}
	cited := map[string]bool{}
	for _, c := range completion.Citations {
		cited[c] = true
	}
	if !cited["p_12"] || !cited["p_07"] {
		t.Fatalf("expected both products cited, got %v", completion.Citations)
	}
}

func TestIngestTwiceIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	gateway := deterministic.New()
	ingest := usecase.NewIngestUseCase(store, gateway)
	ctx := context.Background()

	seedProducts(t, ingest)
	price := 50.0
	updated := domain.Product{ID: "12", Name: "Rise Again", Notes: "reformulated", Price: &price}
	if _, err := ingest.IngestProducts(ctx, []domain.Product{updated}); err != nil {
		t.Fatalf("second ingest error = %v", err)
	}

	products, err := store.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts() error = %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products after re-ingest, got %d", len(products))
	}

	records, err := store.ScanEmbeddings(ctx)
	if err != nil {
		t.Fatalf("ScanEmbeddings() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 embedding records after re-ingest, got %d", len(records))
	}
	for _, rec := range records {
		if rec.ID != "p_12" {
			continue
		}
		if !strings.Contains(rec.Text, "reformulated") {
			t.Fatalf("expected second write to win, got text %q", rec.Text)
		}
		if !vectorsEqual(rec.Vector, deterministic.Vector(updated.EmbeddingText())) {
			t.Fatalf("expected vector to match re-embedded canonical text")
		}
	}
}

func TestQueryAgainstEmptyStore(t *testing.T) {
	store := memory.NewStore()
	gateway := deterministic.New()
	retriever := usecase.NewRetrieveUseCase(store)
	chat := usecase.NewChatUseCase(gateway, retriever, gateway, 8, 3, 0.25)

	completion, err := chat.Chat(context.Background(), []domain.Message{{Role: "user", Content: "anything stored?"}}, domain.ModeFast, nil)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if completion.Answer != usecase.NoRelevantInfoAnswer {
		t.Fatalf("unexpected answer %q", completion.Answer)
	}
	if len(completion.Citations) != 0 {
		t.Fatalf("expected no citations, got %v", completion.Citations)
	}
}

func vectorsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
