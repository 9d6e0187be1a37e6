package httpadapter

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/catalogue-assistant/internal/core/domain"
)

func TestChatReturnsCompletion(t *testing.T) {
	handler, d := newTestHandler(t, Config{})
	d.chat.completion = domain.Completion{
		Answer:    "Rise Again lasts longer.",
		Citations: []string{"p_12", "p_07"},
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(
		`{"messages":[{"role":"user","content":"Compare Rise Again and Lost Words."}],"mode":"accurate"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var resp domain.Completion
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer != "Rise Again lasts longer." || len(resp.Citations) != 2 {
		t.Fatalf("unexpected completion %+v", resp)
	}
	if d.chat.gotMode != domain.ModeAccurate {
		t.Fatalf("expected accurate mode, got %q", d.chat.gotMode)
	}
}

func TestChatUnknownModeDefaultsToFast(t *testing.T) {
	handler, d := newTestHandler(t, Config{})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(
		`{"messages":[{"role":"user","content":"hi"}],"mode":"turbo"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if d.chat.gotMode != domain.ModeFast {
		t.Fatalf("expected fast mode fallback, got %q", d.chat.gotMode)
	}
}

func TestChatRequiresMessages(t *testing.T) {
	handler, _ := newTestHandler(t, Config{})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"messages":[]}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestChatMapsInvalidInputTo400(t *testing.T) {
	handler, d := newTestHandler(t, Config{})
	d.chat.err = domain.WrapError(domain.ErrInvalidInput, "chat", domain.ErrInvalidInput)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(
		`{"messages":[{"role":"assistant","content":"no user turn"}]}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestEmbeddingsEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t, Config{})

	req := httptest.NewRequest(http.MethodPost, "/v1/embeddings", strings.NewReader(`{"texts":["a","b"]}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var resp struct {
		Vectors [][]float64 `json:"vectors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(resp.Vectors))
	}
}

func TestEmbeddingsRequiresTexts(t *testing.T) {
	handler, _ := newTestHandler(t, Config{})

	req := httptest.NewRequest(http.MethodPost, "/v1/embeddings", strings.NewReader(`{"texts":[]}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestCatalogueListsStoredData(t *testing.T) {
	handler, d := newTestHandler(t, Config{})
	d.store.products = []domain.Product{{ID: "12", Name: "Rise Again"}}

	req := httptest.NewRequest(http.MethodGet, "/v1/catalogue", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var resp struct {
		Products  []domain.Product  `json:"products"`
		FAQChunks []domain.FAQChunk `json:"faq_chunks"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Products) != 1 || resp.Products[0].ID != "12" {
		t.Fatalf("unexpected products %+v", resp.Products)
	}
	if resp.FAQChunks == nil {
		t.Fatalf("faq_chunks must be an empty array, not null")
	}
}

func TestHealthz(t *testing.T) {
	handler, _ := newTestHandler(t, Config{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header on every response")
	}
}
