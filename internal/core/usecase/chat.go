package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/catalogue-assistant/internal/core/domain"
	"github.com/kirillkom/catalogue-assistant/internal/core/ports"
)

// NoRelevantInfoAnswer is returned when retrieval finds nothing above the
// similarity threshold; the generator is never invoked with empty context.
const NoRelevantInfoAnswer = "Sorry, I couldn't find any relevant information."

const defaultCitationLimit = 3

// ChatUseCase answers one user query. Caller-supplied snippets bypass
// retrieval entirely, which lets clients pin grounding deterministically.
type ChatUseCase struct {
	embedder  ports.Embedder
	retriever ports.Retriever
	generator ports.CompletionGateway

	topK         int
	contextLimit int
	threshold    float64
}

func NewChatUseCase(
	embedder ports.Embedder,
	retriever ports.Retriever,
	generator ports.CompletionGateway,
	topK int,
	contextLimit int,
	threshold float64,
) *ChatUseCase {
	if topK <= 0 {
		topK = 8
	}
	if contextLimit <= 0 {
		contextLimit = 3
	}
	return &ChatUseCase{
		embedder:     embedder,
		retriever:    retriever,
		generator:    generator,
		topK:         topK,
		contextLimit: contextLimit,
		threshold:    threshold,
	}
}

func (uc *ChatUseCase) Chat(
	ctx context.Context,
	messages []domain.Message,
	mode domain.Mode,
	snippets []domain.ContextSnippet,
) (domain.Completion, error) {
	if len(snippets) > 0 {
		completion, err := uc.generator.Complete(ctx, messages, mode, snippets)
		if err != nil {
			return domain.Completion{}, fmt.Errorf("generate from provided context: %w", err)
		}
		return defaultCitations(completion, snippets), nil
	}

	query, err := lastUserContent(messages)
	if err != nil {
		return domain.Completion{}, err
	}

	queryVector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return domain.Completion{}, fmt.Errorf("embed query: %w", err)
	}

	hits, err := uc.retriever.Retrieve(ctx, queryVector, uc.topK, uc.threshold)
	if err != nil {
		return domain.Completion{}, fmt.Errorf("retrieve context: %w", err)
	}
	if len(hits) == 0 {
		return domain.Completion{
			Answer:    NoRelevantInfoAnswer,
			Citations: []string{},
		}, nil
	}

	if len(hits) > uc.contextLimit {
		hits = hits[:uc.contextLimit]
	}
	retrieved := make([]domain.ContextSnippet, 0, len(hits))
	for _, hit := range hits {
		retrieved = append(retrieved, hit.Snippet())
	}

	completion, err := uc.generator.Complete(ctx, messages, mode, retrieved)
	if err != nil {
		return domain.Completion{}, fmt.Errorf("generate answer: %w", err)
	}
	return defaultCitations(completion, retrieved), nil
}

func lastUserContent(messages []domain.Message) (string, error) {
	if len(messages) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "chat", errors.New("messages are required"))
	}
	content := strings.TrimSpace(messages[len(messages)-1].Content)
	if content == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "chat", errors.New("last message has no content"))
	}
	return content, nil
}

func defaultCitations(completion domain.Completion, snippets []domain.ContextSnippet) domain.Completion {
	if len(completion.Citations) > 0 {
		return completion
	}
	limit := defaultCitationLimit
	if len(snippets) < limit {
		limit = len(snippets)
	}
	citations := make([]string, 0, limit)
	for _, s := range snippets[:limit] {
		citations = append(citations, s.ID)
	}
	completion.Citations = citations
	return completion
}
