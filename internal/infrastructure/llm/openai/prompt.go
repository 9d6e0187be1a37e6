package openai

import (
	"fmt"
	"strings"

	"github.com/kirillkom/catalogue-assistant/internal/core/domain"
)

const sourcesPrefix = "SOURCES:"

func buildSystemPrompt(snippets []domain.ContextSnippet) string {
	var contextBuilder strings.Builder
	for _, s := range snippets {
		fmt.Fprintf(&contextBuilder, "[%s] %s\n\n", s.ID, s.Text)
	}

	return fmt.Sprintf(`You are a product catalogue assistant.
Answer using ONLY the context snippets below.
If the answer is not found in the context, say "I don't know based on the provided info."
End your answer with a final line starting with "SOURCES:" listing the snippet ids you used, comma separated.

Context:
%s`, contextBuilder.String())
}

// extractSources splits a trailing SOURCES line off the answer. A missing
// or unparseable line yields no citations, which the query orchestrator
// then defaults from the snippets it supplied.
func extractSources(answer string) (string, []string) {
	trimmed := strings.TrimSpace(answer)
	lines := strings.Split(trimmed, "\n")
	last := strings.TrimSpace(lines[len(lines)-1])

	if !strings.HasPrefix(strings.ToUpper(last), sourcesPrefix) {
		return trimmed, nil
	}

	var citations []string
	rest := strings.TrimSpace(last[len(sourcesPrefix):])
	for _, token := range strings.FieldsFunc(rest, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	}) {
		token = strings.Trim(token, "[].")
		if token != "" {
			citations = append(citations, token)
		}
	}

	body := strings.TrimSpace(strings.Join(lines[:len(lines)-1], "\n"))
	if body == "" {
		body = trimmed
	}
	return body, citations
}
