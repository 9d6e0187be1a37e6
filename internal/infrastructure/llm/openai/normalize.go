package openai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// normalizeEmbeddingResponse converts a provider response into a strict
// vector batch. Compatible providers return either the documented object or
// the same object re-encoded as a JSON string; both are accepted here and
// nothing downstream ever sees the raw shapes. Items with a malformed
// vector are dropped; a response with no usable vectors is an error, which
// makes the embedder fall back for the whole batch.
func normalizeEmbeddingResponse(raw []byte) ([][]float64, error) {
	body, err := unwrapJSONString(raw)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Data []struct {
			Embedding json.RawMessage `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse embedding response: %w", err)
	}

	out := make([][]float64, 0, len(parsed.Data))
	for _, item := range parsed.Data {
		var vec []float64
		if err := json.Unmarshal(item.Embedding, &vec); err != nil || len(vec) == 0 {
			continue
		}
		out = append(out, vec)
	}
	if len(out) == 0 {
		return nil, errors.New("no usable vectors in embedding response")
	}
	return out, nil
}

func extractChatContent(raw []byte) (string, error) {
	body, err := unwrapJSONString(raw)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("completion response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func unwrapJSONString(raw []byte) ([]byte, error) {
	body := bytes.TrimSpace(raw)
	if len(body) == 0 {
		return nil, errors.New("empty gateway response")
	}
	if body[0] != '"' {
		return body, nil
	}
	var quoted string
	if err := json.Unmarshal(body, &quoted); err != nil {
		return nil, fmt.Errorf("unwrap string response: %w", err)
	}
	return []byte(quoted), nil
}
