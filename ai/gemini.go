package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/itzme-challa/TalkStranger-chatbot/domain"
)

const (
	defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	systemPrompt    = "You are a helpful, concise assistant inside a chat bot. Keep answers compact unless asked."
)

// GeminiResponder talks to the Gemini generateContent REST endpoint,
// carrying a bounded per-chat history through a ContextBuffer.
type GeminiResponder struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	buffer   *ContextBuffer
}

func NewGeminiResponder(apiKey, model string, client *http.Client, buffer *ContextBuffer) *GeminiResponder {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &GeminiResponder{
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultEndpoint,
		client:   client,
		buffer:   buffer,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Reply sends the retained history plus the new message and stores both
// sides of the exchange on success.
func (g *GeminiResponder) Reply(ctx context.Context, chat domain.ParticipantID, message string) (string, error) {
	contents := lo.Map(g.buffer.History(chat), func(turn Turn, _ int) geminiContent {
		return geminiContent{Role: turn.Role, Parts: []geminiPart{{Text: turn.Content}}}
	})
	contents = append(contents, geminiContent{Role: RoleUser, Parts: []geminiPart{{Text: message}}})

	payload, err := json.Marshal(geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}},
		Contents:          contents,
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.endpoint, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("gemini response malformed: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	answer := parsed.Candidates[0].Content.Parts[0].Text
	g.buffer.Push(chat, RoleUser, message)
	g.buffer.Push(chat, RoleModel, answer)
	return answer, nil
}
