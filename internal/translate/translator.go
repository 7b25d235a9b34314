// Package translate sends transcribed phrases to an OpenAI-compatible chat
// completions endpoint for translation.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single translation request
const DefaultTimeout = 30 * time.Second

const maxErrorBody = 512

// ErrEmptyTranslation is returned when the model answers with no text
var ErrEmptyTranslation = errors.New("empty translation")

// Exchange is one earlier phrase and its translation
type Exchange struct {
	Original   string
	Translated string
}

// Request is a single translation call
type Request struct {
	URL            string
	APIKey         string
	Model          string
	TargetLanguage string
	Text           string
	// History is sent oldest first as prior user/assistant turns
	History []Exchange
}

// Translator translates one phrase
type Translator interface {
	Translate(ctx context.Context, req Request) (string, error)
}

// StatusError is returned when the server answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("translation request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("translation request failed with status %d: %s", e.StatusCode, e.Body)
}

// Message is a chat completions message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// SystemPrompt returns the translator instruction for the target language
func SystemPrompt(targetLanguage string) string {
	return fmt.Sprintf("You are a real-time translator for a scientific presentation. "+
		"Translate the following spoken text into %s. "+
		"Preserve technical and scientific terminology accurately. "+
		"Output only a single, most probable translation. "+
		"Print only the translated text and absolutely nothing else: "+
		"no alternatives, no explanations, no notes, no quotation marks.",
		LanguageName(targetLanguage))
}

// BuildMessages assembles the system turn, the history pairs and the new user turn
func BuildMessages(req Request) []Message {
	messages := make([]Message, 0, 2+2*len(req.History))
	messages = append(messages, Message{Role: "system", Content: SystemPrompt(req.TargetLanguage)})
	for _, ex := range req.History {
		messages = append(messages,
			Message{Role: "user", Content: ex.Original},
			Message{Role: "assistant", Content: ex.Translated},
		)
	}
	return append(messages, Message{Role: "user", Content: req.Text})
}

// ChatTranslator calls a chat completions endpoint
type ChatTranslator struct {
	client *http.Client
}

// NewChatTranslator creates a translator. A nil client gets one with DefaultTimeout.
func NewChatTranslator(client *http.Client) *ChatTranslator {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &ChatTranslator{client: client}
}

// Translate returns the trimmed content of the first choice
func (c *ChatTranslator) Translate(ctx context.Context, req Request) (string, error) {
	payload, err := json.Marshal(chatRequest{Model: req.Model, Messages: BuildMessages(req)})
	if err != nil {
		return "", fmt.Errorf("failed to marshal translation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create translation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode translation response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("translation response has no choices: %w", ErrEmptyTranslation)
	}

	text := strings.TrimSpace(result.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyTranslation
	}
	return text, nil
}
