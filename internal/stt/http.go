package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"
)

// DefaultTimeout bounds a single transcription request
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is kept
const maxErrorBody = 512

// HTTPTranscriber posts phrases to an OpenAI-compatible transcription endpoint
type HTTPTranscriber struct {
	client *http.Client
}

// NewHTTPTranscriber creates an HTTP transcriber. A nil client gets one with DefaultTimeout.
func NewHTTPTranscriber(client *http.Client) *HTTPTranscriber {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPTranscriber{client: client}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe sends the WAV as multipart form data and returns the "text" field
func (h *HTTPTranscriber) Transcribe(ctx context.Context, req Request) (string, error) {
	body, contentType, err := buildMultipart(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, body)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	if req.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	var result transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode transcription response: %w", err)
	}

	return result.Text, nil
}

func buildMultipart(req Request) (io.Reader, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="audio.wav"`)
	header.Set("Content-Type", "audio/wav")
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(req.Audio); err != nil {
		return nil, "", fmt.Errorf("failed to write form file: %w", err)
	}

	if err := writer.WriteField("model", req.Model); err != nil {
		return nil, "", fmt.Errorf("failed to write model field: %w", err)
	}
	if err := writer.WriteField("language", req.Language); err != nil {
		return nil, "", fmt.Errorf("failed to write language field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}

	return &body, writer.FormDataContentType(), nil
}

// Name returns the backend name
func (h *HTTPTranscriber) Name() string {
	return "http"
}

// Close is a no-op for the HTTP backend
func (h *HTTPTranscriber) Close() error {
	return nil
}
