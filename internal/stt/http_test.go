package stt

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPTranscriberRequest(t *testing.T) {
	audio := []byte("RIFF-fake-wav")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Expected bearer auth, got %q", got)
		}

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm failed: %v", err)
			return
		}
		if got := r.FormValue("model"); got != "large-v3" {
			t.Errorf("Expected model large-v3, got %q", got)
		}
		if got := r.FormValue("language"); got != "ko" {
			t.Errorf("Expected language ko, got %q", got)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile failed: %v", err)
			return
		}
		defer file.Close()
		if header.Filename != "audio.wav" {
			t.Errorf("Expected filename audio.wav, got %q", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "audio/wav" {
			t.Errorf("Expected part type audio/wav, got %q", ct)
		}
		data, _ := io.ReadAll(file)
		if string(data) != string(audio) {
			t.Errorf("file part mismatch: %q", data)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"  안녕하세요  "}`))
	}))
	defer server.Close()

	tr := NewHTTPTranscriber(server.Client())
	text, err := tr.Transcribe(context.Background(), Request{
		URL:      server.URL,
		APIKey:   "sk-test",
		Model:    "large-v3",
		Language: "ko",
		Audio:    audio,
	})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "  안녕하세요  " {
		t.Errorf("transcriber must return the raw text, got %q", text)
	}
}

func TestHTTPTranscriberNoAuthWithoutKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Expected no Authorization header, got %q", got)
		}
		_, _ = w.Write([]byte(`{"text":"ok"}`))
	}))
	defer server.Close()

	text, err := NewHTTPTranscriber(nil).Transcribe(context.Background(), Request{URL: server.URL})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "ok" {
		t.Errorf("Expected ok, got %q", text)
	}
}

func TestHTTPTranscriberStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewHTTPTranscriber(server.Client()).Transcribe(context.Background(), Request{URL: server.URL})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected *StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", statusErr.StatusCode)
	}
	if statusErr.Body != "quota exceeded" {
		t.Errorf("Expected body snippet, got %q", statusErr.Body)
	}
}

func TestHTTPTranscriberBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	if _, err := NewHTTPTranscriber(server.Client()).Transcribe(context.Background(), Request{URL: server.URL}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestHTTPTranscriberTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := &http.Client{Timeout: 50 * time.Millisecond}
	if _, err := NewHTTPTranscriber(client).Transcribe(context.Background(), Request{URL: server.URL}); err == nil {
		t.Fatal("expected timeout error")
	}
}
