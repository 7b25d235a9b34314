package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// PhraseResult is one dispatched phrase as reported to the user
type PhraseResult struct {
	Index      int       `json:"index"`
	PhraseID   string    `json:"phrase_id"`
	Original   string    `json:"original"`
	Translated string    `json:"translated,omitempty"`
	Display    string    `json:"display"`
	Duration   float64   `json:"duration_secs"`
	Timestamp  time.Time `json:"timestamp"`
}

// Event represents a system event
type Event struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Formatter is the interface for phrase event formatters
type Formatter interface {
	// WriteResult writes a dispatched phrase
	WriteResult(result PhraseResult) error

	// WriteEvent writes a system event (e.g., session start/stop)
	WriteEvent(eventType, message string) error

	// Close closes the formatter and releases resources
	Close() error
}

// NewFormatter returns the formatter for format, or nil for "console"
func NewFormatter(format string, writer io.Writer) (Formatter, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONFormatter(writer), nil
	case "text":
		return NewPlainTextFormatter(writer), nil
	case "console", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown output format: %s (valid: console, json, text)", format)
	}
}

// JSONFormatter writes one JSON object per line
type JSONFormatter struct {
	encoder *json.Encoder
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(writer io.Writer) *JSONFormatter {
	return &JSONFormatter{encoder: json.NewEncoder(writer)}
}

// WriteResult writes a phrase result in JSON format
func (j *JSONFormatter) WriteResult(result PhraseResult) error {
	return j.encoder.Encode(struct {
		Type string `json:"type"`
		PhraseResult
	}{Type: "phrase", PhraseResult: result})
}

// WriteEvent writes a system event
func (j *JSONFormatter) WriteEvent(eventType, message string) error {
	return j.encoder.Encode(Event{
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// Close closes the formatter
func (j *JSONFormatter) Close() error {
	return nil
}

// PlainTextFormatter outputs phrases in plain text format
type PlainTextFormatter struct {
	writer io.Writer
}

// NewPlainTextFormatter creates a new plain text formatter
func NewPlainTextFormatter(writer io.Writer) *PlainTextFormatter {
	return &PlainTextFormatter{writer: writer}
}

// WriteResult writes a phrase result in plain text
func (p *PlainTextFormatter) WriteResult(result PhraseResult) error {
	timestamp := result.Timestamp.Format("15:04:05")
	var text string
	if result.Translated != "" {
		text = fmt.Sprintf("[%s] %s => %s\n", timestamp, result.Original, result.Translated)
	} else {
		text = fmt.Sprintf("[%s] %s\n", timestamp, result.Original)
	}

	_, err := io.WriteString(p.writer, text)
	return err
}

// WriteEvent writes a system event
func (p *PlainTextFormatter) WriteEvent(eventType, message string) error {
	timestamp := time.Now().Format("15:04:05")
	_, err := fmt.Fprintf(p.writer, "[%s] [%s] %s\n", timestamp, eventType, message)
	return err
}

// Close closes the formatter
func (p *PlainTextFormatter) Close() error {
	return nil
}
