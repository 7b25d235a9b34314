package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/emmett/livecap/internal/display"
)

// ConsoleOutput prints captions and status lines to a terminal
type ConsoleOutput struct {
	mu            sync.Mutex
	writer        io.Writer
	errWriter     io.Writer
	showTimestamp bool
}

// ConsoleConfig configures console output behavior
type ConsoleConfig struct {
	// ShowTimestamp prefixes each caption with a timestamp
	ShowTimestamp bool

	// Writer is the output destination (default: os.Stdout)
	Writer io.Writer

	// ErrWriter receives error messages (default: os.Stderr)
	ErrWriter io.Writer
}

// NewConsoleOutput creates a new console output handler
func NewConsoleOutput(config ConsoleConfig) *ConsoleOutput {
	writer := config.Writer
	if writer == nil {
		writer = os.Stdout
	}
	errWriter := config.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}

	return &ConsoleOutput{
		writer:        writer,
		errWriter:     errWriter,
		showTimestamp: config.ShowTimestamp,
	}
}

// Caption prints a display string. Multi-line captions (original and
// translation) are indented under the timestamp.
func (c *ConsoleOutput) Caption(text string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := ""
	if c.showTimestamp {
		prefix = fmt.Sprintf("[%s] ", at.Format("15:04:05"))
	}
	indent := strings.Repeat(" ", len(prefix))

	for i, line := range strings.Split(text, "\n") {
		if i == 0 {
			fmt.Fprintf(c.writer, "%s%s\n", prefix, line)
		} else {
			fmt.Fprintf(c.writer, "%s%s\n", indent, line)
		}
	}
}

// Info writes an informational message
func (c *ConsoleOutput) Info(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.writer, "[INFO] %s\n", msg)
}

// Error writes an error message
func (c *ConsoleOutput) Error(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.errWriter, "[ERROR] %s\n", msg)
}

// Render prints the cell's caption every time it changes until ctx is
// cancelled. A cleared cell prints nothing.
func (c *ConsoleOutput) Render(ctx context.Context, cell *display.Cell) {
	var last string
	for {
		select {
		case <-ctx.Done():
			return
		case <-cell.Updates():
			result := cell.Get()
			if result.Text == "" || result.Text == last {
				last = result.Text
				continue
			}
			last = result.Text
			at := result.UpdatedAt
			if at.IsZero() {
				at = time.Now()
			}
			c.Caption(result.Text, at)
		}
	}
}
