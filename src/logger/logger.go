// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/internal/helper/gc"
)

// Level names used in structured log entries.
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Logger defines the interface for logging operations.
// It provides methods for different log levels and formatted output.
//
// This interface supports both CLI and [MCP] server modes, allowing seamless
// switching between human-readable output and structured logging.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type Logger interface {
	// Printf formats and prints an informational log message.
	Printf(format string, v ...any)
	// Println prints an informational log message with a newline.
	Println(v ...any)
	// Warnf formats and prints a warning, e.g. an insecure host key policy.
	Warnf(format string, v ...any)
	// Errorf formats and prints an error that did not abort the operation,
	// e.g. a jump-host connection that failed to close during cleanup.
	Errorf(format string, v ...any)
	// SetOutput sets the output destination for the logger.
	SetOutput(w io.Writer)
}

// CLILogger implements Logger using the standard log package.
// It's designed for command-line interface output with human-readable formatting.
type CLILogger struct{ logger *log.Logger }

// NewCLILogger creates a new CLI logger with timestamps disabled.
// This is suitable for user-facing CLI output.
func NewCLILogger() *CLILogger {
	l := log.New(os.Stdout, "", 0)
	return &CLILogger{logger: l}
}

// Printf formats and prints a log message using fmt.Printf semantics.
func (c *CLILogger) Printf(format string, v ...any) { c.logger.Printf(format, v...) }

// Println prints a log message with a newline.
func (c *CLILogger) Println(v ...any) { c.logger.Println(v...) }

// Warnf prints a log message prefixed with "warning: ".
func (c *CLILogger) Warnf(format string, v ...any) { c.logger.Printf("warning: "+format, v...) }

// Errorf prints a log message prefixed with "error: ".
func (c *CLILogger) Errorf(format string, v ...any) { c.logger.Printf("error: "+format, v...) }

// SetOutput sets the output destination for the CLI logger.
func (c *CLILogger) SetOutput(w io.Writer) { c.logger.SetOutput(w) }

// MCPLogger implements Logger for [MCP] server mode.
// It suppresses output by default since MCP communication happens over stdio,
// but can be configured to write structured logs to a separate destination.
//
// MCPLogger is safe for concurrent use by multiple goroutines.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type MCPLogger struct {
	mu     sync.Mutex
	writer io.Writer
	silent bool
}

// NewMCPLogger creates a new [MCP] logger.
// By default, it's silent (output suppressed) to avoid interfering with [MCP] stdio protocol.
// Set silent=false and provide a writer to enable structured logging to a file or stderr.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
func NewMCPLogger(writer io.Writer, silent bool) *MCPLogger {
	if writer == nil {
		writer = io.Discard
	}
	return &MCPLogger{
		writer: writer,
		silent: silent,
	}
}

// Printf formats and logs a structured message in JSON format at info level.
// Output is suppressed if silent mode is enabled.
//
// Printf is safe for concurrent use by multiple goroutines.
func (m *MCPLogger) Printf(format string, v ...any) {
	if m.silent {
		return
	}
	m.write(LevelInfo, fmt.Sprintf(format, v...))
}

// Println logs a structured message in JSON format at info level.
// Output is suppressed if silent mode is enabled.
//
// Println is safe for concurrent use by multiple goroutines.
func (m *MCPLogger) Println(v ...any) {
	if m.silent {
		return
	}
	m.write(LevelInfo, fmt.Sprint(v...))
}

// Warnf formats and logs a structured message at warn level.
func (m *MCPLogger) Warnf(format string, v ...any) {
	if m.silent {
		return
	}
	m.write(LevelWarn, fmt.Sprintf(format, v...))
}

// Errorf formats and logs a structured message at error level.
func (m *MCPLogger) Errorf(format string, v ...any) {
	if m.silent {
		return
	}
	m.write(LevelError, fmt.Sprintf(format, v...))
}

// write encodes one JSON line into a pooled buffer and emits it with a
// single Write call, so concurrent entries never interleave.
func (m *MCPLogger) write(level, msg string) {
	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	encoded, err := json.Marshal(msg)
	if err != nil {
		// strings always marshal; keep the entry parseable regardless
		encoded = []byte(`""`)
	}

	buf.WriteString(`{"level":"`)
	buf.WriteString(level)
	buf.WriteString(`","message":`)
	buf.Write(encoded)
	buf.WriteString("}\n")

	m.mu.Lock()
	m.writer.Write(buf.Bytes())
	m.mu.Unlock()
}

// SetOutput sets the output destination for the MCP logger.
//
// SetOutput is safe for concurrent use by multiple goroutines.
func (m *MCPLogger) SetOutput(w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w == nil {
		m.writer = io.Discard
	} else {
		m.writer = w
	}
}

// Discard returns a silent logger, used when callers pass no logger.
func Discard() Logger { return NewMCPLogger(nil, true) }
