package log

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu         sync.Mutex
	logFile    *os.File
	fileWriter *bufio.Writer
)

// NewLogger builds a slog.Logger that writes human-readable lines to stdout
// and, when debug logging is enabled, mirrors everything to a timestamped
// file under logDir. The suffix distinguishes per-supervisor log files from
// the main process log.
func NewLogger(debug bool, logDir string, suffix string) (*slog.Logger, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	out := io.Writer(os.Stdout)
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating log directory %s: %w", logDir, err)
		}

		name := fmt.Sprintf("atreia-log-%s.txt", time.Now().Format("2006-01-02-15_04_05"))
		if suffix != "" {
			name = fmt.Sprintf("atreia-log-%s-%s.txt", suffix, time.Now().Format("2006-01-02-15_04_05"))
		}

		f, err := os.Create(filepath.Join(logDir, name))
		if err != nil {
			return nil, fmt.Errorf("error creating log file: %w", err)
		}

		mu.Lock()
		if suffix == "" {
			logFile = f
			fileWriter = bufio.NewWriterSize(f, 32*1024)
			out = io.MultiWriter(os.Stdout, fileWriter)
		} else {
			// Per-supervisor logs flush on every write; they are low volume.
			out = io.MultiWriter(os.Stdout, f)
		}
		mu.Unlock()
	}

	return slog.New(newTextHandler(out, level)), nil
}

// FlushLog forces the buffered main log file to disk. Called from panic
// handlers so the stack trace is not lost in the buffer.
func FlushLog() {
	mu.Lock()
	defer mu.Unlock()
	if fileWriter != nil {
		_ = fileWriter.Flush()
	}
}

// FlushAndClose flushes and closes the main log file.
func FlushAndClose() {
	mu.Lock()
	defer mu.Unlock()
	if fileWriter != nil {
		_ = fileWriter.Flush()
		fileWriter = nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

type textHandler struct {
	w     io.Writer
	level slog.Level
	attrs []slog.Attr
	mu    *sync.Mutex
}

func newTextHandler(w io.Writer, level slog.Level) *textHandler {
	return &textHandler{w: w, level: level, mu: &sync.Mutex{}}
}

func (h *textHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)
	buf = append(buf, r.Time.Format("15:04:05.000")...)
	buf = append(buf, ' ')
	buf = append(buf, r.Level.String()...)
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)

	appendAttr := func(a slog.Attr) {
		buf = append(buf, ' ')
		buf = append(buf, a.Key...)
		buf = append(buf, '=')
		buf = append(buf, a.Value.String()...)
	}
	for _, a := range h.attrs {
		appendAttr(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(a)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &nh
}

func (h *textHandler) WithGroup(name string) slog.Handler {
	// Groups are not used anywhere in atreia; flatten them.
	return h
}
