package logfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/natefinch/lumberjack.v2"
)

const stampLayout = "2006-01-02 15:04:05"

// Writer appends timestamped lines to plain log files. One Writer is shared
// by every monitor and the supervisor; the mutex keeps concurrent lines from
// interleaving, including on the shared aggregate file.
type Writer struct {
	MaxSizeMB int // size cap per file before rotation

	mu    sync.Mutex
	files map[string]*lumberjack.Logger
}

func NewWriter() *Writer {
	return &Writer{
		MaxSizeMB: 50,
		files:     make(map[string]*lumberjack.Logger),
	}
}

// Append writes one "[YYYY-MM-DD HH:MM:SS] msg" line to the file at path,
// creating the file and its directory on first use.
func (w *Writer) Append(path, msg string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f := w.files[path]
	if f == nil {
		f = &lumberjack.Logger{Filename: path, MaxSize: w.MaxSizeMB, MaxBackups: 3}
		w.files[path] = f
	}
	_, err := fmt.Fprintf(f, "[%s] %s\n", time.Now().Format(stampLayout), msg)
	return err
}

// Truncate empties the file at path, creating it if missing. Call before the
// first Append to that path; an already-open file keeps its write offset.
func (w *Writer) Truncate(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	for _, f := range w.files {
		err = multierr.Append(err, f.Close())
	}
	w.files = make(map[string]*lumberjack.Logger)
	return err
}

// SitePath derives the per-site log file name from the site identifier.
// Path separators and drive colons become underscores so any URL maps to a
// single flat file under dir.
func SitePath(dir, id string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_")
	return filepath.Join(dir, r.Replace(id)+".log")
}
