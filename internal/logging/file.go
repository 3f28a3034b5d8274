package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const dayLayout = "2006-01-02"

// DailyFileWriter appends to <prefix>.<YYYY-MM-DD>.log in dir and moves
// to a new file on the first write of each day. Only the newest keepDays
// days of files are kept; older ones are pruned when the writer opens and
// whenever the day changes.
type DailyFileWriter struct {
	dir      string
	prefix   string
	keepDays int
	now      func() time.Time

	mu   sync.Mutex
	day  string
	file *os.File
}

// NewDailyFileWriter creates dir and opens today's file
func NewDailyFileWriter(dir, prefix string, keepDays int) (*DailyFileWriter, error) {
	if keepDays < 1 {
		keepDays = 1
	}
	if err := os.MkdirAll(dir, DirPermissions); err != nil {
		return nil, err
	}

	w := &DailyFileWriter{dir: dir, prefix: prefix, keepDays: keepDays, now: time.Now}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.switchDay(w.now()); err != nil {
		return nil, err
	}
	return w, nil
}

// Write implements io.Writer
func (w *DailyFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}
	if now := w.now(); now.Format(dayLayout) != w.day {
		if err := w.switchDay(now); err != nil {
			return 0, err
		}
	}
	return w.file.Write(p)
}

// switchDay must be called with mu held
func (w *DailyFileWriter) switchDay(now time.Time) error {
	day := now.Format(dayLayout)
	f, err := os.OpenFile(filepath.Join(w.dir, w.prefix+"."+day+".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, FilePermissions)
	if err != nil {
		return err
	}
	if w.file != nil {
		w.file.Close()
	}
	w.file, w.day = f, day
	w.prune(now)
	return nil
}

// prune runs under mu, so failures go to stderr rather than through the
// logger, which may be writing to w
func (w *DailyFileWriter) prune(now time.Time) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log prune: %v\n", err)
		return
	}

	today, _ := time.Parse(dayLayout, now.Format(dayLayout))
	oldest := today.AddDate(0, 0, 1-w.keepDays)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		day, ok := logDay(entry.Name(), w.prefix)
		if !ok || !day.Before(oldest) {
			continue
		}
		if err := os.Remove(filepath.Join(w.dir, entry.Name())); err != nil {
			fmt.Fprintf(os.Stderr, "log prune: %v\n", err)
		}
	}
}

// logDay returns the day of a <prefix>.<YYYY-MM-DD>.log file name
func logDay(name, prefix string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(name, prefix+".")
	if !ok {
		return time.Time{}, false
	}
	date, ok := strings.CutSuffix(rest, ".log")
	if !ok {
		return time.Time{}, false
	}
	day, err := time.Parse(dayLayout, date)
	return day, err == nil
}

// Close closes the current file. Later writes fail with os.ErrClosed.
func (w *DailyFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
