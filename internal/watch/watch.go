// Package watch re-reads a template file whenever it changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/opencode-ai/promptpad/internal/logging"
	"github.com/rs/zerolog"
)

// DefaultDebounce batches the burst of events editors emit on save.
const DefaultDebounce = 100 * time.Millisecond

// Watcher follows one file. It watches the parent directory so editors that
// save by rename are still seen.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   zerolog.Logger
}

// New creates a watcher for path.
func New(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     abs,
		debounce: debounce,
		logger:   logging.Component("watch"),
	}, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Run calls onChange with the file's content now and after every change until
// ctx is done. onChange runs on the Run goroutine, one call at a time, and the
// same content is never delivered twice in a row.
func (w *Watcher) Run(ctx context.Context, onChange func(text string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	last, err := w.read()
	if err != nil {
		return err
	}
	onChange(last)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Str("path", w.path).Msg("watch error")

		case <-timer.C:
			text, err := w.read()
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					// Mid-rename; the Create that follows re-arms the timer.
					continue
				}
				w.logger.Warn().Err(err).Str("path", w.path).Msg("failed to read template")
				continue
			}
			if text == last {
				continue
			}
			last = text
			onChange(text)
		}
	}
}

func (w *Watcher) read() (string, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", w.path, err)
	}
	return string(data), nil
}
