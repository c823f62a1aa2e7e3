package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"resumescreen/internal/config"
	"resumescreen/internal/errors"
	"resumescreen/internal/utils"
)

// EventRecorder counts inbox file events.
type EventRecorder interface {
	RecordInboxEvent(ctx context.Context, op string)
}

// Inbox watches a directory for new resume files and hands each one over once
// writes to it have settled.
type Inbox struct {
	mu sync.Mutex

	dir        string
	extensions []string

	// Watcher components
	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	timers        map[string]*time.Timer
	ready         chan string

	// Files already handed over, by modification time
	submitted map[string]time.Time

	recorder EventRecorder
	logger   *errors.Logger
}

// NewInbox starts watching dir. Events are collected from this point on and
// delivered once Run is called.
func NewInbox(dir string, cfg config.InboxConfig, recorder EventRecorder, logger *errors.Logger) (*Inbox, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotFound, fmt.Sprintf("inbox directory %s is not accessible", dir), err)
	}
	if !info.IsDir() {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat, fmt.Sprintf("inbox path %s is not a directory", dir), nil)
	}

	debounceDelay := cfg.DebounceDelay
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}
	extensions := cfg.Extensions
	if len(extensions) == 0 {
		extensions = utils.ResumeExtensions
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	logger.Info("Inbox watcher started", "directory", dir, "debounce_delay", debounceDelay, "extensions", extensions)
	return &Inbox{
		dir:           dir,
		extensions:    extensions,
		fsWatcher:     watcher,
		debounceDelay: debounceDelay,
		timers:        make(map[string]*time.Timer),
		ready:         make(chan string, 64),
		submitted:     make(map[string]time.Time),
		recorder:      recorder,
		logger:        logger,
	}, nil
}

// Run delivers settled files to submit until ctx is done, then stops the
// watcher. A submit error is logged and the file may be delivered again after
// its next write.
func (in *Inbox) Run(ctx context.Context, submit func(path string) error) error {
	defer in.stop()

	for {
		select {
		case event, ok := <-in.fsWatcher.Events:
			if !ok {
				return nil
			}
			if in.shouldProcessEvent(event) {
				if in.recorder != nil {
					in.recorder.RecordInboxEvent(ctx, event.Op.String())
				}
				in.scheduleSubmit(event.Name)
			}

		case err, ok := <-in.fsWatcher.Errors:
			if !ok {
				return nil
			}
			in.logger.LogError(err, "Inbox watcher error", "directory", in.dir)

		case path := <-in.ready:
			if !in.hasFileChanged(path) {
				continue
			}
			in.logger.Info("New resume in inbox", "file", path)
			if err := submit(path); err != nil {
				in.logger.LogError(err, "Failed to submit inbox file", "file", path)
				in.forget(path)
			}

		case <-ctx.Done():
			return nil
		}
	}
}

// shouldProcessEvent keeps create and write events for supported files
func (in *Inbox) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	if filepath.Base(event.Name)[0] == '.' {
		return false
	}
	return slices.Contains(in.extensions, utils.GetFileExtension(event.Name))
}

// scheduleSubmit (re)starts the debounce timer for path
func (in *Inbox) scheduleSubmit(path string) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if t, ok := in.timers[path]; ok {
		t.Stop()
	}
	in.timers[path] = time.AfterFunc(in.debounceDelay, func() {
		in.mu.Lock()
		delete(in.timers, path)
		in.mu.Unlock()
		select {
		case in.ready <- path:
		default:
			in.logger.Warn("Inbox backlog full, dropping event", "file", path)
		}
	})
}

// hasFileChanged reports whether path is a regular file not yet handed over
// at its current modification time.
func (in *Inbox) hasFileChanged(path string) bool {
	stat, err := os.Stat(path)
	if err != nil || !stat.Mode().IsRegular() {
		return false
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if last, ok := in.submitted[path]; ok && !stat.ModTime().After(last) {
		return false
	}
	in.submitted[path] = stat.ModTime()
	return true
}

func (in *Inbox) forget(path string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	delete(in.submitted, path)
}

func (in *Inbox) stop() {
	in.mu.Lock()
	for path, t := range in.timers {
		t.Stop()
		delete(in.timers, path)
	}
	in.mu.Unlock()

	if err := in.fsWatcher.Close(); err != nil {
		in.logger.LogError(err, "Failed to close inbox watcher")
	}
	in.logger.Info("Inbox watcher stopped", "directory", in.dir)
}

// Close releases the watcher of an inbox that was never run.
func (in *Inbox) Close() error {
	return in.fsWatcher.Close()
}
