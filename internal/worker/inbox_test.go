package worker

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumescreen/internal/config"
	"resumescreen/internal/errors"
)

type countingRecorder struct {
	mu     sync.Mutex
	events int
}

func (r *countingRecorder) RecordInboxEvent(context.Context, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events++
}

func TestInboxDeliversSettledFilesOnce(t *testing.T) {
	dir := t.TempDir()
	rec := &countingRecorder{}
	inbox, err := NewInbox(dir, config.InboxConfig{DebounceDelay: 100 * time.Millisecond}, rec, errors.NewDiscardLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 8)
	done := make(chan error, 1)
	go func() {
		done <- inbox.Run(ctx, func(path string) error {
			got <- path
			return nil
		})
	}()

	resume := filepath.Join(dir, "jane.txt")
	f, err := os.Create(resume)
	require.NoError(t, err)
	for range 3 {
		_, err = f.WriteString("I built payment services with golang.\n")
		require.NoError(t, err)
	}
	require.NoError(t, f.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.xlsx"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.txt"), []byte("x"), 0o600))

	select {
	case path := <-got:
		assert.Equal(t, resume, path)
	case <-time.After(5 * time.Second):
		t.Fatal("inbox did not deliver the resume")
	}

	select {
	case path := <-got:
		t.Fatalf("unexpected second delivery of %s", path)
	case <-time.After(400 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Positive(t, rec.events)
}

func TestInboxShouldProcessEvent(t *testing.T) {
	inbox := &Inbox{extensions: []string{".pdf", ".txt"}}

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"create pdf", fsnotify.Event{Name: "/in/a.pdf", Op: fsnotify.Create}, true},
		{"write txt", fsnotify.Event{Name: "/in/a.TXT", Op: fsnotify.Write}, true},
		{"remove", fsnotify.Event{Name: "/in/a.pdf", Op: fsnotify.Remove}, false},
		{"chmod", fsnotify.Event{Name: "/in/a.pdf", Op: fsnotify.Chmod}, false},
		{"unsupported", fsnotify.Event{Name: "/in/a.xlsx", Op: fsnotify.Create}, false},
		{"hidden", fsnotify.Event{Name: "/in/.a.pdf", Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inbox.shouldProcessEvent(tt.event))
		})
	}
}

func TestNewInboxErrors(t *testing.T) {
	logger := errors.NewDiscardLogger()

	_, err := NewInbox(filepath.Join(t.TempDir(), "missing"), config.InboxConfig{}, nil, logger)
	assert.True(t, errors.HasCode(err, errors.ErrCodeFileNotFound))

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	_, err = NewInbox(file, config.InboxConfig{}, nil, logger)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFormat))
}
