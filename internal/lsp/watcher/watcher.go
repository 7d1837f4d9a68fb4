// Package watcher feeds filesystem changes in a workspace to a language
// server, keeping its view of the project fresh between explicit document
// syncs.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/quill-ai/quill/internal/logging"
	"github.com/quill-ai/quill/internal/lsp"
	"github.com/quill-ai/quill/internal/lsp/protocol"
)

// ignorePatterns are workspace paths never reported to the server. Matched
// with doublestar against the path relative to the workspace root.
var ignorePatterns = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/dist/**",
	"**/build/**",
	"**/target/**",
	"**/__pycache__/**",
	"**/.venv/**",
	"**/.idea/**",
	"**/.vscode/**",
	"**/.quill/**",
}

const debounceInterval = 300 * time.Millisecond

// WorkspaceWatcher streams file events from one workspace root to one client.
type WorkspaceWatcher struct {
	client *lsp.Client

	debounceMu sync.Mutex
	debounced  map[string]*time.Timer
}

func NewWorkspaceWatcher(client *lsp.Client) *WorkspaceWatcher {
	return &WorkspaceWatcher{
		client:    client,
		debounced: make(map[string]*time.Timer),
	}
}

// WatchWorkspace watches workspacePath recursively until the context is
// canceled. Newly created directories are added to the watch as they appear.
func (w *WorkspaceWatcher) WatchWorkspace(ctx context.Context, workspacePath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Error("Failed to create file watcher", "error", err)
		return
	}
	defer watcher.Close()

	if err := w.addDirectories(watcher, workspacePath); err != nil {
		logging.Error("Failed to watch workspace", "path", workspacePath, "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, watcher, workspacePath, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Debug("File watcher error", "error", err)
		}
	}
}

// addDirectories registers path and all non-ignored subdirectories.
func (w *WorkspaceWatcher) addDirectories(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if isIgnored(root, path) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			logging.Debug("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *WorkspaceWatcher) handleEvent(ctx context.Context, watcher *fsnotify.Watcher, root string, event fsnotify.Event) {
	path := event.Name
	if isIgnored(root, path) {
		return
	}

	// Watch directories as they are created.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.addDirectories(watcher, path)
			return
		}
	}

	if !w.client.HandlesFile(path) {
		return
	}

	w.debounce(path, func() {
		w.notify(ctx, path, event.Op)
	})
}

// debounce coalesces rapid event bursts for the same path into one
// notification.
func (w *WorkspaceWatcher) debounce(path string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounced[path]; ok {
		timer.Stop()
	}
	w.debounced[path] = time.AfterFunc(debounceInterval, func() {
		w.debounceMu.Lock()
		delete(w.debounced, path)
		w.debounceMu.Unlock()
		fn()
	})
}

// notify forwards the change. Open documents get a didChange so the server
// re-reads content it already tracks; everything else goes through
// didChangeWatchedFiles.
func (w *WorkspaceWatcher) notify(ctx context.Context, path string, op fsnotify.Op) {
	if w.client.GetServerState() != lsp.StateReady {
		return
	}

	if op.Has(fsnotify.Write) && w.client.IsFileOpen(path) {
		if err := w.client.NotifyChange(ctx, path); err != nil {
			logging.Debug("Failed to notify change", "path", path, "error", err)
		}
		return
	}

	changeType := protocol.FileChanged
	switch {
	case op.Has(fsnotify.Create):
		changeType = protocol.FileCreated
	case op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename):
		changeType = protocol.FileDeleted
	}

	err := w.client.DidChangeWatchedFiles(ctx, protocol.DidChangeWatchedFilesParams{
		Changes: []protocol.FileEvent{
			{URI: protocol.URIFromPath(path), Type: changeType},
		},
	})
	if err != nil {
		logging.Debug("Failed to notify watched file change", "path", path, "error", err)
	}
}

// isIgnored reports whether the path falls under any ignore pattern.
func isIgnored(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	// Patterns with a trailing /** should also match the directory itself.
	for _, pattern := range ignorePatterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(strings.TrimSuffix(pattern, "/**"), rel); ok {
			return true
		}
	}
	return false
}
