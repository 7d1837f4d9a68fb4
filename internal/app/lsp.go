package app

import (
	"context"

	"github.com/quill-ai/quill/internal/logging"
	"github.com/quill-ai/quill/internal/lsp"
	"github.com/quill-ai/quill/internal/lsp/watcher"
)

// startWorkspaceWatcher attaches a filesystem watcher to a freshly created
// LSP client, scoped to the client's project root.
func (app *App) startWorkspaceWatcher(ctx context.Context, client *lsp.Client) {
	watchCtx, cancel := context.WithCancel(ctx)

	app.cancelFuncsMutex.Lock()
	app.watcherCancelFuncs = append(app.watcherCancelFuncs, cancel)
	app.cancelFuncsMutex.Unlock()

	workspaceWatcher := watcher.NewWorkspaceWatcher(client)

	app.watcherWG.Add(1)
	go func() {
		defer app.watcherWG.Done()
		defer logging.RecoverPanic("lsp-watcher-"+client.ServerID(), nil)

		workspaceWatcher.WatchWorkspace(watchCtx, client.Root())
		logging.Debug("Workspace watcher stopped", "server", client.ServerID(), "root", client.Root())
	}()
}
