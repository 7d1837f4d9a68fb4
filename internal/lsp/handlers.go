package lsp

import (
	"encoding/json"

	"github.com/quill-ai/quill/internal/logging"
	"github.com/quill-ai/quill/internal/lsp/protocol"
)

// RegisterNotificationHandler adds a handler for a server notification
// method, called after the client's own handling. Used by the tool layer to
// observe diagnostics publishes.
func (c *Client) RegisterNotificationHandler(method string, handler NotificationHandler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.notificationHandlers[method] = handler
}

// handleNotification is the transport's notification sink, bound at
// construction.
func (c *Client) handleNotification(method string, params json.RawMessage) {
	switch method {
	case "textDocument/publishDiagnostics":
		HandleDiagnostics(c, params)
	case "window/showMessage", "window/logMessage":
		var msg struct {
			Type    int    `json:"type"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(params, &msg); err == nil {
			logging.Debug("LSP server message", "server", c.serverID, "message", msg.Message)
		}
	case "$/progress", "telemetry/event":
		// Ignored.
	default:
		logging.Debug("Unhandled LSP notification", "server", c.serverID, "method", method)
	}

	c.handlersMu.RLock()
	handler, ok := c.notificationHandlers[method]
	c.handlersMu.RUnlock()
	if ok {
		handler(params)
	}
}

// HandleDiagnostics replaces the cached diagnostic list for the published
// document in full (publishes are never merged) and releases a pending
// diagnostics wait, if any.
func HandleDiagnostics(c *Client, params json.RawMessage) {
	var diagParams protocol.PublishDiagnosticsParams
	if err := json.Unmarshal(params, &diagParams); err != nil {
		logging.Debug("Malformed publishDiagnostics", "server", c.serverID, "error", err)
		return
	}

	c.diagnosticsMu.Lock()
	c.diagnostics[diagParams.URI] = diagParams.Diagnostics
	c.diagnosticsMu.Unlock()

	select {
	case c.diagnosticsWait <- struct{}{}:
	default:
	}
}

// handleServerRequest answers server-initiated requests with the minimal
// replies servers need to keep going; anything unknown gets MethodNotFound.
func (c *Client) handleServerRequest(msg *Message) {
	var err error
	switch msg.Method {
	case "workspace/configuration":
		// One settings object per requested item.
		var params struct {
			Items []json.RawMessage `json:"items"`
		}
		settings := []any{}
		if jsonErr := json.Unmarshal(msg.Params, &params); jsonErr == nil {
			for range params.Items {
				settings = append(settings, map[string]any{})
			}
		}
		err = c.transport.reply(msg.ID, settings, nil)
	case "window/workDoneProgress/create", "client/registerCapability", "client/unregisterCapability":
		err = c.transport.reply(msg.ID, nil, nil)
	case "workspace/applyEdit":
		err = c.transport.reply(msg.ID, map[string]any{"applied": false}, nil)
	case "workspace/workspaceFolders":
		root := protocol.URIFromPath(c.rootDir)
		err = c.transport.reply(msg.ID, []protocol.WorkspaceFolder{{URI: root, Name: c.serverID}}, nil)
	default:
		err = c.transport.reply(msg.ID, nil, &ResponseError{
			Code:    codeMethodNotFound,
			Message: "method not supported: " + msg.Method,
		})
	}
	if err != nil {
		logging.Debug("Failed to answer server request", "server", c.serverID, "method", msg.Method, "error", err)
	}
}
