package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quill-ai/quill/internal/lsp/protocol"
)

// requestTimeout bounds every navigation/intelligence request. These calls
// are best-effort aids: a slow server degrades to an empty result at the
// call site rather than stalling the caller.
const requestTimeout = 4 * time.Second

func (c *Client) call(ctx context.Context, method string, params, result any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	return c.transport.Call(ctx, method, params, result)
}

// Definition resolves the definition locations for a position. Servers
// return Location | Location[] | LocationLink[]; the result is flattened to
// a plain location list.
func (c *Client) Definition(ctx context.Context, params protocol.DefinitionParams) ([]protocol.Location, error) {
	var raw json.RawMessage
	if err := c.call(ctx, "textDocument/definition", params, &raw); err != nil {
		return nil, err
	}
	return decodeLocations(raw)
}

// References lists all references to the symbol at a position.
func (c *Client) References(ctx context.Context, params protocol.ReferenceParams) ([]protocol.Location, error) {
	var locations []protocol.Location
	if err := c.call(ctx, "textDocument/references", params, &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// Implementation lists implementations of the symbol at a position.
func (c *Client) Implementation(ctx context.Context, params protocol.ImplementationParams) ([]protocol.Location, error) {
	var raw json.RawMessage
	if err := c.call(ctx, "textDocument/implementation", params, &raw); err != nil {
		return nil, err
	}
	return decodeLocations(raw)
}

// Hover returns hover information for a position. A null result is reported
// as a zero-valued Hover.
func (c *Client) Hover(ctx context.Context, params protocol.HoverParams) (protocol.Hover, error) {
	var hover protocol.Hover
	if err := c.call(ctx, "textDocument/hover", params, &hover); err != nil {
		return protocol.Hover{}, err
	}
	return hover, nil
}

// DocumentSymbol lists the symbols in a document. Servers return either the
// hierarchical DocumentSymbol[] shape or the flat SymbolInformation[] shape;
// both are flattened into SymbolInformation entries.
func (c *Client) DocumentSymbol(ctx context.Context, params protocol.DocumentSymbolParams) ([]protocol.SymbolInformation, error) {
	var raw json.RawMessage
	if err := c.call(ctx, "textDocument/documentSymbol", params, &raw); err != nil {
		return nil, err
	}
	return decodeSymbols(raw, params.TextDocument.URI)
}

// Symbol searches symbols across the workspace.
func (c *Client) Symbol(ctx context.Context, params protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	var symbols []protocol.SymbolInformation
	if err := c.call(ctx, "workspace/symbol", params, &symbols); err != nil {
		return nil, err
	}
	return symbols, nil
}

// Completion returns completion items for a position. Servers return either
// CompletionItem[] or a CompletionList; the item list is returned either way.
func (c *Client) Completion(ctx context.Context, params protocol.CompletionParams) ([]protocol.CompletionItem, error) {
	var raw json.RawMessage
	if err := c.call(ctx, "textDocument/completion", params, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var list protocol.CompletionList
	if err := json.Unmarshal(raw, &list); err == nil && list.Items != nil {
		return list.Items, nil
	}
	var items []protocol.CompletionItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("unexpected completion result: %w", err)
	}
	return items, nil
}

// PrepareCallHierarchy resolves the call-hierarchy item at a position.
func (c *Client) PrepareCallHierarchy(ctx context.Context, params protocol.CallHierarchyPrepareParams) ([]protocol.CallHierarchyItem, error) {
	var items []protocol.CallHierarchyItem
	if err := c.call(ctx, "textDocument/prepareCallHierarchy", params, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// IncomingCalls lists callers of a call-hierarchy item.
func (c *Client) IncomingCalls(ctx context.Context, params protocol.CallHierarchyIncomingCallsParams) ([]protocol.CallHierarchyIncomingCall, error) {
	var calls []protocol.CallHierarchyIncomingCall
	if err := c.call(ctx, "callHierarchy/incomingCalls", params, &calls); err != nil {
		return nil, err
	}
	return calls, nil
}

// OutgoingCalls lists callees of a call-hierarchy item.
func (c *Client) OutgoingCalls(ctx context.Context, params protocol.CallHierarchyOutgoingCallsParams) ([]protocol.CallHierarchyOutgoingCall, error) {
	var calls []protocol.CallHierarchyOutgoingCall
	if err := c.call(ctx, "callHierarchy/outgoingCalls", params, &calls); err != nil {
		return nil, err
	}
	return calls, nil
}

// DidChangeWatchedFiles informs the server of filesystem changes observed by
// the workspace watcher.
func (c *Client) DidChangeWatchedFiles(ctx context.Context, params protocol.DidChangeWatchedFilesParams) error {
	return c.transport.Notify("workspace/didChangeWatchedFiles", params)
}

// decodeLocations flattens the three wire shapes of a location result.
// A LocationLink[] payload also decodes cleanly as []Location (its fields
// are just ignored), so an empty URI on the first element means the link
// shape must be retried.
func decodeLocations(raw json.RawMessage) ([]protocol.Location, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var locations []protocol.Location
	if err := json.Unmarshal(raw, &locations); err == nil && (len(locations) == 0 || locations[0].URI != "") {
		return locations, nil
	}

	var single protocol.Location
	if err := json.Unmarshal(raw, &single); err == nil && single.URI != "" {
		return []protocol.Location{single}, nil
	}

	var links []protocol.LocationLink
	if err := json.Unmarshal(raw, &links); err != nil {
		return nil, fmt.Errorf("unexpected location result: %w", err)
	}
	locations = make([]protocol.Location, 0, len(links))
	for _, link := range links {
		locations = append(locations, protocol.Location{
			URI:   link.TargetURI,
			Range: link.TargetSelectionRange,
		})
	}
	return locations, nil
}

// decodeSymbols flattens hierarchical DocumentSymbol trees into flat
// SymbolInformation entries attributed to the requested document.
func decodeSymbols(raw json.RawMessage, uri protocol.DocumentUri) ([]protocol.SymbolInformation, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var flat []protocol.SymbolInformation
	if err := json.Unmarshal(raw, &flat); err == nil && (len(flat) == 0 || flat[0].Location.URI != "") {
		return flat, nil
	}

	var tree []protocol.DocumentSymbol
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("unexpected document symbol result: %w", err)
	}

	var out []protocol.SymbolInformation
	var walk func(symbols []protocol.DocumentSymbol, container string)
	walk = func(symbols []protocol.DocumentSymbol, container string) {
		for _, s := range symbols {
			out = append(out, protocol.SymbolInformation{
				Name:          s.Name,
				Kind:          s.Kind,
				ContainerName: container,
				Location: protocol.Location{
					URI:   uri,
					Range: s.SelectionRange,
				},
			})
			walk(s.Children, s.Name)
		}
	}
	walk(tree, "")
	return out, nil
}
