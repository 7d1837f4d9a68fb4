package lsp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill-ai/quill/internal/lsp/protocol"
)

func TestDecodeLocations(t *testing.T) {
	location := `{"uri":"file:///src/def.go","range":{"start":{"line":4,"character":2},"end":{"line":4,"character":9}}}`
	link := `{"targetUri":"file:///src/def.go",` +
		`"targetRange":{"start":{"line":3,"character":0},"end":{"line":8,"character":1}},` +
		`"targetSelectionRange":{"start":{"line":4,"character":2},"end":{"line":4,"character":9}}}`

	cases := []struct {
		name string
		raw  string
		want []protocol.Location
	}{
		{"null", `null`, nil},
		{"empty array", `[]`, []protocol.Location{}},
		{
			"single location", location,
			[]protocol.Location{{
				URI:   "file:///src/def.go",
				Range: protocol.Range{Start: protocol.Position{Line: 4, Character: 2}, End: protocol.Position{Line: 4, Character: 9}},
			}},
		},
		{
			"location array", `[` + location + `]`,
			[]protocol.Location{{
				URI:   "file:///src/def.go",
				Range: protocol.Range{Start: protocol.Position{Line: 4, Character: 2}, End: protocol.Position{Line: 4, Character: 9}},
			}},
		},
		{
			// LocationLink[] also decodes as []Location with every field
			// zero; the link fields must still come through.
			"location link array", `[` + link + `]`,
			[]protocol.Location{{
				URI:   "file:///src/def.go",
				Range: protocol.Range{Start: protocol.Position{Line: 4, Character: 2}, End: protocol.Position{Line: 4, Character: 9}},
			}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeLocations(json.RawMessage(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeLocationsMalformed(t *testing.T) {
	_, err := decodeLocations(json.RawMessage(`42`))
	require.Error(t, err)
}

func TestDecodeSymbolsFlat(t *testing.T) {
	raw := `[{"name":"NewManager","kind":12,"location":{"uri":"file:///src/manager.go","range":{"start":{"line":10,"character":5},"end":{"line":10,"character":15}}}}]`

	symbols, err := decodeSymbols(json.RawMessage(raw), "file:///src/manager.go")
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, "NewManager", symbols[0].Name)
	assert.Equal(t, protocol.Function, symbols[0].Kind)
	assert.Equal(t, protocol.DocumentUri("file:///src/manager.go"), symbols[0].Location.URI)
}

func TestDecodeSymbolsTree(t *testing.T) {
	raw := `[{
		"name":"Manager","kind":23,
		"range":{"start":{"line":5,"character":0},"end":{"line":40,"character":1}},
		"selectionRange":{"start":{"line":5,"character":5},"end":{"line":5,"character":12}},
		"children":[{
			"name":"GetClient","kind":6,
			"range":{"start":{"line":10,"character":0},"end":{"line":20,"character":1}},
			"selectionRange":{"start":{"line":10,"character":5},"end":{"line":10,"character":14}}
		}]
	}]`

	symbols, err := decodeSymbols(json.RawMessage(raw), "file:///src/manager.go")
	require.NoError(t, err)
	require.Len(t, symbols, 2, "the hierarchy flattens parent then children")

	assert.Equal(t, "Manager", symbols[0].Name)
	assert.Equal(t, protocol.Struct, symbols[0].Kind)
	assert.Empty(t, symbols[0].ContainerName)
	assert.Equal(t, uint32(5), symbols[0].Location.Range.Start.Line)

	assert.Equal(t, "GetClient", symbols[1].Name)
	assert.Equal(t, protocol.Method, symbols[1].Kind)
	assert.Equal(t, "Manager", symbols[1].ContainerName)
	// Every flattened entry is attributed to the requested document.
	assert.Equal(t, protocol.DocumentUri("file:///src/manager.go"), symbols[1].Location.URI)
}

func TestDecodeSymbolsNull(t *testing.T) {
	symbols, err := decodeSymbols(json.RawMessage(`null`), "file:///x.go")
	require.NoError(t, err)
	assert.Empty(t, symbols)
}

// respondWith answers the next request with a raw JSON result.
func (s *fakeServer) respondWith(result string) {
	req := s.readMessage()
	s.send(&Message{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage(result)})
}

func testPosition(path string) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: protocol.URIFromPath(path)},
		Position:     protocol.Position{Line: 4, Character: 2},
	}
}

func TestImplementationFlattensLinks(t *testing.T) {
	client, server := newTestClient(t, t.TempDir())

	go server.respondWith(`[{
		"targetUri":"file:///src/impl.go",
		"targetRange":{"start":{"line":0,"character":0},"end":{"line":9,"character":1}},
		"targetSelectionRange":{"start":{"line":1,"character":5},"end":{"line":1,"character":9}}
	}]`)

	locations, err := client.Implementation(context.Background(), protocol.ImplementationParams{
		TextDocumentPositionParams: testPosition("/src/iface.go"),
	})
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, protocol.DocumentUri("file:///src/impl.go"), locations[0].URI)
	assert.Equal(t, uint32(1), locations[0].Range.Start.Line)
}

func TestCompletionListShape(t *testing.T) {
	client, server := newTestClient(t, t.TempDir())

	go server.respondWith(`{"isIncomplete":false,"items":[{"label":"Println","detail":"func(a ...any)"}]}`)

	items, err := client.Completion(context.Background(), protocol.CompletionParams{
		TextDocumentPositionParams: testPosition("/src/main.go"),
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Println", items[0].Label)
}

func TestCompletionArrayShape(t *testing.T) {
	client, server := newTestClient(t, t.TempDir())

	go server.respondWith(`[{"label":"Printf"},{"label":"Println"}]`)

	items, err := client.Completion(context.Background(), protocol.CompletionParams{
		TextDocumentPositionParams: testPosition("/src/main.go"),
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Printf", items[0].Label)
}

func TestCompletionNull(t *testing.T) {
	client, server := newTestClient(t, t.TempDir())

	go server.respondWith(`null`)

	items, err := client.Completion(context.Background(), protocol.CompletionParams{
		TextDocumentPositionParams: testPosition("/src/main.go"),
	})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCallHierarchy(t *testing.T) {
	client, server := newTestClient(t, t.TempDir())

	item := `{"name":"GetClient","kind":6,"uri":"file:///src/manager.go",` +
		`"range":{"start":{"line":10,"character":0},"end":{"line":20,"character":1}},` +
		`"selectionRange":{"start":{"line":10,"character":5},"end":{"line":10,"character":14}}}`

	go server.respondWith(`[` + item + `]`)
	items, err := client.PrepareCallHierarchy(context.Background(), protocol.CallHierarchyPrepareParams{
		TextDocumentPositionParams: testPosition("/src/manager.go"),
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "GetClient", items[0].Name)

	go server.respondWith(`[{"from":` + item + `,"fromRanges":[]}]`)
	incoming, err := client.IncomingCalls(context.Background(), protocol.CallHierarchyIncomingCallsParams{Item: items[0]})
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, "GetClient", incoming[0].From.Name)

	go server.respondWith(`[{"to":` + item + `,"fromRanges":[]}]`)
	outgoing, err := client.OutgoingCalls(context.Background(), protocol.CallHierarchyOutgoingCallsParams{Item: items[0]})
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, "GetClient", outgoing[0].To.Name)
}

func TestHoverText(t *testing.T) {
	cases := []struct {
		name     string
		contents any
		want     string
	}{
		{"markup content", map[string]any{"kind": "markdown", "value": "func Println"}, "func Println"},
		{"plain string", "func Println", "func Println"},
		{"marked string object", map[string]any{"language": "go", "value": "func Println"}, "func Println"},
		{"marked string array", []any{"first", map[string]any{"value": "second"}}, "first\n\nsecond"},
		{"nil", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, protocol.Hover{Contents: tc.contents}.Text())
		})
	}
}

func TestHoverDecodesWireShape(t *testing.T) {
	client, server := newTestClient(t, t.TempDir())

	go server.respondWith(`{"contents":{"kind":"markdown","value":"func NewManager(cfg *Config) *Manager"}}`)

	hover, err := client.Hover(context.Background(), protocol.HoverParams{
		TextDocumentPositionParams: testPosition("/src/manager.go"),
	})
	require.NoError(t, err)
	assert.Equal(t, "func NewManager(cfg *Config) *Manager", hover.Text())
}
