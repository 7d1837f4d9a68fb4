package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/quill-ai/quill/internal/logging"
)

// Message is a JSON-RPC 2.0 envelope. Requests carry ID and Method,
// responses carry ID plus Result or Error, notifications carry Method only.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int32           `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// ResponseError is the error member of a JSON-RPC response.
type ResponseError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("request failed: %s (code %d)", e.Message, e.Code)
}

// JSON-RPC error codes used when replying to server-initiated requests.
const (
	codeMethodNotFound = -32601
)

// notificationSink receives server-initiated notifications (method, raw params).
// serverRequestSink receives server-initiated requests; the receiver is
// responsible for replying via reply().
type (
	notificationSink  func(method string, params json.RawMessage)
	serverRequestSink func(msg *Message)
)

// transport frames JSON-RPC messages over a child process's stdio and
// correlates responses with pending requests. Exactly one reader goroutine
// runs per transport for its whole life; writes from arbitrary goroutines
// are serialized by writeMu. Both sinks are fixed at construction so no
// notification can race a handler swap.
type transport struct {
	stdin  io.WriteCloser
	reader *bufio.Reader

	writeMu sync.Mutex

	nextID    atomic.Int32
	pendingMu sync.Mutex
	pending   map[int32]chan *Message

	notify    notificationSink
	onRequest serverRequestSink

	closed atomic.Bool
	done   chan struct{}

	debugWire bool
}

func newTransport(stdin io.WriteCloser, stdout io.Reader, notify notificationSink, onRequest serverRequestSink) *transport {
	return &transport{
		stdin:     stdin,
		reader:    bufio.NewReader(stdout),
		pending:   make(map[int32]chan *Message),
		notify:    notify,
		onRequest: onRequest,
		done:      make(chan struct{}),
	}
}

func (t *transport) start() {
	go t.readLoop()
}

// Call sends a request and blocks until the matching response arrives, the
// context expires, or the transport shuts down. On context expiry the pending
// entry is dropped and the server process is left running; a late response
// for the abandoned id is discarded by the reader loop.
func (t *transport) Call(ctx context.Context, method string, params any, result any) error {
	if t.closed.Load() {
		return fmt.Errorf("request %s failed: transport closed", method)
	}

	id := t.nextID.Add(1)
	ch := make(chan *Message, 1)

	t.pendingMu.Lock()
	t.pending[id] = ch
	t.pendingMu.Unlock()

	msg, err := newRequest(id, method, params)
	if err != nil {
		t.removePending(id)
		return err
	}
	if err := t.writeMessage(msg); err != nil {
		t.removePending(id)
		return fmt.Errorf("request %s failed: %w", method, err)
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return fmt.Errorf("request %s failed: %w", method, resp.Error)
		}
		if result == nil || len(resp.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("request %s failed: unmarshaling result: %w", method, err)
		}
		return nil
	case <-ctx.Done():
		t.removePending(id)
		return fmt.Errorf("request %s failed: %w", method, ctx.Err())
	case <-t.done:
		t.removePending(id)
		return fmt.Errorf("request %s failed: transport closed", method)
	}
}

// Notify sends a notification; no reply is awaited.
func (t *transport) Notify(method string, params any) error {
	if t.closed.Load() {
		return fmt.Errorf("notification %s failed: transport closed", method)
	}
	msg, err := newNotification(method, params)
	if err != nil {
		return err
	}
	if err := t.writeMessage(msg); err != nil {
		return fmt.Errorf("notification %s failed: %w", method, err)
	}
	return nil
}

// reply answers a server-initiated request.
func (t *transport) reply(id int32, result any, respErr *ResponseError) error {
	msg := &Message{JSONRPC: "2.0", ID: id, Error: respErr}
	if respErr == nil {
		raw, err := json.Marshal(result)
		if err != nil {
			return err
		}
		msg.Result = raw
	}
	return t.writeMessage(msg)
}

// stop marks the transport inactive and closes the server's stdin. In-flight
// requests are released immediately rather than left to time out.
func (t *transport) stop() {
	if !t.closed.CompareAndSwap(false, true) {
		return
	}
	close(t.done)
	t.stdin.Close()
}

func newRequest(id int32, method string, params any) (*Message, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshaling params for %s: %w", method, err)
	}
	return &Message{JSONRPC: "2.0", ID: id, Method: method, Params: raw}, nil
}

func newNotification(method string, params any) (*Message, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshaling params for %s: %w", method, err)
	}
	return &Message{JSONRPC: "2.0", Method: method, Params: raw}, nil
}

func (t *transport) removePending(id int32) {
	t.pendingMu.Lock()
	delete(t.pending, id)
	t.pendingMu.Unlock()
}

// writeMessage frames a message as "Content-Length: <N>\r\n\r\n" followed by
// exactly N bytes of JSON.
func (t *transport) writeMessage(msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if t.debugWire {
		logging.Debug("LSP send", "method", msg.Method, "id", msg.ID, "body", string(body))
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if _, err := fmt.Fprintf(t.stdin, "Content-Length: %d\r\n\r\n", len(body)); err != nil {
		return err
	}
	if _, err := t.stdin.Write(body); err != nil {
		return err
	}
	return nil
}

// readLoop is the single stream parser. Malformed frames are dropped and
// reading continues; only stream-level failures (EOF, closed pipe) end the
// loop.
func (t *transport) readLoop() {
	for {
		msg, err := t.readMessage()
		if err != nil {
			if t.closed.Load() {
				return
			}
			if err == io.EOF || strings.Contains(err.Error(), "closed") {
				logging.Debug("LSP stream ended", "error", err)
				t.stop()
				return
			}
			logging.Debug("Discarding malformed LSP frame", "error", err)
			continue
		}
		if msg == nil {
			continue
		}
		t.dispatch(msg)
	}
}

// readMessage reads one Content-Length framed JSON body. A nil, nil return
// means the frame was unparseable and should be skipped.
func (t *transport) readMessage() (*Message, error) {
	contentLength := -1

	// Headers end at an empty line. Only Content-Length matters.
	for {
		line, err := t.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
		if line == "" {
			break
		}
		if name, value, ok := strings.Cut(line, ":"); ok && strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("bad Content-Length %q: %w", value, err)
			}
			contentLength = n
		}
	}

	if contentLength < 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(t.reader, body); err != nil {
		return nil, err
	}

	if t.debugWire {
		logging.Debug("LSP recv", "body", string(body))
	}

	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		logging.Debug("Discarding unparseable LSP body", "error", err)
		return nil, nil
	}
	return &msg, nil
}

func (t *transport) dispatch(msg *Message) {
	switch {
	case msg.Method != "" && msg.ID != 0:
		// Server-initiated request.
		if t.onRequest != nil {
			t.onRequest(msg)
		}
	case msg.Method != "":
		if t.notify != nil {
			t.notify(msg.Method, msg.Params)
		}
	default:
		t.pendingMu.Lock()
		ch, ok := t.pending[msg.ID]
		if ok {
			delete(t.pending, msg.ID)
		}
		t.pendingMu.Unlock()

		if !ok {
			// Late response for a timed-out request.
			logging.Debug("Dropping response with no pending request", "id", msg.ID)
			return
		}
		ch <- msg
	}
}

// pendingCount reports outstanding requests; used by tests and shutdown logging.
func (t *transport) pendingCount() int {
	t.pendingMu.Lock()
	defer t.pendingMu.Unlock()
	return len(t.pending)
}
