package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/raysh454/phishguard/internal/logging"
)

const maxMessageSize = 1 << 20

// Handler serves the background side of the bridge over a websocket.
// Each inbound request is dispatched on its own goroutine; responses are
// written back in completion order.
type Handler struct {
	dispatcher *Dispatcher
	upgrader   websocket.Upgrader
	logger     logging.Logger

	mu       sync.Mutex
	conns    map[*websocket.Conn]struct{}
	draining bool
	active   sync.WaitGroup
}

// ErrShuttingDown is returned by Shutdown when ctx ends before every
// connection has finished its in-flight requests.
var ErrShuttingDown = errors.New("bridge: shutdown timed out")

func NewHandler(d *Dispatcher, logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Handler{
		dispatcher: d,
		upgrader: websocket.Upgrader{
			// Pages connect from arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger.With(logging.Field{Key: "component", Value: "bridge-ws"}),
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// track registers conn; it reports false once Shutdown has begun.
func (h *Handler) track(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.draining {
		return false
	}
	h.conns[conn] = struct{}{}
	h.active.Add(1)
	return true
}

func (h *Handler) untrack(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	h.active.Done()
}

// Shutdown closes every open connection and waits until their in-flight
// requests have been answered. The http.Server does not do this for
// hijacked connections.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.draining = true
	for conn := range h.conns {
		_ = conn.Close()
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.active.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ErrShuttingDown
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrading to websocket", logging.Err(err))
		return
	}
	defer conn.Close()
	if !h.track(conn) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		return
	}
	defer h.untrack(conn)
	conn.SetReadLimit(maxMessageSize)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var (
		writeMu sync.Mutex
		wg      sync.WaitGroup
	)
	write := func(resp Response) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(resp); err != nil {
			h.logger.Debug("writing bridge response", logging.Err(err))
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("bridge connection closed", logging.Err(err))
			}
			break
		}
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			write(Failure("", fmt.Errorf("invalid request: %w", err)))
			continue
		}
		wg.Add(1)
		go func(req Request) {
			defer wg.Done()
			write(h.dispatcher.Dispatch(ctx, req))
		}(req)
	}

	cancel()
	wg.Wait()
}

// WSClient is the page side of the websocket bridge. Concurrent calls share
// one connection and are matched to responses by ID.
type WSClient struct {
	conn    *websocket.Conn
	timeout time.Duration
	logger  logging.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan Response

	closed    chan struct{}
	closeOnce sync.Once
}

// Dial connects to a bridge Handler at url (ws:// or wss://).
func Dial(ctx context.Context, url string, timeout time.Duration, logger logging.Logger) (*WSClient, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.Nop()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing bridge: %w: %v", ErrUnavailable, err)
	}
	conn.SetReadLimit(maxMessageSize)

	c := &WSClient{
		conn:    conn,
		timeout: timeout,
		logger:  logger.With(logging.Field{Key: "component", Value: "bridge-client"}),
		pending: make(map[string]chan Response),
		closed:  make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *WSClient) Call(ctx context.Context, req Request) (Response, error) {
	if c == nil {
		return Response{}, ErrUnavailable
	}
	select {
	case <-c.closed:
		return Response{}, ErrUnavailable
	default:
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ch := make(chan Response, 1)
	c.mu.Lock()
	c.pending[req.ID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
	}()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.shutdown()
		return Response{}, fmt.Errorf("sending %s: %w", req.Action, ErrUnavailable)
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-c.closed:
		return Response{}, ErrUnavailable
	case <-ctx.Done():
		return Response{}, ctxErr(ctx)
	}
}

func (c *WSClient) readLoop() {
	defer c.shutdown()
	for {
		var resp Response
		if err := c.conn.ReadJSON(&resp); err != nil {
			select {
			case <-c.closed:
			default:
				c.logger.Debug("bridge read ended", logging.Err(err))
			}
			return
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		c.mu.Unlock()
		if !ok {
			c.logger.Debug("dropping response for unknown call", logging.Field{Key: "id", Value: resp.ID})
			continue
		}
		select {
		case ch <- resp:
		default:
		}
	}
}

func (c *WSClient) shutdown() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
}

// Close sends a close frame and tears the connection down. Pending calls
// fail with ErrUnavailable.
func (c *WSClient) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	c.shutdown()
	return nil
}
