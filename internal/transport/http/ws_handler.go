package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/core"
)

// WSHandler upgrades HTTP connections and serves them as chat sessions.
// Each inbound text frame is one line; each outbound line is one text frame.
type WSHandler struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}

	lc := newLineConn(r.Context(), conn)
	if err := h.hub.Serve(r.Context(), lc, r.RemoteAddr); err != nil {
		if errors.Is(err, core.ErrHubClosed) {
			h.log.Debug().Str("remote", r.RemoteAddr).Msg("ws connection refused, hub closed")
			return
		}
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("ws connection closed with error")
	}
}

// lineConn adapts a WebSocket connection to the newline-delimited stream the
// hub reads and writes.
type lineConn struct {
	ctx  context.Context
	conn *websocket.Conn

	pending []byte // read side, only touched by the session read loop

	mu            sync.Mutex
	writeDeadline time.Time

	closeOnce sync.Once
	closed    chan struct{}
}

func newLineConn(ctx context.Context, conn *websocket.Conn) *lineConn {
	return &lineConn{ctx: ctx, conn: conn, closed: make(chan struct{})}
}

func (c *lineConn) Read(p []byte) (int, error) {
	for len(c.pending) == 0 {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			return 0, c.readErr(err)
		}
		data = bytes.TrimRight(data, "\r\n")
		c.pending = append(data, '\n')
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

// readErr maps orderly shutdowns to io.EOF.
func (c *lineConn) readErr(err error) error {
	select {
	case <-c.closed:
		return io.EOF
	default:
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return io.EOF
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return io.EOF
	}
	return err
}

func (c *lineConn) Write(p []byte) (int, error) {
	ctx := c.ctx
	c.mu.Lock()
	deadline := c.writeDeadline
	c.mu.Unlock()
	if !deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	for _, line := range frameLines(p) {
		if err := c.conn.Write(ctx, websocket.MessageText, []byte(line)); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// SetWriteDeadline bounds subsequent writes.
func (c *lineConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	c.writeDeadline = t
	c.mu.Unlock()
	return nil
}

func (c *lineConn) Close() error {
	err := io.ErrClosedPipe
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close(websocket.StatusNormalClosure, "bye")
		if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
			err = nil
		}
	})
	return err
}
