package tcp

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/core"
	"github.com/vovakirdan/linechat/internal/store/memory"
)

func startServer(t *testing.T) (*Server, *core.Hub) {
	t.Helper()

	nop := zerolog.Nop()
	opts := core.DefaultOptions()
	opts.RateLimitBurst = 0
	hub := core.NewHub(opts, memory.New(20), &nop)

	srv := NewServer("127.0.0.1:0", hub, &nop)
	if err := srv.Listen(); err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx) }()

	t.Cleanup(func() {
		hub.Shutdown()
		cancel()
		select {
		case err := <-errCh:
			if err != nil {
				t.Errorf("serve: %v", err)
			}
		case <-time.After(3 * time.Second):
			t.Error("serve did not stop")
		}
	})
	return srv, hub
}

type lineClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, srv *Server) *lineClient {
	t.Helper()

	conn, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &lineClient{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (c *lineClient) send(line string) {
	c.t.Helper()
	if _, err := c.conn.Write([]byte(line + "\r\n")); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

func (c *lineClient) readUntil(match func(string) bool) string {
	c.t.Helper()

	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		line, err := c.r.ReadString('\n')
		if err != nil {
			c.t.Fatalf("read: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		if match(line) {
			return line
		}
	}
}

func TestServerChatOverTCP(t *testing.T) {
	srv, _ := startServer(t)

	alice := dial(t, srv)
	alice.readUntil(func(l string) bool { return strings.HasPrefix(l, "Welcome to the chat, your username is username_") })
	alice.send("/change_username alice")
	alice.readUntil(func(l string) bool { return l == "your username is now alice" })

	bob := dial(t, srv)
	bob.readUntil(func(l string) bool { return strings.HasPrefix(l, "For now") })

	alice.send("hello over tcp")
	got := bob.readUntil(func(l string) bool { return strings.HasPrefix(l, "|public|") })
	if !strings.HasSuffix(got, "|alice: hello over tcp") {
		t.Fatalf("unexpected broadcast %q", got)
	}
}

func TestServerQuit(t *testing.T) {
	srv, hub := startServer(t)

	c := dial(t, srv)
	c.readUntil(func(l string) bool { return strings.HasPrefix(l, "For now") })
	c.send("/quit")
	c.readUntil(func(l string) bool { return l == "bye!" })

	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := c.r.ReadString('\n'); err == nil {
		t.Fatal("expected the server to close the connection")
	}
	if users := hub.OnlineUsers(); len(users) != 0 {
		t.Fatalf("expected nobody online, got %v", users)
	}
}

func TestServerListenError(t *testing.T) {
	srv, _ := startServer(t)

	nop := zerolog.Nop()
	dup := NewServer(srv.Addr().String(), nil, &nop)
	if err := dup.Serve(context.Background()); err == nil {
		t.Fatal("expected listen error on a busy address")
	}
}
