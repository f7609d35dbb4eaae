package core

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/store/memory"
)

var noon = time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)

func fixedClock() time.Time { return noon }

// testOptions disables rate limiting and pins the clock to 12:00:00.
func testOptions() Options {
	opts := DefaultOptions()
	opts.RateLimitBurst = 0
	opts.WriteTimeout = time.Second
	opts.Now = fixedClock
	return opts
}

func startHub(t *testing.T, opts Options) *Hub {
	t.Helper()

	nop := zerolog.Nop()
	hub := NewHub(opts, memory.New(100), &nop)
	t.Cleanup(hub.Shutdown)
	return hub
}

// testClient is the far end of an in-process connection.
type testClient struct {
	t     *testing.T
	conn  net.Conn
	lines chan string
}

func connect(t *testing.T, hub *Hub) *testClient {
	t.Helper()

	server, client := net.Pipe()
	go func() {
		_ = hub.Serve(context.Background(), server, "pipe")
	}()

	c := &testClient{t: t, conn: client, lines: make(chan string, 512)}
	go func() {
		defer close(c.lines)
		scanner := bufio.NewScanner(client)
		for scanner.Scan() {
			c.lines <- scanner.Text()
		}
	}()
	t.Cleanup(func() { _ = client.Close() })

	c.expectPrefix("Welcome to the chat")
	return c
}

// connectAs connects and renames the client to name.
func connectAs(t *testing.T, hub *Hub, name string) *testClient {
	t.Helper()

	c := connect(t, hub)
	c.send("/change_username " + name)
	c.expect("your username is now " + name)
	return c
}

func (c *testClient) send(line string) {
	c.t.Helper()

	_ = c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		c.t.Fatalf("send %q: %v", line, err)
	}
}

// next returns the next line or fails after a timeout.
func (c *testClient) next() string {
	c.t.Helper()

	select {
	case line, ok := <-c.lines:
		if !ok {
			c.t.Fatal("connection closed")
		}
		return line
	case <-time.After(2 * time.Second):
		c.t.Fatal("timed out waiting for a line")
	}
	return ""
}

// expect skips lines until want arrives.
func (c *testClient) expect(want string) {
	c.t.Helper()
	c.expectMatch(want, func(line string) bool { return line == want })
}

func (c *testClient) expectPrefix(prefix string) string {
	c.t.Helper()
	return c.expectMatch(prefix+"...", func(line string) bool { return strings.HasPrefix(line, prefix) })
}

func (c *testClient) expectMatch(desc string, match func(string) bool) string {
	c.t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-c.lines:
			if !ok {
				c.t.Fatalf("connection closed while waiting for %q", desc)
			}
			if match(line) {
				return line
			}
		case <-deadline:
			c.t.Fatalf("expected line %q not received", desc)
			return ""
		}
	}
}

// expectClosed waits for the server to close the connection.
func (c *testClient) expectClosed() {
	c.t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-c.lines:
			if !ok {
				return
			}
		case <-deadline:
			c.t.Fatal("connection still open")
		}
	}
}

// recorder collects hub events.
type recorder struct {
	events chan Event
}

func newRecorder() *recorder {
	return &recorder{events: make(chan Event, 256)}
}

func (r *recorder) observe(ev Event) {
	select {
	case r.events <- ev:
	default:
	}
}

func mustEvent(t *testing.T, ch <-chan Event, kind EventKind) Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event kind %v not received", kind)
			return Event{}
		}
	}
}
