package core

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/proto"
	"github.com/vovakirdan/linechat/internal/store"
	"github.com/vovakirdan/linechat/internal/utils"
)

// HistoryLimit is how many recent public messages a user ever gets to see.
const HistoryLimit = 20

// Options tune the hub.
type Options struct {
	ReportsLimit      int
	BanDuration       time.Duration
	TimeFormat        string
	OutboundBuffer    int
	WriteTimeout      time.Duration
	MaxLineBytes      int
	RateLimitBurst    int // 0 disables rate limiting
	RateLimitInterval time.Duration

	// Now overrides the wall clock, mostly for tests.
	Now func() time.Time
	// Observer receives every emitted Event.
	Observer Observer
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		ReportsLimit:      3,
		BanDuration:       30 * time.Second,
		TimeFormat:        "HH:MM:SS",
		OutboundBuffer:    64,
		WriteTimeout:      10 * time.Second,
		MaxLineBytes:      4096,
		RateLimitBurst:    10,
		RateLimitInterval: time.Second,
	}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.ReportsLimit <= 0 {
		o.ReportsLimit = def.ReportsLimit
	}
	if o.BanDuration < 0 {
		o.BanDuration = 0
	}
	if o.TimeFormat == "" {
		o.TimeFormat = def.TimeFormat
	}
	if o.OutboundBuffer <= 0 {
		o.OutboundBuffer = def.OutboundBuffer
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = def.WriteTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Hub owns the shared chat state: the user registry and the message history.
// Every read-modify-write of that state happens under mu.
type Hub struct {
	opts      Options
	log       *zerolog.Logger
	formatter *Formatter
	scheduler *Scheduler

	mu       sync.Mutex
	registry *Registry
	history  store.HistoryStore
	closed   bool
	queued   []Event // emitted once mu is released

	sessions sync.WaitGroup
}

// NewHub creates a new chat hub instance.
func NewHub(opts Options, history store.HistoryStore, logger *zerolog.Logger) *Hub {
	opts = opts.normalized()
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		opts:      opts,
		log:       logger,
		formatter: NewFormatter(opts.TimeFormat, opts.Now),
		scheduler: NewScheduler(),
		registry:  NewRegistry(),
		history:   history,
	}
}

// Shutdown drops pending scheduled actions, disconnects every session and waits
// for their loops to finish. Sessions are closed in parallel, so a stalled peer
// costs at most one write timeout in total.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	sessions := h.registry.Snapshot()
	h.mu.Unlock()

	h.scheduler.Stop()

	var wg sync.WaitGroup
	for _, s := range sessions {
		s := s
		s.Send(proto.NoticeServerShutdown)
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Close()
		}()
	}
	wg.Wait()
	h.sessions.Wait()
	h.log.Info().Int("sessions", len(sessions)).Msg("hub stopped")
}

// Serve runs the session for one connection until the peer leaves, the connection
// fails or ctx is canceled. It always closes conn.
func (h *Hub) Serve(ctx context.Context, conn io.ReadWriteCloser, remote string) error {
	s := newSession(utils.NewID(), remote, conn, h.opts, h.log)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return ErrHubClosed
	}
	h.sessions.Add(1)
	h.mu.Unlock()
	defer h.sessions.Done()

	go s.writeLoop()
	defer h.disconnect(s)

	stop := context.AfterFunc(ctx, s.Close)
	defer stop()

	if !h.join(ctx, s) {
		return ErrHubClosed
	}

	for {
		line, err := s.ReadLine()
		if err != nil {
			if errors.Is(err, ErrLineTooLong) {
				s.Send(proto.NoticeLineTooLong)
				continue
			}
			if isClosedErr(err) {
				return nil
			}
			h.emit(Event{Kind: EventError, SessionID: s.ID, Remote: s.Remote, Err: err})
			return err
		}
		if line == "" {
			continue
		}
		if quit := h.dispatch(ctx, s, line); quit {
			return nil
		}
	}
}

// join names and registers s, then greets it with recent history.
// Returns false if the hub is already shut down.
func (h *Hub) join(ctx context.Context, s *Session) bool {
	h.mu.Lock()
	defer h.unlock()

	if h.closed {
		return false
	}

	s.name = utils.DefaultUsername(s.ID)
	if h.registry.Lookup(s.name) != nil {
		s.name = "username_" + s.ID
	}
	if err := h.registry.Register(s); err != nil {
		// Only possible if two uuids collide; the session still works unregistered.
		h.log.Error().Err(err).Str("session_id", s.ID).Msg("register session")
	}

	s.Send(proto.Welcome(s.name))
	h.sendHistoryLocked(ctx, s)

	h.queue(Event{Kind: EventConnected, SessionID: s.ID, User: s.name, Remote: s.Remote})
	return true
}

// disconnect removes s from the registry and releases its connection exactly once.
func (h *Hub) disconnect(s *Session) {
	s.leaveOnce.Do(func() {
		h.mu.Lock()
		removed := h.registry.Remove(s)
		name := s.name
		h.mu.Unlock()

		s.Close()
		if removed {
			h.emit(Event{Kind: EventDisconnected, SessionID: s.ID, User: name, Remote: s.Remote})
		}
	})
}

// OnlineUsers returns the display names currently registered.
func (h *Hub) OnlineUsers() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.Names()
}

// History returns up to limit of the newest public messages, oldest first.
func (h *Hub) History(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.recentLocked(ctx, limit)
}

func (h *Hub) recentLocked(ctx context.Context, limit int) ([]string, error) {
	if h.history == nil {
		return nil, nil
	}
	entries, err := h.history.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(entries))
	for _, e := range entries {
		texts = append(texts, e.Text)
	}
	return texts, nil
}

func (h *Hub) sendHistoryLocked(ctx context.Context, s *Session) {
	texts, err := h.recentLocked(ctx, HistoryLimit)
	if err != nil {
		h.queue(Event{Kind: EventError, SessionID: s.ID, User: s.name, Err: err})
		return
	}
	for _, text := range texts {
		s.Send(text)
	}
}

// queue records an event to emit after mu is released. h.mu must be held.
func (h *Hub) queue(ev Event) {
	h.queued = append(h.queued, ev)
}

// unlock releases mu and then emits the events queued under it, so observers
// never run with the hub locked.
func (h *Hub) unlock() {
	events := h.queued
	h.queued = nil
	h.mu.Unlock()

	for _, ev := range events {
		h.emit(ev)
	}
}

func (h *Hub) emit(ev Event) {
	var e *zerolog.Event
	switch ev.Kind {
	case EventCommand:
		e = h.log.Debug()
	case EventError:
		e = h.log.Warn().Err(ev.Err)
	default:
		e = h.log.Info()
	}
	e.Str("event", ev.Kind.String()).Str("session_id", ev.SessionID).Str("user", ev.User)
	if ev.Remote != "" {
		e.Str("remote", ev.Remote)
	}
	if ev.Command != "" {
		e.Str("command", ev.Command)
	}
	e.Msg("chat event")

	if h.opts.Observer != nil {
		h.opts.Observer(ev)
	}
}
