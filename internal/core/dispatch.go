package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vovakirdan/linechat/internal/proto"
)

type actionKind int

const (
	actionBroadcast actionKind = iota
	actionUnban
)

// scheduledAction captures what a deferred action needs. The session is looked up
// again by id when the action fires.
type scheduledAction struct {
	kind      actionKind
	sessionID string
	author    string
	payload   string
}

// dispatch handles one received line. Returns true when the session should end.
// Actions that speak for the user check the ban again under the lock they act in.
func (h *Hub) dispatch(ctx context.Context, s *Session, line string) bool {
	h.mu.Lock()
	banned := h.bannedLocked(s)
	h.mu.Unlock()
	if banned {
		s.Send(proto.NoticeBanned)
		return false
	}
	if !s.limiter.allow() {
		s.Send(proto.NoticeRateLimited)
		return false
	}

	trimmed := strings.TrimSpace(line)
	if !IsCommand(trimmed) {
		h.broadcastFrom(ctx, s, line)
		return false
	}

	cmd, err := ParseCommand(trimmed)
	h.emit(Event{Kind: EventCommand, SessionID: s.ID, Command: cmd.Kind.String(), Err: err})
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			s.Send(proto.NoticeInvalidCommand(cmdErr.Word))
		}
		return false
	}

	switch cmd.Kind {
	case CommandHelp:
		s.Send(proto.HelpText)
	case CommandHistory:
		h.mu.Lock()
		h.sendHistoryLocked(ctx, s)
		h.unlock()
	case CommandUsers:
		s.Send(proto.NoticeOnlineUsers(h.OnlineUsers()))
	case CommandReport:
		h.report(s, cmd.Target)
	case CommandDM:
		h.directMessage(s, cmd.Target, cmd.Payload)
	case CommandChangeUsername:
		h.rename(s, cmd.Target)
	case CommandPostpone:
		h.postpone(s, cmd.Delay, cmd.Payload)
	case CommandQuit:
		s.Send(proto.NoticeGoodbye)
		return true
	default:
		if cmd.Payload == "" {
			s.Send(proto.NoticeEmptyCommand)
		} else {
			s.Send(proto.NoticeUnknownCommand(cmd.Payload))
		}
	}
	return false
}

// bannedLocked reports whether s has reached the report limit. h.mu must be held.
func (h *Hub) bannedLocked(s *Session) bool {
	return s.reportCount >= h.opts.ReportsLimit
}

func (h *Hub) broadcastFrom(ctx context.Context, s *Session, raw string) {
	h.mu.Lock()
	defer h.unlock()

	if h.bannedLocked(s) {
		s.Send(proto.NoticeBanned)
		return
	}
	h.broadcastLocked(ctx, s, s.name, raw)
}

// broadcastLocked formats, records and fans out a public message as one unit.
// author may be nil when the sender is no longer online.
func (h *Hub) broadcastLocked(ctx context.Context, author *Session, name, raw string) {
	msg, ok := h.formatter.Compose(raw, proto.TypePublic, name)
	if !ok {
		if author != nil {
			author.Send(proto.NoticeEmptyMessage)
		}
		return
	}

	if h.history != nil {
		if err := h.history.Append(ctx, msg); err != nil {
			h.queue(Event{Kind: EventError, User: name, Err: err})
		}
	}
	for _, peer := range h.registry.Snapshot() {
		peer.Send(msg)
	}
}

func (h *Hub) directMessage(s *Session, target, payload string) {
	h.mu.Lock()
	defer h.unlock()

	if h.bannedLocked(s) {
		s.Send(proto.NoticeBanned)
		return
	}
	msg, ok := h.formatter.Compose(payload, proto.TypePrivate, s.name)
	if !ok {
		s.Send(proto.NoticeEmptyMessage)
		return
	}
	peer := h.registry.Lookup(target)
	switch {
	case peer == nil:
		s.Send(proto.NoticeNotOnline(target))
	case peer == s:
		s.Send(proto.NoticeSelfDM)
	default:
		peer.Send(msg)
	}
}

func (h *Hub) rename(s *Session, newName string) {
	h.mu.Lock()
	oldName := s.name
	err := h.registry.Rename(oldName, newName)
	h.mu.Unlock()

	switch {
	case err == nil:
		s.Send(proto.NoticeUsernameChanged(newName))
		h.emit(Event{Kind: EventRenamed, SessionID: s.ID, User: newName})
	case errors.Is(err, ErrNameEmpty):
		s.Send(proto.NoticeEmptyUsername)
	case errors.Is(err, ErrNameUnchanged):
		s.Send(proto.NoticeSameUsername)
	case errors.Is(err, ErrNameTaken):
		s.Send(proto.NoticeUsernameTaken(newName))
	default:
		h.emit(Event{Kind: EventError, SessionID: s.ID, User: oldName, Err: err})
	}
}

func (h *Hub) report(s *Session, target string) {
	target = strings.TrimSpace(target)
	if target == "" {
		s.Send(proto.NoticeEmptyUsername)
		return
	}

	h.mu.Lock()
	defer h.unlock()

	if target == s.name {
		s.Send(proto.NoticeSelfReport)
		return
	}
	peer := h.registry.Lookup(target)
	if peer == nil {
		s.Send(proto.NoticeNotOnline(target))
		return
	}

	peer.reportCount++
	peer.Send(proto.NoticeReportedBy(s.name))
	s.Send(proto.NoticeReportAccepted(target))

	if peer.reportCount != h.opts.ReportsLimit {
		return
	}
	peer.Send(proto.NoticeBannedFor(wholeSeconds(h.opts.BanDuration)))
	h.schedule(h.opts.BanDuration, scheduledAction{kind: actionUnban, sessionID: peer.ID, author: peer.name})
	h.queue(Event{Kind: EventBanned, SessionID: peer.ID, User: peer.name})
}

// wholeSeconds rounds d up, so a sub-second ban is never announced as 0 seconds.
func wholeSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

func (h *Hub) postpone(s *Session, delay int, payload string) {
	if strings.TrimSpace(payload) == "" {
		s.Send(proto.NoticeEmptyMessage)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.bannedLocked(s) {
		s.Send(proto.NoticeBanned)
		return
	}
	name := s.name

	s.Send(proto.NoticePostponed(delay))
	h.schedule(time.Duration(delay)*time.Second, scheduledAction{
		kind:      actionBroadcast,
		sessionID: s.ID,
		author:    name,
		payload:   payload,
	})
}

func (h *Hub) schedule(delay time.Duration, a scheduledAction) {
	if !h.scheduler.Schedule(delay, func() { h.fire(a) }) {
		h.log.Debug().Str("session_id", a.sessionID).Msg("scheduler stopped, action dropped")
	}
}

// fire runs a scheduled action against the current state.
func (h *Hub) fire(a scheduledAction) {
	h.mu.Lock()
	defer h.unlock()

	if h.closed {
		return
	}
	s := h.registry.LookupID(a.sessionID)

	switch a.kind {
	case actionBroadcast:
		name := a.author
		if s != nil {
			name = s.name
		}
		h.broadcastLocked(context.Background(), s, name, a.payload)
	case actionUnban:
		if s == nil {
			return
		}
		s.reportCount = 0
		s.Send(proto.NoticeUnbanned)
		h.queue(Event{Kind: EventUnbanned, SessionID: s.ID, User: s.name})
	}
}
