package core

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type writeDeadliner interface {
	SetWriteDeadline(time.Time) error
}

// Session is one connected user: its connection, display name and report counter.
type Session struct {
	ID     string
	Remote string

	conn         io.ReadWriteCloser
	reader       *bufio.Reader
	maxLine      int
	writeTimeout time.Duration
	limiter      *rateLimiter
	log          zerolog.Logger

	out        chan string
	done       chan struct{}
	writerDone chan struct{}
	closeOnce  sync.Once
	leaveOnce  sync.Once

	// guarded by Hub.mu
	name        string
	reportCount int
}

func newSession(id, remote string, conn io.ReadWriteCloser, opts Options, logger *zerolog.Logger) *Session {
	return &Session{
		ID:           id,
		Remote:       remote,
		conn:         conn,
		reader:       bufio.NewReader(conn),
		maxLine:      opts.MaxLineBytes,
		writeTimeout: opts.WriteTimeout,
		limiter:      newRateLimiter(opts.RateLimitBurst, opts.RateLimitInterval, opts.Now),
		log:          logger.With().Str("session_id", id).Str("remote", remote).Logger(),
		out:          make(chan string, opts.OutboundBuffer),
		done:         make(chan struct{}),
		writerDone:   make(chan struct{}),
	}
}

// ReadLine blocks for the next line without its terminator.
// Lines longer than maxLine are consumed and reported as ErrLineTooLong.
func (s *Session) ReadLine() (string, error) {
	var (
		buf     []byte
		tooLong bool
	)
	for {
		chunk, isPrefix, err := s.reader.ReadLine()
		if err != nil {
			return "", err
		}
		if !tooLong {
			buf = append(buf, chunk...)
			if s.maxLine > 0 && len(buf) > s.maxLine {
				tooLong = true
				buf = nil
			}
		}
		if !isPrefix {
			break
		}
	}
	if tooLong {
		return "", ErrLineTooLong
	}
	return strings.TrimRight(string(buf), "\r"), nil
}

// Send queues msg for delivery. It never blocks: when the peer's queue is full the
// message is dropped for that peer.
func (s *Session) Send(msg string) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.out <- msg:
		return true
	default:
		s.log.Warn().Msg("outbound queue full, dropping message")
		return false
	}
}

func (s *Session) writeLoop() {
	defer close(s.writerDone)

	for {
		select {
		case msg := <-s.out:
			if err := s.write(msg); err != nil {
				s.log.Debug().Err(err).Msg("write failed")
				_ = s.conn.Close() // unblocks the read loop
				return
			}
		case <-s.done:
			s.flush()
			return
		}
	}
}

// flush writes whatever is still queued after close.
func (s *Session) flush() {
	for {
		select {
		case msg := <-s.out:
			if err := s.write(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *Session) write(msg string) error {
	if d, ok := s.conn.(writeDeadliner); ok && s.writeTimeout > 0 {
		if err := d.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(s.conn, msg+"\n")
	return err
}

// Close stops the writer after it drains the queue and closes the connection.
// Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)

		wait := s.writeTimeout
		if wait <= 0 {
			wait = time.Second
		}
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-s.writerDone:
		case <-timer.C:
		}

		if err := s.conn.Close(); err != nil && !isClosedErr(err) {
			s.log.Debug().Err(err).Msg("close connection")
		}
	})
}

func isClosedErr(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed)
}
