package core

import (
	"strings"
	"time"

	"github.com/vovakirdan/linechat/internal/proto"
)

var timeTokens = strings.NewReplacer("HH", "15", "MM", "04", "SS", "05")

// TimeLayout converts an HH:MM:SS style format into a Go time layout.
// Formats without those tokens are taken as Go layouts already.
func TimeLayout(format string) string {
	if format == "" {
		return "15:04:05"
	}
	return timeTokens.Replace(format)
}

// Formatter renders chat text into its wire form.
type Formatter struct {
	layout string
	now    func() time.Time
}

// NewFormatter builds a formatter; now defaults to time.Now.
func NewFormatter(format string, now func() time.Time) *Formatter {
	if now == nil {
		now = time.Now
	}
	return &Formatter{layout: TimeLayout(format), now: now}
}

// Compose returns "|type|time|author: text". ok is false when text is blank.
func (f *Formatter) Compose(raw string, typ proto.MessageType, author string) (string, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", false
	}

	var b strings.Builder
	b.WriteByte('|')
	b.WriteString(string(typ))
	b.WriteByte('|')
	b.WriteString(f.now().Format(f.layout))
	b.WriteByte('|')
	b.WriteString(author)
	b.WriteString(": ")
	b.WriteString(text)
	return b.String(), true
}
