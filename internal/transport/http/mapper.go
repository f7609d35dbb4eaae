package http

import (
	"strings"

	"github.com/vovakirdan/linechat/internal/proto"
)

func historyFromLines(lines []string) []HistoryMessage {
	messages := make([]HistoryMessage, 0, len(lines))
	for _, line := range lines {
		msg := HistoryMessage{Raw: line}
		if f, ok := proto.ParseFormatted(line); ok {
			msg.Type = string(f.Type)
			msg.Time = f.Time
			msg.Body = f.Body
		}
		messages = append(messages, msg)
	}
	return messages
}

// frameLines splits an outbound write into one frame per line.
func frameLines(p []byte) []string {
	text := strings.TrimRight(string(p), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
