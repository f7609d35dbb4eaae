// Package proto holds the line-oriented text protocol shared by the server and
// the console client: command words, message type tags and user notices.
package proto

import (
	"fmt"
	"strings"
)

// CommandPrefix starts every command line.
const CommandPrefix = "/"

// Command words.
const (
	CmdHelp           = "help"
	CmdHistory        = "history"
	CmdChangeUsername = "change_username"
	CmdDM             = "dm"
	CmdReport         = "report"
	CmdPostpone       = "postpone"
	CmdUsers          = "users"
	CmdQuit           = "quit"
)

// MessageType tags a formatted chat message.
type MessageType string

const (
	TypePublic  MessageType = "public"
	TypePrivate MessageType = "private"
)

// Usage lines per command.
var Usage = map[string]string{
	CmdHelp:           "/help",
	CmdHistory:        "/history",
	CmdChangeUsername: "/change_username <name>",
	CmdDM:             "/dm <user> <text>",
	CmdReport:         "/report <user>",
	CmdPostpone:       "/postpone <seconds> <text>",
	CmdUsers:          "/users",
	CmdQuit:           "/quit",
}

// HelpText is the static command reference.
const HelpText = `Available commands:
/help - show this message
/history - show the last 20 public messages
/users - list online users
/dm <user> <text> - send a private message
/change_username <name> - change your username
/report <user> - report a user; too many reports ban them for a while
/postpone <seconds> <text> - send a public message after a delay
/quit - leave the chat
Anything else is sent to everyone online.`

// User-facing notices.
const (
	NoticeEmptyMessage   = "cannot send empty message"
	NoticeBanned         = "you are banned, cannot send messages"
	NoticeUnbanned       = "you are unbanned"
	NoticeEmptyCommand   = "empty command"
	NoticeEmptyUsername  = "username cannot be empty"
	NoticeSameUsername   = "new username is the same as the current one"
	NoticeSelfDM         = "cannot DM yourself"
	NoticeSelfReport     = "cannot report yourself"
	NoticeRateLimited    = "slow down, too many messages"
	NoticeLineTooLong    = "message is too long"
	NoticeServerShutdown = "server is shutting down"
	NoticeGoodbye        = "bye!"
)

// Welcome greets a freshly connected user.
func Welcome(username string) string {
	return fmt.Sprintf("Welcome to the chat, your username is %s!\n"+
		"To get all available commands, please type in \"/help\"\n"+
		"For now, you are in public chat, so all your messages will be seen by other users", username)
}

func NoticeNotOnline(username string) string {
	return fmt.Sprintf("user %s is not online", username)
}

func NoticeUsernameTaken(username string) string {
	return fmt.Sprintf("username %s is already taken", username)
}

func NoticeUsernameChanged(username string) string {
	return fmt.Sprintf("your username is now %s", username)
}

func NoticeReportedBy(reporter string) string {
	return fmt.Sprintf("you are reported by %s", reporter)
}

func NoticeReportAccepted(target string) string {
	return fmt.Sprintf("you reported %s", target)
}

func NoticeBannedFor(seconds int) string {
	return fmt.Sprintf("you are banned for %d seconds", seconds)
}

func NoticePostponed(seconds int) string {
	return fmt.Sprintf("your message will be sent in %d seconds", seconds)
}

func NoticeUnknownCommand(word string) string {
	return "unknown command: " + word
}

// NoticeInvalidCommand reports a malformed command together with its usage line.
func NoticeInvalidCommand(word string) string {
	if usage, ok := Usage[word]; ok {
		return fmt.Sprintf("invalid command: %s (usage: %s)", word, usage)
	}
	return "invalid command: " + word
}

func NoticeOnlineUsers(names []string) string {
	return fmt.Sprintf("online users (%d): %s", len(names), strings.Join(names, ", "))
}

// Formatted is a chat line split into its wire fields.
type Formatted struct {
	Type MessageType
	Time string
	Body string
}

// ParseFormatted splits "|type|time|body". ok is false for plain notices.
func ParseFormatted(line string) (Formatted, bool) {
	if !strings.HasPrefix(line, "|") {
		return Formatted{}, false
	}
	parts := strings.SplitN(line[1:], "|", 3)
	if len(parts) != 3 {
		return Formatted{}, false
	}
	typ := MessageType(parts[0])
	if typ != TypePublic && typ != TypePrivate {
		return Formatted{}, false
	}
	return Formatted{Type: typ, Time: parts[1], Body: parts[2]}, true
}
