package core

import (
	"strconv"
	"strings"

	"github.com/vovakirdan/linechat/internal/proto"
)

// MaxPostponeDelay caps /postpone so the delay always fits a time.Duration.
const MaxPostponeDelay = 24 * 60 * 60

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandUnknown is any word that is not a known command.
	CommandUnknown CommandKind = iota
	// CommandHelp asks for the command reference.
	CommandHelp
	// CommandHistory asks for recent public messages.
	CommandHistory
	// CommandChangeUsername renames the caller.
	CommandChangeUsername
	// CommandDM sends a private message.
	CommandDM
	// CommandReport reports another user.
	CommandReport
	// CommandPostpone schedules a public message.
	CommandPostpone
	// CommandUsers lists online users.
	CommandUsers
	// CommandQuit closes the connection.
	CommandQuit
)

var commandWords = map[string]CommandKind{
	proto.CmdHelp:           CommandHelp,
	proto.CmdHistory:        CommandHistory,
	proto.CmdChangeUsername: CommandChangeUsername,
	proto.CmdDM:             CommandDM,
	proto.CmdReport:         CommandReport,
	proto.CmdPostpone:       CommandPostpone,
	proto.CmdUsers:          CommandUsers,
	proto.CmdQuit:           CommandQuit,
}

func (k CommandKind) String() string {
	for word, kind := range commandWords {
		if kind == k {
			return word
		}
	}
	return "unknown"
}

// Command represents an action requested by a client.
type Command struct {
	Kind    CommandKind
	Target  string
	Payload string
	Delay   int
}

// IsCommand reports whether a trimmed line is a command.
func IsCommand(line string) bool {
	return strings.HasPrefix(line, proto.CommandPrefix)
}

// ParseCommand turns a trimmed line starting with the command prefix into a Command.
// A malformed dm or postpone yields a *CommandError together with an unknown command
// carrying the command word.
func ParseCommand(line string) (Command, error) {
	tokens := strings.Split(strings.TrimPrefix(line, proto.CommandPrefix), " ")
	word, args := tokens[0], tokens[1:]

	kind, ok := commandWords[word]
	if !ok {
		return Command{Kind: CommandUnknown, Payload: word}, nil
	}

	cmd := Command{Kind: kind}
	switch kind {
	case CommandReport, CommandChangeUsername:
		if len(args) > 0 {
			cmd.Target = args[0]
		}
	case CommandDM:
		if len(args) == 0 || args[0] == "" {
			return Command{Kind: CommandUnknown, Payload: word}, commandError(word, ErrMissingArgument)
		}
		cmd.Target = args[0]
		cmd.Payload = strings.Join(args[1:], " ")
	case CommandPostpone:
		if len(args) == 0 || args[0] == "" {
			return Command{Kind: CommandUnknown, Payload: word}, commandError(word, ErrMissingArgument)
		}
		delay, err := strconv.Atoi(args[0])
		if err != nil || delay < 0 || delay > MaxPostponeDelay {
			return Command{Kind: CommandUnknown, Payload: word}, commandError(word, ErrInvalidDelay)
		}
		cmd.Delay = delay
		cmd.Payload = strings.Join(args[1:], " ")
	}

	return cmd, nil
}
