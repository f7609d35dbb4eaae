package core

import (
	"errors"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Command
	}{
		{name: "help", line: "/help", want: Command{Kind: CommandHelp}},
		{name: "history ignores args", line: "/history now", want: Command{Kind: CommandHistory}},
		{name: "users", line: "/users", want: Command{Kind: CommandUsers}},
		{name: "quit", line: "/quit", want: Command{Kind: CommandQuit}},
		{name: "rename", line: "/change_username bob", want: Command{Kind: CommandChangeUsername, Target: "bob"}},
		{name: "rename without name", line: "/change_username", want: Command{Kind: CommandChangeUsername}},
		{name: "report", line: "/report eve extra", want: Command{Kind: CommandReport, Target: "eve"}},
		{name: "dm keeps spacing", line: "/dm bob hi  there", want: Command{Kind: CommandDM, Target: "bob", Payload: "hi  there"}},
		{name: "dm without text", line: "/dm bob", want: Command{Kind: CommandDM, Target: "bob"}},
		{name: "postpone", line: "/postpone 5 see you", want: Command{Kind: CommandPostpone, Delay: 5, Payload: "see you"}},
		{name: "unknown", line: "/dance", want: Command{Kind: CommandUnknown, Payload: "dance"}},
		{name: "case sensitive", line: "/HELP", want: Command{Kind: CommandUnknown, Payload: "HELP"}},
		{name: "bare prefix", line: "/", want: Command{Kind: CommandUnknown}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand(tt.line)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	tests := []struct {
		line    string
		word    string
		wantErr error
	}{
		{line: "/dm", word: "dm", wantErr: ErrMissingArgument},
		{line: "/dm  hi", word: "dm", wantErr: ErrMissingArgument},
		{line: "/postpone", word: "postpone", wantErr: ErrMissingArgument},
		{line: "/postpone soon hi", word: "postpone", wantErr: ErrInvalidDelay},
		{line: "/postpone -1 hi", word: "postpone", wantErr: ErrInvalidDelay},
		{line: "/postpone 86401 hi", word: "postpone", wantErr: ErrInvalidDelay},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, err := ParseCommand(tt.line)
			var cmdErr *CommandError
			if !errors.As(err, &cmdErr) {
				t.Fatalf("expected CommandError, got %v", err)
			}
			if cmdErr.Word != tt.word || !errors.Is(err, tt.wantErr) {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Kind != CommandUnknown {
				t.Fatalf("expected unknown kind, got %v", cmd.Kind)
			}
		})
	}
}

func TestIsCommand(t *testing.T) {
	if !IsCommand("/help") || IsCommand("hello /help") || IsCommand("") {
		t.Fatal("IsCommand misclassified a line")
	}
}
