package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/linechat/internal/proto"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		addr string
		raw  bool
	)

	cmd := &cobra.Command{
		Use:          "linechat-client",
		Short:        "Console client for the linechat server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), addr, raw, os.Stdin, os.Stdout)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:8080", "chat server address")
	cmd.Flags().BoolVar(&raw, "raw", false, "print lines exactly as received")
	return cmd
}

func run(parent context.Context, addr string, raw bool, in io.Reader, out io.Writer) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	context.AfterFunc(ctx, func() { _ = conn.Close() })

	go func() {
		defer cancel()
		readLoop(conn, out, raw)
	}()
	go writeLoop(conn, in)

	<-ctx.Done()
	return nil
}

func readLoop(conn net.Conn, out io.Writer, raw bool) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		fmt.Fprintln(out, render(scanner.Text(), raw))
	}
}

// render turns "|public|12:00:00|alice: hi" into "[12:00:00] alice: hi".
func render(line string, raw bool) string {
	if raw {
		return line
	}
	f, ok := proto.ParseFormatted(line)
	if !ok {
		return "* " + line
	}
	if f.Type == proto.TypePrivate {
		return fmt.Sprintf("[%s] (dm) %s", f.Time, f.Body)
	}
	return fmt.Sprintf("[%s] %s", f.Time, f.Body)
}

// writeLoop forwards stdin line by line. At end of input it half-closes the
// connection so the server ends the session.
func writeLoop(conn net.Conn, in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if _, err := io.WriteString(conn, line+"\n"); err != nil {
			return
		}
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.CloseWrite()
	}
}
