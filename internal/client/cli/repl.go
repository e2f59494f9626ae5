package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Upload(ctx context.Context, args []string) error
	Torrent(ctx context.Context, args []string) error
	Ed2k(ctx context.Context, args []string) error
	Jobs(ctx context.Context) error
	Job(ctx context.Context, args []string) error
	Refresh(ctx context.Context) error
	History(ctx context.Context) error
	Files(ctx context.Context) error
	Get(ctx context.Context, args []string) error
	Preview(ctx context.Context, args []string) error
	CloseView(ctx context.Context, args []string) error
	Share(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Open(ctx context.Context, args []string) error
}

// runREPL starts a read-eval-print loop for the gophdisk CLI.
//
// It reads a line from reader, parses the first token as the command and
// dispatches to methods on a. Commands that touch the user's own storage
// require a session; opening a share code does not. Handler errors are
// rendered with describeError and never end the loop. The loop exits on
// EOF, when ctx is done or when the user types "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("gd> %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}
		if cmd == "help" {
			printHelp(a.isLoggedIn())
			continue
		}

		h, ok := lookup(a, cmd)
		if !ok {
			printlnFn("Unknown command:", cmd)
			continue
		}
		if h.auth && !a.isLoggedIn() {
			printlnFn("Please login first")
			continue
		}
		if err := h.fn(ctx, args); err != nil {
			printlnFn(describeError(err))
		}
	}
}

type handler struct {
	auth bool
	fn   func(ctx context.Context, args []string) error
}

func noArgs(fn func(context.Context) error) func(context.Context, []string) error {
	return func(ctx context.Context, _ []string) error { return fn(ctx) }
}

func lookup(a execIface, cmd string) (handler, bool) {
	switch cmd {
	case "login":
		return handler{fn: noArgs(a.Login)}, true
	case "logout":
		return handler{auth: true, fn: noArgs(a.Logout)}, true
	case "upload":
		return handler{auth: true, fn: a.Upload}, true
	case "torrent":
		return handler{auth: true, fn: a.Torrent}, true
	case "ed2k":
		return handler{auth: true, fn: a.Ed2k}, true
	case "jobs":
		return handler{fn: noArgs(a.Jobs)}, true
	case "job":
		return handler{auth: true, fn: a.Job}, true
	case "refresh":
		return handler{auth: true, fn: noArgs(a.Refresh)}, true
	case "history":
		return handler{fn: noArgs(a.History)}, true
	case "l", "files":
		return handler{auth: true, fn: noArgs(a.Files)}, true
	case "get":
		return handler{auth: true, fn: a.Get}, true
	case "preview":
		return handler{auth: true, fn: a.Preview}, true
	case "close":
		return handler{fn: a.CloseView}, true
	case "share":
		return handler{auth: true, fn: a.Share}, true
	case "delete":
		return handler{auth: true, fn: a.Delete}, true
	case "open":
		return handler{fn: a.Open}, true
	}
	return handler{}, false
}

func printHelp(loggedIn bool) {
	if loggedIn {
		printlnFn("Available commands: upload <path>, torrent <path>, ed2k <link>, jobs, job <id>, refresh, history, (l)files, " +
			"get <id>, preview <id>, close [preview|download], share <id>, delete <id>, open <code> [preview|download], logout, exit")
		return
	}
	printlnFn("Available commands: login, open <code> [preview|download], jobs, history, close, exit")
}
