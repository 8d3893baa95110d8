package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/dmitrijs2005/shopkeeper/internal/client/client"
)

// execIface is the command surface the REPL dispatches to. App implements
// it; tests use a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	List(ctx context.Context) error
	Next(ctx context.Context) error
	Prev(ctx context.Context) error
	Search(ctx context.Context, term string) error
	Show(ctx context.Context, id string) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

const (
	helpAnonymous = "Available commands: register, login, help, exit"
	helpLoggedIn  = "Available commands: (l)ist, next, prev, search <term>, show <id>, add, edit <id>, delete <id>, whoami, logout, help, exit"
)

var errNeedLogin = errors.New("please log in first")

// runREPL reads commands line by line from in and dispatches them to a.
// It returns on EOF or after "exit" / "quit". Command errors are printed
// and do not stop the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader, out io.Writer) {
	for {
		fmt.Fprintf(out, "shop%s> ", statusFn())

		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			fmt.Fprintln(out, "Bye!")
			return
		}
		if err := dispatch(ctx, a, cmd, args, out); err != nil {
			printError(out, err)
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			fmt.Fprintln(out, helpLoggedIn)
		} else {
			fmt.Fprintln(out, helpAnonymous)
		}
		return nil
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	}

	if !a.isLoggedIn() {
		switch cmd {
		case "logout", "whoami", "l", "list", "next", "prev", "search", "show", "add", "edit", "delete":
			return errNeedLogin
		}
	}

	switch cmd {
	case "logout":
		return a.Logout(ctx)
	case "whoami":
		return a.WhoAmI(ctx)
	case "l", "list":
		return a.List(ctx)
	case "next":
		return a.Next(ctx)
	case "prev":
		return a.Prev(ctx)
	case "search":
		return a.Search(ctx, strings.Join(args, " "))
	case "show":
		return withID(args, "show", func(id string) error { return a.Show(ctx, id) }, out)
	case "add":
		return a.Add(ctx)
	case "edit":
		return withID(args, "edit", func(id string) error { return a.Edit(ctx, id) }, out)
	case "delete":
		return withID(args, "delete", func(id string) error { return a.Delete(ctx, id) }, out)
	}

	fmt.Fprintln(out, "Unknown command:", cmd)
	return nil
}

func withID(args []string, cmd string, fn func(string) error, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintf(out, "Usage: %s <id>\n", cmd)
		return nil
	}
	return fn(args[0])
}

// printError prints per-field messages when err carries them, otherwise a
// single line.
func printError(out io.Writer, err error) {
	var apiErr *client.Error
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		fmt.Fprintf(out, "Error: %s\n", apiErr.Message)
		for _, field := range slices.Sorted(maps.Keys(apiErr.Fields)) {
			fmt.Fprintf(out, "  %s: %s\n", field, apiErr.Fields[field])
		}
		return
	}
	fmt.Fprintf(out, "Error: %s\n", err)
}
