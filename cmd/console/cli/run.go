package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
)

const usage = `usage: console <command> [flags]

commands:
  login   [--email E] [--password P]   sign in and store the credential
  logout                               end the session
  list    <family> [--json]            list suppliers, orders or receipts
  show    <orders|receipts> <id>       print one record with its lines
  delete  <family> <id> [--yes]        delete a record after confirmation
`

// Defaults supplies values for flags not given on the command line.
type Defaults struct {
	Email    string
	Password string
}

// Run parses args and dispatches to a command.
func (c *ConsoleCLI) Run(ctx context.Context, args []string, defaults Defaults, streams Streams) int {
	streams = streams.withDefaults()
	if len(args) == 0 {
		_, _ = fmt.Fprint(streams.Stderr, usage)
		return exitUsage
	}
	cmd, rest := args[0], args[1:]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(streams.Stderr)

	switch cmd {
	case "login":
		email := fs.String("email", defaults.Email, "account email")
		password := fs.String("password", defaults.Password, "account password")
		if fs.Parse(rest) != nil {
			return exitUsage
		}
		return c.LoginCommand(ctx, LoginOptions{Email: *email, Password: *password, Streams: streams})

	case "logout":
		if fs.Parse(rest) != nil {
			return exitUsage
		}
		return c.LogoutCommand(ctx, streams)

	case "list":
		jsonOut := fs.Bool("json", false, "print JSON instead of a table")
		family, ok := positionalFamily(fs, rest, streams.Stderr)
		if !ok {
			return exitUsage
		}
		return c.ListCommand(ctx, ListOptions{Family: family, JSONOutput: *jsonOut, Streams: streams})

	case "show":
		family, ok := positionalFamily(fs, rest, streams.Stderr)
		if !ok {
			return exitUsage
		}
		id, ok := positionalID(fs, streams.Stderr)
		if !ok {
			return exitUsage
		}
		return c.ShowCommand(ctx, ShowOptions{Family: family, ID: id, Streams: streams})

	case "delete":
		yes := fs.Bool("yes", false, "skip the confirmation prompt")
		family, ok := positionalFamily(fs, rest, streams.Stderr)
		if !ok {
			return exitUsage
		}
		id, ok := positionalID(fs, streams.Stderr)
		if !ok {
			return exitUsage
		}
		return c.DeleteCommand(ctx, DeleteOptions{Family: family, ID: id, Yes: *yes, Streams: streams})

	case "help", "-h", "--help":
		_, _ = fmt.Fprint(streams.Stdout, usage)
		return exitOK
	}
	_, _ = fmt.Fprintf(streams.Stderr, "unknown command %q\n\n%s", cmd, usage)
	return exitUsage
}

// positionalFamily parses flags placed before or after the family argument.
func positionalFamily(fs *flag.FlagSet, args []string, stderr io.Writer) (Family, bool) {
	if fs.Parse(args) != nil {
		return "", false
	}
	if fs.NArg() == 0 {
		_, _ = fmt.Fprintf(stderr, "%s: record family required\n", fs.Name())
		return "", false
	}
	family, err := ParseFamily(fs.Arg(0))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", fs.Name(), err)
		return "", false
	}
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return "", false
	}
	return family, true
}

// positionalID reads the next argument as a record id and parses any
// trailing flags.
func positionalID(fs *flag.FlagSet, stderr io.Writer) (int64, bool) {
	if fs.NArg() == 0 {
		_, _ = fmt.Fprintf(stderr, "%s: record id required\n", fs.Name())
		return 0, false
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		_, _ = fmt.Fprintf(stderr, "%s: invalid record id %q\n", fs.Name(), fs.Arg(0))
		return 0, false
	}
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return 0, false
	}
	return id, true
}
