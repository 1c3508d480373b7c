package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/odyssey-erp/odyssey-console/internal/auth"
)

// LoginOptions defines the login command inputs.
type LoginOptions struct {
	Email    string
	Password string
	Streams
}

// LoginCommand signs in and stores the credential.
func (c *ConsoleCLI) LoginCommand(ctx context.Context, opts LoginOptions) int {
	opts.Streams = opts.Streams.withDefaults()
	if opts.Email == "" || opts.Password == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "login: --email and --password (or CONSOLE_EMAIL and CONSOLE_PASSWORD) are required")
		return exitUsage
	}
	if err := c.auth.Login(ctx, opts.Email, opts.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			_, _ = fmt.Fprintln(opts.Stderr, "login: incorrect email or password")
			return exitError
		}
		report(opts.Stderr, "login", err)
		return exitError
	}
	_, _ = fmt.Fprintf(opts.Stdout, "Signed in as %s\n", opts.Email)
	return exitOK
}

// LogoutCommand ends the session. The local credential is always cleared.
func (c *ConsoleCLI) LogoutCommand(ctx context.Context, streams Streams) int {
	streams = streams.withDefaults()
	if err := c.auth.Logout(ctx); err != nil {
		report(streams.Stderr, "logout", err)
		_, _ = fmt.Fprintln(streams.Stdout, "Signed out locally")
		return exitError
	}
	_, _ = fmt.Fprintln(streams.Stdout, "Signed out")
	return exitOK
}
