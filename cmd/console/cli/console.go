// Package cli implements the console subcommands. Each command writes human
// or JSON output to the supplied writers and returns a process exit code.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/odyssey-erp/odyssey-console/internal/auth"
	"github.com/odyssey-erp/odyssey-console/internal/console"
	"github.com/odyssey-erp/odyssey-console/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-console/internal/purchase"
	"github.com/odyssey-erp/odyssey-console/internal/session"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// Family names a record family on the command line.
type Family string

const (
	FamilySuppliers Family = "suppliers"
	FamilyOrders    Family = "orders"
	FamilyReceipts  Family = "receipts"
)

// ParseFamily accepts singular or plural family names.
func ParseFamily(raw string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "supplier", "suppliers":
		return FamilySuppliers, nil
	case "order", "orders", "po", "pos":
		return FamilyOrders, nil
	case "receipt", "receipts", "grn", "grns":
		return FamilyReceipts, nil
	}
	return "", fmt.Errorf("unknown record family %q (want suppliers, orders or receipts)", raw)
}

// ConsoleCLI runs operator commands against the operations API.
type ConsoleCLI struct {
	auth  *auth.Service
	guard *session.Guard
	ws    *console.Workspace
}

// NewConsoleCLI wires the commands to an auth service and workspace.
func NewConsoleCLI(authService *auth.Service, guard *session.Guard, ws *console.Workspace) (*ConsoleCLI, error) {
	if authService == nil || guard == nil || ws == nil {
		return nil, errors.New("console cli: auth service, guard and workspace are required")
	}
	return &ConsoleCLI{auth: authService, guard: guard, ws: ws}, nil
}

// Streams carries the command's standard streams.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (s Streams) withDefaults() Streams {
	if s.Stdin == nil {
		s.Stdin = os.Stdin
	}
	if s.Stdout == nil {
		s.Stdout = os.Stdout
	}
	if s.Stderr == nil {
		s.Stderr = os.Stderr
	}
	return s
}

func (c *ConsoleCLI) requireSession(stderr io.Writer, command string) bool {
	if c.guard.Session().Authenticated() {
		return true
	}
	_, _ = fmt.Fprintf(stderr, "%s: not signed in; run `console login` first\n", command)
	return false
}

// report prints err in operator terms.
func report(stderr io.Writer, command string, err error) {
	var verr *purchase.ValidationError
	var statusErr *httpx.StatusError
	switch {
	case errors.Is(err, console.ErrRefreshFailed):
		_, _ = fmt.Fprintf(stderr, "%s: record deleted but the list could not be refreshed: %v\n", command, err)
	case errors.As(err, &verr):
		_, _ = fmt.Fprintf(stderr, "%s: %d field(s) need attention:\n", command, len(verr.Fields))
		_, _ = fmt.Fprintf(stderr, "  %s\n", strings.TrimPrefix(verr.Error(), purchase.ErrValidation.Error()+": "))
	case errors.Is(err, httpx.ErrUnauthorized):
		_, _ = fmt.Fprintf(stderr, "%s: session expired; run `console login`\n", command)
	case errors.Is(err, httpx.ErrConflict) && errors.As(err, &statusErr):
		_, _ = fmt.Fprintf(stderr, "%s: record is still in use: %s\n", command, statusErr.Detail)
	case errors.As(err, &statusErr):
		_, _ = fmt.Fprintf(stderr, "%s: api returned %d: %s\n", command, statusErr.Status, statusErr.Detail)
	default:
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", command, err)
	}
}
