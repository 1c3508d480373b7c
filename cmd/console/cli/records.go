package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/odyssey-erp/odyssey-console/internal/console"
	"github.com/odyssey-erp/odyssey-console/internal/purchase"
)

// ListOptions defines the list command inputs.
type ListOptions struct {
	Family     Family
	JSONOutput bool
	Streams
}

// ListCommand prints one record family.
func (c *ConsoleCLI) ListCommand(ctx context.Context, opts ListOptions) int {
	opts.Streams = opts.Streams.withDefaults()
	if !c.requireSession(opts.Stderr, "list") {
		return exitError
	}
	if err := c.ws.Activate(ctx); err != nil {
		report(opts.Stderr, "list", err)
		return exitError
	}

	var rows any
	switch opts.Family {
	case FamilySuppliers:
		rows = c.ws.SupplierRows()
	case FamilyOrders:
		rows = c.ws.OrderRows()
	case FamilyReceipts:
		rows = c.ws.ReceiptRows()
	default:
		_, _ = fmt.Fprintf(opts.Stderr, "list: unknown record family %q\n", opts.Family)
		return exitUsage
	}
	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(rows); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "list: encode json: %v\n", err)
			return exitError
		}
		return exitOK
	}
	renderRows(opts.Stdout, rows)
	return exitOK
}

func renderRows(out io.Writer, rows any) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	switch rs := rows.(type) {
	case []console.SupplierRow:
		_, _ = fmt.Fprintln(tw, "ID\tNAME\tTYPE\tEMAIL\tTERMS\tACTIVE")
		for _, r := range rs {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%t\n", r.ID, r.Name, r.Type, r.Email, r.PaymentTerms, r.Active)
		}
	case []console.OrderRow:
		_, _ = fmt.Fprintln(tw, "ID\tNUMBER\tSUPPLIER\tEXPECTED\tSTATUS\tTOTAL")
		for _, r := range rs {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.OrderNumber, r.Supplier, r.ExpectedDate, r.Status, r.Total)
		}
	case []console.ReceiptRow:
		_, _ = fmt.Fprintln(tw, "ID\tNUMBER\tORDER\tDATE\tSTATUS\tTOTAL")
		for _, r := range rs {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.ReceiptNumber, r.Order, r.ReceiptDate, r.Status, r.Total)
		}
	}
	_ = tw.Flush()
}

// ShowOptions defines the show command inputs.
type ShowOptions struct {
	Family Family
	ID     int64
	Streams
}

// ShowCommand prints one order or receipt with its lines.
func (c *ConsoleCLI) ShowCommand(ctx context.Context, opts ShowOptions) int {
	opts.Streams = opts.Streams.withDefaults()
	if !c.requireSession(opts.Stderr, "show") {
		return exitError
	}
	if err := c.ws.Activate(ctx); err != nil {
		report(opts.Stderr, "show", err)
		return exitError
	}

	tw := tabwriter.NewWriter(opts.Stdout, 0, 4, 2, ' ', 0)
	switch opts.Family {
	case FamilyOrders:
		order, ok := c.ws.Orders.Lookup(opts.ID)
		if !ok {
			_, _ = fmt.Fprintf(opts.Stderr, "show: purchase order %d not found\n", opts.ID)
			return exitError
		}
		row := console.OrderRows([]purchase.PurchaseOrder{order}, c.ws.Suppliers)[0]
		_, _ = fmt.Fprintf(tw, "Order\t%s\nSupplier\t%s\nExpected\t%s\nStatus\t%s\n\n", row.OrderNumber, row.Supplier, row.ExpectedDate, row.Status)
		_, _ = fmt.Fprintln(tw, "PRODUCT\tQTY\tPRICE\tDISCOUNT\tTOTAL")
		draft := purchase.OrderDraftFrom(order)
		for _, line := range draft.Items.Lines() {
			_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", line.ProductID, line.Quantity,
				console.FormatMoney(line.UnitPrice), console.FormatMoney(line.Discount), console.FormatMoney(purchase.OrderLines.Total(line)))
		}
		_, _ = fmt.Fprintf(tw, "\t\t\t\t%s\n", console.FormatMoney(draft.Total()))
	case FamilyReceipts:
		receipt, ok := c.ws.Receipts.Lookup(opts.ID)
		if !ok {
			_, _ = fmt.Fprintf(opts.Stderr, "show: purchase receipt %d not found\n", opts.ID)
			return exitError
		}
		row := console.ReceiptRows([]purchase.PurchaseReceipt{receipt}, c.ws.Orders)[0]
		_, _ = fmt.Fprintf(tw, "Receipt\t%s\nOrder\t%s\nDate\t%s\nStatus\t%s\n\n", row.ReceiptNumber, row.Order, row.ReceiptDate, row.Status)
		_, _ = fmt.Fprintln(tw, "ORDER ITEM\tQTY\tPRICE\tTOTAL")
		draft := purchase.ReceiptDraftFrom(receipt)
		for _, line := range draft.Items.Lines() {
			_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", line.OrderItemID, line.Quantity,
				console.FormatMoney(line.UnitPrice), console.FormatMoney(purchase.ReceiptLines.Total(line)))
		}
		_, _ = fmt.Fprintf(tw, "\t\t\t%s\n", console.FormatMoney(draft.Total()))
	default:
		_, _ = fmt.Fprintf(opts.Stderr, "show: only orders and receipts have lines, got %q\n", opts.Family)
		return exitUsage
	}
	_ = tw.Flush()
	return exitOK
}

// DeleteOptions defines the delete command inputs.
type DeleteOptions struct {
	Family Family
	ID     int64
	// Yes skips the confirmation prompt.
	Yes bool
	Streams
}

// DeleteCommand removes a record after a y/N prompt on Stdin.
func (c *ConsoleCLI) DeleteCommand(ctx context.Context, opts DeleteOptions) int {
	opts.Streams = opts.Streams.withDefaults()
	if !c.requireSession(opts.Stderr, "delete") {
		return exitError
	}
	if err := c.ws.Activate(ctx); err != nil {
		report(opts.Stderr, "delete", err)
		return exitError
	}

	var confirm console.Confirmer
	if !opts.Yes {
		confirm = prompt(opts.Streams, opts.Family)
	}

	var err error
	switch opts.Family {
	case FamilySuppliers:
		c.ws.Suppliers.SetConfirmer(confirm)
		err = c.ws.Suppliers.Delete(ctx, opts.ID)
	case FamilyOrders:
		c.ws.Orders.SetConfirmer(confirm)
		err = c.ws.Orders.Delete(ctx, opts.ID)
	case FamilyReceipts:
		c.ws.Receipts.SetConfirmer(confirm)
		err = c.ws.Receipts.Delete(ctx, opts.ID)
	default:
		_, _ = fmt.Fprintf(opts.Stderr, "delete: unknown record family %q\n", opts.Family)
		return exitUsage
	}
	switch {
	case err == nil:
		_, _ = fmt.Fprintf(opts.Stdout, "Deleted %s %d\n", singular(opts.Family), opts.ID)
		return exitOK
	case errors.Is(err, console.ErrDeleteCancelled):
		_, _ = fmt.Fprintln(opts.Stdout, "Aborted")
		return exitOK
	case errors.Is(err, console.ErrRefreshFailed):
		_, _ = fmt.Fprintf(opts.Stdout, "Deleted %s %d\n", singular(opts.Family), opts.ID)
		report(opts.Stderr, "delete", err)
		return exitOK
	default:
		report(opts.Stderr, "delete", err)
		return exitError
	}
}

func prompt(streams Streams, family Family) console.Confirmer {
	reader := bufio.NewReader(streams.Stdin)
	return console.ConfirmFunc(func(_ context.Context, id int64) bool {
		_, _ = fmt.Fprintf(streams.Stdout, "Delete %s %d? [y/N] ", singular(family), id)
		answer, _ := reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		}
		return false
	})
}

func singular(f Family) string {
	switch f {
	case FamilyOrders:
		return "purchase order"
	case FamilyReceipts:
		return "purchase receipt"
	default:
		return "supplier"
	}
}
