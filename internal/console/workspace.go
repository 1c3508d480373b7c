package console

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-console/internal/purchase"
)

// Stores groups the record accessors a workspace needs.
type Stores struct {
	Suppliers *purchase.SupplierStore
	Orders    *purchase.OrderStore
	Receipts  *purchase.ReceiptStore
}

// NewStores builds the accessors over one transport.
func NewStores(client purchase.Transport) Stores {
	return Stores{
		Suppliers: purchase.NewSupplierStore(client),
		Orders:    purchase.NewOrderStore(client),
		Receipts:  purchase.NewReceiptStore(client),
	}
}

// Workspace wires the three purchasing lists to their forms. Order and
// receipt forms validate references against the loaded lists.
type Workspace struct {
	Suppliers *List[purchase.Supplier]
	Orders    *List[purchase.PurchaseOrder]
	Receipts  *List[purchase.PurchaseReceipt]

	SupplierForm *Form[purchase.Supplier, purchase.SupplierDraft]
	OrderForm    *Form[purchase.PurchaseOrder, purchase.OrderDraft]
	ReceiptForm  *Form[purchase.PurchaseReceipt, purchase.ReceiptDraft]
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*workspaceConfig)

type workspaceConfig struct {
	logger  *slog.Logger
	now     func() time.Time
	confirm Confirmer
}

// WithLogger sets the logger shared by lists and forms.
func WithLogger(logger *slog.Logger) WorkspaceOption {
	return func(c *workspaceConfig) {
		c.logger = logger
	}
}

// WithClock overrides the date used to check new orders.
func WithClock(now func() time.Time) WorkspaceOption {
	return func(c *workspaceConfig) {
		c.now = now
	}
}

// WithConfirmer installs the delete prompt on every list.
func WithConfirmer(c Confirmer) WorkspaceOption {
	return func(cfg *workspaceConfig) {
		cfg.confirm = c
	}
}

// NewWorkspace builds closed forms and empty lists over stores.
func NewWorkspace(stores Stores, opts ...WorkspaceOption) *Workspace {
	cfg := workspaceConfig{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	w := &Workspace{
		Suppliers: NewList[purchase.Supplier]("suppliers", stores.Suppliers, func(s purchase.Supplier) int64 { return s.ID }, cfg.logger),
		Orders:    NewList[purchase.PurchaseOrder]("purchase orders", stores.Orders, func(o purchase.PurchaseOrder) int64 { return o.ID }, cfg.logger),
		Receipts:  NewList[purchase.PurchaseReceipt]("purchase receipts", stores.Receipts, func(r purchase.PurchaseReceipt) int64 { return r.ID }, cfg.logger),
	}
	if cfg.confirm != nil {
		w.Suppliers.SetConfirmer(cfg.confirm)
		w.Orders.SetConfirmer(cfg.confirm)
		w.Receipts.SetConfirmer(cfg.confirm)
	}

	w.SupplierForm = NewForm[purchase.Supplier, purchase.SupplierDraft](
		purchase.SupplierBinding{Store: stores.Suppliers}, w.Suppliers, cfg.logger)
	w.OrderForm = NewForm[purchase.PurchaseOrder, purchase.OrderDraft](
		purchase.OrderBinding{Store: stores.Orders, Suppliers: w.Suppliers, Logger: cfg.logger, Now: cfg.now}, w.Orders, cfg.logger)
	w.ReceiptForm = NewForm[purchase.PurchaseReceipt, purchase.ReceiptDraft](
		purchase.ReceiptBinding{Store: stores.Receipts, Orders: w.Orders, Receipts: w.Receipts, Logger: cfg.logger}, w.Receipts, cfg.logger)
	return w
}

// Activate loads every list concurrently. Lists that loaded keep their
// collection even when another fails.
func (w *Workspace) Activate(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return w.Suppliers.Activate(ctx) })
	g.Go(func() error { return w.Orders.Activate(ctx) })
	g.Go(func() error { return w.Receipts.Activate(ctx) })
	return g.Wait()
}

// SupplierRows projects the loaded suppliers.
func (w *Workspace) SupplierRows() []SupplierRow {
	return SupplierRows(w.Suppliers.Items())
}

// OrderRows projects the loaded orders with supplier names.
func (w *Workspace) OrderRows() []OrderRow {
	return OrderRows(w.Orders.Items(), w.Suppliers)
}

// ReceiptRows projects the loaded receipts with order numbers.
func (w *Workspace) ReceiptRows() []ReceiptRow {
	return ReceiptRows(w.Receipts.Items(), w.Orders)
}
