package purchase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Writer persists one record family.
type Writer[R any, I any] interface {
	Create(ctx context.Context, input I) (R, error)
	Update(ctx context.Context, id int64, input I) (R, error)
}

// SupplierBinding adapts suppliers to a record form.
type SupplierBinding struct {
	Store Writer[Supplier, SupplierInput]
}

func (SupplierBinding) Blank() SupplierDraft { return NewSupplierDraft() }

func (SupplierBinding) FromRecord(s Supplier) (int64, SupplierDraft) {
	return s.ID, SupplierDraftFrom(s)
}

func (SupplierBinding) Validate(d SupplierDraft, _ *Supplier) error {
	_, err := SupplierInputFrom(d)
	return err
}

func (b SupplierBinding) Save(ctx context.Context, id int64, d SupplierDraft, _ *Supplier) (Supplier, error) {
	input, err := SupplierInputFrom(d)
	if err != nil {
		return Supplier{}, err
	}
	if id == 0 {
		return b.Store.Create(ctx, input)
	}
	return b.Store.Update(ctx, id, input)
}

// OrderBinding adapts purchase orders to a record form. Suppliers resolves
// supplier references; it is normally the supplier list.
type OrderBinding struct {
	Store     Writer[PurchaseOrder, OrderInput]
	Suppliers SupplierLookup
	Logger    *slog.Logger
	Now       func() time.Time
}

func (OrderBinding) Blank() OrderDraft { return NewOrderDraft() }

func (OrderBinding) FromRecord(o PurchaseOrder) (int64, OrderDraft) {
	return o.ID, OrderDraftFrom(o)
}

func (b OrderBinding) Validate(d OrderDraft, original *PurchaseOrder) error {
	_, err := OrderInputFrom(d, b.rules(original))
	return err
}

func (b OrderBinding) Save(ctx context.Context, id int64, d OrderDraft, original *PurchaseOrder) (PurchaseOrder, error) {
	input, err := OrderInputFrom(d, b.rules(original))
	if err != nil {
		return PurchaseOrder{}, err
	}
	var saved PurchaseOrder
	if id == 0 {
		saved, err = b.Store.Create(ctx, input)
	} else {
		saved, err = b.Store.Update(ctx, id, input)
	}
	if err != nil {
		return saved, err
	}
	warnTotal(b.Logger, "purchase order", saved.ID, input.TotalAmount, saved.TotalAmount)
	return saved, nil
}

func (b OrderBinding) rules(original *PurchaseOrder) OrderRules {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	return OrderRules{Suppliers: b.Suppliers, Original: original, Today: now()}
}

// ReceiptBinding adapts purchase receipts to a record form.
type ReceiptBinding struct {
	Store    Writer[PurchaseReceipt, ReceiptInput]
	Orders   OrderLookup
	Receipts ReceiptIndex
	Logger   *slog.Logger
}

func (ReceiptBinding) Blank() ReceiptDraft { return NewReceiptDraft() }

func (ReceiptBinding) FromRecord(r PurchaseReceipt) (int64, ReceiptDraft) {
	return r.ID, ReceiptDraftFrom(r)
}

func (b ReceiptBinding) Validate(d ReceiptDraft, original *PurchaseReceipt) error {
	_, err := ReceiptInputFrom(d, b.rules(original))
	return err
}

func (b ReceiptBinding) Save(ctx context.Context, id int64, d ReceiptDraft, original *PurchaseReceipt) (PurchaseReceipt, error) {
	input, err := ReceiptInputFrom(d, b.rules(original))
	if err != nil {
		return PurchaseReceipt{}, err
	}
	var saved PurchaseReceipt
	if id == 0 {
		saved, err = b.Store.Create(ctx, input)
	} else {
		saved, err = b.Store.Update(ctx, id, input)
	}
	if err != nil {
		return saved, err
	}
	warnTotal(b.Logger, "purchase receipt", saved.ID, input.TotalAmount, saved.TotalAmount)
	return saved, nil
}

func (b ReceiptBinding) rules(original *PurchaseReceipt) ReceiptRules {
	return ReceiptRules{Orders: b.Orders, Receipts: b.Receipts, Original: original}
}

// warnTotal logs when the API settled on a different total than the draft.
// The API is the source of truth; the record is kept as returned.
func warnTotal(logger *slog.Logger, kind string, id int64, sent, got decimal.Decimal) {
	if sent.Equal(got) {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("total differs from draft",
		slog.String("record", kind),
		slog.Int64("id", id),
		slog.String("draft_total", sent.StringFixed(2)),
		slog.String("api_total", got.StringFixed(2)),
	)
}
