package purchase

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-console/internal/lineitem"
)

// Line field names accepted by the line editors.
const (
	FieldProductID   = "product_id"
	FieldOrderItemID = "order_item_id"
	FieldQuantity    = "quantity"
	FieldUnitPrice   = "unit_price"
	FieldDiscount    = "discount"
	FieldNotes       = "notes"
)

// OrderLine is an editable purchase order line. ProductID keeps the form
// representation; it is parsed at submission.
type OrderLine struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
	Notes     string
}

type orderLineSchema struct{}

// OrderLines is the line schema for purchase orders.
var OrderLines lineitem.Schema[OrderLine] = orderLineSchema{}

func (orderLineSchema) Defaults() OrderLine {
	return OrderLine{Quantity: lineitem.DefaultQuantity, UnitPrice: decimal.Zero, Discount: decimal.Zero}
}

func (orderLineSchema) Set(line *OrderLine, field string, value any) error {
	switch field {
	case FieldProductID:
		line.ProductID = strings.TrimSpace(lineitem.SanitizeText(value))
	case FieldQuantity:
		line.Quantity = lineitem.SanitizeQuantity(value)
	case FieldUnitPrice:
		line.UnitPrice = lineitem.SanitizeAmount(value)
	case FieldDiscount:
		line.Discount = lineitem.SanitizeAmount(value)
	case FieldNotes:
		line.Notes = lineitem.SanitizeText(value)
	default:
		return lineitem.ErrUnknownField
	}
	return nil
}

func (orderLineSchema) Total(line OrderLine) decimal.Decimal {
	return OrderLineTotal(line.Quantity, line.UnitPrice, line.Discount)
}

// ReceiptLine is an editable purchase receipt line.
type ReceiptLine struct {
	OrderItemID string
	Quantity    int
	UnitPrice   decimal.Decimal
	Notes       string
}

type receiptLineSchema struct{}

// ReceiptLines is the line schema for purchase receipts.
var ReceiptLines lineitem.Schema[ReceiptLine] = receiptLineSchema{}

func (receiptLineSchema) Defaults() ReceiptLine {
	return ReceiptLine{Quantity: lineitem.DefaultQuantity, UnitPrice: decimal.Zero}
}

func (receiptLineSchema) Set(line *ReceiptLine, field string, value any) error {
	switch field {
	case FieldOrderItemID:
		line.OrderItemID = strings.TrimSpace(lineitem.SanitizeText(value))
	case FieldQuantity:
		line.Quantity = lineitem.SanitizeQuantity(value)
	case FieldUnitPrice:
		line.UnitPrice = lineitem.SanitizeAmount(value)
	case FieldNotes:
		line.Notes = lineitem.SanitizeText(value)
	default:
		return lineitem.ErrUnknownField
	}
	return nil
}

func (receiptLineSchema) Total(line ReceiptLine) decimal.Decimal {
	return ReceiptLineTotal(line.Quantity, line.UnitPrice)
}

// SupplierDraft is the supplier form. PaymentTerms keeps the typed text.
type SupplierDraft struct {
	Name         string
	Type         SupplierType
	Email        string
	Phone        string
	Address      string
	TaxID        string
	PaymentTerms string
	IsActive     bool
}

// NewSupplierDraft returns the blank supplier form.
func NewSupplierDraft() SupplierDraft {
	return SupplierDraft{Type: SupplierManufacturer, IsActive: true}
}

// SupplierDraftFrom copies a supplier into a draft.
func SupplierDraftFrom(s Supplier) SupplierDraft {
	d := SupplierDraft{
		Name:     s.Name,
		Type:     s.Type,
		Email:    s.Email,
		Phone:    s.Phone,
		Address:  s.Address,
		TaxID:    s.TaxID,
		IsActive: s.IsActive,
	}
	if s.PaymentTerms != nil {
		d.PaymentTerms = strconv.Itoa(*s.PaymentTerms)
	}
	return d
}

// Clone returns an independent copy.
func (d SupplierDraft) Clone() SupplierDraft {
	return d
}

// OrderDraft is the private copy of a purchase order under edit.
type OrderDraft struct {
	SupplierID   string
	OrderNumber  string
	ExpectedDate string
	Status       OrderStatus
	Notes        string
	Items        *lineitem.Editor[OrderLine]
}

// NewOrderDraft returns the blank order form with one default line.
func NewOrderDraft() OrderDraft {
	items := lineitem.New(OrderLines)
	items.Add()
	return OrderDraft{Status: OrderStatusDraft, Items: items}
}

// OrderDraftFrom copies an order and its lines into a draft.
func OrderDraftFrom(o PurchaseOrder) OrderDraft {
	lines := make([]OrderLine, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, OrderLine{
			ProductID: idText(item.ProductID),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
			Notes:     item.Notes,
		})
	}
	return OrderDraft{
		SupplierID:   idText(o.SupplierID),
		OrderNumber:  o.OrderNumber,
		ExpectedDate: o.ExpectedDate.Date(),
		Status:       o.Status,
		Notes:        o.Notes,
		Items:        lineitem.New(OrderLines, lines...),
	}
}

// Clone returns a copy whose lines can be edited independently.
func (d OrderDraft) Clone() OrderDraft {
	if d.Items != nil {
		d.Items = d.Items.Clone()
	}
	return d
}

// Total is the derived order total.
func (d OrderDraft) Total() decimal.Decimal {
	if d.Items == nil {
		return decimal.Zero
	}
	return d.Items.Total()
}

// ReceiptDraft is the private copy of a purchase receipt under edit.
type ReceiptDraft struct {
	OrderID       string
	ReceiptNumber string
	Status        ReceiptStatus
	Notes         string
	Items         *lineitem.Editor[ReceiptLine]
}

// NewReceiptDraft returns the blank receipt form with one default line.
func NewReceiptDraft() ReceiptDraft {
	items := lineitem.New(ReceiptLines)
	items.Add()
	return ReceiptDraft{Status: ReceiptStatusDraft, Items: items}
}

// ReceiptDraftFrom copies a receipt and its lines into a draft.
func ReceiptDraftFrom(r PurchaseReceipt) ReceiptDraft {
	lines := make([]ReceiptLine, 0, len(r.Items))
	for _, item := range r.Items {
		lines = append(lines, ReceiptLine{
			OrderItemID: idText(item.OrderItemID),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Notes:       item.Notes,
		})
	}
	return ReceiptDraft{
		OrderID:       idText(r.OrderID),
		ReceiptNumber: r.ReceiptNumber,
		Status:        r.Status,
		Notes:         r.Notes,
		Items:         lineitem.New(ReceiptLines, lines...),
	}
}

// Clone returns a copy whose lines can be edited independently.
func (d ReceiptDraft) Clone() ReceiptDraft {
	if d.Items != nil {
		d.Items = d.Items.Clone()
	}
	return d
}

// Total is the derived receipt total.
func (d ReceiptDraft) Total() decimal.Decimal {
	if d.Items == nil {
		return decimal.Zero
	}
	return d.Items.Total()
}

func idText(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
