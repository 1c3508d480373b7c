package purchase

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ValidationError lists the draft fields that failed local checks. It
// unwraps to ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Has reports whether field failed.
func (e *ValidationError) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkStruct runs the struct tags of input and records failures by JSON path.
func checkStruct(input any, verr *ValidationError) {
	err := validate.Struct(input)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.add("_", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		ns := fe.Namespace()
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		verr.add(ns, message(fe))
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be an email address"
	case "oneof":
		return "must be one of " + fe.Param()
	case "gt":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "min":
		return "needs at least " + fe.Param() + " entry"
	case "datetime":
		return "must be a date (YYYY-MM-DD)"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

func parseID(raw string, field string, verr *ValidationError) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		verr.add(field, "must reference an existing record")
		return 0
	}
	return id
}

// SupplierLookup resolves loaded suppliers by id.
type SupplierLookup interface {
	Lookup(id int64) (Supplier, bool)
}

// OrderLookup resolves loaded purchase orders by id.
type OrderLookup interface {
	Lookup(id int64) (PurchaseOrder, bool)
}

// ReceiptIndex lists loaded purchase receipts.
type ReceiptIndex interface {
	Items() []PurchaseReceipt
}

// SupplierInputFrom validates a supplier draft and returns the request body.
func SupplierInputFrom(d SupplierDraft) (SupplierInput, error) {
	verr := &ValidationError{}
	input := SupplierInput{
		Name:     strings.TrimSpace(d.Name),
		Type:     d.Type,
		Email:    strings.TrimSpace(d.Email),
		Phone:    strings.TrimSpace(d.Phone),
		Address:  strings.TrimSpace(d.Address),
		TaxID:    strings.TrimSpace(d.TaxID),
		IsActive: d.IsActive,
	}
	if raw := strings.TrimSpace(d.PaymentTerms); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			verr.add("payment_terms", "must be a whole number of days")
		} else {
			input.PaymentTerms = &days
		}
	}
	checkStruct(input, verr)
	return input, verr.err()
}

// OrderRules carries what order validation needs beyond the draft.
type OrderRules struct {
	Suppliers SupplierLookup
	// Original is the order being edited, nil when creating.
	Original *PurchaseOrder
	// Today stands in for the server-assigned order date of a new order.
	Today time.Time
}

// OrderInputFrom validates an order draft and returns the request body with
// line and order totals filled in.
func OrderInputFrom(d OrderDraft, rules OrderRules) (OrderInput, error) {
	verr := &ValidationError{}
	input := OrderInput{
		SupplierID:   parseID(d.SupplierID, "supplier_id", verr),
		OrderNumber:  strings.TrimSpace(d.OrderNumber),
		ExpectedDate: strings.TrimSpace(d.ExpectedDate),
		Status:       d.Status,
		Notes:        d.Notes,
		TotalAmount:  decimal.Zero,
	}
	if d.Items != nil {
		for i, line := range d.Items.Lines() {
			item := OrderItemInput{
				ProductID:   parseID(line.ProductID, fmt.Sprintf("items[%d].product_id", i), verr),
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				Discount:    line.Discount,
				TotalAmount: OrderLineTotal(line.Quantity, line.UnitPrice, line.Discount),
				Notes:       line.Notes,
			}
			input.TotalAmount = input.TotalAmount.Add(item.TotalAmount)
			input.Items = append(input.Items, item)
		}
	}
	checkStruct(input, verr)

	if input.SupplierID > 0 {
		if rules.Suppliers == nil {
			verr.add("supplier_id", "suppliers are not loaded")
		} else if _, ok := rules.Suppliers.Lookup(input.SupplierID); !ok {
			verr.add("supplier_id", "must reference an existing supplier")
		}
	}

	if expected, err := time.Parse(DateLayout, input.ExpectedDate); err == nil {
		orderDate := rules.Today
		if rules.Original != nil && !rules.Original.OrderDate.IsZero() {
			orderDate = rules.Original.OrderDate.Time
		}
		if !orderDate.IsZero() && expected.Format(DateLayout) < orderDate.Format(DateLayout) {
			verr.add("expected_date", "must not precede the order date "+orderDate.Format(DateLayout))
		}
	}

	if rules.Original != nil && !rules.Original.Status.CanTransition(input.Status) {
		verr.add("status", fmt.Sprintf("cannot change from %s to %s", rules.Original.Status, input.Status))
	}
	return input, verr.err()
}

// ReceiptRules carries what receipt validation needs beyond the draft.
type ReceiptRules struct {
	Orders   OrderLookup
	Receipts ReceiptIndex
	// Original is the receipt being edited, nil when creating.
	Original *PurchaseReceipt
}

// ReceiptInputFrom validates a receipt draft and returns the request body
// with line and receipt totals filled in.
func ReceiptInputFrom(d ReceiptDraft, rules ReceiptRules) (ReceiptInput, error) {
	verr := &ValidationError{}
	input := ReceiptInput{
		OrderID:       parseID(d.OrderID, "order_id", verr),
		ReceiptNumber: strings.TrimSpace(d.ReceiptNumber),
		Status:        d.Status,
		Notes:         d.Notes,
		TotalAmount:   decimal.Zero,
	}
	if d.Items != nil {
		for i, line := range d.Items.Lines() {
			item := ReceiptItemInput{
				OrderItemID: parseID(line.OrderItemID, fmt.Sprintf("items[%d].order_item_id", i), verr),
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				TotalAmount: ReceiptLineTotal(line.Quantity, line.UnitPrice),
				Notes:       line.Notes,
			}
			input.TotalAmount = input.TotalAmount.Add(item.TotalAmount)
			input.Items = append(input.Items, item)
		}
	}
	checkStruct(input, verr)

	if rules.Original != nil && !rules.Original.Status.CanTransition(input.Status) {
		verr.add("status", fmt.Sprintf("cannot change from %s to %s", rules.Original.Status, input.Status))
	}

	if input.OrderID == 0 {
		return input, verr.err()
	}
	if rules.Orders == nil {
		verr.add("order_id", "purchase orders are not loaded")
		return input, verr.err()
	}
	order, ok := rules.Orders.Lookup(input.OrderID)
	if !ok {
		verr.add("order_id", "must reference an existing purchase order")
		return input, verr.err()
	}

	var others []PurchaseReceipt
	if rules.Receipts != nil {
		others = rules.Receipts.Items()
	}
	excludeID := int64(0)
	if rules.Original != nil {
		excludeID = rules.Original.ID
	}

	requested := make(map[int64]int)
	for i, item := range input.Items {
		if item.OrderItemID == 0 {
			continue
		}
		field := fmt.Sprintf("items[%d].order_item_id", i)
		if _, ok := order.Item(item.OrderItemID); !ok {
			verr.add(field, fmt.Sprintf("is not a line of order %s", order.OrderNumber))
			continue
		}
		requested[item.OrderItemID] += item.Quantity
		outstanding := Outstanding(order, item.OrderItemID, others, excludeID)
		if requested[item.OrderItemID] > outstanding {
			verr.add(fmt.Sprintf("items[%d].quantity", i), fmt.Sprintf("exceeds outstanding quantity %d", outstanding))
		}
	}
	return input, verr.err()
}

// Outstanding is the ordered quantity of an order line not yet covered by
// non-cancelled receipts, ignoring the receipt with id excludeID.
func Outstanding(order PurchaseOrder, orderItemID int64, receipts []PurchaseReceipt, excludeID int64) int {
	item, ok := order.Item(orderItemID)
	if !ok {
		return 0
	}
	remaining := item.Quantity
	for _, r := range receipts {
		if r.OrderID != order.ID || r.Status == ReceiptStatusCancelled {
			continue
		}
		if excludeID != 0 && r.ID == excludeID {
			continue
		}
		for _, line := range r.Items {
			if line.OrderItemID == orderItemID {
				remaining -= line.Quantity
			}
		}
	}
	if remaining < 0 {
		return 0
	}
	return remaining
}
