package console

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/odyssey-console/internal/purchase"
)

var moneyPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatMoney renders an amount as dollars with thousands separators,
// rounding half away from zero to cents.
func FormatMoney(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")
	sign := ""
	if d.Round(2).IsNegative() {
		sign = "-"
	}
	return sign + "$" + groupThousands(whole) + "." + cents
}

func groupThousands(digits string) string {
	if n, err := strconv.ParseInt(digits, 10, 64); err == nil {
		return moneyPrinter.Sprintf("%d", n)
	}
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SupplierRow is the display projection of a supplier.
type SupplierRow struct {
	ID           int64
	Name         string
	Type         string
	Email        string
	PaymentTerms string
	Active       bool
}

// OrderRow is the display projection of a purchase order.
type OrderRow struct {
	ID           int64
	OrderNumber  string
	Supplier     string
	ExpectedDate string
	Status       string
	Total        string
}

// ReceiptRow is the display projection of a purchase receipt.
type ReceiptRow struct {
	ID            int64
	ReceiptNumber string
	Order         string
	ReceiptDate   string
	Status        string
	Total         string
}

// SupplierRows projects suppliers for display.
func SupplierRows(suppliers []purchase.Supplier) []SupplierRow {
	rows := make([]SupplierRow, 0, len(suppliers))
	for _, s := range suppliers {
		terms := ""
		if s.PaymentTerms != nil {
			terms = strconv.Itoa(*s.PaymentTerms) + " days"
		}
		rows = append(rows, SupplierRow{
			ID:           s.ID,
			Name:         s.Name,
			Type:         string(s.Type),
			Email:        s.Email,
			PaymentTerms: terms,
			Active:       s.IsActive,
		})
	}
	return rows
}

// OrderRows projects orders, resolving supplier names through suppliers.
func OrderRows(orders []purchase.PurchaseOrder, suppliers purchase.SupplierLookup) []OrderRow {
	rows := make([]OrderRow, 0, len(orders))
	for _, o := range orders {
		name := unresolved(o.SupplierID)
		if suppliers != nil {
			if s, ok := suppliers.Lookup(o.SupplierID); ok {
				name = s.Name
			}
		}
		rows = append(rows, OrderRow{
			ID:           o.ID,
			OrderNumber:  o.OrderNumber,
			Supplier:     name,
			ExpectedDate: o.ExpectedDate.Date(),
			Status:       string(o.Status),
			Total:        FormatMoney(o.TotalAmount),
		})
	}
	return rows
}

// ReceiptRows projects receipts, resolving order numbers through orders.
func ReceiptRows(receipts []purchase.PurchaseReceipt, orders purchase.OrderLookup) []ReceiptRow {
	rows := make([]ReceiptRow, 0, len(receipts))
	for _, r := range receipts {
		number := unresolved(r.OrderID)
		if orders != nil {
			if o, ok := orders.Lookup(r.OrderID); ok {
				number = o.OrderNumber
			}
		}
		rows = append(rows, ReceiptRow{
			ID:            r.ID,
			ReceiptNumber: r.ReceiptNumber,
			Order:         number,
			ReceiptDate:   r.ReceiptDate.Date(),
			Status:        string(r.Status),
			Total:         FormatMoney(r.TotalAmount),
		})
	}
	return rows
}

func unresolved(id int64) string {
	return "#" + strconv.FormatInt(id, 10)
}
