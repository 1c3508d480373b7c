package console

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/odyssey-erp/odyssey-console/internal/purchase"
)

type suppliersByID map[int64]purchase.Supplier

func (m suppliersByID) Lookup(id int64) (purchase.Supplier, bool) {
	s, ok := m[id]
	return s, ok
}

type ordersByID map[int64]purchase.PurchaseOrder

func (m ordersByID) Lookup(id int64) (purchase.PurchaseOrder, bool) {
	o, ok := m[id]
	return o, ok
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1,234.50", FormatMoney(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "$0.00", FormatMoney(decimal.Zero))
	assert.Equal(t, "$14.00", FormatMoney(decimal.NewFromInt(14)))
	assert.Equal(t, "-$5.25", FormatMoney(decimal.RequireFromString("-5.25")))
	assert.Equal(t, "$1,000,000.01", FormatMoney(decimal.RequireFromString("1000000.005")))
	assert.Equal(t, "$0.00", FormatMoney(decimal.RequireFromString("-0.001")))
	assert.Equal(t, "$12,345,678,901,234,567.89", FormatMoney(decimal.RequireFromString("12345678901234567.89")))
	assert.Equal(t, "$123,456,789,012,345,678,901.10", FormatMoney(decimal.RequireFromString("123456789012345678901.1")))
}

func TestOrderRowsResolveSupplier(t *testing.T) {
	orders := []purchase.PurchaseOrder{
		{ID: 1, SupplierID: 5, OrderNumber: "PO-1", Status: purchase.OrderStatusSent, TotalAmount: decimal.NewFromInt(24),
			ExpectedDate: purchase.Timestamp{Time: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)}},
		{ID: 2, SupplierID: 9, OrderNumber: "PO-2", TotalAmount: decimal.Zero},
	}
	rows := OrderRows(orders, suppliersByID{5: {ID: 5, Name: "Acme"}})
	assert.Equal(t, OrderRow{ID: 1, OrderNumber: "PO-1", Supplier: "Acme", ExpectedDate: "2024-03-10", Status: "sent", Total: "$24.00"}, rows[0])
	assert.Equal(t, "#9", rows[1].Supplier)
	assert.Empty(t, rows[1].ExpectedDate)
}

func TestReceiptRowsResolveOrder(t *testing.T) {
	receipts := []purchase.PurchaseReceipt{{ID: 3, OrderID: 1, ReceiptNumber: "GR-1", Status: purchase.ReceiptStatusReceived, TotalAmount: decimal.NewFromInt(12)}}
	rows := ReceiptRows(receipts, ordersByID{1: {ID: 1, OrderNumber: "PO-1"}})
	assert.Equal(t, "PO-1", rows[0].Order)
	assert.Equal(t, "$12.00", rows[0].Total)

	rows = ReceiptRows(receipts, nil)
	assert.Equal(t, "#1", rows[0].Order)
}

func TestSupplierRows(t *testing.T) {
	terms := 30
	rows := SupplierRows([]purchase.Supplier{{ID: 1, Name: "Acme", Type: purchase.SupplierRetailer, PaymentTerms: &terms, IsActive: true}, {ID: 2}})
	assert.Equal(t, "30 days", rows[0].PaymentTerms)
	assert.Equal(t, "retailer", rows[0].Type)
	assert.Empty(t, rows[1].PaymentTerms)
}
