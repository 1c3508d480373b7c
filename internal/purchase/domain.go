// Package purchase models suppliers, purchase orders and purchase receipts as
// consumed from the operations API.
package purchase

import (
	"errors"

	"github.com/shopspring/decimal"
)

func init() {
	// The API reads and writes monetary values as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// SupplierType classifies suppliers.
type SupplierType string

const (
	SupplierManufacturer SupplierType = "manufacturer"
	SupplierDistributor  SupplierType = "distributor"
	SupplierWholesaler   SupplierType = "wholesaler"
	SupplierRetailer     SupplierType = "retailer"
)

// OrderStatus is the purchase order lifecycle.
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "draft"
	OrderStatusSent      OrderStatus = "sent"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusReceived  OrderStatus = "received"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderRank = map[OrderStatus]int{
	OrderStatusDraft:     0,
	OrderStatusSent:      1,
	OrderStatusConfirmed: 2,
	OrderStatusReceived:  3,
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusReceived || s == OrderStatusCancelled
}

// CanTransition reports whether an order may move from s to next. The
// lifecycle only moves forward; any non-terminal status may be cancelled.
// Keeping the same status is always allowed.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	from, ok := orderRank[s]
	if !ok {
		return false
	}
	to, ok := orderRank[next]
	return ok && to > from
}

// ReceiptStatus is the purchase receipt lifecycle.
type ReceiptStatus string

const (
	ReceiptStatusDraft     ReceiptStatus = "draft"
	ReceiptStatusReceived  ReceiptStatus = "received"
	ReceiptStatusCancelled ReceiptStatus = "cancelled"
)

// CanTransition reports whether a receipt may move from s to next.
func (s ReceiptStatus) CanTransition(next ReceiptStatus) bool {
	if s == next {
		return true
	}
	return s == ReceiptStatusDraft && (next == ReceiptStatusReceived || next == ReceiptStatusCancelled)
}

// Supplier is a vendor the business buys from.
type Supplier struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Type         SupplierType `json:"type"`
	Email        string       `json:"email"`
	Phone        string       `json:"phone,omitempty"`
	Address      string       `json:"address,omitempty"`
	TaxID        string       `json:"tax_id,omitempty"`
	PaymentTerms *int         `json:"payment_terms,omitempty"`
	IsActive     bool         `json:"is_active"`
	CreatedAt    Timestamp    `json:"created_at"`
	UpdatedAt    Timestamp    `json:"updated_at"`
}

// OrderItem is one line of a purchase order.
type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Notes       string          `json:"notes,omitempty"`
}

// PurchaseOrder is an order placed with a supplier.
type PurchaseOrder struct {
	ID           int64           `json:"id"`
	SupplierID   int64           `json:"supplier_id"`
	OrderNumber  string          `json:"order_number"`
	OrderDate    Timestamp       `json:"order_date"`
	ExpectedDate Timestamp       `json:"expected_date"`
	Status       OrderStatus     `json:"status"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Notes        string          `json:"notes,omitempty"`
	CreatedAt    Timestamp       `json:"created_at"`
	UpdatedAt    Timestamp       `json:"updated_at"`
	CreatedBy    int64           `json:"created_by"`
	Items        []OrderItem     `json:"items"`
}

// Item returns the order line with the given id.
func (o PurchaseOrder) Item(id int64) (OrderItem, bool) {
	for _, item := range o.Items {
		if item.ID == id {
			return item, true
		}
	}
	return OrderItem{}, false
}

// ReceiptItem is one received line, referencing an order line.
type ReceiptItem struct {
	ID          int64           `json:"id"`
	ReceiptID   int64           `json:"receipt_id"`
	OrderItemID int64           `json:"order_item_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Notes       string          `json:"notes,omitempty"`
}

// PurchaseReceipt records goods received against an order.
type PurchaseReceipt struct {
	ID            int64           `json:"id"`
	OrderID       int64           `json:"order_id"`
	ReceiptNumber string          `json:"receipt_number"`
	ReceiptDate   Timestamp       `json:"receipt_date"`
	Status        ReceiptStatus   `json:"status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     Timestamp       `json:"created_at"`
	UpdatedAt     Timestamp       `json:"updated_at"`
	CreatedBy     int64           `json:"created_by"`
	Items         []ReceiptItem   `json:"items"`
}

var (
	// ErrValidation indicates a draft failed local checks and was not sent.
	ErrValidation = errors.New("purchase: invalid input")
	// ErrNotFound indicates a referenced record is not in the loaded collection.
	ErrNotFound = errors.New("purchase: not found")
)
