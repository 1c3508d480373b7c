package purchase

import "github.com/shopspring/decimal"

// SupplierInput is the create/update body for suppliers.
type SupplierInput struct {
	Name         string       `json:"name" validate:"required"`
	Type         SupplierType `json:"type" validate:"required,oneof=manufacturer distributor wholesaler retailer"`
	Email        string       `json:"email" validate:"required,email"`
	Phone        string       `json:"phone,omitempty"`
	Address      string       `json:"address,omitempty"`
	TaxID        string       `json:"tax_id,omitempty"`
	PaymentTerms *int         `json:"payment_terms" validate:"omitnil,gte=0"`
	IsActive     bool         `json:"is_active"`
}

// OrderItemInput is a purchase order line as sent to the API.
type OrderItemInput struct {
	ProductID   int64           `json:"product_id" validate:"gt=0"`
	Quantity    int             `json:"quantity" validate:"gte=1"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Discount    decimal.Decimal `json:"discount" validate:"gte=0"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Notes       string          `json:"notes,omitempty"`
}

// OrderInput is the create/update body for purchase orders.
type OrderInput struct {
	SupplierID   int64            `json:"supplier_id" validate:"gt=0"`
	OrderNumber  string           `json:"order_number" validate:"required"`
	ExpectedDate string           `json:"expected_date" validate:"required,datetime=2006-01-02"`
	Status       OrderStatus      `json:"status" validate:"required,oneof=draft sent confirmed received cancelled"`
	Notes        string           `json:"notes,omitempty"`
	TotalAmount  decimal.Decimal  `json:"total_amount"`
	Items        []OrderItemInput `json:"items" validate:"required,min=1,dive"`
}

// ReceiptItemInput is a receipt line as sent to the API.
type ReceiptItemInput struct {
	OrderItemID int64           `json:"order_item_id" validate:"gt=0"`
	Quantity    int             `json:"quantity" validate:"gte=1"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Notes       string          `json:"notes,omitempty"`
}

// ReceiptInput is the create/update body for purchase receipts.
type ReceiptInput struct {
	OrderID       int64              `json:"order_id" validate:"gt=0"`
	ReceiptNumber string             `json:"receipt_number" validate:"required"`
	Status        ReceiptStatus      `json:"status" validate:"required,oneof=draft received cancelled"`
	Notes         string             `json:"notes,omitempty"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	Items         []ReceiptItemInput `json:"items" validate:"required,min=1,dive"`
}
