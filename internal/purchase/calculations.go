package purchase

import "github.com/shopspring/decimal"

// OrderLineTotal is quantity * unit price minus an absolute discount, never
// below zero.
func OrderLineTotal(quantity int, unitPrice, discount decimal.Decimal) decimal.Decimal {
	gross := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	net := gross.Sub(discount)
	if net.IsNegative() {
		return decimal.Zero
	}
	return net
}

// ReceiptLineTotal is quantity * unit price.
func ReceiptLineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
