package order

import "github.com/shopspring/decimal"

// All accessors are safe to call on a nil receiver.

// OrderIDOr returns the order ID, or def when absent
func (o *Order) OrderIDOr(def string) string {
	if o == nil {
		return def
	}
	return stringOr(o.OrderID, def)
}

// StoreNumberOr returns the store number, or def when absent
func (o *Order) StoreNumberOr(def string) string {
	if o == nil {
		return def
	}
	return stringOr(o.StoreNumber, def)
}

// StoreNameOr returns the store name, or def when absent
func (o *Order) StoreNameOr(def string) string {
	if o == nil {
		return def
	}
	return stringOr(o.StoreName, def)
}

// PaymentMethodOr returns the payment method, or def when absent
func (o *Order) PaymentMethodOr(def string) string {
	if o == nil {
		return def
	}
	return stringOr(o.PaymentMethod, def)
}

// TimestampMillis returns the order timestamp and whether it is usable.
// Zero and negative timestamps are treated as absent.
func (o *Order) TimestampMillis() (int64, bool) {
	if o == nil || o.Timestamp == nil || *o.Timestamp <= 0 {
		return 0, false
	}
	return *o.Timestamp, true
}

// SubtotalOr returns the subtotal, or def when absent
func (o *Order) SubtotalOr(def decimal.Decimal) decimal.Decimal {
	if o == nil {
		return def
	}
	return decimalOr(o.Subtotal, def)
}

// TaxRateOr returns the tax rate as a fraction, or def when absent
func (o *Order) TaxRateOr(def decimal.Decimal) decimal.Decimal {
	if o == nil {
		return def
	}
	return decimalOr(o.TaxRate, def)
}

// TaxAmountOr returns the tax amount, or def when absent
func (o *Order) TaxAmountOr(def decimal.Decimal) decimal.Decimal {
	if o == nil {
		return def
	}
	return decimalOr(o.TaxAmount, def)
}

// TotalAmountOr returns the total amount, or def when absent
func (o *Order) TotalAmountOr(def decimal.Decimal) decimal.Decimal {
	if o == nil {
		return def
	}
	return decimalOr(o.TotalAmount, def)
}

// LineItems returns the order items; nil when the order is nil
func (o *Order) LineItems() []OrderItem {
	if o == nil {
		return nil
	}
	return o.Items
}

// ItemCount returns the sum of item quantities. Items without a quantity count as one.
func (o *Order) ItemCount() int {
	count := 0
	for _, item := range o.LineItems() {
		count += item.QuantityOr(1)
	}
	return count
}

// TotalDiscount sums the discount amounts of all item and order promotions
func (o *Order) TotalDiscount() decimal.Decimal {
	total := decimal.Zero
	if o == nil {
		return total
	}

	for _, p := range o.ItemPromotions {
		total = total.Add(decimalOr(p.DiscountAmount, decimal.Zero))
	}
	for _, p := range o.OrderPromotions {
		total = total.Add(decimalOr(p.DiscountAmount, decimal.Zero))
	}
	return total
}

// Customer returns the customer info; nil when absent
func (o *Order) Customer() *CustomerInfo {
	if o == nil {
		return nil
	}
	return o.CustomerInfo
}

// NameOr returns the item name, or def when absent
func (i OrderItem) NameOr(def string) string {
	return stringOr(i.Name, def)
}

// QuantityOr returns the item quantity, or def when absent
func (i OrderItem) QuantityOr(def int) int {
	if i.Quantity == nil {
		return def
	}
	return *i.Quantity
}

// UnitPriceOr returns the unit price, or def when absent
func (i OrderItem) UnitPriceOr(def decimal.Decimal) decimal.Decimal {
	return decimalOr(i.UnitPrice, def)
}

// TotalPriceOr returns the line total, or def when absent
func (i OrderItem) TotalPriceOr(def decimal.Decimal) decimal.Decimal {
	return decimalOr(i.TotalPrice, def)
}

// NameOr returns the customer name, or def when absent
func (c *CustomerInfo) NameOr(def string) string {
	if c == nil {
		return def
	}
	return stringOr(c.Name, def)
}

// CustomerIDOr returns the customer ID, or def when absent
func (c *CustomerInfo) CustomerIDOr(def string) string {
	if c == nil {
		return def
	}
	return stringOr(c.CustomerID, def)
}

// MemberStatusOr returns the membership tier, or def when absent
func (c *CustomerInfo) MemberStatusOr(def string) string {
	if c == nil {
		return def
	}
	return stringOr(c.MemberStatus, def)
}

// LoyaltyPointsOr returns the loyalty point balance, or def when absent
func (c *CustomerInfo) LoyaltyPointsOr(def int) int {
	if c == nil || c.LoyaltyPoints == nil {
		return def
	}
	return *c.LoyaltyPoints
}

func stringOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

func decimalOr(d decimal.NullDecimal, def decimal.Decimal) decimal.Decimal {
	if !d.Valid {
		return def
	}
	return d.Decimal
}
