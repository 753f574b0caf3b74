package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sample returns the demo order used by previews when no real order is supplied.
// It carries the same figures the resolver falls back to without an order.
func Sample() *Order {
	return &Order{
		OrderID:     ptr("A-0042"),
		StoreNumber: ptr("001"),
		StoreName:   ptr("BYTE BURGERS"),
		Timestamp:   ptr(time.Date(2024, time.December, 4, 12, 30, 0, 0, time.Local).UnixMilli()),
		Items: []OrderItem{
			{
				Name:       ptr("Cheeseburger"),
				Quantity:   ptr(2),
				UnitPrice:  money("8.99"),
				TotalPrice: money("17.98"),
				SKU:        "BRG-001",
				Category:   "Burgers",
			},
			{
				Name:       ptr("French Fries"),
				Quantity:   ptr(1),
				UnitPrice:  money("3.99"),
				TotalPrice: money("3.99"),
				SKU:        "SID-001",
				Category:   "Sides",
			},
			{
				Name:       ptr("Soft Drink"),
				Quantity:   ptr(2),
				UnitPrice:  money("2.99"),
				TotalPrice: money("5.98"),
				SKU:        "DRK-001",
				Category:   "Drinks",
			},
		},
		Subtotal:      money("27.95"),
		TaxRate:       money("0.08"),
		TaxAmount:     money("2.24"),
		TotalAmount:   money("30.19"),
		PaymentMethod: ptr("Credit Card"),
	}
}

func ptr[T any](v T) *T {
	return &v
}

func money(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}
