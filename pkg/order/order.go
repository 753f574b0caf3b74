// Package order defines the point-of-sale order a receipt is printed for
package order

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

// Promotion types
const (
	PromotionPercentage = "PERCENTAGE"
	PromotionFixed      = "FIXED"
)

// Order is the data a receipt document is resolved against.
// Every field is optional; use the *Or accessors to read a field with a default.
type Order struct {
	OrderID         *string             `json:"orderId,omitempty"`
	StoreNumber     *string             `json:"storeNumber,omitempty"`
	StoreName       *string             `json:"storeName,omitempty"`
	Timestamp       *int64              `json:"timestamp,omitempty"` // epoch milliseconds
	Items           []OrderItem         `json:"items,omitempty"`
	Subtotal        decimal.NullDecimal `json:"subtotal"`
	TaxRate         decimal.NullDecimal `json:"taxRate"` // fraction, 0.08 = 8%
	TaxAmount       decimal.NullDecimal `json:"taxAmount"`
	TotalAmount     decimal.NullDecimal `json:"totalAmount"`
	ItemPromotions  []ItemPromotion     `json:"itemPromotions,omitempty"`
	OrderPromotions []OrderPromotion    `json:"orderPromotions,omitempty"`
	CustomerInfo    *CustomerInfo       `json:"customerInfo,omitempty"`
	PaymentMethod   *string             `json:"paymentMethod,omitempty"`
	SplitPayments   []SplitPayment      `json:"splitPayments,omitempty"`
	TableInfo       *TableInfo          `json:"tableInfo,omitempty"`
}

// OrderItem is a single line of an order
type OrderItem struct {
	Name       *string             `json:"name,omitempty"`
	Quantity   *int                `json:"quantity,omitempty"`
	UnitPrice  decimal.NullDecimal `json:"unitPrice"`
	TotalPrice decimal.NullDecimal `json:"totalPrice"`
	SKU        string              `json:"sku,omitempty"`
	Category   string              `json:"category,omitempty"`
	Modifiers  []string            `json:"modifiers,omitempty"`
}

// ItemPromotion is a discount applied to a single item
type ItemPromotion struct {
	ItemSKU        string              `json:"itemSku"`
	PromotionName  string              `json:"promotionName"`
	DiscountAmount decimal.NullDecimal `json:"discountAmount"`
}

// OrderPromotion is a discount applied to the whole order
type OrderPromotion struct {
	PromotionName  string              `json:"promotionName"`
	DiscountAmount decimal.NullDecimal `json:"discountAmount"`
	PromotionType  string              `json:"promotionType"`
}

// CustomerInfo describes the customer an order belongs to
type CustomerInfo struct {
	CustomerID    *string `json:"customerId,omitempty"`
	Name          *string `json:"name,omitempty"`
	MemberStatus  *string `json:"memberStatus,omitempty"`
	LoyaltyPoints *int    `json:"loyaltyPoints,omitempty"`
	MemberSince   *string `json:"memberSince,omitempty"`
}

// SplitPayment is one payer's share of a split bill
type SplitPayment struct {
	PayerName string              `json:"payerName"`
	Amount    decimal.NullDecimal `json:"amount"`
	Method    string              `json:"method"`
	Tip       decimal.NullDecimal `json:"tip"`
	Items     []string            `json:"items,omitempty"`
}

// TableInfo describes the table a dine-in order was served at
type TableInfo struct {
	TableNumber   string `json:"tableNumber"`
	ServerName    string `json:"serverName"`
	GuestCount    int    `json:"guestCount"`
	ServiceRating *int   `json:"serviceRating,omitempty"`
}

// Parse decodes an order from JSON
func Parse(data []byte) (*Order, error) {
	var o Order
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("failed to parse order: %w", err)
	}
	return &o, nil
}

// ParseFile decodes an order from a JSON file
func ParseFile(path string) (*Order, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read order file: %w", err)
	}

	return Parse(data)
}
