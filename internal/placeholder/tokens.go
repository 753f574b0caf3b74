package placeholder

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thereceipt/receipt-interpreter/pkg/order"
)

// Primary tokens are substituted across the whole document before parsing.
// The order of this list is the order tokens are looked up in.
var PrimaryTokens = []string{
	"{{STORE_NAME}}", "{{STORE_NUMBER}}", "{{STORE_ADDRESS}}", "{{STORE_PHONE}}", "{{CASHIER_NAME}}",
	"{{TIMESTAMP}}", "{{ORDER_NUMBER}}", "{{ORDER_ID}}", "{{RECEIPT_NUMBER}}",
	"{{SUBTOTAL}}", "{{TAX}}", "{{TAX_AMOUNT}}", "{{TAX_RATE}}", "{{TOTAL}}", "{{DISCOUNT}}",
	"{{ITEM_LIST}}", "{{ITEM_COUNT}}",
	"{{CUSTOMER_NAME}}", "{{CUSTOMER_ID}}", "{{CUSTOMER_PHONE}}", "{{MEMBER_STATUS}}", "{{LOYALTY_POINTS}}",
	"{{PAYMENT_METHOD}}", "{{CHANGE_DUE}}", "{{PROMOTION_CODE}}",
	"{{BARCODE_DATA}}", "{{QR_DATA}}",
	"{{order_number}}", "{{item_list}}",
}

// Legacy tokens are only resolved inside dynamic elements
var LegacyTokens = []string{
	"{store_name}", "{store_address}", "{store_phone}", "{cashier_name}", "{timestamp}",
	"{order_number}", "{order_id}", "{receipt_number}",
	"{subtotal}", "{tax}", "{total}", "{item_list}", "{item_count}",
	"{customer_name}", "{customer_phone}", "{payment_method}", "{change_due}",
	"{discount}", "{promotion_code}", "{tax_rate}", "{barcode_data}", "{qr_data}",
}

// Values used when there is no order or the order lacks the field
const (
	DefaultStoreName     = "BYTE BURGERS"
	DefaultStoreNumber   = "001"
	DefaultStoreAddress  = "123 Main Street"
	DefaultStorePhone    = "(555) 123-4567"
	DefaultCashierName   = "John Doe"
	DefaultTimestamp     = "12/04/2024"
	DefaultOrderID       = "A-0042"
	DefaultItemCount     = "3"
	DefaultCustomerName  = "Guest"
	DefaultCustomerPhone = "N/A"
	DefaultCustomerID    = "N/A"
	DefaultMemberStatus  = "REGULAR"
	DefaultPaymentMethod = "Credit Card"
	DefaultChangeDue     = "$0.00"
	NoItems              = "No items"
	UnknownItemName      = "Unknown Item"
)

var (
	defaultSubtotal  = decimal.RequireFromString("27.95")
	defaultTaxAmount = decimal.RequireFromString("2.24")
	defaultTaxRate   = decimal.RequireFromString("0.08")
	defaultTotal     = decimal.RequireFromString("30.19")
)

type resolveFunc func(r *Resolver, o *order.Order) string

var fields = map[string]resolveFunc{}

func init() {
	register(storeName, "{{STORE_NAME}}", "{store_name}")
	register(storeNumber, "{{STORE_NUMBER}}")
	register(literal(DefaultStoreAddress), "{{STORE_ADDRESS}}", "{store_address}")
	register(literal(DefaultStorePhone), "{{STORE_PHONE}}", "{store_phone}")
	register(literal(DefaultCashierName), "{{CASHIER_NAME}}", "{cashier_name}")
	register(timestamp, "{{TIMESTAMP}}", "{timestamp}")
	register(orderID, "{{ORDER_NUMBER}}", "{{ORDER_ID}}", "{{order_number}}", "{order_number}", "{order_id}")
	register(receiptNumber, "{{RECEIPT_NUMBER}}", "{receipt_number}")
	register(subtotal, "{{SUBTOTAL}}", "{subtotal}")
	register(taxAmount, "{{TAX}}", "{{TAX_AMOUNT}}", "{tax}")
	register(taxRate, "{{TAX_RATE}}", "{tax_rate}")
	register(total, "{{TOTAL}}", "{total}")
	register(discount, "{{DISCOUNT}}", "{discount}")
	register(itemList(newline), "{{ITEM_LIST}}")
	register(itemList(escapedNewline), "{{item_list}}", "{item_list}")
	register(itemCount, "{{ITEM_COUNT}}", "{item_count}")
	register(customerName, "{{CUSTOMER_NAME}}", "{customer_name}")
	register(customerID, "{{CUSTOMER_ID}}")
	register(literal(DefaultCustomerPhone), "{{CUSTOMER_PHONE}}", "{customer_phone}")
	register(memberStatus, "{{MEMBER_STATUS}}")
	register(loyaltyPoints, "{{LOYALTY_POINTS}}")
	register(paymentMethod, "{{PAYMENT_METHOD}}", "{payment_method}")
	register(literal(DefaultChangeDue), "{{CHANGE_DUE}}", "{change_due}")
	register(literal(""), "{{PROMOTION_CODE}}", "{promotion_code}")
	register(barcodeData, "{{BARCODE_DATA}}", "{barcode_data}")
	register(qrData, "{{QR_DATA}}", "{qr_data}")
}

func register(fn resolveFunc, tokens ...string) {
	for _, t := range tokens {
		fields[t] = fn
	}
}

func literal(s string) resolveFunc {
	return func(*Resolver, *order.Order) string { return s }
}

func storeName(_ *Resolver, o *order.Order) string {
	return o.StoreNameOr(DefaultStoreName)
}

func storeNumber(_ *Resolver, o *order.Order) string {
	return o.StoreNumberOr(DefaultStoreNumber)
}

func timestamp(r *Resolver, o *order.Order) string {
	ms, ok := o.TimestampMillis()
	if !ok {
		return DefaultTimestamp
	}
	return time.UnixMilli(ms).In(r.location).Format(timestampLayout)
}

func orderID(_ *Resolver, o *order.Order) string {
	return o.OrderIDOr(DefaultOrderID)
}

func receiptNumber(r *Resolver, _ *order.Order) string {
	return fmt.Sprintf("R-%d", r.between(1000, 9999))
}

func barcodeData(r *Resolver, _ *order.Order) string {
	return fmt.Sprintf("ORD%d", r.between(10000, 99999))
}

func qrData(r *Resolver, _ *order.Order) string {
	return fmt.Sprintf("https://receipt.example.com/order/%d", r.between(1000, 9999))
}

func subtotal(_ *Resolver, o *order.Order) string {
	return formatMoney(o.SubtotalOr(defaultSubtotal))
}

func taxAmount(_ *Resolver, o *order.Order) string {
	return formatMoney(o.TaxAmountOr(defaultTaxAmount))
}

func taxRate(_ *Resolver, o *order.Order) string {
	return formatPercent(o.TaxRateOr(defaultTaxRate))
}

func total(_ *Resolver, o *order.Order) string {
	return formatMoney(o.TotalAmountOr(defaultTotal))
}

func discount(_ *Resolver, o *order.Order) string {
	return formatMoney(o.TotalDiscount())
}

func itemCount(_ *Resolver, o *order.Order) string {
	if o == nil {
		return DefaultItemCount
	}
	return strconv.Itoa(o.ItemCount())
}

func customerName(_ *Resolver, o *order.Order) string {
	return o.Customer().NameOr(DefaultCustomerName)
}

func customerID(_ *Resolver, o *order.Order) string {
	return o.Customer().CustomerIDOr(DefaultCustomerID)
}

func memberStatus(_ *Resolver, o *order.Order) string {
	return o.Customer().MemberStatusOr(DefaultMemberStatus)
}

func loyaltyPoints(_ *Resolver, o *order.Order) string {
	return strconv.Itoa(o.Customer().LoyaltyPointsOr(0))
}

func paymentMethod(_ *Resolver, o *order.Order) string {
	return o.PaymentMethodOr(DefaultPaymentMethod)
}
