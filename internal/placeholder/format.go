package placeholder

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/thereceipt/receipt-interpreter/pkg/order"
)

const (
	timestampLayout = "01/02/2006 15:04"
	itemNameWidth   = 32

	newline        = "\n"
	escapedNewline = `\n`
)

// sampleItemList is printed for item list tokens when there is no order
const sampleItemList = "Cheeseburger                    x2      $17.98\n" +
	"  @ $8.99 each\n" +
	"French Fries                    x1       $3.99\n" +
	"Soft Drink                      x2       $5.98\n" +
	"  @ $2.99 each"

// formatMoney renders an amount as dollars, rounded half away from zero to cents
func formatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// formatPercent renders a fractional rate as a percentage with one decimal
func formatPercent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

// itemList builds the item block resolver. sep separates lines; the escaped
// dialect uses a literal backslash-n instead of a newline.
func itemList(sep string) resolveFunc {
	sample := strings.ReplaceAll(sampleItemList, newline, sep)

	return func(_ *Resolver, o *order.Order) string {
		if o == nil {
			return sample
		}

		items := o.LineItems()
		if len(items) == 0 {
			return NoItems
		}

		blocks := make([]string, 0, len(items))
		for _, item := range items {
			blocks = append(blocks, formatItem(item, sep))
		}
		return strings.Join(blocks, sep)
	}
}

func formatItem(item order.OrderItem, sep string) string {
	qty := item.QuantityOr(1)
	unit := item.UnitPriceOr(decimal.Zero)

	line := fmt.Sprintf("%s x%d %s", padName(item.NameOr(UnknownItemName)), qty, formatMoney(item.TotalPriceOr(decimal.Zero)))
	if qty > 1 && unit.IsPositive() {
		line += sep + "  @ " + formatMoney(unit) + " each"
	}
	return line
}

// padName fits an item name into the name column
func padName(name string) string {
	runes := []rune(name)
	if len(runes) >= itemNameWidth {
		return string(runes[:itemNameWidth])
	}
	return name + strings.Repeat(" ", itemNameWidth-len(runes))
}
