package service

import (
	"github.com/burgerhub/api/internal/enum"
	"github.com/burgerhub/api/internal/model"
	"github.com/shopspring/decimal"
)

// pointRate is the share of the amount paid that is credited back as points.
var pointRate = decimal.NewFromInt(1).Div(decimal.NewFromInt(100))

// DiscountAmount returns the coupon's discount against total. Percentage
// coupons round down to a whole won; flat coupons discount their face value.
// The result is never negative and never exceeds total.
func DiscountAmount(total int, c *model.Coupon) int {
	if c == nil || total <= 0 {
		return 0
	}
	var d int
	switch c.Type {
	case enum.DiscountTypePercent:
		d = int(decimal.NewFromInt(int64(total)).
			Mul(decimal.NewFromInt(int64(c.Discount))).
			Div(decimal.NewFromInt(100)).
			Floor().
			IntPart())
	case enum.DiscountTypeAmount:
		d = c.Discount
	}
	return min(max(d, 0), total)
}

// FinalAmount is total minus discount, floored at zero.
func FinalAmount(total, discount int) int {
	return max(0, total-discount)
}

// UnitPrice is the menu's base price plus the deltas of every selected
// choice. Unknown choice ids contribute nothing.
func UnitPrice(menu model.Menu, selected []string) int {
	price := menu.Price
	for _, id := range selected {
		if c, ok := menu.Choice(id); ok {
			price += c.Price
		}
	}
	return price
}

// LinePrice is the unit price times quantity.
func LinePrice(menu model.Menu, selected []string, qty int) int {
	return UnitPrice(menu, selected) * qty
}

// OptionDetails maps selected choice ids to their display names, in
// selection order.
func OptionDetails(menu model.Menu, selected []string) []string {
	out := make([]string, 0, len(selected))
	for _, id := range selected {
		if c, ok := menu.Choice(id); ok {
			out = append(out, c.Name)
		}
	}
	return out
}

// EarnedPoints is the loyalty credit for paying amount, rounded down.
func EarnedPoints(amount int) int {
	if amount <= 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(amount)).Mul(pointRate).Floor().IntPart())
}

// CartTotal sums the line totals of the cart.
func CartTotal(items []model.CartItem) int {
	total := 0
	for _, it := range items {
		total += it.Total()
	}
	return total
}
