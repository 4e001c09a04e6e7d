// Package ordernum formats the short, human-readable ticket numbers shown on
// the kitchen board and the pickup display.
package ordernum

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/burgerhub/api/internal/model"
)

// First is the number assigned to the first order of a fresh store.
const First = 1001

// Format pads n to at least four digits.
func Format(n int) string {
	return fmt.Sprintf("%04d", n)
}

// Parse reads an order number. ok is false for anything that is not a
// positive integer.
func Parse(s string) (n int, ok bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Next returns the number following the last order in the collection:
// "1001" for an empty collection or an unreadable last number.
func Next(orders []model.Order) string {
	if len(orders) == 0 {
		return Format(First)
	}
	last, ok := Parse(orders[len(orders)-1].OrderNumber)
	if !ok {
		return Format(First)
	}
	return Format(last + 1)
}

// Max returns the highest parseable number in the collection, or First-1
// when there is none.
func Max(orders []model.Order) int {
	max := First - 1
	for _, o := range orders {
		if n, ok := Parse(o.OrderNumber); ok && n > max {
			max = n
		}
	}
	return max
}
