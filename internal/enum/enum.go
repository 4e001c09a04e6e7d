package enum

// ── Group A: State machines ──

const (
	OrderStatusPending   = "PENDING"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusCompleted = "COMPLETED"
)

// ── Group B: Catalogue labels ──

const (
	CategoryBurger = "BURGER"
	CategorySide   = "SIDE"
	CategoryDrink  = "DRINK"
	CategorySet    = "SET"
)

const (
	OptionTypeRequired = "REQUIRED"
	OptionTypeOptional = "OPTIONAL"
)

const (
	DiscountTypePercent = "PERCENT"
	DiscountTypeAmount  = "AMOUNT"
)

// Grades are ordered: BRONZE < SILVER < GOLD < VIP.
const (
	GradeBronze = "BRONZE"
	GradeSilver = "SILVER"
	GradeGold   = "GOLD"
	GradeVIP    = "VIP"
)

const (
	PaymentMethodCard   = "CARD"
	PaymentMethodCash   = "CASH"
	PaymentMethodMobile = "MOBILE"
)

// ── Group C: Storage keys ──

const (
	CollectionOrders    = "orders"
	CollectionCustomers = "customers"
	CollectionCoupons   = "coupons"
	CollectionMenus     = "menus"
)

// Collections lists every persisted collection key.
var Collections = []string{
	CollectionOrders,
	CollectionCustomers,
	CollectionCoupons,
	CollectionMenus,
}

// IsCollection reports whether key names a persisted collection.
func IsCollection(key string) bool {
	for _, c := range Collections {
		if c == key {
			return true
		}
	}
	return false
}

// GradeRank returns the position of grade in the loyalty ladder, or -1.
func GradeRank(grade string) int {
	switch grade {
	case GradeBronze:
		return 0
	case GradeSilver:
		return 1
	case GradeGold:
		return 2
	case GradeVIP:
		return 3
	}
	return -1
}
