// Package model holds the records persisted by the store. JSON field names
// follow the stored document layout.
package model

import "time"

// Customer is a loyalty member.
type Customer struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Phone     string    `json:"phone" yaml:"phone"`
	Points    int       `json:"points" yaml:"points"`
	Grade     string    `json:"grade" yaml:"grade"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// OptionChoice is one selectable choice with an additive price delta.
type OptionChoice struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Price int    `json:"price" yaml:"price"`
}

// MenuOption is a group of choices, either REQUIRED or OPTIONAL.
type MenuOption struct {
	ID      string         `json:"id" yaml:"id"`
	Name    string         `json:"name" yaml:"name"`
	Type    string         `json:"type" yaml:"type"`
	Choices []OptionChoice `json:"choices" yaml:"choices"`
}

// Menu is a sellable catalogue entry.
type Menu struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Category    string       `json:"category" yaml:"category"`
	Price       int          `json:"price" yaml:"price"`
	Image       string       `json:"image" yaml:"image"`
	Stock       int          `json:"stock" yaml:"stock"`
	Options     []MenuOption `json:"options" yaml:"options"`
	IsAvailable bool         `json:"isAvailable" yaml:"isAvailable"`
}

// Choice looks up a choice by id across all option groups.
func (m Menu) Choice(id string) (OptionChoice, bool) {
	for _, opt := range m.Options {
		for _, c := range opt.Choices {
			if c.ID == id {
				return c, true
			}
		}
	}
	return OptionChoice{}, false
}

// Coupon is a single-use discount owned by a customer.
type Coupon struct {
	ID         string     `json:"id" yaml:"id"`
	CustomerID string     `json:"customerId" yaml:"customerId"`
	Code       string     `json:"code" yaml:"code"`
	Name       string     `json:"name" yaml:"name"`
	Discount   int        `json:"discount" yaml:"discount"`
	Type       string     `json:"type" yaml:"type"`
	ExpiresAt  time.Time  `json:"expiresAt" yaml:"expiresAt"`
	IsUsed     bool       `json:"isUsed" yaml:"isUsed"`
	UsedAt     *time.Time `json:"usedAt,omitempty" yaml:"usedAt,omitempty"`
}

// OrderItem is one line of an order. Price is the line total including
// option surcharges and quantity.
type OrderItem struct {
	MenuID          string   `json:"menuId" yaml:"menuId"`
	MenuName        string   `json:"menuName" yaml:"menuName"`
	Quantity        int      `json:"quantity" yaml:"quantity"`
	SelectedOptions []string `json:"selectedOptions" yaml:"selectedOptions"`
	OptionDetails   []string `json:"optionDetails" yaml:"optionDetails"`
	Price           int      `json:"price" yaml:"price"`
}

// Order is a submitted ticket.
type Order struct {
	ID             string      `json:"id" yaml:"id"`
	OrderNumber    string      `json:"orderNumber" yaml:"orderNumber"`
	CustomerID     string      `json:"customerId,omitempty" yaml:"customerId,omitempty"`
	Items          []OrderItem `json:"items" yaml:"items"`
	TotalAmount    int         `json:"totalAmount" yaml:"totalAmount"`
	DiscountAmount int         `json:"discountAmount" yaml:"discountAmount"`
	FinalAmount    int         `json:"finalAmount" yaml:"finalAmount"`
	CouponID       string      `json:"couponId,omitempty" yaml:"couponId,omitempty"`
	UsedPoints     int         `json:"usedPoints,omitempty" yaml:"usedPoints,omitempty"`
	Status         string      `json:"status" yaml:"status"`
	CreatedAt      time.Time   `json:"createdAt" yaml:"createdAt"`
	StartedAt      *time.Time  `json:"startedAt,omitempty" yaml:"startedAt,omitempty"`
	CompletedAt    *time.Time  `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
}

// CartItem is an ephemeral kiosk cart line. UnitPrice already includes the
// selected option surcharges.
type CartItem struct {
	MenuID          string   `json:"menuId"`
	MenuName        string   `json:"menuName"`
	Quantity        int      `json:"quantity"`
	SelectedOptions []string `json:"selectedOptions"`
	OptionDetails   []string `json:"optionDetails"`
	UnitPrice       int      `json:"unitPrice"`
}

// Total is the line price for the current quantity.
func (c CartItem) Total() int {
	return c.UnitPrice * c.Quantity
}
