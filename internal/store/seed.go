package store

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/burgerhub/api/internal/enum"
	"github.com/burgerhub/api/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type seedCustomer struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	Phone         string `yaml:"phone"`
	Points        int    `yaml:"points"`
	Grade         string `yaml:"grade"`
	JoinedDaysAgo int    `yaml:"joinedDaysAgo"`
}

type seedCoupon struct {
	ID            string `yaml:"id"`
	CustomerID    string `yaml:"customerId"`
	Code          string `yaml:"code"`
	Name          string `yaml:"name"`
	Discount      int    `yaml:"discount"`
	Type          string `yaml:"type"`
	ExpiresInDays int    `yaml:"expiresInDays"`
	Used          bool   `yaml:"used"`
}

type seedOrder struct {
	ID                  string            `yaml:"id"`
	OrderNumber         string            `yaml:"orderNumber"`
	CustomerID          string            `yaml:"customerId"`
	Status              string            `yaml:"status"`
	DiscountAmount      int               `yaml:"discountAmount"`
	MinutesAgo          int               `yaml:"minutesAgo"`
	StartedMinutesAgo   *int              `yaml:"startedMinutesAgo"`
	CompletedMinutesAgo *int              `yaml:"completedMinutesAgo"`
	Items               []model.OrderItem `yaml:"items"`
}

type seedFile struct {
	Customers []seedCustomer `yaml:"customers"`
	Menus     []model.Menu   `yaml:"menus"`
	Coupons   []seedCoupon   `yaml:"coupons"`
	Orders    []seedOrder    `yaml:"orders"`
}

// Seed is the demonstration data set resolved against a point in time.
type Seed struct {
	Customers []model.Customer
	Menus     []model.Menu
	Coupons   []model.Coupon
	Orders    []model.Order
}

// LoadSeed parses the embedded catalogue with relative times anchored at now.
func LoadSeed(now time.Time) (*Seed, error) {
	return parseSeed(seedYAML, now)
}

func parseSeed(data []byte, now time.Time) (*Seed, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed catalogue: %w", err)
	}

	s := &Seed{
		Customers: make([]model.Customer, 0, len(f.Customers)),
		Menus:     f.Menus,
		Coupons:   make([]model.Coupon, 0, len(f.Coupons)),
		Orders:    make([]model.Order, 0, len(f.Orders)),
	}
	if s.Menus == nil {
		s.Menus = []model.Menu{}
	}

	for _, c := range f.Customers {
		if enum.GradeRank(c.Grade) < 0 {
			return nil, fmt.Errorf("seed customer %s: unknown grade %q", c.ID, c.Grade)
		}
		s.Customers = append(s.Customers, model.Customer{
			ID:        c.ID,
			Name:      c.Name,
			Phone:     c.Phone,
			Points:    c.Points,
			Grade:     c.Grade,
			CreatedAt: now.AddDate(0, 0, -c.JoinedDaysAgo),
		})
	}

	for _, c := range f.Coupons {
		coupon := model.Coupon{
			ID:         c.ID,
			CustomerID: c.CustomerID,
			Code:       c.Code,
			Name:       c.Name,
			Discount:   c.Discount,
			Type:       c.Type,
			ExpiresAt:  now.AddDate(0, 0, c.ExpiresInDays),
			IsUsed:     c.Used,
		}
		if c.Used {
			usedAt := now.Add(-24 * time.Hour)
			coupon.UsedAt = &usedAt
		}
		s.Coupons = append(s.Coupons, coupon)
	}

	for _, o := range f.Orders {
		total := 0
		for _, it := range o.Items {
			total += it.Price
		}
		order := model.Order{
			ID:             o.ID,
			OrderNumber:    o.OrderNumber,
			CustomerID:     o.CustomerID,
			Items:          o.Items,
			TotalAmount:    total,
			DiscountAmount: o.DiscountAmount,
			FinalAmount:    max(0, total-o.DiscountAmount),
			Status:         o.Status,
			CreatedAt:      minutesBefore(now, o.MinutesAgo),
		}
		if o.StartedMinutesAgo != nil {
			t := minutesBefore(now, *o.StartedMinutesAgo)
			order.StartedAt = &t
		}
		if o.CompletedMinutesAgo != nil {
			t := minutesBefore(now, *o.CompletedMinutesAgo)
			order.CompletedAt = &t
		}
		s.Orders = append(s.Orders, order)
	}

	return s, nil
}

func minutesBefore(now time.Time, m int) time.Time {
	return now.Add(-time.Duration(m) * time.Minute)
}
