package service

import (
	"math"
	"sort"
	"time"

	"github.com/burgerhub/api/internal/enum"
	"github.com/burgerhub/api/internal/model"
)

// topMenuCount is how many best sellers the dashboard ranks.
const topMenuCount = 5

// MenuSales is one menu's sales for the day.
type MenuSales struct {
	MenuID   string `json:"menuId"`
	MenuName string `json:"menuName"`
	Category string `json:"category,omitempty"`
	Count    int    `json:"count"`
	Revenue  int    `json:"revenue"`
}

// Dashboard is the admin summary of one local business day.
type Dashboard struct {
	Date         string         `json:"date"`
	TotalSales   int            `json:"totalSales"`
	OrderCount   int            `json:"orderCount"`
	AverageOrder int            `json:"averageOrder"`
	TopMenus     []MenuSales    `json:"topMenus"`
	MenuSales    []MenuSales    `json:"menuSales"`
	HourlyOrders [24]int        `json:"hourlyOrders"`
	StatusCounts map[string]int `json:"statusCounts"`
	GeneratedAt  time.Time      `json:"generatedAt"`
}

// sameDay reports whether t falls on now's calendar day in now's location.
func sameDay(t, now time.Time) bool {
	ty, tm, td := t.In(now.Location()).Date()
	ny, nm, nd := now.Date()
	return ty == ny && tm == nm && td == nd
}

// StatusCounts counts every order by status.
func StatusCounts(orders []model.Order) map[string]int {
	counts := map[string]int{
		enum.OrderStatusPending:   0,
		enum.OrderStatusPreparing: 0,
		enum.OrderStatusReady:     0,
		enum.OrderStatusCompleted: 0,
	}
	for _, o := range orders {
		counts[o.Status]++
	}
	return counts
}

// Aggregate builds the dashboard for the day containing now. Sales figures
// cover today's orders only; status counts cover every order.
func Aggregate(orders []model.Order, menus []model.Menu, now time.Time) Dashboard {
	d := Dashboard{
		Date:         now.Format("2006-01-02"),
		TopMenus:     []MenuSales{},
		MenuSales:    []MenuSales{},
		StatusCounts: StatusCounts(orders),
		GeneratedAt:  now,
	}

	categories := make(map[string]string, len(menus))
	for _, m := range menus {
		categories[m.ID] = m.Category
	}

	byMenu := map[string]*MenuSales{}
	for _, o := range orders {
		if !sameDay(o.CreatedAt, now) {
			continue
		}
		d.OrderCount++
		d.TotalSales += o.FinalAmount
		d.HourlyOrders[o.CreatedAt.In(now.Location()).Hour()]++

		for _, it := range o.Items {
			ms, ok := byMenu[it.MenuID]
			if !ok {
				ms = &MenuSales{MenuID: it.MenuID, MenuName: it.MenuName, Category: categories[it.MenuID]}
				byMenu[it.MenuID] = ms
			}
			ms.Count += it.Quantity
			ms.Revenue += it.Price
		}
	}

	if d.OrderCount > 0 {
		d.AverageOrder = int(math.Round(float64(d.TotalSales) / float64(d.OrderCount)))
	}

	for _, ms := range byMenu {
		d.MenuSales = append(d.MenuSales, *ms)
	}
	sort.Slice(d.MenuSales, func(i, j int) bool {
		a, b := d.MenuSales[i], d.MenuSales[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.MenuName < b.MenuName
	})
	d.TopMenus = append(d.TopMenus, d.MenuSales[:min(topMenuCount, len(d.MenuSales))]...)

	return d
}
