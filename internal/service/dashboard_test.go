package service

import (
	"testing"
	"time"

	"github.com/burgerhub/api/internal/enum"
	"github.com/burgerhub/api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_TodayOnly(t *testing.T) {
	orders := []model.Order{
		{
			OrderNumber: "1001", FinalAmount: 11500, Status: enum.OrderStatusPending,
			CreatedAt: now.Add(-time.Hour),
			Items: []model.OrderItem{
				{MenuID: "menu-1", MenuName: "Whopper", Quantity: 1, Price: 7100},
				{MenuID: "menu-5", MenuName: "French Fries", Quantity: 1, Price: 4400},
			},
		},
		{
			OrderNumber: "1002", FinalAmount: 7000, Status: enum.OrderStatusReady,
			CreatedAt: now.Add(-10 * time.Minute),
			Items: []model.OrderItem{
				{MenuID: "menu-1", MenuName: "Whopper", Quantity: 1, Price: 7000},
			},
		},
		{
			OrderNumber: "0999", FinalAmount: 50000, Status: enum.OrderStatusCompleted,
			CreatedAt: now.AddDate(0, 0, -1),
			Items: []model.OrderItem{
				{MenuID: "menu-9", MenuName: "Whopper Set", Quantity: 5, Price: 50000},
			},
		},
	}
	menus := []model.Menu{{ID: "menu-1", Category: enum.CategoryBurger}}

	d := Aggregate(orders, menus, now)

	assert.Equal(t, "2026-03-14", d.Date)
	assert.Equal(t, 18500, d.TotalSales)
	assert.Equal(t, 2, d.OrderCount)
	assert.Equal(t, 9250, d.AverageOrder)

	require.Len(t, d.TopMenus, 2)
	assert.Equal(t, "menu-1", d.TopMenus[0].MenuID)
	assert.Equal(t, enum.CategoryBurger, d.TopMenus[0].Category)
	assert.Equal(t, 2, d.TopMenus[0].Count)
	assert.Equal(t, 14100, d.TopMenus[0].Revenue)
	assert.Equal(t, "menu-5", d.TopMenus[1].MenuID)

	assert.Equal(t, 2, d.HourlyOrders[14])
	assert.Equal(t, 1, d.StatusCounts[enum.OrderStatusPending])
	assert.Equal(t, 1, d.StatusCounts[enum.OrderStatusReady])
	assert.Equal(t, 1, d.StatusCounts[enum.OrderStatusCompleted])
	assert.Equal(t, 0, d.StatusCounts[enum.OrderStatusPreparing])
}

func TestAggregate_Empty(t *testing.T) {
	d := Aggregate(nil, nil, now)
	assert.Equal(t, 0, d.TotalSales)
	assert.Equal(t, 0, d.OrderCount)
	assert.Equal(t, 0, d.AverageOrder)
	assert.NotNil(t, d.TopMenus)
	assert.Empty(t, d.TopMenus)
}

func TestAggregate_AverageRounds(t *testing.T) {
	orders := []model.Order{
		{FinalAmount: 1000, CreatedAt: now},
		{FinalAmount: 1000, CreatedAt: now},
		{FinalAmount: 1001, CreatedAt: now},
	}
	assert.Equal(t, 1000, Aggregate(orders, nil, now).AverageOrder)

	orders = append(orders[:2], model.Order{FinalAmount: 1, CreatedAt: now})
	// (1000+1000+1)/3 = 667
	assert.Equal(t, 667, Aggregate(orders, nil, now).AverageOrder)
}

func TestAggregate_TiesOrderByName(t *testing.T) {
	o := model.Order{CreatedAt: now, Items: []model.OrderItem{
		{MenuID: "menu-1", MenuName: "Whopper", Quantity: 2},
		{MenuID: "menu-5", MenuName: "French Fries", Quantity: 2},
	}}
	d := Aggregate([]model.Order{o}, nil, now)
	require.Len(t, d.TopMenus, 2)
	assert.Equal(t, "French Fries", d.TopMenus[0].MenuName)
}

func TestAggregate_TopFiveOnly(t *testing.T) {
	var items []model.OrderItem
	for i, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		items = append(items, model.OrderItem{MenuID: name, MenuName: name, Quantity: i + 1, Price: 100})
	}
	d := Aggregate([]model.Order{{CreatedAt: now, Items: items}}, nil, now)
	require.Len(t, d.TopMenus, 5)
	assert.Len(t, d.MenuSales, 7)
	assert.Equal(t, "g", d.TopMenus[0].MenuID)
	assert.Equal(t, "c", d.TopMenus[4].MenuID)
}

func TestAggregate_LocalDayBoundary(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	localNow := time.Date(2026, 3, 14, 0, 30, 0, 0, seoul)
	// 23:50 UTC on the 13th is 08:50 on the 14th in Seoul.
	o := model.Order{FinalAmount: 5000, CreatedAt: time.Date(2026, 3, 13, 23, 50, 0, 0, time.UTC)}

	d := Aggregate([]model.Order{o}, nil, localNow)
	assert.Equal(t, 1, d.OrderCount)
	assert.Equal(t, 1, d.HourlyOrders[8])
}
