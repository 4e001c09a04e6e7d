package handler_test

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/burgerhub/api/internal/handler"
	"github.com/burgerhub/api/internal/view"
	"github.com/go-chi/chi/v5"
)

func newCustomerRouter(t *testing.T) chi.Router {
	t.Helper()
	st := newSeededStore(t)
	profiles := view.NewCustomers(st, nil)
	if err := profiles.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh customers: %v", err)
	}
	h := handler.NewCustomerHandler(profiles, st)
	return mount("/customers", h.RegisterRoutes)
}

func TestGetCustomer(t *testing.T) {
	router := newCustomerRouter(t)

	rr := doRequest(t, router, "GET", "/customers/customer-1", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	customer := resp["customer"].(map[string]interface{})
	if customer["name"] != "Kim Minji" {
		t.Errorf("expected Kim Minji, got %v", customer["name"])
	}
	if coupons := resp["coupons"].([]interface{}); len(coupons) != 2 {
		t.Errorf("expected 2 usable coupons, got %d", len(coupons))
	}
	if orders := resp["orders"].([]interface{}); len(orders) != 2 {
		t.Errorf("expected 2 orders, got %d", len(orders))
	}
}

func TestGetCustomer_NotFound(t *testing.T) {
	router := newCustomerRouter(t)

	rr := doRequest(t, router, "GET", "/customers/nobody", nil, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestListCustomerOrders(t *testing.T) {
	router := newCustomerRouter(t)

	rr := doRequest(t, router, "GET", "/customers/customer-1/orders", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	orders := decodeListResponse(t, rr)
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0]["orderNumber"] != "1003" {
		t.Errorf("expected newest order first, got %v", orders[0]["orderNumber"])
	}
}

func TestListCustomerOrders_EmptyAndUnknown(t *testing.T) {
	router := newCustomerRouter(t)

	rr := doRequest(t, router, "GET", "/customers/customer-3/orders", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := len(decodeListResponse(t, rr)); got != 0 {
		t.Errorf("expected no orders, got %d", got)
	}

	rr = doRequest(t, router, "GET", "/customers/nobody/orders", nil, "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown customer, got %d", rr.Code)
	}
}

func TestListCustomerCoupons(t *testing.T) {
	router := newCustomerRouter(t)

	rr := doRequest(t, router, "GET", "/customers/customer-1/coupons", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	coupons := decodeListResponse(t, rr)
	if len(coupons) != 2 {
		t.Fatalf("expected 2 coupons, got %d", len(coupons))
	}
	for _, c := range coupons {
		if c["code"] == "SPRING15" {
			t.Error("expired coupon should not be listed")
		}
	}
}

func TestCouponQR(t *testing.T) {
	router := newCustomerRouter(t)

	rr := doRequest(t, router, "GET", "/customers/customer-1/coupons/coupon-2/qr?size=128", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("body is not a PNG")
	}
}

func TestCouponQR_Errors(t *testing.T) {
	router := newCustomerRouter(t)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"other customer's coupon", "/customers/customer-2/coupons/coupon-1/qr", http.StatusNotFound},
		{"unknown coupon", "/customers/customer-1/coupons/coupon-99/qr", http.StatusNotFound},
		{"size too small", "/customers/customer-1/coupons/coupon-1/qr?size=8", http.StatusBadRequest},
		{"size not a number", "/customers/customer-1/coupons/coupon-1/qr?size=big", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, router, "GET", tt.path, nil, "")
			if rr.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rr.Code)
			}
		})
	}
}

func TestAdjustPoints(t *testing.T) {
	router := newCustomerRouter(t)

	rr := doRequest(t, router, "POST", "/customers/customer-2/points", map[string]int{"delta": 80}, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if resp := decodeResponse(t, rr); resp["points"] != float64(500) {
		t.Errorf("expected 500 points, got %v", resp["points"])
	}

	rr = doRequest(t, router, "POST", "/customers/customer-2/points", map[string]int{"delta": -10000}, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if resp := decodeResponse(t, rr); resp["points"] != float64(0) {
		t.Errorf("expected balance floored at 0, got %v", resp["points"])
	}
}

func TestAdjustPoints_Invalid(t *testing.T) {
	router := newCustomerRouter(t)

	rr := doRequest(t, router, "POST", "/customers/customer-2/points", map[string]int{"delta": 0}, "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for zero delta, got %d", rr.Code)
	}

	rr = doRequest(t, router, "POST", "/customers/nobody/points", map[string]int{"delta": 5}, "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}
