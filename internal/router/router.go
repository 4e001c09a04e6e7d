package router

import (
	"log"
	"net/http"

	"github.com/burgerhub/api/internal/config"
	"github.com/burgerhub/api/internal/handler"
	"github.com/burgerhub/api/internal/service"
	"github.com/burgerhub/api/internal/store"
	"github.com/burgerhub/api/internal/view"
	"github.com/burgerhub/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Views are the per-screen state containers the handlers read from.
type Views struct {
	Kiosk     *view.Kiosk
	Kitchen   *view.Kitchen
	Display   *view.Display
	Admin     *view.Admin
	Customers *view.Customers
}

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, st *store.Store, views Views, orders *service.OrderService, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// One socket per collection; screens re-read on every event.
	r.Get("/ws/{collection}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, w, r)
	})

	menuHandler := handler.NewMenuHandler(views.Kiosk)
	r.Route("/menus", menuHandler.RegisterRoutes)

	kioskHandler := handler.NewKioskHandler(views.Kiosk, orders, st, cfg.SessionSecret, cfg.SessionTTL)
	r.Route("/kiosk", kioskHandler.RegisterRoutes)

	orderHandler := handler.NewOrderHandler(orders, st)
	r.Route("/orders", orderHandler.RegisterRoutes)

	kitchenHandler := handler.NewKitchenHandler(views.Kitchen)
	r.Route("/kitchen", kitchenHandler.RegisterRoutes)

	displayHandler := handler.NewDisplayHandler(views.Display)
	r.Route("/display", displayHandler.RegisterRoutes)

	customerHandler := handler.NewCustomerHandler(views.Customers, st)
	r.Route("/customers", customerHandler.RegisterRoutes)

	couponHandler := handler.NewCouponHandler(st)
	r.Route("/coupons", couponHandler.RegisterRoutes)

	adminHandler := handler.NewAdminHandler(views.Admin, st)
	r.Route("/admin", adminHandler.RegisterRoutes)
	r.Route("/flow", adminHandler.RegisterFlowRoutes)

	log.Println("Router initialized with all handlers")
	return r
}
