package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/burgerhub/api/internal/service"
	"github.com/go-chi/chi/v5"
)

// AdminView is the admin state container.
// Satisfied by *view.Admin.
type AdminView interface {
	Dashboard() service.Dashboard
	Recalculate() service.Dashboard
	Counts() map[string]int
	StatusCounts() map[string]int
}

// DataResetter wipes and reseeds every collection.
// Satisfied by *store.Store.
type DataResetter interface {
	ClearAllData(ctx context.Context) error
}

// AdminHandler serves the admin dashboard and the flow visualizer.
type AdminHandler struct {
	admin AdminView
	store DataResetter
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admin AdminView, store DataResetter) *AdminHandler {
	return &AdminHandler{admin: admin, store: store}
}

// RegisterRoutes registers admin endpoints. Expected to be mounted at /admin.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.Dashboard)
	r.Post("/dashboard/refresh", h.Recalculate)
	r.Get("/counts", h.Counts)
	r.Post("/reset", h.Reset)
}

// RegisterFlowRoutes registers the flow visualizer. Expected to be mounted at /flow.
func (h *AdminHandler) RegisterFlowRoutes(r chi.Router) {
	r.Get("/", h.Flow)
}

type flowResponse struct {
	StatusCounts map[string]int `json:"statusCounts"`
	Collections  map[string]int `json:"collections"`
}

// Dashboard handles GET /admin/dashboard.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.admin.Dashboard())
}

// Recalculate handles POST /admin/dashboard/refresh.
func (h *AdminHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.admin.Recalculate())
}

// Counts handles GET /admin/counts.
func (h *AdminHandler) Counts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.admin.Counts())
}

// Reset handles POST /admin/reset: every collection goes back to the seed data.
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearAllData(r.Context()); err != nil {
		log.Printf("ERROR: reset data: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	log.Println("WARNING: all data reset to seed")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// Flow handles GET /flow.
func (h *AdminHandler) Flow(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, flowResponse{
		StatusCounts: h.admin.StatusCounts(),
		Collections:  h.admin.Counts(),
	})
}
