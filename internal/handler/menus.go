package handler

import (
	"net/http"

	"github.com/burgerhub/api/internal/model"
	"github.com/burgerhub/api/internal/service"
	"github.com/go-chi/chi/v5"
)

// MenuCatalog is the menu mirror read by menu handlers.
// Satisfied by *view.Kiosk.
type MenuCatalog interface {
	Menus(category string) []model.Menu
	Menu(id string) (model.Menu, bool)
}

// MenuHandler handles menu endpoints.
type MenuHandler struct {
	catalog MenuCatalog
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(catalog MenuCatalog) *MenuHandler {
	return &MenuHandler{catalog: catalog}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
// Expected to be mounted at /menus.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/price", h.Price)
}

type priceRequest struct {
	SelectedOptions []string `json:"selectedOptions"`
	Quantity        int      `json:"quantity" validate:"gte=1"`
}

type priceResponse struct {
	MenuID        string   `json:"menuId"`
	UnitPrice     int      `json:"unitPrice"`
	Quantity      int      `json:"quantity"`
	Price         int      `json:"price"`
	OptionDetails []string `json:"optionDetails"`
}

// List handles GET /menus. Only available menus are listed.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Menus(r.URL.Query().Get("category")))
}

// Get handles GET /menus/{id}.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	menu, ok := h.catalog.Menu(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu not found"})
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

// Price handles POST /menus/{id}/price: it checks the option selection and
// previews the line price without touching the cart.
func (h *MenuHandler) Price(w http.ResponseWriter, r *http.Request) {
	menu, ok := h.catalog.Menu(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu not found"})
		return
	}

	var req priceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := service.ValidateMenuOptions(menu, req.SelectedOptions); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, priceResponse{
		MenuID:        menu.ID,
		UnitPrice:     service.UnitPrice(menu, req.SelectedOptions),
		Quantity:      req.Quantity,
		Price:         service.LinePrice(menu, req.SelectedOptions, req.Quantity),
		OptionDetails: service.OptionDetails(menu, req.SelectedOptions),
	})
}
