// Package handler exposes each screen of the ordering system as JSON routes.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/burgerhub/api/internal/service"
	"github.com/burgerhub/api/internal/store"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// decodeJSON reads the body into v and runs its validate tags. The returned
// error text is safe to show to the client.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldError(fe))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func fieldError(fe validator.FieldError) string {
	name := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "min", "gte":
		return fmt.Sprintf("%s must be >= %s", name, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be > %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", name, fe.Param())
	case "ne":
		return fmt.Sprintf("%s must not be %s", name, fe.Param())
	}
	return name + " is invalid"
}

// writeServiceError maps service and store errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrMenuNotFound),
		errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrCouponNotFound),
		errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrPickupUnresolved),
		errors.Is(err, service.ErrOrderAlreadyClosed),
		errors.Is(err, service.ErrCouponUsed):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrPaymentCancelled):
		log.Printf("WARNING: %s: %v", op, err)
		writeJSON(w, http.StatusRequestTimeout, map[string]string{"error": "payment cancelled"})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		service.ErrEmptyCart,
		service.ErrInvalidQuantity,
		service.ErrMenuUnavailable,
		service.ErrInvalidPayment,
		service.ErrCouponNotOwned,
		service.ErrCouponExpired,
		service.ErrInvalidPoints,
		service.ErrInsufficientPoints,
		service.ErrPointsOverLimit,
		service.ErrRequiredOption,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
