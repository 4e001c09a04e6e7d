package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/burgerhub/api/internal/enum"
	"github.com/burgerhub/api/internal/model"
)

// Validation errors. Handlers surface their text to the client.
var (
	ErrCouponNotFound     = errors.New("coupon does not exist")
	ErrCouponNotOwned     = errors.New("coupon belongs to another customer")
	ErrCouponUsed         = errors.New("coupon has already been used")
	ErrCouponExpired      = errors.New("coupon has expired")
	ErrInvalidPoints      = errors.New("invalid point amount")
	ErrInsufficientPoints = errors.New("not enough points")
	ErrPointsOverLimit    = errors.New("points exceed the usable limit")
	ErrRequiredOption     = errors.New("required option not selected")
)

// ValidateCoupon checks that c can be redeemed at now. Ownership is only
// checked when customerID is non-empty. Checks run in a fixed order: existence,
// ownership, used, expiry.
func ValidateCoupon(c *model.Coupon, customerID string, now time.Time) error {
	if c == nil {
		return ErrCouponNotFound
	}
	if customerID != "" && c.CustomerID != customerID {
		return ErrCouponNotOwned
	}
	if c.IsUsed {
		return ErrCouponUsed
	}
	if c.ExpiresAt.Before(now) {
		return ErrCouponExpired
	}
	return nil
}

// ValidatePoints checks a redemption of amount against the available balance
// and the most the order allows.
func ValidatePoints(amount, available, maxUsable int) error {
	if amount < 0 {
		return ErrInvalidPoints
	}
	if amount > available {
		return ErrInsufficientPoints
	}
	if amount > maxUsable {
		return fmt.Errorf("%w: at most %d", ErrPointsOverLimit, maxUsable)
	}
	return nil
}

// ValidateMenuOptions requires at least one selection from each REQUIRED
// group, where a selection only counts toward the group that owns the choice.
func ValidateMenuOptions(menu model.Menu, selected []string) error {
	chosen := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		chosen[id] = struct{}{}
	}
	for _, opt := range menu.Options {
		if opt.Type != enum.OptionTypeRequired {
			continue
		}
		ok := false
		for _, c := range opt.Choices {
			if _, hit := chosen[c.ID]; hit {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%w: %q", ErrRequiredOption, opt.Name)
		}
	}
	return nil
}
