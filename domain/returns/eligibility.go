package returns

import (
	"fmt"
	"time"

	"gitlab.faza.io/order-project/storefront-service/domain/models"
	"gitlab.faza.io/order-project/storefront-service/domain/models/entities"
)

const (
	deadlineLayout string = "2006-01-02"

	TooltipAlreadyReturned string = "This item has already been returned"
	TooltipNoReturnPolicy  string = "No return policy for this product"
)

// ItemStatus is the return eligibility of one order item. It is data for the
// UI, the server stays the final authority on the request.
type ItemStatus struct {
	CanReturn bool   `json:"can_return"`
	Disabled  bool   `json:"disabled"`
	Tooltip   string `json:"tooltip,omitempty"`
}

func ineligible(tooltip string) ItemStatus {
	return ItemStatus{CanReturn: false, Disabled: true, Tooltip: tooltip}
}

// GetItemReturnStatus evaluates, in this order: an existing return request
// for the item, a missing return policy, an expired return window.
func GetItemReturnStatus(item entities.OrderItem, order entities.Order, now time.Time) ItemStatus {
	for _, request := range order.ReturnRequests {
		if request.Covers(item.OrderItemId) {
			return ineligible(TooltipAlreadyReturned)
		}
	}

	policy := item.ReturnPolicy()
	if policy == nil {
		return ineligible(TooltipNoReturnPolicy)
	}

	// without a reference date the window cannot be computed, the server decides
	if !item.CreatedAt.IsZero() {
		deadline := ReturnDeadline(item.CreatedAt.Time, policy.DaysLimit)
		if now.After(deadline) {
			return ineligible(fmt.Sprintf("Return window expired: returns are accepted within %d days, deadline was %s",
				policy.DaysLimit, deadline.Format(deadlineLayout)))
		}
	}

	return ItemStatus{CanReturn: true, Disabled: false}
}

func ReturnDeadline(referenceDate time.Time, daysLimit int) time.Time {
	if daysLimit < 0 {
		daysLimit = 0
	}
	return referenceDate.AddDate(0, 0, daysLimit)
}

// ClampQuantity bounds a requested return quantity to [1, max]
func ClampQuantity(qty, max int) int {
	if max < 1 {
		max = 1
	}
	if qty < 1 {
		return 1
	}
	if qty > max {
		return max
	}
	return qty
}

// ResolveReasons returns the first item's policy reasons, or the defaults
func ResolveReasons(order entities.Order) []models.ReasonConfig {
	if len(order.Items) > 0 {
		if policy := order.Items[0].ReturnPolicy(); policy != nil && policy.RequiredReasons != nil {
			if reasons, ok := models.ParseRequiredReasons(*policy.RequiredReasons); ok {
				return reasons
			}
		}
	}
	return models.DefaultReturnReasons()
}
