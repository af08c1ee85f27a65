package status

import (
	"gitlab.faza.io/order-project/storefront-service/domain/models/entities"
)

const (
	TabAll        string = "all"
	TabPending    string = "pending"
	TabProcessing string = "processing"
	TabShipped    string = "shipped"
	TabDelivered  string = "delivered"
	TabCancelled  string = "cancelled"
)

var Tabs = []string{TabAll, TabPending, TabProcessing, TabShipped, TabDelivered, TabCancelled}

// TabKey maps the coarse order status field to its list tab. Completed
// orders sit in the delivered tab and both cancel spellings are unified.
// Statuses without a tab return "".
func TabKey(orderStatus string) string {
	switch normalize(orderStatus) {
	case "pending":
		return TabPending
	case "processing":
		return TabProcessing
	case "shipped":
		return TabShipped
	case "delivered", "completed":
		return TabDelivered
	case "cancelled", "canceled":
		return TabCancelled
	default:
		return ""
	}
}

func CountByTab(orders []entities.Order) map[string]int {
	counts := make(map[string]int, len(Tabs))
	for _, tab := range Tabs {
		counts[tab] = 0
	}

	for _, order := range orders {
		counts[TabAll]++
		if tab := TabKey(order.Status); tab != "" {
			counts[tab]++
		}
	}
	return counts
}

func FilterByTab(orders []entities.Order, tab string) []entities.Order {
	tab = normalize(tab)
	if tab == "" || tab == TabAll {
		return orders
	}

	filtered := make([]entities.Order, 0, len(orders))
	for _, order := range orders {
		if TabKey(order.Status) == tab {
			filtered = append(filtered, order)
		}
	}
	return filtered
}
