package status

import (
	"fmt"
	"sort"
	"time"

	"gitlab.faza.io/order-project/storefront-service/domain/models/entities"
)

const (
	TimelineActivity string = "activity"
	TimelineInvoice  string = "invoice"
	TimelineReturn   string = "return_request"
	TimelinePlaced   string = "placed"
)

type TimelineEntry struct {
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	At          time.Time `json:"at"`
}

// BuildTimeline merges the order's audit trail, invoices and return requests
// into one ascending list. Entries without a timestamp are dropped.
func BuildTimeline(order entities.Order) []TimelineEntry {
	entries := make([]TimelineEntry, 0, len(order.Activities)+len(order.Invoices)+len(order.ReturnRequests)+1)

	if !order.CreatedAt.IsZero() {
		entries = append(entries, TimelineEntry{
			Kind:  TimelinePlaced,
			Title: fmt.Sprintf("Order %s placed", order.OrderNumber),
			At:    order.CreatedAt.Time,
		})
	}

	for _, activity := range order.Activities {
		if activity.CreatedAt.IsZero() {
			continue
		}
		title := activity.Title
		if title == "" {
			title = activity.Type
		}
		entries = append(entries, TimelineEntry{
			Kind:        TimelineActivity,
			Title:       title,
			Description: activity.Description,
			At:          activity.CreatedAt.Time,
		})
	}

	for _, invoice := range order.Invoices {
		if invoice.CreatedAt.IsZero() {
			continue
		}
		entries = append(entries, TimelineEntry{
			Kind:  TimelineInvoice,
			Title: fmt.Sprintf("Invoice %s issued", invoice.InvoiceNumber),
			At:    invoice.CreatedAt.Time,
		})
	}

	for _, request := range order.ReturnRequests {
		if request.CreatedAt.IsZero() {
			continue
		}
		entries = append(entries, TimelineEntry{
			Kind:        TimelineReturn,
			Title:       fmt.Sprintf("Return request #%d %s", request.ReturnRequestId, request.Status),
			Description: request.Reason,
			At:          request.CreatedAt.Time,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].At.Before(entries[j].At)
	})
	return entries
}
