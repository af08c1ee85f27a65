package returns

import (
	"strings"

	"gitlab.faza.io/order-project/storefront-service/domain/models/entities"
)

// ItemSelection is the checkbox and quantity state of one order item
type ItemSelection struct {
	Checked  bool `json:"checked"`
	Quantity int  `json:"quantity"`
}

// Selection is keyed by order_item_id
type Selection map[int64]ItemSelection

func (selection Selection) CheckedCount() int {
	count := 0
	for _, item := range selection {
		if item.Checked {
			count++
		}
	}
	return count
}

// BuildSubmissionPayload emits one entry per checked item in fulfillment
// order, all sharing the single chosen reason. The note is left out when
// blank.
func BuildSubmissionPayload(order entities.Order, selection Selection, reason, note string) (entities.CreateReturnRequest, error) {
	return buildPayload(order, selection, reason, note, entities.ReturnTypeReturnOnly)
}

func buildPayload(order entities.Order, selection Selection, reason, note, returnType string) (entities.CreateReturnRequest, error) {
	reason = strings.TrimSpace(reason)
	items := make([]entities.ReturnRequestItem, 0, len(selection))
	for _, orderItem := range order.Items {
		selected, ok := selection[orderItem.OrderItemId]
		if !ok || !selected.Checked {
			continue
		}
		items = append(items, entities.ReturnRequestItem{
			OrderItemId: orderItem.OrderItemId,
			Quantity:    ClampQuantity(selected.Quantity, orderItem.Qty),
			Reason:      reason,
		})
	}

	if len(items) == 0 {
		return entities.CreateReturnRequest{}, ErrNoItemsSelected
	}

	if reason == "" {
		return entities.CreateReturnRequest{}, ErrReasonRequired
	}

	request := entities.CreateReturnRequest{
		OrderId: order.OrderId,
		Reason:  reason,
		Type:    returnType,
		Items:   items,
	}

	if trimmed := strings.TrimSpace(note); trimmed != "" {
		request.Note = &trimmed
	}
	return request, nil
}
