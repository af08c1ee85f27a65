package entities

const (
	ReturnTypeReturnOnly  string = "return_only"
	ReturnTypeReplacement string = "replacement"
)

const (
	ReturnStatusPending   string = "pending"
	ReturnStatusApproved  string = "approved"
	ReturnStatusRejected  string = "rejected"
	ReturnStatusCompleted string = "completed"
)

// ReturnRequest is assigned an id and status by the server, the client only
// ever creates new ones
type ReturnRequest struct {
	ReturnRequestId int64               `json:"return_request_id"`
	OrderId         int64               `json:"order_id"`
	OrderItemId     int64               `json:"order_item_id"`
	Reason          string              `json:"reason"`
	Note            string              `json:"note,omitempty"`
	Type            string              `json:"type"`
	Status          string              `json:"status"`
	Items           []ReturnRequestItem `json:"items"`
	CreatedAt       Timestamp           `json:"created_at"`
}

// Covers reports whether the request refers to the order item, either as its
// single item or inside its item list
func (request ReturnRequest) Covers(orderItemId int64) bool {
	if request.OrderItemId != 0 && request.OrderItemId == orderItemId {
		return true
	}
	for _, item := range request.Items {
		if item.OrderItemId == orderItemId {
			return true
		}
	}
	return false
}

type ReturnRequestItem struct {
	OrderItemId int64  `json:"order_item_id"`
	Quantity    int    `json:"quantity"`
	Reason      string `json:"reason"`
}

// CreateReturnRequest is the POST returns body
type CreateReturnRequest struct {
	OrderId int64               `json:"order_id"`
	Reason  string              `json:"reason"`
	Type    string              `json:"type"`
	Note    *string             `json:"note,omitempty"`
	Items   []ReturnRequestItem `json:"items"`
}
