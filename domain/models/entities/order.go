package entities

import (
	"github.com/shopspring/decimal"
)

// Order statuses sent by the storefront API on the coarse status field
const (
	OrderStatusPending    string = "pending"
	OrderStatusProcessing string = "processing"
	OrderStatusShipped    string = "shipped"
	OrderStatusDelivered  string = "delivered"
	OrderStatusCancelled  string = "cancelled"
	OrderStatusCompleted  string = "completed"
)

const (
	PaymentStatusPaid      string = "paid"
	PaymentStatusPending   string = "pending"
	PaymentStatusCancelled string = "cancelled"
)

// Order is a placed purchase as read from GET orders/user. The client never
// mutates it except by creating return requests against it.
type Order struct {
	OrderId        int64           `json:"order_id"`
	OrderNumber    string          `json:"order_number"`
	Status         string          `json:"status"`
	ShipmentStatus *string         `json:"shipment_status"`
	PaymentStatus  string          `json:"payment_status"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	Currency       string          `json:"currency"`
	Items          []OrderItem     `json:"items"`
	ReturnRequests []ReturnRequest `json:"returnRequests"`
	Invoices       []Invoice       `json:"invoices"`
	Activities     []Activity      `json:"activities"`
	CreatedAt      Timestamp       `json:"created_at"`
}

// ShipmentStatusValue returns the shipment status or "" when absent
func (order Order) ShipmentStatusValue() string {
	if order.ShipmentStatus == nil {
		return ""
	}
	return *order.ShipmentStatus
}

func (order Order) FindItem(orderItemId int64) (*OrderItem, bool) {
	for i := range order.Items {
		if order.Items[i].OrderItemId == orderItemId {
			return &order.Items[i], true
		}
	}
	return nil, false
}

type Invoice struct {
	InvoiceId     int64           `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	CreatedAt     Timestamp       `json:"created_at"`
}

// Activity is one audit trail entry of an order
type Activity struct {
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   Timestamp `json:"created_at"`
}
