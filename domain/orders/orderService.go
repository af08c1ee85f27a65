package orders

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gitlab.faza.io/order-project/storefront-service/domain/models"
	"gitlab.faza.io/order-project/storefront-service/domain/models/entities"
	"gitlab.faza.io/order-project/storefront-service/domain/returns"
	"gitlab.faza.io/order-project/storefront-service/domain/status"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrSuperseded is returned when a newer request of the same view key
	// started before this one resolved, its result is discarded
	ErrSuperseded = errors.New("request superseded by a newer one")
)

type IOrderService interface {
	ListOrders(ctx context.Context, viewKey, tab string) (*OrderList, error)
	GetOrder(ctx context.Context, viewKey string, orderId int64) (*OrderDetail, error)
	FetchOrder(ctx context.Context, orderId int64) (entities.Order, error)
}

// OrderHeader holds the fields copied by name from the API order
type OrderHeader struct {
	OrderId       int64  `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	Currency      string `json:"currency"`
}

type OrderSummary struct {
	OrderHeader
	ShipmentStatus  string                 `json:"shipment_status,omitempty"`
	GrandTotal      decimal.Decimal        `json:"grand_total"`
	EffectiveStatus status.EffectiveStatus `json:"effective_status"`
	Tab             string                 `json:"tab"`
	ItemCount       int                    `json:"item_count"`
	Progress        status.Progress        `json:"progress"`
	Returnable      bool                   `json:"returnable"`
	CreatedAt       entities.Timestamp     `json:"created_at"`
}

type OrderList struct {
	Tab    string         `json:"tab"`
	Counts map[string]int `json:"counts"`
	Orders []OrderSummary `json:"orders"`
}

// ItemHeader holds the fields copied by name from the API order item
type ItemHeader struct {
	OrderItemId int64  `json:"order_item_id"`
	ProductId   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Qty         int    `json:"qty"`
}

type ItemDetail struct {
	ItemHeader
	ProductPrice   decimal.Decimal    `json:"product_price"`
	Image          string             `json:"image,omitempty"`
	UrlKey         string             `json:"url_key,omitempty"`
	ReturnStatus   returns.ItemStatus `json:"return_status"`
	ReturnDeadline *time.Time         `json:"return_deadline,omitempty"`
}

type OrderDetail struct {
	OrderSummary
	Items          []ItemDetail             `json:"items"`
	Timeline       []status.TimelineEntry   `json:"timeline"`
	Reasons        []models.ReasonConfig    `json:"reasons"`
	ReturnRequests []entities.ReturnRequest `json:"return_requests"`
	Invoices       []entities.Invoice       `json:"invoices"`
}
