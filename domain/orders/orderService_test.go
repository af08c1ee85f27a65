package orders

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.faza.io/order-project/storefront-service/domain/models/entities"
	"gitlab.faza.io/order-project/storefront-service/domain/returns"
	"gitlab.faza.io/order-project/storefront-service/domain/status"
	"gitlab.faza.io/order-project/storefront-service/infrastructure/future"
	storefront_service "gitlab.faza.io/order-project/storefront-service/infrastructure/services/storefront"
)

var now = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func shipment(value string) *string { return &value }

func deliveredOrder() entities.Order {
	placed := entities.NewTimestamp(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	return entities.Order{
		OrderId:        100,
		OrderNumber:    "ORD-100",
		Status:         entities.OrderStatusShipped,
		ShipmentStatus: shipment("delivered"),
		PaymentStatus:  entities.PaymentStatusPaid,
		GrandTotal:     decimal.RequireFromString("59.90"),
		Currency:       "USD",
		CreatedAt:      placed,
		Items: []entities.OrderItem{
			{
				OrderItemId:  1,
				ProductId:    11,
				ProductName:  "Lamp",
				Qty:          2,
				ProductPrice: decimal.RequireFromString("19.95"),
				CreatedAt:    placed,
				Product: &entities.Product{
					Id:           11,
					Image:        "lamp.jpg",
					UrlKey:       "lamp",
					ReturnPolicy: &entities.ReturnPolicy{DaysLimit: 30},
				},
			},
			{
				OrderItemId: 2,
				ProductId:   12,
				ProductName: "Gift card",
				Qty:         1,
				CreatedAt:   placed,
				Product:     &entities.Product{Id: 12},
			},
		},
	}
}

func fixtureOrders() []entities.Order {
	pending := entities.Order{OrderId: 101, OrderNumber: "ORD-101", Status: entities.OrderStatusPending, PaymentStatus: entities.PaymentStatusPending}
	cancelled := entities.Order{OrderId: 102, OrderNumber: "ORD-102", Status: entities.OrderStatusCancelled, PaymentStatus: entities.PaymentStatusCancelled}
	return []entities.Order{deliveredOrder(), pending, cancelled}
}

func TestListOrders(t *testing.T) {
	service := NewOrderService(storefront_service.NewStorefrontServiceMock(fixtureOrders()...), nil, clock)

	list, err := service.ListOrders(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, status.TabAll, list.Tab)
	require.Len(t, list.Orders, 3)
	assert.Equal(t, 3, list.Counts[status.TabAll])
	assert.Equal(t, 1, list.Counts[status.TabShipped])
	assert.Equal(t, 1, list.Counts[status.TabCancelled])
	assert.Equal(t, 0, list.Counts[status.TabDelivered])

	summary := list.Orders[0]
	assert.Equal(t, int64(100), summary.OrderId)
	assert.Equal(t, "ORD-100", summary.OrderNumber)
	assert.Equal(t, "USD", summary.Currency)
	assert.Equal(t, "59.9", summary.GrandTotal.String())
	assert.Equal(t, status.Delivered, summary.EffectiveStatus)
	assert.Equal(t, 100, summary.Progress.Percent)
	assert.Equal(t, 2, summary.ItemCount)
	assert.True(t, summary.Returnable)

	assert.Equal(t, status.Cancelled, list.Orders[2].EffectiveStatus)
	assert.False(t, list.Orders[2].Returnable)
}

func TestListOrders_FilterByTab(t *testing.T) {
	service := NewOrderService(storefront_service.NewStorefrontServiceMock(fixtureOrders()...), nil, clock)

	list, err := service.ListOrders(context.Background(), "orders", status.TabPending)
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, int64(101), list.Orders[0].OrderId)
	assert.Equal(t, 3, list.Counts[status.TabAll])
}

func TestListOrders_ApiError(t *testing.T) {
	mock := storefront_service.NewStorefrontServiceMock()
	mock.FailNext(&storefront_service.APIError{Code: future.Forbidden, Message: "Invalid token"})
	service := NewOrderService(mock, nil, clock)

	_, err := service.ListOrders(context.Background(), "", "")
	require.Error(t, err)
	assert.True(t, storefront_service.IsInvalidToken(err))
}

func TestGetOrder(t *testing.T) {
	service := NewOrderService(storefront_service.NewStorefrontServiceMock(fixtureOrders()...), nil, clock)

	detail, err := service.GetOrder(context.Background(), "order:100", 100)
	require.NoError(t, err)
	assert.Equal(t, "ORD-100", detail.OrderNumber)
	require.Len(t, detail.Items, 2)

	lamp := detail.Items[0]
	assert.Equal(t, int64(1), lamp.OrderItemId)
	assert.Equal(t, "Lamp", lamp.ProductName)
	assert.Equal(t, 2, lamp.Qty)
	assert.Equal(t, "19.95", lamp.ProductPrice.String())
	assert.Equal(t, "lamp.jpg", lamp.Image)
	assert.True(t, lamp.ReturnStatus.CanReturn)
	require.NotNil(t, lamp.ReturnDeadline)
	assert.Equal(t, "2024-04-09", lamp.ReturnDeadline.Format("2006-01-02"))

	giftCard := detail.Items[1]
	assert.False(t, giftCard.ReturnStatus.CanReturn)
	assert.Equal(t, returns.TooltipNoReturnPolicy, giftCard.ReturnStatus.Tooltip)
	assert.Nil(t, giftCard.ReturnDeadline)

	assert.NotEmpty(t, detail.Timeline)
	assert.Len(t, detail.Reasons, 4)
	assert.NotNil(t, detail.ReturnRequests)

	_, err = service.GetOrder(context.Background(), "order:404", 404)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderDetail_JSONIsFlat(t *testing.T) {
	service := NewOrderService(storefront_service.NewStorefrontServiceMock(deliveredOrder()), nil, clock)
	detail, err := service.GetOrder(context.Background(), "", 100)
	require.NoError(t, err)

	payload, err := json.Marshal(detail)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "ORD-100", decoded["order_number"])
	assert.Equal(t, "delivered", decoded["effective_status"])
	items := decoded["items"].([]interface{})
	assert.Equal(t, "Lamp", items[0].(map[string]interface{})["product_name"])
}

func TestFetchOrder(t *testing.T) {
	service := NewOrderService(storefront_service.NewStorefrontServiceMock(fixtureOrders()...), nil, clock)

	order, err := service.FetchOrder(context.Background(), 102)
	require.NoError(t, err)
	assert.Equal(t, "ORD-102", order.OrderNumber)

	_, err = service.FetchOrder(context.Background(), 1)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

// blockingStorefront resolves a GetUserOrders call only when its context is
// done or release is closed
type blockingStorefront struct {
	started chan struct{}
	release chan struct{}
	orders  []entities.Order
}

func (storefront *blockingStorefront) GetUserOrders(ctx context.Context) future.IFuture {
	iFuture := future.Factory().Build()
	storefront.started <- struct{}{}
	go func() {
		select {
		case <-ctx.Done():
			future.FactoryOf(iFuture).SetError(future.InternalError, storefront_service.FallbackMessage, ctx.Err()).Send()
		case <-storefront.release:
			future.FactoryOf(iFuture).SetData(storefront.orders).Send()
		}
	}()
	return iFuture
}

func (storefront *blockingStorefront) CreateReturn(ctx context.Context, request entities.CreateReturnRequest) future.IFuture {
	return future.Factory().SetError(future.InternalError, "not supported", nil).BuildAndSend()
}

func TestListOrders_SameViewKeySupersedes(t *testing.T) {
	storefront := &blockingStorefront{
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
		orders:  fixtureOrders(),
	}
	service := NewOrderService(storefront, nil, clock)

	firstErr := make(chan error, 1)
	go func() {
		_, err := service.ListOrders(context.Background(), "orders", "")
		firstErr <- err
	}()
	<-storefront.started

	secondResult := make(chan *OrderList, 1)
	go func() {
		list, err := service.ListOrders(context.Background(), "orders", "")
		assert.NoError(t, err)
		secondResult <- list
	}()
	<-storefront.started

	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(3 * time.Second):
		t.Fatal("first request was not cancelled")
	}

	close(storefront.release)
	select {
	case list := <-secondResult:
		require.NotNil(t, list)
		assert.Len(t, list.Orders, 3)
	case <-time.After(3 * time.Second):
		t.Fatal("second request did not resolve")
	}
}

func TestListOrders_DifferentViewKeysIndependent(t *testing.T) {
	storefront := &blockingStorefront{
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
		orders:  fixtureOrders(),
	}
	service := NewOrderService(storefront, nil, clock)

	results := make(chan error, 2)
	for _, key := range []string{"order:100", "order:101"} {
		go func(key string) {
			_, err := service.ListOrders(context.Background(), key, "")
			results <- err
		}(key)
		<-storefront.started
	}

	close(storefront.release)
	for i := 0; i < 2; i++ {
		select {
		case err := <-results:
			assert.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Fatal("request did not resolve")
		}
	}
}
