package storefront_service

import (
	"context"
	"sync"
	"time"

	"gitlab.faza.io/order-project/storefront-service/domain/models/entities"
	"gitlab.faza.io/order-project/storefront-service/infrastructure/future"
)

// StorefrontServiceMock keeps orders in memory and appends created return
// requests to them, so a later GetUserOrders observes the return
type StorefrontServiceMock struct {
	mutex    sync.Mutex
	orders   []entities.Order
	created  []entities.CreateReturnRequest
	nextId   int64
	failNext *APIError
	clock    func() time.Time
}

func NewStorefrontServiceMock(orders ...entities.Order) *StorefrontServiceMock {
	return &StorefrontServiceMock{
		orders: orders,
		nextId: 1,
		clock:  time.Now,
	}
}

// FailNext makes the next call resolve with err
func (mock *StorefrontServiceMock) FailNext(err *APIError) {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	mock.failNext = err
}

// Created lists the bodies received by CreateReturn
func (mock *StorefrontServiceMock) Created() []entities.CreateReturnRequest {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	return append([]entities.CreateReturnRequest(nil), mock.created...)
}

func (mock *StorefrontServiceMock) GetUserOrders(ctx context.Context) future.IFuture {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()

	if err := mock.takeFailure(ctx); err != nil {
		return future.Factory().SetError(err.Code, err.Message, err).BuildAndSend()
	}

	orders := make([]entities.Order, len(mock.orders))
	copy(orders, mock.orders)
	return future.Factory().SetData(orders).BuildAndSend()
}

func (mock *StorefrontServiceMock) CreateReturn(ctx context.Context, request entities.CreateReturnRequest) future.IFuture {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()

	if err := mock.takeFailure(ctx); err != nil {
		return future.Factory().SetError(err.Code, err.Message, err).BuildAndSend()
	}

	index := -1
	for i := range mock.orders {
		if mock.orders[i].OrderId == request.OrderId {
			index = i
			break
		}
	}
	if index < 0 {
		err := &APIError{Code: future.NotFound, StatusCode: 404, Message: "Order not found"}
		return future.Factory().SetError(err.Code, err.Message, err).BuildAndSend()
	}

	mock.created = append(mock.created, request)
	returnRequest := entities.ReturnRequest{
		ReturnRequestId: mock.nextId,
		OrderId:         request.OrderId,
		Reason:          request.Reason,
		Type:            request.Type,
		Status:          entities.ReturnStatusPending,
		Items:           append([]entities.ReturnRequestItem(nil), request.Items...),
		CreatedAt:       entities.NewTimestamp(mock.clock()),
	}
	if request.Note != nil {
		returnRequest.Note = *request.Note
	}
	mock.nextId++

	// copy on write, slices already handed out stay untouched
	order := mock.orders[index]
	order.ReturnRequests = append(append([]entities.ReturnRequest(nil), order.ReturnRequests...), returnRequest)
	orders := make([]entities.Order, len(mock.orders))
	copy(orders, mock.orders)
	orders[index] = order
	mock.orders = orders

	return future.Factory().SetData(returnRequest).BuildAndSend()
}

func (mock *StorefrontServiceMock) takeFailure(ctx context.Context) *APIError {
	if ctx.Err() != nil {
		return &APIError{Code: future.InternalError, Message: FallbackMessage}
	}
	err := mock.failNext
	mock.failNext = nil
	return err
}
