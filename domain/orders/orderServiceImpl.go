package orders

import (
	"context"
	"sync"
	"time"

	"github.com/devfeel/mapper"
	"github.com/pkg/errors"
	"gitlab.faza.io/order-project/storefront-service/domain/models/entities"
	"gitlab.faza.io/order-project/storefront-service/domain/returns"
	"gitlab.faza.io/order-project/storefront-service/domain/status"
	"gitlab.faza.io/order-project/storefront-service/infrastructure/future"
	applog "gitlab.faza.io/order-project/storefront-service/infrastructure/logger"
	storefront_service "gitlab.faza.io/order-project/storefront-service/infrastructure/services/storefront"
	"gitlab.faza.io/order-project/storefront-service/infrastructure/utils"
)

type viewRequest struct {
	id     uint64
	cancel context.CancelFunc
}

type iOrderServiceImpl struct {
	storefront storefront_service.IStorefrontService
	logger     applog.Logger
	clock      func() time.Time

	mutex    sync.Mutex
	inflight map[string]viewRequest
	sequence uint64
}

func NewOrderService(storefront storefront_service.IStorefrontService, logger applog.Logger, clock func() time.Time) IOrderService {
	if logger == nil {
		logger = applog.NewNopLogger()
	}
	if clock == nil {
		clock = time.Now
	}
	return &iOrderServiceImpl{
		storefront: storefront,
		logger:     logger,
		clock:      clock,
		inflight:   make(map[string]viewRequest, 16),
	}
}

func (service *iOrderServiceImpl) ListOrders(ctx context.Context, viewKey, tab string) (*OrderList, error) {
	orders, err := service.fetch(ctx, viewKey)
	if err != nil {
		return nil, err
	}

	if tab == "" {
		tab = status.TabAll
	}
	filtered := status.FilterByTab(orders, tab)
	list := &OrderList{
		Tab:    tab,
		Counts: status.CountByTab(orders),
		Orders: make([]OrderSummary, 0, len(filtered)),
	}

	now := service.clock()
	for _, order := range filtered {
		summary, err := summaryOf(order, now)
		if err != nil {
			service.logger.FromContext(ctx).Error("map order summary failed",
				"fn", "ListOrders",
				"orderId", order.OrderId,
				"error", err)
			return nil, err
		}
		list.Orders = append(list.Orders, summary)
	}
	return list, nil
}

func (service *iOrderServiceImpl) GetOrder(ctx context.Context, viewKey string, orderId int64) (*OrderDetail, error) {
	orders, err := service.fetch(ctx, viewKey)
	if err != nil {
		return nil, err
	}

	order, ok := findOrder(orders, orderId)
	if !ok {
		return nil, ErrOrderNotFound
	}

	detail, err := detailOf(order, service.clock())
	if err != nil {
		service.logger.FromContext(ctx).Error("map order detail failed",
			"fn", "GetOrder",
			"orderId", orderId,
			"error", err)
		return nil, err
	}
	return detail, nil
}

// FetchOrder loads one raw order, it does not take part in view cancellation
func (service *iOrderServiceImpl) FetchOrder(ctx context.Context, orderId int64) (entities.Order, error) {
	orders, err := service.await(ctx, service.storefront.GetUserOrders(ctx))
	if err != nil {
		return entities.Order{}, err
	}

	order, ok := findOrder(orders, orderId)
	if !ok {
		return entities.Order{}, ErrOrderNotFound
	}
	return order, nil
}

// fetch cancels the in flight request of viewKey, if any, and discards the
// result when a newer request of the same key started meanwhile
func (service *iOrderServiceImpl) fetch(ctx context.Context, viewKey string) ([]entities.Order, error) {
	if viewKey == "" {
		return service.await(ctx, service.storefront.GetUserOrders(ctx))
	}

	viewCtx, id, done := service.begin(viewKey)
	defer done()

	requestCtx := utils.ORContext(ctx, viewCtx)
	orders, err := service.await(requestCtx, service.storefront.GetUserOrders(requestCtx))
	if !service.current(viewKey, id) {
		service.logger.FromContext(ctx).Debug("drop superseded orders result",
			"fn", "fetch",
			"viewKey", viewKey)
		return nil, ErrSuperseded
	}
	return orders, err
}

func (service *iOrderServiceImpl) begin(viewKey string) (context.Context, uint64, func()) {
	viewCtx, cancel := context.WithCancel(context.Background())

	service.mutex.Lock()
	if previous, ok := service.inflight[viewKey]; ok {
		previous.cancel()
	}
	service.sequence++
	id := service.sequence
	service.inflight[viewKey] = viewRequest{id: id, cancel: cancel}
	service.mutex.Unlock()

	return viewCtx, id, func() {
		service.mutex.Lock()
		if latest, ok := service.inflight[viewKey]; ok && latest.id == id {
			delete(service.inflight, viewKey)
		}
		service.mutex.Unlock()
		cancel()
	}
}

func (service *iOrderServiceImpl) current(viewKey string, id uint64) bool {
	service.mutex.Lock()
	defer service.mutex.Unlock()
	latest, ok := service.inflight[viewKey]
	return ok && latest.id == id
}

func (service *iOrderServiceImpl) await(ctx context.Context, iFuture future.IFuture) ([]entities.Order, error) {
	futureData := iFuture.GetContext(ctx)
	if futureData == nil {
		return nil, errors.New("storefront closed without a result")
	}

	if futureData.Error() != nil {
		service.logger.FromContext(ctx).Warn("fetch user orders failed",
			"fn", "await",
			"code", futureData.Error().Code(),
			"error", futureData.Error().Message())
		return nil, futureData.Error()
	}

	orders, ok := futureData.Data().([]entities.Order)
	if !ok {
		return nil, errors.Errorf("unexpected storefront result %T", futureData.Data())
	}
	return orders, nil
}

func findOrder(orders []entities.Order, orderId int64) (entities.Order, bool) {
	for _, order := range orders {
		if order.OrderId == orderId {
			return order, true
		}
	}
	return entities.Order{}, false
}

func summaryOf(order entities.Order, now time.Time) (OrderSummary, error) {
	var header OrderHeader
	if err := mapper.AutoMapper(&order, &header); err != nil {
		return OrderSummary{}, errors.Wrap(err, "map order header failed")
	}

	effective := status.ResolveOrder(order)
	summary := OrderSummary{
		OrderHeader:     header,
		ShipmentStatus:  order.ShipmentStatusValue(),
		GrandTotal:      order.GrandTotal,
		EffectiveStatus: effective,
		Tab:             status.TabKey(order.Status),
		ItemCount:       len(order.Items),
		Progress:        status.ComputeProgress(effective),
		CreatedAt:       order.CreatedAt,
	}

	if effective == status.Delivered {
		for _, item := range order.Items {
			if returns.GetItemReturnStatus(item, order, now).CanReturn {
				summary.Returnable = true
				break
			}
		}
	}
	return summary, nil
}

func detailOf(order entities.Order, now time.Time) (*OrderDetail, error) {
	summary, err := summaryOf(order, now)
	if err != nil {
		return nil, err
	}

	detail := &OrderDetail{
		OrderSummary:   summary,
		Items:          make([]ItemDetail, 0, len(order.Items)),
		Timeline:       status.BuildTimeline(order),
		Reasons:        returns.ResolveReasons(order),
		ReturnRequests: order.ReturnRequests,
		Invoices:       order.Invoices,
	}
	if detail.ReturnRequests == nil {
		detail.ReturnRequests = []entities.ReturnRequest{}
	}
	if detail.Invoices == nil {
		detail.Invoices = []entities.Invoice{}
	}

	for _, item := range order.Items {
		var header ItemHeader
		if err := mapper.AutoMapper(&item, &header); err != nil {
			return nil, errors.Wrap(err, "map order item failed")
		}

		itemDetail := ItemDetail{
			ItemHeader:   header,
			ProductPrice: item.ProductPrice,
			ReturnStatus: returns.GetItemReturnStatus(item, order, now),
		}
		if item.Product != nil {
			itemDetail.Image = item.Product.Image
			itemDetail.UrlKey = item.Product.UrlKey
		}
		if policy := item.ReturnPolicy(); policy != nil && !item.CreatedAt.IsZero() {
			deadline := returns.ReturnDeadline(item.CreatedAt.Time, policy.DaysLimit)
			itemDetail.ReturnDeadline = &deadline
		}
		detail.Items = append(detail.Items, itemDetail)
	}
	return detail, nil
}
