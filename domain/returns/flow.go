package returns

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gitlab.faza.io/order-project/storefront-service/domain/models"
	"gitlab.faza.io/order-project/storefront-service/domain/models/entities"
	"gitlab.faza.io/order-project/storefront-service/domain/status"
	"gitlab.faza.io/order-project/storefront-service/infrastructure/future"
	applog "gitlab.faza.io/order-project/storefront-service/infrastructure/logger"
	"gitlab.faza.io/order-project/storefront-service/infrastructure/metrics"
)

// IReturnGateway submits return requests to the storefront API
type IReturnGateway interface {
	CreateReturn(ctx context.Context, request entities.CreateReturnRequest) future.IFuture
}

type Option func(flow *Flow)

func WithClock(clock func() time.Time) Option {
	return func(flow *Flow) {
		flow.clock = clock
	}
}

func WithLogger(logger applog.Logger) Option {
	return func(flow *Flow) {
		flow.logger = logger
	}
}

func WithReturnType(returnType string) Option {
	return func(flow *Flow) {
		if returnType != "" {
			flow.returnType = returnType
		}
	}
}

// Flow is one run of the return wizard for one order:
// policy -> items -> reason -> submit, with back navigation and a full reset
// on close. It is safe for concurrent use, and every mutator returns
// ErrSubmissionInFlight while a submission is pending.
type Flow struct {
	mutex      sync.Mutex
	order      entities.Order
	gateway    IReturnGateway
	clock      func() time.Time
	logger     applog.Logger
	returnType string

	step       Step
	selection  Selection
	reason     string
	note       string
	submitting bool
}

func NewFlow(order entities.Order, gateway IReturnGateway, opts ...Option) (*Flow, error) {
	if status.ResolveOrder(order) != status.Delivered {
		return nil, ErrOrderNotReturnable
	}

	flow := &Flow{
		order:      order,
		gateway:    gateway,
		clock:      time.Now,
		logger:     applog.NewNopLogger(),
		returnType: entities.ReturnTypeReturnOnly,
		step:       Policy,
		selection:  make(Selection, len(order.Items)),
	}

	for _, opt := range opts {
		opt(flow)
	}
	return flow, nil
}

func (flow *Flow) Order() entities.Order {
	return flow.order
}

func (flow *Flow) Step() Step {
	flow.mutex.Lock()
	defer flow.mutex.Unlock()
	return flow.step
}

// Advance moves policy -> items unconditionally and items -> reason when at
// least one item is checked
func (flow *Flow) Advance() error {
	flow.mutex.Lock()
	defer flow.mutex.Unlock()
	if flow.submitting {
		return ErrSubmissionInFlight
	}

	switch flow.step {
	case Policy:
		flow.step = Items
	case Items:
		if flow.selection.CheckedCount() == 0 {
			return ErrNoItemsSelected
		}
		flow.step = Reason
	default:
		return ErrInvalidTransition
	}
	return nil
}

func (flow *Flow) Back() error {
	flow.mutex.Lock()
	defer flow.mutex.Unlock()
	if flow.submitting {
		return ErrSubmissionInFlight
	}

	if flow.step > Policy {
		flow.step--
	}
	return nil
}

// Reset closes the flow: back to policy with no selection, reason or note
func (flow *Flow) Reset() error {
	flow.mutex.Lock()
	defer flow.mutex.Unlock()
	if flow.submitting {
		return ErrSubmissionInFlight
	}
	flow.resetLocked()
	return nil
}

func (flow *Flow) resetLocked() {
	flow.step = Policy
	flow.selection = make(Selection, len(flow.order.Items))
	flow.reason = ""
	flow.note = ""
}

func (flow *Flow) ItemStatus(orderItemId int64) (ItemStatus, error) {
	item, ok := flow.order.FindItem(orderItemId)
	if !ok {
		return ItemStatus{}, ErrUnknownItem
	}
	return GetItemReturnStatus(*item, flow.order, flow.clock()), nil
}

// ToggleItem checks or unchecks an eligible item. A newly checked item
// starts with a quantity of one.
func (flow *Flow) ToggleItem(orderItemId int64, checked bool) error {
	item, ok := flow.order.FindItem(orderItemId)
	if !ok {
		return ErrUnknownItem
	}

	if !GetItemReturnStatus(*item, flow.order, flow.clock()).CanReturn {
		return ErrItemNotReturnable
	}

	flow.mutex.Lock()
	defer flow.mutex.Unlock()
	if flow.submitting {
		return ErrSubmissionInFlight
	}

	selected := flow.selection[orderItemId]
	selected.Checked = checked
	selected.Quantity = ClampQuantity(selected.Quantity, item.Qty)
	flow.selection[orderItemId] = selected
	return nil
}

// SetQuantity stores the requested quantity clamped into [1, qty] and
// returns the stored value
func (flow *Flow) SetQuantity(orderItemId int64, quantity int) (int, error) {
	item, ok := flow.order.FindItem(orderItemId)
	if !ok {
		return 0, ErrUnknownItem
	}

	if !GetItemReturnStatus(*item, flow.order, flow.clock()).CanReturn {
		return 0, ErrItemNotReturnable
	}

	flow.mutex.Lock()
	defer flow.mutex.Unlock()
	if flow.submitting {
		return 0, ErrSubmissionInFlight
	}

	selected := flow.selection[orderItemId]
	selected.Quantity = ClampQuantity(quantity, item.Qty)
	flow.selection[orderItemId] = selected
	return selected.Quantity, nil
}

func (flow *Flow) eligibleItems() []entities.OrderItem {
	now := flow.clock()
	eligible := make([]entities.OrderItem, 0, len(flow.order.Items))
	for _, item := range flow.order.Items {
		if GetItemReturnStatus(item, flow.order, now).CanReturn {
			eligible = append(eligible, item)
		}
	}
	return eligible
}

// CanSelectAll is true when at least one item is eligible
func (flow *Flow) CanSelectAll() bool {
	return len(flow.eligibleItems()) > 0
}

// SelectAll sets the checked flag on every eligible item and leaves the
// ineligible ones untouched
func (flow *Flow) SelectAll(checked bool) error {
	eligible := flow.eligibleItems()
	if len(eligible) == 0 {
		return ErrNoEligibleItems
	}

	flow.mutex.Lock()
	defer flow.mutex.Unlock()
	if flow.submitting {
		return ErrSubmissionInFlight
	}

	for _, item := range eligible {
		selected := flow.selection[item.OrderItemId]
		selected.Checked = checked
		selected.Quantity = ClampQuantity(selected.Quantity, item.Qty)
		flow.selection[item.OrderItemId] = selected
	}
	return nil
}

func (flow *Flow) Selection() Selection {
	flow.mutex.Lock()
	defer flow.mutex.Unlock()

	copied := make(Selection, len(flow.selection))
	for id, selected := range flow.selection {
		copied[id] = selected
	}
	return copied
}

func (flow *Flow) Reasons() []models.ReasonConfig {
	return ResolveReasons(flow.order)
}

func (flow *Flow) SetReason(reason string) error {
	flow.mutex.Lock()
	defer flow.mutex.Unlock()
	if flow.submitting {
		return ErrSubmissionInFlight
	}
	flow.reason = strings.TrimSpace(reason)
	return nil
}

func (flow *Flow) SetNote(note string) error {
	flow.mutex.Lock()
	defer flow.mutex.Unlock()
	if flow.submitting {
		return ErrSubmissionInFlight
	}
	flow.note = note
	return nil
}

func (flow *Flow) Submitting() bool {
	flow.mutex.Lock()
	defer flow.mutex.Unlock()
	return flow.submitting
}

// Submit sends the batch return request. On success the flow is reset, on
// failure it stays on the reason step with its state intact so the buyer can
// retry.
func (flow *Flow) Submit(ctx context.Context) (*entities.ReturnRequest, error) {
	flow.mutex.Lock()
	if flow.submitting {
		flow.mutex.Unlock()
		return nil, ErrSubmissionInFlight
	}

	if flow.step != Reason {
		flow.mutex.Unlock()
		return nil, ErrInvalidTransition
	}

	request, err := buildPayload(flow.order, flow.selection, flow.reason, flow.note, flow.returnType)
	if err != nil {
		flow.mutex.Unlock()
		metrics.ReturnSubmissions.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, err
	}
	flow.submitting = true
	flow.mutex.Unlock()

	created, err := flow.send(ctx, request)

	flow.mutex.Lock()
	defer flow.mutex.Unlock()
	flow.submitting = false

	if err != nil {
		metrics.ReturnSubmissions.WithLabelValues(metrics.ResultFailure).Inc()
		flow.logger.FromContext(ctx).Error("submit return request failed",
			"fn", "Submit",
			"orderId", flow.order.OrderId,
			"items", len(request.Items),
			"error", err)
		return nil, err
	}

	metrics.ReturnSubmissions.WithLabelValues(metrics.ResultSuccess).Inc()
	flow.logger.FromContext(ctx).Info("return request submitted",
		"fn", "Submit",
		"orderId", flow.order.OrderId,
		"returnRequestId", created.ReturnRequestId,
		"items", len(request.Items))

	flow.resetLocked()
	return created, nil
}

func (flow *Flow) send(ctx context.Context, request entities.CreateReturnRequest) (*entities.ReturnRequest, error) {
	futureData := flow.gateway.CreateReturn(ctx, request).GetContext(ctx)
	if futureData == nil {
		return nil, errors.New("return gateway closed without a result")
	}

	if futureData.Error() != nil {
		return nil, futureData.Error()
	}

	created, ok := futureData.Data().(entities.ReturnRequest)
	if !ok {
		return nil, errors.Errorf("unexpected return gateway result %T", futureData.Data())
	}
	return &created, nil
}

// ItemView is one row of the items step
type ItemView struct {
	OrderItemId int64                  `json:"order_item_id"`
	ProductId   int64                  `json:"product_id"`
	Name        string                 `json:"name"`
	Qty         int                    `json:"qty"`
	Status      ItemStatus             `json:"status"`
	Selection   ItemSelection          `json:"selection"`
	Policy      *entities.ReturnPolicy `json:"return_policy,omitempty"`
}

type View struct {
	OrderId      int64                 `json:"order_id"`
	OrderNumber  string                `json:"order_number"`
	Step         Step                  `json:"step"`
	Items        []ItemView            `json:"items"`
	CanSelectAll bool                  `json:"can_select_all"`
	Reasons      []models.ReasonConfig `json:"reasons"`
	Reason       string                `json:"reason"`
	Note         string                `json:"note"`
	Submitting   bool                  `json:"submitting"`
}

func (flow *Flow) View() View {
	now := flow.clock()

	flow.mutex.Lock()
	defer flow.mutex.Unlock()

	view := View{
		OrderId:     flow.order.OrderId,
		OrderNumber: flow.order.OrderNumber,
		Step:        flow.step,
		Items:       make([]ItemView, 0, len(flow.order.Items)),
		Reasons:     ResolveReasons(flow.order),
		Reason:      flow.reason,
		Note:        flow.note,
		Submitting:  flow.submitting,
	}

	for _, item := range flow.order.Items {
		itemStatus := GetItemReturnStatus(item, flow.order, now)
		if itemStatus.CanReturn {
			view.CanSelectAll = true
		}

		name := item.ProductName
		if name == "" && item.Product != nil {
			name = item.Product.Name
		}

		view.Items = append(view.Items, ItemView{
			OrderItemId: item.OrderItemId,
			ProductId:   item.ProductId,
			Name:        name,
			Qty:         item.Qty,
			Status:      itemStatus,
			Selection:   flow.selection[item.OrderItemId],
			Policy:      item.ReturnPolicy(),
		})
	}
	return view
}
