package returns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.faza.io/order-project/storefront-service/domain/models/entities"
)

var now = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func policy(days int) *entities.ReturnPolicy {
	return &entities.ReturnPolicy{DaysLimit: days}
}

func orderItem(id int64, qty int, created time.Time, returnPolicy *entities.ReturnPolicy) entities.OrderItem {
	item := entities.OrderItem{
		OrderItemId: id,
		ProductId:   id * 10,
		ProductName: "Product",
		Qty:         qty,
		Product:     &entities.Product{Id: id * 10, ReturnPolicy: returnPolicy},
	}
	if !created.IsZero() {
		item.CreatedAt = entities.NewTimestamp(created)
	}
	return item
}

func TestGetItemReturnStatus(t *testing.T) {
	recent := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		item     entities.OrderItem
		requests []entities.ReturnRequest
		expected ItemStatus
	}{
		{
			name:     "within window",
			item:     orderItem(1, 1, recent, policy(30)),
			expected: ItemStatus{CanReturn: true},
		},
		{
			name:     "no policy",
			item:     orderItem(1, 1, recent, nil),
			expected: ItemStatus{Disabled: true, Tooltip: TooltipNoReturnPolicy},
		},
		{
			name:     "no product",
			item:     entities.OrderItem{OrderItemId: 1, Qty: 1},
			expected: ItemStatus{Disabled: true, Tooltip: TooltipNoReturnPolicy},
		},
		{
			name: "expired",
			item: orderItem(1, 1, old, policy(30)),
			expected: ItemStatus{
				Disabled: true,
				Tooltip:  "Return window expired: returns are accepted within 30 days, deadline was 2024-01-31",
			},
		},
		{
			name:     "no reference date",
			item:     orderItem(1, 1, time.Time{}, policy(30)),
			expected: ItemStatus{CanReturn: true},
		},
		{
			name:     "deadline reached exactly",
			item:     orderItem(1, 1, now.AddDate(0, 0, -10), policy(10)),
			expected: ItemStatus{CanReturn: true},
		},
		{
			name:     "already returned wins over missing policy",
			item:     orderItem(1, 1, recent, nil),
			requests: []entities.ReturnRequest{{ReturnRequestId: 7, OrderItemId: 1}},
			expected: ItemStatus{Disabled: true, Tooltip: TooltipAlreadyReturned},
		},
		{
			name:     "already returned inside a batch",
			item:     orderItem(1, 1, old, policy(30)),
			requests: []entities.ReturnRequest{{ReturnRequestId: 7, Items: []entities.ReturnRequestItem{{OrderItemId: 1, Quantity: 1}}}},
			expected: ItemStatus{Disabled: true, Tooltip: TooltipAlreadyReturned},
		},
		{
			name:     "request for another item",
			item:     orderItem(1, 1, recent, policy(30)),
			requests: []entities.ReturnRequest{{ReturnRequestId: 7, OrderItemId: 2}},
			expected: ItemStatus{CanReturn: true},
		},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			order := entities.Order{OrderId: 1, Items: []entities.OrderItem{testCase.item}, ReturnRequests: testCase.requests}
			assert.Equal(t, testCase.expected, GetItemReturnStatus(testCase.item, order, now))
		})
	}
}

func TestReturnDeadline(t *testing.T) {
	reference := time.Date(2024, 2, 20, 8, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC), ReturnDeadline(reference, 10))
	assert.Equal(t, reference, ReturnDeadline(reference, -3))
}

func TestClampQuantity(t *testing.T) {
	cases := []struct{ qty, max, expected int }{
		{0, 3, 1},
		{-2, 3, 1},
		{2, 3, 2},
		{9, 3, 3},
		{5, 0, 1},
	}
	for _, testCase := range cases {
		assert.Equal(t, testCase.expected, ClampQuantity(testCase.qty, testCase.max), "qty %d max %d", testCase.qty, testCase.max)
	}
}

func TestResolveReasons(t *testing.T) {
	custom := `["Too small","Too large"]`
	withReasons := entities.Order{Items: []entities.OrderItem{orderItem(1, 1, now, &entities.ReturnPolicy{DaysLimit: 7, RequiredReasons: &custom})}}
	reasons := ResolveReasons(withReasons)
	require.Len(t, reasons, 2)
	assert.Equal(t, "Too small", reasons[0].Key)

	broken := `[`
	fallback := entities.Order{Items: []entities.OrderItem{orderItem(1, 1, now, &entities.ReturnPolicy{DaysLimit: 7, RequiredReasons: &broken})}}
	assert.Len(t, ResolveReasons(fallback), 4)
	assert.Len(t, ResolveReasons(entities.Order{}), 4)
}
