package http_server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gitlab.faza.io/order-project/storefront-service/domain/orders"
	"gitlab.faza.io/order-project/storefront-service/domain/returns"
)

type openFlowRequest struct {
	OrderId int64 `json:"order_id" binding:"required"`
}

type itemRequest struct {
	Checked  *bool `json:"checked"`
	Quantity *int  `json:"quantity"`
}

type selectAllRequest struct {
	Checked bool `json:"checked"`
}

type reasonRequest struct {
	Reason string  `json:"reason"`
	Note   *string `json:"note"`
}

type flowResponse struct {
	FlowId string       `json:"flow_id"`
	Flow   returns.View `json:"flow"`
}

type returnHandler struct {
	baseHandler
	orders     orders.IOrderService
	gateway    returns.IReturnGateway
	clock      func() time.Time
	returnType string
}

// OpenFlow handles POST /returns/flows
func (handler returnHandler) OpenFlow(c *gin.Context) {
	var request openFlowRequest
	if !bindJSON(c, &request) {
		return
	}

	order, err := handler.orders.FetchOrder(c.Request.Context(), request.OrderId)
	if err != nil {
		handler.fail(c, "OpenFlow", err)
		return
	}

	flow, err := returns.NewFlow(order, handler.gateway,
		returns.WithClock(handler.clock),
		returns.WithLogger(handler.logger),
		returns.WithReturnType(handler.returnType))
	if err != nil {
		handler.fail(c, "OpenFlow", err)
		return
	}

	flowId := handler.flows.Open(Owner(c), flow)
	handler.logger.FromContext(c.Request.Context()).Debug("return flow opened",
		"fn", "OpenFlow",
		"flowId", flowId,
		"orderId", order.OrderId)
	c.JSON(http.StatusCreated, flowResponse{FlowId: flowId, Flow: flow.View()})
}

func (handler returnHandler) flowOf(c *gin.Context) (*returns.Flow, bool) {
	flow, ok := handler.flows.Get(Owner(c), c.Param("flowId"))
	if !ok {
		abortWithMessage(c, http.StatusNotFound, messageFlowNotFound)
		return nil, false
	}
	return flow, true
}

func (handler returnHandler) respond(c *gin.Context, flow *returns.Flow) {
	c.JSON(http.StatusOK, flowResponse{FlowId: c.Param("flowId"), Flow: flow.View()})
}

// GetFlow handles GET /returns/flows/:flowId
func (handler returnHandler) GetFlow(c *gin.Context) {
	if flow, ok := handler.flowOf(c); ok {
		handler.respond(c, flow)
	}
}

// Advance handles POST /returns/flows/:flowId/advance
func (handler returnHandler) Advance(c *gin.Context) {
	flow, ok := handler.flowOf(c)
	if !ok {
		return
	}
	if err := flow.Advance(); err != nil {
		handler.fail(c, "Advance", err)
		return
	}
	handler.respond(c, flow)
}

// Back handles POST /returns/flows/:flowId/back
func (handler returnHandler) Back(c *gin.Context) {
	flow, ok := handler.flowOf(c)
	if !ok {
		return
	}
	if err := flow.Back(); err != nil {
		handler.fail(c, "Back", err)
		return
	}
	handler.respond(c, flow)
}

// Reset handles POST /returns/flows/:flowId/reset
func (handler returnHandler) Reset(c *gin.Context) {
	flow, ok := handler.flowOf(c)
	if !ok {
		return
	}
	if err := flow.Reset(); err != nil {
		handler.fail(c, "Reset", err)
		return
	}
	handler.respond(c, flow)
}

// UpdateItem handles PUT /returns/flows/:flowId/items/:itemId
func (handler returnHandler) UpdateItem(c *gin.Context) {
	flow, ok := handler.flowOf(c)
	if !ok {
		return
	}
	itemId, ok := int64Param(c, "itemId")
	if !ok {
		return
	}

	var request itemRequest
	if !bindJSON(c, &request) {
		return
	}

	if request.Checked != nil {
		if err := flow.ToggleItem(itemId, *request.Checked); err != nil {
			handler.fail(c, "UpdateItem", err)
			return
		}
	}
	if request.Quantity != nil {
		if _, err := flow.SetQuantity(itemId, *request.Quantity); err != nil {
			handler.fail(c, "UpdateItem", err)
			return
		}
	}
	handler.respond(c, flow)
}

// SelectAll handles PUT /returns/flows/:flowId/select-all
func (handler returnHandler) SelectAll(c *gin.Context) {
	flow, ok := handler.flowOf(c)
	if !ok {
		return
	}

	var request selectAllRequest
	if !bindJSON(c, &request) {
		return
	}

	if err := flow.SelectAll(request.Checked); err != nil {
		handler.fail(c, "SelectAll", err)
		return
	}
	handler.respond(c, flow)
}

// SetReason handles PUT /returns/flows/:flowId/reason
func (handler returnHandler) SetReason(c *gin.Context) {
	flow, ok := handler.flowOf(c)
	if !ok {
		return
	}

	var request reasonRequest
	if !bindJSON(c, &request) {
		return
	}

	if err := flow.SetReason(request.Reason); err != nil {
		handler.fail(c, "SetReason", err)
		return
	}
	if request.Note != nil {
		if err := flow.SetNote(*request.Note); err != nil {
			handler.fail(c, "SetReason", err)
			return
		}
	}
	handler.respond(c, flow)
}

// Submit handles POST /returns/flows/:flowId/submit. A submitted flow is
// closed, the order has to be fetched again for another return.
func (handler returnHandler) Submit(c *gin.Context) {
	flow, ok := handler.flowOf(c)
	if !ok {
		return
	}

	created, err := flow.Submit(c.Request.Context())
	if err != nil {
		handler.fail(c, "Submit", err)
		return
	}

	handler.flows.Close(Owner(c), c.Param("flowId"))
	c.JSON(http.StatusCreated, gin.H{"return_request": created})
}
