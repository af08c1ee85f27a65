package http_server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gitlab.faza.io/order-project/storefront-service/domain/orders"
	"gitlab.faza.io/order-project/storefront-service/domain/status"
	applog "gitlab.faza.io/order-project/storefront-service/infrastructure/logger"
)

type baseHandler struct {
	flows  *FlowRegistry
	logger applog.Logger
}

// fail writes the error response. An expired token also drops the buyer's
// open flows and tells the client to reset its session.
func (handler baseHandler) fail(c *gin.Context, fn string, err error) {
	code, message := statusOf(err)
	logger := handler.logger.FromContext(c.Request.Context())

	switch {
	case code == http.StatusUnauthorized:
		c.Header(HeaderSessionReset, "true")
		dropped := 0
		if owner := Owner(c); owner != "" {
			dropped = handler.flows.DropOwner(owner)
		}
		logger.Warn("storefront session expired, resetting", "fn", fn, "droppedFlows", dropped)
	case code >= http.StatusInternalServerError:
		logger.Error("request failed", "fn", fn, "status", code, "error", err)
	default:
		logger.Debug("request rejected", "fn", fn, "status", code, "error", err)
	}

	abortWithMessage(c, code, message)
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	value, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || value <= 0 {
		abortWithMessage(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return value, true
}

type orderHandler struct {
	baseHandler
	orders orders.IOrderService
}

// ListOrders handles GET /orders?tab=
func (handler orderHandler) ListOrders(c *gin.Context) {
	tab := c.Query("tab")
	if tab != "" && !knownTab(tab) {
		abortWithMessage(c, http.StatusBadRequest, "unknown tab "+strconv.Quote(tab))
		return
	}

	list, err := handler.orders.ListOrders(c.Request.Context(), viewKey(c), tab)
	if err != nil {
		handler.fail(c, "ListOrders", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetOrder handles GET /orders/:orderId
func (handler orderHandler) GetOrder(c *gin.Context) {
	orderId, ok := int64Param(c, "orderId")
	if !ok {
		return
	}

	detail, err := handler.orders.GetOrder(c.Request.Context(), viewKey(c), orderId)
	if err != nil {
		handler.fail(c, "GetOrder", err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func knownTab(tab string) bool {
	for _, known := range status.Tabs {
		if known == tab {
			return true
		}
	}
	return false
}

func bindJSON(c *gin.Context, request interface{}) bool {
	if err := c.ShouldBindJSON(request); err != nil {
		abortWithMessage(c, http.StatusBadRequest, errors.Wrap(err, "invalid request body").Error())
		return false
	}
	return true
}
