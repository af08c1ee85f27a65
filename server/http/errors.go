package http_server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gitlab.faza.io/order-project/storefront-service/domain/orders"
	"gitlab.faza.io/order-project/storefront-service/domain/returns"
	"gitlab.faza.io/order-project/storefront-service/infrastructure/future"
	storefront_service "gitlab.faza.io/order-project/storefront-service/infrastructure/services/storefront"
)

const (
	HeaderSessionReset string = "X-Session-Reset"

	messageInternal     string = "Internal server error"
	messageUnauthorized string = "Missing Authorization header"
	messageFlowNotFound string = "Return flow not found"
)

var futureStatuses = map[future.ErrorCode]int{
	future.BadRequest:      http.StatusBadRequest,
	future.Forbidden:       http.StatusForbidden,
	future.NotFound:        http.StatusNotFound,
	future.NotAccepted:     http.StatusNotAcceptable,
	future.Conflict:        http.StatusConflict,
	future.ValidationError: http.StatusUnprocessableEntity,
	future.InternalError:   http.StatusBadGateway,
}

// statusOf maps a service error to the response status and the message shown
// to the buyer
func statusOf(err error) (int, string) {
	switch {
	case storefront_service.IsInvalidToken(err):
		return http.StatusUnauthorized, messageOf(err)
	case returns.IsValidationError(err):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, orders.ErrOrderNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, orders.ErrSuperseded):
		return http.StatusConflict, err.Error()
	}

	var errorFuture future.IErrorFuture
	if errors.As(err, &errorFuture) {
		if code, ok := futureStatuses[errorFuture.Code()]; ok {
			return code, errorFuture.Message()
		}
		return http.StatusBadGateway, errorFuture.Message()
	}
	return http.StatusInternalServerError, messageInternal
}

func messageOf(err error) string {
	var errorFuture future.IErrorFuture
	if errors.As(err, &errorFuture) && errorFuture.Message() != "" {
		return errorFuture.Message()
	}
	return err.Error()
}

func abortWithMessage(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"message": message})
}
