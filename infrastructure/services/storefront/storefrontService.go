package storefront_service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gitlab.faza.io/order-project/storefront-service/domain/models/entities"
	"gitlab.faza.io/order-project/storefront-service/infrastructure/future"
)

const (
	EndpointUserOrders   string = "orders/user"
	EndpointCreateReturn string = "returns"
)

// FallbackMessage is used when the response body carries no readable message
const FallbackMessage string = "Request failed"

// IStorefrontService resolves to []entities.Order for GetUserOrders and
// entities.ReturnRequest for CreateReturn
type IStorefrontService interface {
	GetUserOrders(ctx context.Context) future.IFuture
	CreateReturn(ctx context.Context, request entities.CreateReturnRequest) future.IFuture
}

// APIError is the reason of every failed storefront call
type APIError struct {
	Code       future.ErrorCode
	StatusCode int
	Message    string
}

func (err *APIError) Error() string {
	if err.StatusCode == 0 {
		return fmt.Sprintf("storefront api: %s", err.Message)
	}
	return fmt.Sprintf("storefront api, status %d: %s", err.StatusCode, err.Message)
}

// IsInvalidToken reports the authentication expiry case, callers reset the
// session instead of offering a retry
func IsInvalidToken(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return isInvalidTokenMessage(apiErr.Message)
}

func isInvalidTokenMessage(message string) bool {
	return strings.Contains(strings.ToLower(message), "invalid token")
}
