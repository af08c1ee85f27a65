package storefront_service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gitlab.faza.io/order-project/storefront-service/domain/models/entities"
	"gitlab.faza.io/order-project/storefront-service/infrastructure/future"
	applog "gitlab.faza.io/order-project/storefront-service/infrastructure/logger"
	"gitlab.faza.io/order-project/storefront-service/infrastructure/metrics"
	"gitlab.faza.io/order-project/storefront-service/infrastructure/utils"
)

const maxResponseBody int64 = 4 << 20

type iStorefrontServiceImpl struct {
	baseURL string
	client  *http.Client
	logger  applog.Logger
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func NewStorefrontService(baseURL string, timeout time.Duration, logger applog.Logger) IStorefrontService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &iStorefrontServiceImpl{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (storefront iStorefrontServiceImpl) GetUserOrders(ctx context.Context) future.IFuture {
	iFuture := future.Factory().Build()
	go func() {
		data, err := storefront.call(ctx, EndpointUserOrders, http.MethodGet, nil)
		if err != nil {
			future.FactoryOf(iFuture).SetError(err.Code, err.Message, err).Send()
			return
		}

		var orders []entities.Order
		if len(data) > 0 && string(data) != "null" {
			if e := json.Unmarshal(data, &orders); e != nil {
				storefront.logger.FromContext(ctx).Error("decode user orders failed",
					"fn", "GetUserOrders",
					"error", e)
				future.FactoryOf(iFuture).
					SetError(future.InternalError, FallbackMessage, errors.Wrap(e, "decode user orders failed")).
					Send()
				return
			}
		}

		if orders == nil {
			orders = []entities.Order{}
		}
		future.FactoryOf(iFuture).SetData(orders).Send()
	}()
	return iFuture
}

func (storefront iStorefrontServiceImpl) CreateReturn(ctx context.Context, request entities.CreateReturnRequest) future.IFuture {
	iFuture := future.Factory().Build()
	go func() {
		data, err := storefront.call(ctx, EndpointCreateReturn, http.MethodPost, request)
		if err != nil {
			future.FactoryOf(iFuture).SetError(err.Code, err.Message, err).Send()
			return
		}

		var created entities.ReturnRequest
		if len(data) > 0 && string(data) != "null" {
			if e := json.Unmarshal(data, &created); e != nil {
				storefront.logger.FromContext(ctx).Error("decode created return request failed",
					"fn", "CreateReturn",
					"orderId", request.OrderId,
					"error", e)
				future.FactoryOf(iFuture).
					SetError(future.InternalError, FallbackMessage, errors.Wrap(e, "decode return request failed")).
					Send()
				return
			}
		}

		if created.OrderId == 0 {
			created.OrderId = request.OrderId
		}
		future.FactoryOf(iFuture).SetData(created).Send()
	}()
	return iFuture
}

// call executes one request and returns the payload of the success envelope,
// a bare JSON array or object body is accepted as the payload itself
func (storefront iStorefrontServiceImpl) call(ctx context.Context, endpoint, method string, body interface{}) (json.RawMessage, *APIError) {
	data, apiErr := storefront.do(ctx, method, endpoint, body)
	if apiErr != nil {
		result := metrics.ResultFailure
		if isInvalidTokenMessage(apiErr.Message) {
			result = metrics.ResultRejected
		}
		metrics.StorefrontRequests.WithLabelValues(endpoint, result).Inc()
		storefront.logger.FromContext(ctx).Error("storefront request failed",
			"fn", "call",
			"endpoint", endpoint,
			"method", method,
			"status", apiErr.StatusCode,
			"error", apiErr.Message)
		return nil, apiErr
	}

	metrics.StorefrontRequests.WithLabelValues(endpoint, metrics.ResultSuccess).Inc()
	storefront.logger.FromContext(ctx).Debug("storefront request done",
		"fn", "call",
		"endpoint", endpoint,
		"method", method)
	return data, nil
}

func (storefront iStorefrontServiceImpl) do(ctx context.Context, method, endpoint string, body interface{}) (json.RawMessage, *APIError) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, &APIError{Code: future.BadRequest, Message: FallbackMessage}
		}
		reader = bytes.NewBuffer(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, storefront.baseURL+"/"+endpoint, reader)
	if err != nil {
		return nil, &APIError{Code: future.InternalError, Message: FallbackMessage}
	}

	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token := utils.AuthToken(ctx); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+strings.TrimPrefix(token, "Bearer "))
	}

	resp, err := storefront.client.Do(httpReq)
	if err != nil {
		return nil, &APIError{Code: future.InternalError, Message: FallbackMessage}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &APIError{Code: future.InternalError, StatusCode: resp.StatusCode, Message: FallbackMessage}
	}

	trimmed := bytes.TrimSpace(payload)
	var env envelope
	isEnvelope := len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, &env) == nil

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || (isEnvelope && env.Success != nil && !*env.Success) {
		return nil, newAPIError(resp.StatusCode, env)
	}

	if isEnvelope && (env.Success != nil || env.Data != nil) {
		return env.Data, nil
	}
	return trimmed, nil
}

func newAPIError(statusCode int, env envelope) *APIError {
	message := strings.TrimSpace(env.Message)
	if message == "" {
		message = strings.TrimSpace(env.Error)
	}
	if message == "" {
		message = FallbackMessage
	}

	apiErr := &APIError{Code: codeOf(statusCode), StatusCode: statusCode, Message: message}
	if isInvalidTokenMessage(message) {
		apiErr.Code = future.Forbidden
	}
	return apiErr
}

func codeOf(statusCode int) future.ErrorCode {
	switch statusCode {
	case http.StatusBadRequest:
		return future.BadRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		return future.Forbidden
	case http.StatusNotFound:
		return future.NotFound
	case http.StatusNotAcceptable:
		return future.NotAccepted
	case http.StatusConflict:
		return future.Conflict
	case http.StatusUnprocessableEntity:
		return future.ValidationError
	default:
		if statusCode >= 200 && statusCode < 300 {
			return future.BadRequest
		}
		return future.InternalError
	}
}
