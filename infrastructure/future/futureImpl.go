package future

import (
	"context"
	"fmt"
)

type stream chan IDataFuture

type iFutureImpl struct {
	channel stream
}

func (future iFutureImpl) Get() IDataFuture {
	futureData, ok := <-future.channel
	if !ok {
		return nil
	}
	return futureData
}

// GetContext waits for the result or for ctx, whichever comes first. A done
// ctx yields an InternalError carrying ctx.Err() and leaves the result unread.
func (future iFutureImpl) GetContext(ctx context.Context) IDataFuture {
	select {
	case futureData, ok := <-future.channel:
		if !ok {
			return nil
		}
		return futureData
	case <-ctx.Done():
		return iDataFutureImpl{futureError: iErrorFutureImpl{
			code:    InternalError,
			message: "Request cancelled",
			reason:  ctx.Err(),
		}}
	}
}

type iDataFutureImpl struct {
	data        interface{}
	futureError IErrorFuture
}

func (futureData iDataFutureImpl) Data() interface{} {
	return futureData.data
}

func (futureData iDataFutureImpl) Error() IErrorFuture {
	return futureData.futureError
}

type iErrorFutureImpl struct {
	code    ErrorCode
	message string
	reason  error
}

func (errorFuture iErrorFutureImpl) Code() ErrorCode {
	return errorFuture.code
}

func (errorFuture iErrorFutureImpl) Message() string {
	return errorFuture.message
}

func (errorFuture iErrorFutureImpl) Reason() error {
	return errorFuture.reason
}

func (errorFuture iErrorFutureImpl) Error() string {
	if errorFuture.reason == nil {
		return fmt.Sprintf("err code: %d, message: %s", errorFuture.code, errorFuture.message)
	}
	return fmt.Sprintf("err code: %d, message: %s, reason: %s", errorFuture.code,
		errorFuture.message, errorFuture.reason)
}

func (errorFuture iErrorFutureImpl) Unwrap() error {
	return errorFuture.reason
}
