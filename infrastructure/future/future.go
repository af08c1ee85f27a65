package future

import (
	"context"
)

//400 - Bad Request - Any request not properly formatted for the server to understand and parse it
//403 - Forbidden - authentication errors, an expired or invalid token
//404 - Any requested entity which is not being found on the server
//406 - Not Accepted - an attempt on an expired action, such as returning an item after its window
//409 - Conflict - a duplicate entity
//422 - Validation Errors
//500 - Internal or transport errors

type ErrorCode int32

const (
	BadRequest      ErrorCode = 400
	Forbidden       ErrorCode = 403
	NotFound        ErrorCode = 404
	NotAccepted     ErrorCode = 406
	Conflict        ErrorCode = 409
	ValidationError ErrorCode = 422
	InternalError   ErrorCode = 500
)

type IFuture interface {
	Get() IDataFuture
	GetContext(ctx context.Context) IDataFuture
}

type IDataFuture interface {
	Data() interface{}
	Error() IErrorFuture
}

type IErrorFuture interface {
	error
	Code() ErrorCode
	Message() string
	Reason() error
}
