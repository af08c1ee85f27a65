package utils

import "context"

type ContextKey string

const (
	CtxUserID    ContextKey = "user-id"
	CtxAuthToken ContextKey = "authorization"
	CtxRealIp    ContextKey = "real-ip"
	CtxUserAgent ContextKey = "user-agent"
	CtxRequestId ContextKey = "request-id"
)

func AuthToken(ctx context.Context) string {
	token, _ := ctx.Value(CtxAuthToken).(string)
	return token
}

func UserID(ctx context.Context) string {
	uid, _ := ctx.Value(CtxUserID).(string)
	return uid
}
