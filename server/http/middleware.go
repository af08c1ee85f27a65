package http_server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	applog "gitlab.faza.io/order-project/storefront-service/infrastructure/logger"
	"gitlab.faza.io/order-project/storefront-service/infrastructure/utils"
)

const (
	HeaderRequestId    string = "X-Request-Id"
	HeaderUserId       string = "X-User-Id"
	HeaderViewKey      string = "X-View-Key"
	HeaderGuestSession string = "X-Guest-Session"
)

const (
	keyUserId    string = "user_id"
	keyAuthToken string = "auth_token"
	keyOwner     string = "owner"
)

const guestOwnerPrefix string = "guest-"

// ownerNamespace seeds the name based ids derived from bearer tokens
var ownerNamespace = uuid.MustParse("6f1d3c2a-8b52-4c1e-9a57-3e0f4b7d2c91")

func corsMiddleware(allowOrigins []string) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", HeaderUserId, HeaderViewKey, HeaderRequestId, HeaderGuestSession},
		ExposeHeaders: []string{"Content-Length", "Content-Type", HeaderRequestId, HeaderSessionReset, HeaderGuestSession},
		MaxAge:        time.Hour,
	}
	if len(allowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowOrigins
		corsConfig.AllowCredentials = true
	}
	return cors.New(corsConfig)
}

// requestContext copies the request id, credentials and client details into
// the request context, where the logger and the storefront client read them
func requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestId := c.GetHeader(HeaderRequestId)
		if requestId == "" {
			requestId = uuid.NewString()
		}
		c.Header(HeaderRequestId, requestId)

		ctx := context.WithValue(c.Request.Context(), utils.CtxRequestId, requestId)
		ctx = context.WithValue(ctx, utils.CtxRealIp, c.ClientIP())
		ctx = context.WithValue(ctx, utils.CtxUserAgent, c.Request.UserAgent())

		if token := bearerToken(c.GetHeader("Authorization")); token != "" {
			ctx = context.WithValue(ctx, utils.CtxAuthToken, token)
			c.Set(keyAuthToken, token)
			c.Set(keyOwner, tokenOwner(token))
		}

		if userId := strings.TrimSpace(c.GetHeader(HeaderUserId)); userId != "" {
			ctx = context.WithValue(ctx, utils.CtxUserID, userId)
			c.Set(keyUserId, userId)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// tokenOwner derives a stable owner id from the bearer token, so per buyer
// state is only reachable by the holder of that token
func tokenOwner(token string) string {
	return uuid.NewSHA1(ownerNamespace, []byte(token)).String()
}

// requireAuth rejects requests that reach the storefront API without a token
func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(keyAuthToken); !ok {
			abortWithMessage(c, http.StatusUnauthorized, messageUnauthorized)
			return
		}
		c.Next()
	}
}

// guestSession lets guests reach the routes behind it under a server issued
// session id echoed in X-Guest-Session. A request naming a user id must carry
// that user's token.
func guestSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(keyOwner); ok {
			c.Next()
			return
		}
		if UserId(c) != "" {
			abortWithMessage(c, http.StatusUnauthorized, messageUnauthorized)
			return
		}

		sessionId, err := uuid.Parse(c.GetHeader(HeaderGuestSession))
		if err != nil {
			sessionId = uuid.New()
		}
		c.Header(HeaderGuestSession, sessionId.String())
		c.Set(keyOwner, guestOwnerPrefix+sessionId.String())
		c.Next()
	}
}

func accessLog(logger applog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		logger.FromContext(c.Request.Context()).Info("request served",
			"fn", "accessLog",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(startTime).String())
	}
}

func recovery(logger applog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.FromContext(c.Request.Context()).Error("http panic recovered",
			"fn", "recovery",
			"path", c.Request.URL.Path,
			"panic", recovered)
		abortWithMessage(c, http.StatusInternalServerError, messageInternal)
	})
}

// UserId returns the buyer id sent by the client, it is only used for logging
func UserId(c *gin.Context) string {
	return c.GetString(keyUserId)
}

// Owner returns the id per buyer state is kept under, "" when the request
// carries neither a token nor a guest session
func Owner(c *gin.Context) string {
	return c.GetString(keyOwner)
}

// viewKey scopes request cancellation to one buyer and one view
func viewKey(c *gin.Context) string {
	key := c.GetHeader(HeaderViewKey)
	if key == "" {
		key = c.Request.URL.Path
	}
	return Owner(c) + "|" + key
}
