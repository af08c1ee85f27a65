package http_server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gitlab.faza.io/order-project/storefront-service/domain/orders"
	"gitlab.faza.io/order-project/storefront-service/domain/returns"
	"gitlab.faza.io/order-project/storefront-service/domain/wishlist"
	applog "gitlab.faza.io/order-project/storefront-service/infrastructure/logger"
)

type Config struct {
	Address      string
	Port         uint16
	AllowOrigins []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Dependencies are the services the facade exposes
type Dependencies struct {
	Orders     orders.IOrderService
	Gateway    returns.IReturnGateway
	Wishlists  *wishlist.StoreRegistry
	Flows      *FlowRegistry
	Gatherer   prometheus.Gatherer
	Logger     applog.Logger
	Clock      func() time.Time
	ReturnType string
}

type Server struct {
	config     Config
	logger     applog.Logger
	router     *gin.Engine
	httpServer *http.Server
}

func NewServer(config Config, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = applog.NewNopLogger()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Flows == nil {
		deps.Flows = NewFlowRegistry(DefaultFlowTTL, deps.Clock)
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	router := setupRouter(config, deps)
	return &Server{
		config: config,
		logger: deps.Logger,
		router: router,
		httpServer: &http.Server{
			Addr:         net.JoinHostPort(config.Address, strconv.Itoa(int(config.Port))),
			Handler:      router,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
		},
	}
}

func setupRouter(config Config, deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(recovery(deps.Logger), corsMiddleware(config.AllowOrigins), requestContext(), accessLog(deps.Logger))

	base := baseHandler{flows: deps.Flows, logger: deps.Logger}
	orderApi := orderHandler{baseHandler: base, orders: deps.Orders}
	returnApi := returnHandler{
		baseHandler: base,
		orders:      deps.Orders,
		gateway:     deps.Gateway,
		clock:       deps.Clock,
		returnType:  deps.ReturnType,
	}
	wishlistApi := wishlistHandler{baseHandler: base, stores: deps.Wishlists}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))

	orderGroup := router.Group("/orders", requireAuth())
	{
		orderGroup.GET("", orderApi.ListOrders)
		orderGroup.GET("/:orderId", orderApi.GetOrder)
	}

	flowGroup := router.Group("/returns/flows", requireAuth())
	{
		flowGroup.POST("", returnApi.OpenFlow)
		flowGroup.GET("/:flowId", returnApi.GetFlow)
		flowGroup.POST("/:flowId/advance", returnApi.Advance)
		flowGroup.POST("/:flowId/back", returnApi.Back)
		flowGroup.POST("/:flowId/reset", returnApi.Reset)
		flowGroup.PUT("/:flowId/items/:itemId", returnApi.UpdateItem)
		flowGroup.PUT("/:flowId/select-all", returnApi.SelectAll)
		flowGroup.PUT("/:flowId/reason", returnApi.SetReason)
		flowGroup.POST("/:flowId/submit", returnApi.Submit)
	}

	// guests keep a wishlist too, under their guest session
	wishlistGroup := router.Group("/wishlist", guestSession())
	{
		wishlistGroup.GET("", wishlistApi.List)
		wishlistGroup.DELETE("", wishlistApi.Clear)
		wishlistGroup.POST("", wishlistApi.Add)
		wishlistGroup.POST("/toggle", wishlistApi.Toggle)
		wishlistGroup.GET("/:productId", wishlistApi.IsLiked)
		wishlistGroup.DELETE("/:productId", wishlistApi.Remove)
	}
	return router
}

func (server *Server) Handler() http.Handler {
	return server.router
}

// Start blocks until Shutdown is called or listening fails
func (server *Server) Start() error {
	server.logger.Info("HTTP server started", "fn", "Start", "address", server.httpServer.Addr)
	if err := server.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		server.logger.Error("HTTP server start failed", "fn", "Start", "error", err)
		return errors.Wrap(err, "http listen failed")
	}
	return nil
}

func (server *Server) Shutdown(ctx context.Context) error {
	if err := server.httpServer.Shutdown(ctx); err != nil {
		server.logger.Warn("HTTP server forced to shutdown", "fn", "Shutdown", "error", err)
		return errors.Wrap(err, "http shutdown failed")
	}
	return nil
}
