package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"gitlab.faza.io/order-project/storefront-service/app"
	"gitlab.faza.io/order-project/storefront-service/configs"
	"gitlab.faza.io/order-project/storefront-service/domain/orders"
	applog "gitlab.faza.io/order-project/storefront-service/infrastructure/logger"
	"gitlab.faza.io/order-project/storefront-service/infrastructure/metrics"
	grpc_server "gitlab.faza.io/order-project/storefront-service/server/grpc"
	http_server "gitlab.faza.io/order-project/storefront-service/server/http"
)

var MainApp struct {
	grpcServer *grpc_server.Server
	httpServer *http_server.Server
}

func main() {
	app.Globals.ZapLogger = applog.InitZap()
	app.Globals.Logger = applog.NewZapLogger(app.Globals.ZapLogger)
	applog.GLog.ZapLogger = app.Globals.ZapLogger
	applog.GLog.Logger = app.Globals.Logger
	defer func() { _ = app.Globals.ZapLogger.Sync() }()

	var err error
	if os.Getenv("APP_ENV") == "dev" {
		app.Globals.Config, err = configs.LoadConfig("./testdata/.env")
	} else {
		app.Globals.Config, err = configs.LoadConfig("")
	}
	if err != nil {
		app.Globals.Logger.Error("LoadConfig of main init failed", "fn", "main", "error", err)
		os.Exit(1)
	}
	config := *app.Globals.Config
	gin.SetMode(config.App.ServiceMode)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		app.Globals.Logger.Error("metrics registration failed", "fn", "main", "error", err)
		os.Exit(1)
	}

	setupCtx, setupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	app.Globals.WishlistStorage, app.Globals.WishlistNotifier, err = app.SetupWishlistStorage(setupCtx, config)
	setupCancel()
	if err != nil {
		app.Globals.Logger.Error("wishlist storage setup failed", "fn", "main", "backend", config.Wishlist.Backend, "error", err)
		os.Exit(1)
	}

	app.Globals.StorefrontService = app.SetupStorefrontService(config)
	app.Globals.OrderService = orders.NewOrderService(app.Globals.StorefrontService, app.Globals.Logger, time.Now)
	app.Globals.Wishlists = app.SetupWishlists(config)

	MainApp.grpcServer = grpc_server.NewServer(config.GRPCServer.Address, uint16(config.GRPCServer.Port), app.Globals.Logger)
	MainApp.httpServer = http_server.NewServer(http_server.Config{
		Address:      config.HTTPServer.Address,
		Port:         uint16(config.HTTPServer.Port),
		AllowOrigins: config.AllowOrigins(),
		ReadTimeout:  time.Duration(config.App.HttpReadTimeout) * time.Second,
		WriteTimeout: time.Duration(config.App.HttpWriteTimeout) * time.Second,
	}, http_server.Dependencies{
		Orders:     app.Globals.OrderService,
		Gateway:    app.Globals.StorefrontService,
		Wishlists:  app.Globals.Wishlists,
		Flows:      http_server.NewFlowRegistry(time.Duration(config.App.FlowTTL)*time.Second, time.Now),
		Gatherer:   prometheus.DefaultGatherer,
		Logger:     app.Globals.Logger,
		Clock:      time.Now,
		ReturnType: config.App.ReturnType,
	})

	failed := make(chan error, 2)
	go func() { failed <- MainApp.grpcServer.Start() }()
	go func() { failed <- MainApp.httpServer.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		app.Globals.Logger.Info("shutting down", "fn", "main", "signal", sig.String())
	case err := <-failed:
		app.Globals.Logger.Error("server stopped unexpectedly, shutting down", "fn", "main", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(config.App.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	MainApp.grpcServer.Shutdown(shutdownCtx)
	_ = MainApp.httpServer.Shutdown(shutdownCtx)
	app.Close(shutdownCtx)
	app.Globals.Logger.Info("storefront service exited", "fn", "main")
}
