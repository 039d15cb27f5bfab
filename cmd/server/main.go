package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lunari-cart/internal/api"
	"lunari-cart/internal/cart"
	"lunari-cart/internal/catalog"
	"lunari-cart/internal/checkout"
	"lunari-cart/internal/config"
	"lunari-cart/internal/db"
	"lunari-cart/internal/jobs"
	"lunari-cart/internal/logger"
	"lunari-cart/internal/loyalty"
	"lunari-cart/internal/order"
	"lunari-cart/internal/payment"

	"go.uber.org/zap"
)

// How often stale ACTIVE carts are swept into EXPIRED.
const cartExpiryInterval = time.Hour

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	catalogClient := catalog.NewClient(cfg.InventoryURL, cfg.ServiceAPIKey)
	loyaltyClient := loyalty.NewClient(cfg.UserURL, cfg.ServiceAPIKey)
	gateway := payment.NewWebpayGateway(cfg.TransbankBaseURL, cfg.TransbankCommerceCode, cfg.TransbankAPIKey)

	cartRepo := cart.NewRepository(database)
	cartSvc := cart.NewService(cartRepo, catalogClient)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo)

	paymentRepo := payment.NewRepository(database)

	runnerCtx, stopRunner := context.WithCancel(context.Background())
	defer stopRunner()

	failureRepo := jobs.NewFailureRepository(database)
	runner := jobs.NewRunner(cfg.JobWorkers, cfg.JobQueueSize, failureRepo)
	runner.Start(runnerCtx)

	checkoutSvc := checkout.NewService(cartSvc, orderSvc, paymentRepo, gateway, catalogClient, loyaltyClient, runner)

	router := api.NewRouter(api.Deps{
		Config:   cfg,
		DB:       database,
		Carts:    cartSvc,
		Orders:   orderSvc,
		Checkout: checkoutSvc,
		Payments: paymentRepo,
		Failures: failureRepo,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Background sweep for carts past their TTL.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sweepExpiredCarts(sweepCtx, cartSvc)

	go func() {
		logger.L().Info("server listening", zap.String("port", cfg.AppPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.L().Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L().Error("server shutdown failed", zap.Error(err))
	}

	stopSweep()
	// Drain queued post-payment work before closing the database.
	runner.Stop()
	logger.L().Info("server stopped")
}

func sweepExpiredCarts(ctx context.Context, carts cart.Service) {
	ticker := time.NewTicker(cartExpiryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := carts.ExpireCarts(ctx, time.Now()); err != nil {
				logger.L().Error("cart expiry sweep failed", zap.Error(err))
			}
		}
	}
}
