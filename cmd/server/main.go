package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/busline/booking-engine/internal/config"
	"github.com/busline/booking-engine/internal/database"
	"github.com/busline/booking-engine/internal/gateway"
	"github.com/busline/booking-engine/internal/handler"
	"github.com/busline/booking-engine/internal/queue"
	"github.com/busline/booking-engine/internal/repository"
	"github.com/busline/booking-engine/internal/router"
	"github.com/busline/booking-engine/internal/service"
	queue_publisher "github.com/busline/booking-engine/internal/service/queue_publisher"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; seat-map cache and callback dedup disabled")
	}
	cache := service.NewSeatCache(rdb, time.Duration(cfg.SeatCacheTTLSec)*time.Second)

	// Repositories.
	seatRepo := repository.NewSeatRepo(db)
	tripRepo := repository.NewTripRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	ticketRepo := repository.NewTicketRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	couponRepo := repository.NewCouponRepo(db)

	// Gateway adapters: cash is always on, online providers only when
	// credentials are configured.
	client := &http.Client{Timeout: time.Duration(cfg.GatewayTimeoutSec) * time.Second}
	registry := gateway.NewRegistry()
	registry.Register(gateway.NewCash())
	if cfg.VNPayTmnCode != "" {
		registry.Register(gateway.NewVNPay(gateway.VNPayConfig{
			TmnCode:    cfg.VNPayTmnCode,
			HashSecret: cfg.VNPayHashSecret,
			PayURL:     cfg.VNPayPayURL,
			APIURL:     cfg.VNPayAPIURL,
		}, client))
	}
	if cfg.MoMoPartnerCode != "" {
		registry.Register(gateway.NewMoMo(gateway.MoMoConfig{
			PartnerCode: cfg.MoMoPartnerCode,
			AccessKey:   cfg.MoMoAccessKey,
			SecretKey:   cfg.MoMoSecretKey,
			Endpoint:    cfg.MoMoEndpoint,
			IPNURL:      cfg.MoMoIPNURL,
		}, client))
	}
	if cfg.ZaloAppID != "" {
		registry.Register(gateway.NewZaloPay(gateway.ZaloPayConfig{
			AppID:    cfg.ZaloAppID,
			Key1:     cfg.ZaloKey1,
			Key2:     cfg.ZaloKey2,
			Endpoint: cfg.ZaloEndpoint,
		}, client))
	}
	log.Printf("payment methods enabled: %v", registry.Codes())

	// Engine services.
	window := time.Duration(cfg.ReservationWindowMin) * time.Minute
	settlement := service.NewSettlement(db, tripRepo, seatRepo, orderRepo, ticketRepo, paymentRepo, couponRepo,
		registry, cache, window, queue_publisher.PublishOrderSettled)
	refunds := service.NewRefund(db, seatRepo, orderRepo, ticketRepo, paymentRepo,
		registry, cache, int64(cfg.RefundFeePercent), queue_publisher.PublishOrderSettled)
	checkin := service.NewCheckIn(db, orderRepo, ticketRepo, cfg.CheckinSecret)
	inventory := service.NewInventory(seatRepo)

	// Background workers: the expiry sweeper and the settlement log
	// consumer, both independent of the request-handling goroutines.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper := service.NewSweeper(db, seatRepo, ticketRepo, orderRepo, paymentRepo, cache,
		time.Duration(cfg.SweepIntervalSec)*time.Second, cfg.SweepBatchSize)
	go sweeper.Run(ctx)
	go func() {
		if err := queue.StartSettlementConsumer(); err != nil {
			log.Printf("settled-consumer: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	baseURL := os.Getenv("PUBLIC_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + cfg.Port
	}
	router.Register(e, cfg.JWTSecret,
		handler.NewOrderHandler(settlement, refunds, orderRepo, ticketRepo),
		handler.NewTripHandler(tripRepo, seatRepo, inventory, cache),
		handler.NewCallbackHandler(settlement),
		handler.NewCheckInHandler(checkin, baseURL),
	)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
