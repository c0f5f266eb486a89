package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"netsentry/internal/anomaly"
	"netsentry/internal/cache"
	"netsentry/internal/config"
	"netsentry/internal/controllers"
	"netsentry/internal/models"
	"netsentry/internal/pinger"
	"netsentry/internal/routes"
	"netsentry/internal/scheduler"
	"netsentry/internal/services"
	"netsentry/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[MAIN] config: %v", err)
	}

	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("[MAIN] storage: %v", err)
	}
	defer store.Close()

	var summaryCache *cache.SummaryCache
	if cfg.RedisAddr != "" {
		summaryCache, err = cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			time.Duration(cfg.CacheTTLSec)*time.Second)
		if err != nil {
			log.Printf("[MAIN] redis unavailable, summary caching disabled: %v", err)
			summaryCache = nil
		} else {
			defer summaryCache.Close()
		}
	}

	services.InitAuthService(cfg.JWTSecret, time.Duration(cfg.TokenExpiryHrs)*time.Hour)
	hub := services.InitWebSocketHub()
	defer hub.Shutdown()

	engine := anomaly.NewEngine(store, anomaly.Config{
		Lookback:         cfg.Lookback(),
		ZScoreThreshold:  cfg.ZScoreThreshold,
		ZScoreHigh:       cfg.ZScoreHigh,
		MinZScoreSamples: cfg.MinZScoreSamples,
		MovingWindow:     cfg.MovingWindow,
		MovingThreshold:  cfg.MovingThreshold,
		MovingHigh:       cfg.MovingHigh,
		MinModelSamples:  cfg.MinModelSamples,
		Contamination:    cfg.Contamination,
		ModelScoreHigh:   cfg.ModelScoreHigh,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scanner := scheduler.New(store, store, engine,
		cfg.ScanInterval(), cfg.DedupWindow(), cfg.MaxConsecutiveErrors)
	scanner.OnEvent = func(det models.Detection) {
		hub.BroadcastDetection(det)
		if err := summaryCache.InvalidateSummary(ctx, det.DeviceID); err != nil {
			log.Printf("[MAIN] cache invalidation failed for device %d: %v", det.DeviceID, err)
		}
		details, err := json.Marshal(det)
		if err != nil {
			return
		}
		ev := models.AnomalyEvent{
			Timestamp: det.Timestamp,
			DeviceID:  det.DeviceID,
			Method:    det.Method,
			Severity:  det.Severity,
			Details:   details,
		}
		if err := summaryCache.RecordEvent(ctx, ev); err != nil {
			log.Printf("[MAIN] cache event mirror failed for device %d: %v", det.DeviceID, err)
		}
	}
	go func() {
		if err := scanner.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[MAIN] anomaly scanner exited: %v", err)
		}
	}()

	prober := pinger.NewProber(store,
		pinger.NewPinger(time.Duration(cfg.PingTimeoutMillis)*time.Millisecond),
		time.Duration(cfg.PingIntervalSec)*time.Second)
	go prober.Run(ctx)

	r := gin.Default()
	routes.Register(r, routes.Deps{
		Ingest:      controllers.NewIngestController(store),
		Devices:     controllers.NewDeviceController(store),
		Anomalies:   controllers.NewAnomalyController(store, engine, summaryCache),
		RequireAuth: cfg.JWTSecret != "",
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("[MAIN] listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("[MAIN] server: %v", err)
	}
}
