package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/traffic-backend/internal/app"
	"github.com/yungbote/traffic-backend/internal/handlers"
	"github.com/yungbote/traffic-backend/internal/ingest"
	"github.com/yungbote/traffic-backend/internal/logger"
	"github.com/yungbote/traffic-backend/internal/observability"
	"github.com/yungbote/traffic-backend/internal/realtime"
	"github.com/yungbote/traffic-backend/internal/realtime/bus"
	"github.com/yungbote/traffic-backend/internal/server"
	"github.com/yungbote/traffic-backend/internal/services"
	"github.com/yungbote/traffic-backend/internal/store"
)

const serviceName = "traffic-backend"

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := app.LoadConfig(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
	})

	// Core: the store owns all state, the hub owns all subscribers.
	trafficStore := store.New(log)
	hub := realtime.NewHub(log, trafficStore.GetAllStates)

	// Optional redis bus for multi-instance fan-out.
	var trafficBus bus.Bus
	if cfg.RedisAddr != "" {
		b, busErr := bus.NewRedisBus(log, cfg.RedisAddr, cfg.RedisChannel)
		if busErr != nil {
			log.Warn("Redis bus init failed, running single-instance", "error", busErr)
		} else if fwdErr := b.StartForwarder(ctx, hub.Broadcast); fwdErr != nil {
			log.Warn("Redis bus forwarder failed, running single-instance", "error", fwdErr)
			_ = b.Close()
		} else {
			trafficBus = b
		}
	}

	trafficService := services.NewTrafficService(log, trafficStore, hub, trafficBus)

	mode := "Kafka Consumer"
	if cfg.UseMockData {
		mode = "Mock Data (No Kafka)"
	}
	router := server.NewRouter(server.RouterConfig{
		ServiceName:     serviceName,
		IngestionMode:   mode,
		TrafficHandler:  handlers.NewTrafficHandler(log, trafficStore),
		RealtimeHandler: handlers.NewRealtimeHandler(log, hub),
	})

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)

	// Ingestion source: kafka when configured, mock generator otherwise or
	// as fallback when the broker is unreachable.
	g.Go(func() error {
		if cfg.UseMockData {
			return ingest.NewMockGenerator(log, trafficService).Run(gctx)
		}
		consumer, consErr := ingest.NewKafkaConsumer(log, ingest.KafkaConsumerConfig{
			Brokers:  cfg.Kafka.Brokers,
			Topic:    cfg.Kafka.Topic,
			GroupID:  cfg.Kafka.GroupID,
			ClientID: cfg.Kafka.ClientID,
		}, trafficService)
		if consErr == nil {
			defer consumer.Close()
			consErr = consumer.Run(gctx)
			if consErr == nil {
				return nil
			}
		}
		if gctx.Err() != nil {
			return nil
		}
		log.Warn("Kafka consumer unavailable, falling back to mock data", "error", consErr)
		return ingest.NewMockGenerator(log, trafficService).Run(gctx)
	})

	g.Go(func() error {
		log.Info("Server running", "port", cfg.Port, "mode", mode)
		if srvErr := httpServer.ListenAndServe(); !errors.Is(srvErr, http.ErrServerClosed) {
			return srvErr
		}
		return nil
	})

	// Shutdown: intake stops first via gctx, then subscribers are closed so
	// their streams drain, then the HTTP listener goes down.
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		hub.Shutdown()
		if trafficBus != nil {
			_ = trafficBus.Close()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if otelShutdown != nil {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = otelShutdown(flushCtx)
		cancel()
	}
	if err != nil {
		log.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("Server closed")
}
