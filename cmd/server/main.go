package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/nandanugg/geofence-bridge/config"
	"github.com/nandanugg/geofence-bridge/module/geofence"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var conns geofence.Connections
	switch cfg.StoreBackend {
	case geofence.BackendPostgres:
		db, err := config.NewPostgres(cfg)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer func() { _ = db.Close() }()
		conns.DB = db
	default:
		rdb, err := config.NewRedis(cfg)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer func() { _ = rdb.Close() }()
		conns.Redis = rdb
	}

	if cfg.RabbitMQURL != "" {
		amqpConn, err := config.NewRabbitMQ(cfg)
		if err != nil {
			return fmt.Errorf("rabbitmq: %w", err)
		}
		defer func() { _ = amqpConn.Close() }()
		conns.AMQP = amqpConn
	}

	// paho drops subscriptions on reconnect; resubscribe once the module exists.
	var mod atomic.Pointer[geofence.Module]
	mqttClient, err := config.NewMQTT(cfg, cfg.MQTTClientID, logger, func(mqtt.Client) {
		if m := mod.Load(); m != nil {
			if err := m.StartSubscribers(); err != nil {
				logger.Error("resubscribe failed", "error", err)
			}
		}
	})
	if err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	defer mqttClient.Disconnect(250)
	conns.MQTT = mqttClient

	registry := prometheus.NewRegistry()
	geofenceModule, err := geofence.Build(ctx, conns, geofence.Options{
		StoreBackend: cfg.StoreBackend,
		Namespace:    cfg.Namespace,
		TopicPrefix:  cfg.MQTTTopicPrefix,
		StoreTimeout: cfg.StoreTimeout,
		Logger:       logger,
		Registerer:   registry,

		AllowedOrigins: cfg.EventsAllowedOrigins,
	})
	if err != nil {
		return fmt.Errorf("geofence module: %w", err)
	}
	mod.Store(geofenceModule)

	if err := geofenceModule.StartSubscribers(); err != nil {
		return fmt.Errorf("start subscribers: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	checks := []config.HealthCheck{
		{Name: cfg.StoreBackend, Check: geofenceModule.PingStore},
		{Name: "mqtt", Check: func(context.Context) error {
			if !mqttClient.IsConnected() {
				return errors.New("not connected")
			}
			return nil
		}},
	}
	if conns.AMQP != nil {
		checks = append(checks, config.HealthCheck{Name: "rabbitmq", Check: func(context.Context) error {
			if conns.AMQP.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}})
	}
	config.NewHealthChecker(checks...).Register(r)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	geofenceModule.RegisterRoutes(&r.RouterGroup)

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: r}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "port", cfg.HTTPPort, "store", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
