package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nandanugg/geofence-bridge/config"
	"github.com/nandanugg/geofence-bridge/module/engine"
	"github.com/nandanugg/geofence-bridge/module/geofence/domain"
)

// ~50m of drift per step around the walk centre.
const drift = 0.0005

func envFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <interval_seconds>\n", os.Args[0])
		os.Exit(1)
	}

	intervalSec, err := strconv.Atoi(os.Args[1])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	cfg := config.Load()
	logger := config.NewLogger(cfg).With("component", "engine")

	e := engine.New()
	if os.Getenv("ENGINE_DENY_PERMISSION") == "true" {
		e.SetPermissionDenied(true)
	}

	client, err := config.NewMQTT(cfg, "geofence-engine", logger, nil)
	if err != nil {
		logger.Error("mqtt connect failed", "error", err)
		os.Exit(1)
	}
	defer client.Disconnect(250)

	srv := engine.NewServer(client, domain.NewTopics(cfg.MQTTTopicPrefix), e, logger)
	if err := srv.Start(); err != nil {
		logger.Error("subscribe failed", "error", err)
		os.Exit(1)
	}

	lat := envFloat("ENGINE_CENTER_LAT", 37.0)
	lon := envFloat("ENGINE_CENTER_LON", -122.0)
	logger.Info("simulating device", "broker", cfg.MQTTBroker, "interval_s", intervalSec, "lat", lat, "lon", lon)

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sig:
			logger.Info("shutting down")
			return
		case now := <-ticker.C:
			// 30% chance to jump far away so regions are exited as well as entered
			fixLat, fixLon := lat+(rand.Float64()-0.5)*drift, lon+(rand.Float64()-0.5)*drift
			if rand.Float64() < 0.3 {
				fixLat, fixLon = lat+(rand.Float64()-0.5), lon+(rand.Float64()-0.5)
			}

			n := srv.Observe(domain.LocationFix{
				Latitude:           fixLat,
				Longitude:          fixLon,
				HorizontalAccuracy: 5,
				TimeMillis:         now.UnixMilli(),
			})
			logger.Debug("fix observed", "lat", fixLat, "lon", fixLon, "broadcasts", n, "regions", e.Regions())
		}
	}
}
