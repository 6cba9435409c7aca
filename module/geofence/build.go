package geofence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/nandanugg/geofence-bridge/module/geofence/domain"
	handler "github.com/nandanugg/geofence-bridge/module/geofence/internal/handler/http"
	"github.com/nandanugg/geofence-bridge/module/geofence/internal/handler/subscriber"
	"github.com/nandanugg/geofence-bridge/module/geofence/internal/metrics"
	platformmqtt "github.com/nandanugg/geofence-bridge/module/geofence/internal/repository/platform/mqtt"
	"github.com/nandanugg/geofence-bridge/module/geofence/internal/repository/publisher/rabbitmq"
	"github.com/nandanugg/geofence-bridge/module/geofence/internal/repository/store"
	"github.com/nandanugg/geofence-bridge/module/geofence/internal/repository/store/postgres"
	redisstore "github.com/nandanugg/geofence-bridge/module/geofence/internal/repository/store/redis"
	"github.com/nandanugg/geofence-bridge/module/geofence/service"
)

const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Options struct {
	StoreBackend string
	Namespace    string
	TopicPrefix  string
	StoreTimeout time.Duration
	Logger       *slog.Logger
	Registerer   prometheus.Registerer

	// AllowedOrigins lists the Origin values accepted on /events. Empty
	// means same-origin only; "*" accepts any origin.
	AllowedOrigins []string
}

// Connections carries the clients the module runs on. DB is only needed
// for the postgres backend, Redis only for the redis backend, and AMQP is
// optional. When present, AMQP carries events whenever no WebSocket
// listener is attached; without it those events are dropped.
type Connections struct {
	DB    *sql.DB
	Redis redis.UniversalClient
	AMQP  *amqp.Connection
	MQTT  mqtt.Client
}

type pinger interface {
	Ping(ctx context.Context) error
}

type Module struct {
	Registrar   *service.Registrar
	Notifier    *service.Notifier
	Transitions *service.TransitionService

	store      pinger
	platform   *platformmqtt.Client
	handler    *handler.GeofenceHandler
	events     *handler.EventsHandler
	subscriber *subscriber.TransitionSubscriber
}

func Build(ctx context.Context, conns Connections, opts Options) (*Module, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if conns.MQTT == nil {
		return nil, errors.New("mqtt client is required")
	}

	geofenceStore, err := buildStore(ctx, conns, opts, logger)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if opts.Registerer != nil {
		m = metrics.New(opts.Registerer)
	}

	topics := domain.NewTopics(opts.TopicPrefix)
	platformClient := platformmqtt.NewClient(conns.MQTT, topics, logger.With("component", "platform"))

	faults := service.NewFaultLogger(logger.With("component", "faults"), m)
	notifier := service.NewNotifier(faults, logger.With("component", "notifier"), m)
	if conns.AMQP != nil {
		listener, err := rabbitmq.NewEventListener(conns.AMQP)
		if err != nil {
			return nil, fmt.Errorf("event listener: %w", err)
		}
		notifier.SetFallback(listener)
	}

	registrar := service.NewRegistrar(platformClient, geofenceStore, faults, logger.With("component", "registrar"), m, opts.StoreTimeout)
	transitions := service.NewTransitionService(notifier, faults, logger.With("component", "transitions"), m)

	return &Module{
		Registrar:   registrar,
		Notifier:    notifier,
		Transitions: transitions,
		store:       geofenceStore,
		platform:    platformClient,
		handler:     handler.NewGeofenceHandler(registrar),
		events:      handler.NewEventsHandler(notifier, opts.AllowedOrigins, logger.With("component", "events")),
		subscriber:  subscriber.NewTransitionSubscriber(conns.MQTT, topics.Transitions, transitions, logger.With("component", "subscriber")),
	}, nil
}

type pingingStore interface {
	store.GeofenceStore
	pinger
}

func buildStore(ctx context.Context, conns Connections, opts Options, logger *slog.Logger) (pingingStore, error) {
	storeLogger := logger.With("component", "store", "backend", opts.StoreBackend)

	switch opts.StoreBackend {
	case BackendPostgres:
		if conns.DB == nil {
			return nil, errors.New("postgres backend requires a database connection")
		}
		s := postgres.NewGeofenceStore(conns.DB, opts.Namespace, storeLogger)
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case BackendRedis, "":
		if conns.Redis == nil {
			return nil, errors.New("redis backend requires a redis client")
		}
		return redisstore.NewGeofenceStore(conns.Redis, opts.Namespace, storeLogger), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.StoreBackend)
	}
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.handler.Register(r)
	m.events.Register(r)
}

// StartSubscribers subscribes to platform acks before transitions so no
// request can be submitted without a route for its answer.
func (m *Module) StartSubscribers() error {
	if err := m.platform.Start(); err != nil {
		return fmt.Errorf("platform acks: %w", err)
	}
	if err := m.subscriber.Start(); err != nil {
		return fmt.Errorf("transitions: %w", err)
	}
	return nil
}

func (m *Module) PingStore(ctx context.Context) error {
	return m.store.Ping(ctx)
}
