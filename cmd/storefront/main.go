package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ariefcatur/go-storefront/internal/activity"
	"github.com/ariefcatur/go-storefront/internal/api"
	"github.com/ariefcatur/go-storefront/internal/config"
	"github.com/ariefcatur/go-storefront/internal/httpx"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/logx"
	"github.com/ariefcatur/go-storefront/internal/postgres"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/session"
	"github.com/ariefcatur/go-storefront/internal/shop"
	"github.com/ariefcatur/go-storefront/internal/storefront"
	"github.com/ariefcatur/go-storefront/internal/validate"
)

const (
	consumerWorkers = 4
	sweepInterval   = 5 * time.Minute
	maxIdle         = 2 * time.Hour
)

func main() {
	_ = godotenv.Load()

	log := logx.New("info")
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config")
	}
	log = logx.New(cfg.LogLevel)
	base := log.WithFields(logrus.Fields{"service": cfg.ServiceName, "instance": cfg.InstanceID})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	if cfg.Tracing {
		tp := sdktrace.NewTracerProvider()
		otel.SetTracerProvider(tp)
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	// Redis, when the token store or event dedup needs it
	var rdb *redis.Client
	if cfg.TokenStore == config.StoreRedis || len(cfg.KafkaBrokers) > 0 {
		rdb = redisx.New(cfg.RedisAddr)
		defer rdb.Close()
	}

	tokens, closeTokens, err := tokenStore(ctx, cfg, rdb)
	if err != nil {
		base.WithError(err).Fatal("token store")
	}
	defer closeTokens()

	client := api.New(cfg.BackendURL, api.NewHTTPClient(cfg.BackendTimeout))
	v := validate.New()

	// activity events
	var (
		pub  storefront.Publisher
		prod *kafkax.Producer
	)
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicActivity, 1024, base)
		prod.Start(ctx)
		pub = &activity.Publisher{Sink: prod, ServiceName: cfg.ServiceName, InstanceID: cfg.InstanceID, Log: base}
	}

	registry := httpx.NewRegistry(func(sid string) *storefront.Storefront {
		return storefront.New(storefront.Options{
			SessionID:     sid,
			Client:        client,
			Store:         tokens,
			ShippingCents: cfg.ShippingCents,
			Publisher:     pub,
			Logger:        base,
			Validator:     v,
		})
	}, base, httpx.WithLimit(cfg.MaxSessions))
	go registry.RunSweeper(ctx, sweepInterval, maxIdle)

	if prod != nil {
		svc := &activity.Service{Registry: registry, InstanceID: cfg.InstanceID, Log: base}
		if rdb != nil {
			svc.Redis = rdb
		}
		group := "storefront-" + cfg.InstanceID
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, shop.TopicActivity, consumerWorkers, base)
		go func() {
			if err := cons.Start(ctx, svc.HandleEvent); err != nil && ctx.Err() == nil {
				base.WithError(err).Error("activity consumer exit")
			}
		}()
	}

	router := httpx.NewRouter(base)
	h := &httpx.Handler{
		Registry: registry,
		Cookies:  httpx.NewCookieStore([]byte(cfg.SessionSecret), os.Getenv("COOKIE_SECURE") == "1"),
		Log:      base,
	}
	h.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: otelhttp.NewHandler(router, cfg.ServiceName)}

	go func() {
		base.WithField("addr", cfg.HTTPAddr).Info("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			base.WithError(err).Fatal("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	base.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	if prod != nil {
		prod.Close() // flush pending events
		cancel()
		prod.WaitClosed()
	}
}

func tokenStore(ctx context.Context, cfg config.Config, rdb *redis.Client) (session.TokenStore, func(), error) {
	switch cfg.TokenStore {
	case config.StoreRedis:
		return redisx.NewTokenStore(rdb), func() {}, nil
	case config.StorePostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return &postgres.TokenStore{DB: db}, db.Close, nil
	default:
		return session.NewMemoryStore(), func() {}, nil
	}
}
