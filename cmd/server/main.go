package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"calendar_reminders/internal/cache"
	"calendar_reminders/internal/config"
	"calendar_reminders/internal/handlers"
	"calendar_reminders/internal/kafka"
	"calendar_reminders/internal/metrics"
	"calendar_reminders/internal/repository"
	"calendar_reminders/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------- config ----------
	cfg := config.Load()

	// ---------- metrics ----------
	metrics.Register()

	// ---------- db ----------
	pool, err := repository.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal("db: ", err)
	}
	defer pool.Close()

	// ---------- redis ----------
	redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer redisCache.Close()
	cache.StartRedisSizeCollector(ctx, redisCache.RawClient(), 30*time.Second, nil)

	// ---------- repositories ----------
	reminderRepo := repository.NewReminderRepository(pool)
	subscriptionRepo := repository.NewSubscriptionRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	groupRepo := repository.NewGroupRepository(pool)

	// ---------- kafka producer ----------
	// ошибка здесь фатальна: без транспорта диспетчер бесполезен
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		log.Fatal("kafka producer: ", err)
	}
	defer producer.Close()

	// ---------- dispatcher ----------
	resolver := service.NewCachedSubscriptionResolver(subscriptionRepo, redisCache, cfg.CacheTTL, nil)
	dispatcher := service.NewDispatcher(reminderRepo, resolver, producer, cfg.ScanInterval, nil)
	dispatcher.Start(ctx)

	// ---------- db gauges ----------
	metrics.StartDBCollectors(ctx, pool, 10*time.Second, nil)

	// ---------- handlers ----------
	reminderService := service.NewReminderService(reminderRepo, nil)

	userHandler := handlers.NewUserHandler(userRepo, cfg.JWTSecret)
	reminderHandler := handlers.NewReminderHandler(reminderService, redisCache, cfg.CacheTTL)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionRepo, resolver)
	groupHandler := handlers.NewGroupHandler(groupRepo)

	// ---------- router ----------
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(metrics.HTTPMiddleware)

	r.Handle("/metrics", metrics.Handler())
	handlers.RegisterRoutes(r, cfg.JWTSecret, userHandler, reminderHandler, subscriptionHandler, groupHandler)

	// ---------- start server ----------
	addr := ":" + cfg.HTTPPort
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Println("server starting on", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("http shutdown: ", err)
	}
}
