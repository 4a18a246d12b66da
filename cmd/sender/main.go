package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"calendar_reminders/internal/config"
	"calendar_reminders/internal/kafka"
	"calendar_reminders/internal/metrics"
	"calendar_reminders/internal/push"
	"calendar_reminders/internal/repository"
	"calendar_reminders/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------- config ----------
	cfg := config.Load()

	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		log.Fatal("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY are required")
	}

	// ---------- metrics ----------
	metrics.Register()
	go func() {
		http.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(":"+cfg.HTTPPort, nil); err != nil {
			log.Println("metrics server: ", err)
		}
	}()

	// ---------- db ----------
	pool, err := repository.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal("db: ", err)
	}
	defer pool.Close()

	reminderRepo := repository.NewReminderRepository(pool)

	// ---------- push sender ----------
	pusher := push.NewClient(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject)
	sender := service.NewPushSender(reminderRepo, pusher, nil)

	// ---------- kafka consumer ----------
	consumer, err := kafka.NewConsumer(
		cfg.KafkaBrokers,
		cfg.KafkaGroupID,
		cfg.KafkaTopic,
		sender,
		nil,
	)
	if err != nil {
		log.Fatal("kafka consumer: ", err)
	}
	defer consumer.Close()

	log.Println("push sender consuming", cfg.KafkaTopic)
	if err := consumer.Start(ctx); err != nil {
		log.Fatal("consumer: ", err)
	}
}
