package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ainewsbot/api"
	"ainewsbot/config"
	"ainewsbot/events"
	"ainewsbot/normalize"
	"ainewsbot/orchestrator"
	"ainewsbot/scheduler"
	"ainewsbot/types"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := orchestrator.NewService(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ startup: %v", err)
	}
	defer svc.Close()

	var sched *scheduler.Scheduler
	sched = scheduler.New(svc.Coordinator, scheduler.Options{
		Location: normalize.Tokyo,
		OnReport: func(reason string, report *types.CycleReport, err error) {
			if err == nil && report != nil {
				log.Printf("📦 %s cycle %s: %d committed", reason, report.Status, report.Committed)
			}
			if next := sched.Next(); !next.IsZero() {
				log.Printf("⏰ Next run: %s", next.Format(time.RFC3339))
			}
		},
	})
	if cfg.CronSchedule != "" {
		if err := sched.Start(cfg.CronSchedule); err != nil {
			log.Fatalf("❌ cron: %v", err)
		}
	}

	var consumer *events.Consumer
	if len(cfg.Kafka.Brokers) > 0 {
		consumer, err = events.NewTriggerConsumer(cfg.Kafka, sched.Trigger)
		if err != nil {
			log.Printf("⚠️ Kafka trigger consumer disabled: %v", err)
		} else if err := consumer.Start(ctx); err != nil {
			log.Printf("⚠️ Kafka trigger consumer failed to start: %v", err)
		}
	}

	router := api.NewRouter(api.Deps{
		Status:  svc.Coordinator,
		Trigger: sched.Trigger,
		Reader:  svc.Reader,
		Sources: cfg.Sources,
		NextRun: sched.Next,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ server error: %v", err)
		}
	}()

	log.Printf("📰 ainewsbot listening on :%s", cfg.Port)
	log.Printf("   Store:         %s", cfg.Store.Backend)
	log.Printf("   Summarizer:    %s", cfg.Summarizer.Provider)
	log.Printf("   Cron Schedule: %s (Asia/Tokyo)", cfg.CronSchedule)
	if next := sched.Next(); !next.IsZero() {
		log.Printf("   Next run:      %s", next.Format(time.RFC3339))
	}

	<-ctx.Done()
	log.Println("🔄 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			log.Printf("⚠️ Kafka consumer close: %v", err)
		}
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Printf("⚠️ scheduler stop: %v", err)
	}
	log.Println("✅ Server stopped")
}
