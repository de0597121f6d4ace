package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"storefront_pay/internal/app"
	"storefront_pay/internal/config"
	"storefront_pay/internal/models"
	"storefront_pay/internal/tasks"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, nil)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	schedule, err := models.ParseJobSchedule(cfg.ReconcileRRule, time.Now().UTC())
	if err != nil {
		log.Fatalf("Invalid RECONCILE_RRULE: %v", err)
	}

	runner := tasks.NewRunner(a.DB, a.TaskRegistry(), a.Logger)
	taskNames := []string{"reconcile_pending", "log_summary"}

	log.Printf("Worker started with schedule %q", cfg.ReconcileRRule)

	// One pass at startup, then follow the schedule
	runner.RunAll(ctx, taskNames)

	for {
		next := schedule.Next(time.Now().UTC())
		if next.IsZero() {
			log.Println("Schedule exhausted, stopping worker")
			return
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			runner.RunAll(ctx, taskNames)
		case <-ctx.Done():
			timer.Stop()
			log.Println("Shutting down worker...")
			return
		}
	}
}
