package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brightline/coi-tracker/internal/config"
	"github.com/brightline/coi-tracker/internal/notify"
	"github.com/brightline/coi-tracker/internal/pkg/distlock"
	"github.com/brightline/coi-tracker/internal/pkg/logger"
	"github.com/brightline/coi-tracker/internal/repository/postgres"
	"github.com/brightline/coi-tracker/internal/ses"
	compliancesvc "github.com/brightline/coi-tracker/internal/service/compliance"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const sweepLockKey = "coi:notification-sweep"

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	log.Println("Starting COI Tracker notification worker...")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetRedactPII(true)

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancelPing()
		log.Fatalf("Failed to ping database: %v", err)
	}
	cancelPing()
	log.Println("Connected to database")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sender, err := ses.NewSender(ctx, cfg.SES.AccessKey, cfg.SES.SecretKey, cfg.SES.Region, cfg.SES.FromEmail, cfg.SES.FromName)
	if err != nil {
		log.Fatalf("Failed to initialize SES sender: %v", err)
	}

	emailLogRepo := postgres.NewEmailLogRepo(db)
	complianceRepo := postgres.NewComplianceRepo(db)

	engine := notify.NewEngine(emailLogRepo, sender, nil, notify.Config{
		FollowUpInterval: cfg.Notifications.FollowUpInterval(),
		MaxFollowUps:     cfg.Notifications.MaxFollowUps,
		FromName:         cfg.SES.FromName,
	})
	compliance := compliancesvc.NewService(complianceRepo, engine)
	engine.SetStatusRefresher(compliance)

	// Redis is optional; without it the lock falls back to a Postgres
	// advisory lock so single-replica deployments need no Redis at all.
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis unavailable (%v), falling back to advisory lock", err)
			redisClient = nil
		}
	}
	lockTTL := time.Duration(cfg.Worker.LockTTLSeconds) * time.Second
	lock := distlock.NewLock(redisClient, db, sweepLockKey, lockTTL)

	runSweep := func() {
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			log.Printf("Sweep lock error: %v", err)
			return
		}
		if !acquired {
			log.Println("Sweep already running on another replica, skipping")
			return
		}
		defer func() {
			if err := lock.Release(ctx); err != nil {
				log.Printf("Sweep lock release error: %v", err)
			}
		}()

		report, err := engine.Run(ctx)
		if err != nil {
			log.Printf("Sweep failed: %v", err)
			return
		}
		log.Printf("Sweep complete: %d entities, %d sent, %d paused, %d failed",
			report.Entities, report.Sent, report.Paused, report.Failed)
	}

	if *once {
		runSweep()
		return
	}

	interval := cfg.Worker.SweepInterval()
	log.Printf("Sweeping every %s", interval)
	runSweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("Worker stopped")
			return
		case <-ticker.C:
			runSweep()
		}
	}
}
