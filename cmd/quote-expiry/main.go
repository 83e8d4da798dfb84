// Command quote-expiry expires every sent quote whose valid-until date has
// passed. It is meant to run once a day from cron or a Kubernetes CronJob.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"eventsite_backend/internal/quotes/repository"
	"eventsite_backend/internal/quotes/service"
	"eventsite_backend/platform/config"
	"eventsite_backend/platform/db"
	"eventsite_backend/platform/logger"
)

func main() {
	asOfFlag := flag.String("as-of", "", "expire quotes valid until before this date (YYYY-MM-DD, default today)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting quote expiry sweep")

	asOf := time.Now().UTC()
	if *asOfFlag != "" {
		asOf, err = time.Parse(time.DateOnly, *asOfFlag)
		if err != nil {
			panic("invalid -as-of: " + err.Error())
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	svc := service.New(repository.New(pool), nil, nil, nil, service.Config{}, log)
	result, err := svc.ExpireOverdue(ctx, asOf)
	if err != nil {
		log.Error("quote expiry sweep failed", "error", err)
		pool.Close()
		os.Exit(1)
	}
	log.Info("quote expiry sweep complete", "expired", result.Expired)
}
