package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/Natthaphatpiw/agn-chat/internal/bootstrap"
	"github.com/Natthaphatpiw/agn-chat/internal/config"
	"github.com/Natthaphatpiw/agn-chat/internal/service"
	"github.com/Natthaphatpiw/agn-chat/pkg/database"
)

func main() {
	batchSize := flag.Int("batch", service.DefaultBackfillBatchSize, "documents per transaction")
	flag.Parse()

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.IsProduction())
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	res, err := container.BackfillService.Run(ctx, *batchSize)
	if err != nil {
		log.Fatalf("Backfill failed: %v", err)
	}
	log.Printf("Backfill done: pending=%d updated=%d skipped=%d failed=%d",
		res.Pending, res.Updated, res.Skipped, res.Failed)
}
