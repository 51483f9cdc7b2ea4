package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/Natthaphatpiw/agn-chat/internal/bootstrap"
	"github.com/Natthaphatpiw/agn-chat/internal/config"
	"github.com/Natthaphatpiw/agn-chat/internal/server"
	"github.com/Natthaphatpiw/agn-chat/internal/tracer"
	"github.com/Natthaphatpiw/agn-chat/pkg/database"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.Telemetry)
	defer shutdownTracer(context.Background())

	// 3. Initialize Database; the service refuses to start without it
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.IsProduction())
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	err = database.Ping(pingCtx, gormDB)
	cancelPing()
	if err != nil {
		log.Panicf("Unable to reach document store: %v", err)
	}

	// 4. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 5. Start Background Services
	if err := container.AuditConsumerService.Consume(ctx); err != nil {
		log.Printf("Background Audit Consumer Error: %v", err)
	}

	srv := server.New(cfg, container)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return container.SessionManager.StartJanitor(gctx, cfg.Session.SweepInterval, cfg.Session.MaxIdle)
	})
	g.Go(func() error {
		return srv.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// 6. Run until a signal or a fatal server error
	if err := g.Wait(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
