package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"

	"github.com/eduprompt/eduprompt/app/repository"
	"github.com/eduprompt/eduprompt/internal/pkg/cache"
	"github.com/eduprompt/eduprompt/internal/pkg/database"
	"github.com/eduprompt/eduprompt/internal/pkg/env"
	"github.com/eduprompt/eduprompt/internal/pkg/metrics/counter"
	"github.com/eduprompt/eduprompt/internal/pkg/payment"
	"github.com/eduprompt/eduprompt/internal/pkg/router"
	"github.com/eduprompt/eduprompt/internal/pkg/statistics"
)

const (
	counterFlushInterval = 1 * time.Minute
	expireSweepInterval  = 10 * time.Minute
	// pending payments older than this are closed as expired
	pendingPaymentCutoff = 24 * time.Hour
)

func main() {
	app := NewApplication()

	stop := make(chan struct{})
	go runBackgroundWorkers(stop)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-shutdown
		log.Println("shutting down...")
		close(stop)
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))
	if err := app.Listen(addr); err != nil {
		log.Fatal(err)
	}

	// drain counters one last time before exit
	if err := counter.FlushAll(); err != nil {
		log.Printf("final counter flush failed: %v", err)
	}
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/eduprompt to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "views"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		Views: html.New(basePath+"views", ".html"),
	})

	// ignore and cache favicon
	app.Use(favicon.New(favicon.Config{
		File:         basePath + "public/assets/icons/favicon.ico",
		URL:          "/favicon.ico",
		CacheControl: "public, max-age=604800",
	}))

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", monitor.New())

	// static files
	app.Static("/", basePath+"public/assets", fiber.Static{
		CacheDuration: 15 * time.Second,
		Compress:      true,
	})

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}

// runBackgroundWorkers drives the periodic maintenance loops: draining the
// redis usage counters into MySQL, expiring stale payments and lapsed
// subscriptions, and refreshing the landing page statistics cache.
func runBackgroundWorkers(stop <-chan struct{}) {
	flushTicker := time.NewTicker(counterFlushInterval)
	defer flushTicker.Stop()
	expireTicker := time.NewTicker(expireSweepInterval)
	defer expireTicker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-flushTicker.C:
			if err := counter.FlushAll(); err != nil {
				log.Printf("counter flush failed: %v", err)
			}
			statistics.UpdateCacheIfNeeded()
		case <-expireTicker.C:
			svc := payment.NewServiceFromDB(database.GetDB())
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			payments, subs, err := svc.ExpireStale(ctx, pendingPaymentCutoff)
			cancel()
			if err != nil {
				log.Printf("expire sweep failed: %v", err)
			} else if payments > 0 || subs > 0 {
				log.Printf("expire sweep: %d payments expired, %d subscriptions ended", payments, subs)
			}
		}
	}
}
