package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vidmem/vidmem/internal/clients"
	"github.com/vidmem/vidmem/internal/queue"
	"github.com/vidmem/vidmem/internal/server/graphs"
	mid "github.com/vidmem/vidmem/internal/server/middleware"
	"github.com/vidmem/vidmem/internal/util"
	"github.com/vidmem/vidmem/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func Init() {
	e := echo.New()
	e.HideBanner = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	if err := queue.SetupQueues(ch); err != nil {
		logger.Fatal("Failed to declare queues", "err", err)
	}

	aiClient := clients.NewAIClientFromEnv()
	cache := graphs.NewCache(util.GetEnvString("SNAPSHOT_DIR", "snapshots"))

	e.Use(mid.AppContextMiddleware(&mid.AppContext{
		Channel:  ch,
		AIClient: aiClient,
		Graphs:   cache,
	}))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
