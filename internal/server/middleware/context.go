package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/vidmem/vidmem/internal/server/graphs"
	"github.com/vidmem/vidmem/pkg/ai"
)

const appContextKey = "app_context"

// AppContext carries the shared collaborators of the request handlers.
type AppContext struct {
	Channel  *amqp091.Channel
	AIClient ai.MemoryAIClient
	Graphs   *graphs.Cache
}

// AppContextMiddleware injects the AppContext into every request.
func AppContextMiddleware(appCtx *AppContext) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(appContextKey, appCtx)
			return next(c)
		}
	}
}

// GetAppContext returns the AppContext of the request.
func GetAppContext(c echo.Context) *AppContext {
	appCtx, _ := c.Get(appContextKey).(*AppContext)
	return appCtx
}
