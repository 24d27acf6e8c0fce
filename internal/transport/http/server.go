package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/randomtoy/linked-chess/internal/obslog"
)

// New constructs and returns a configured Echo instance.
func New(h *Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "X-Client-Token", "Slug"},
		ExposeHeaders: []string{"Location"},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				obslog.L().Warn("http_request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			obslog.L().Info("http_request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	e.GET("/api/v1/healthz", h.handleHealthz)
	e.POST("/api/v1/games", h.handleCreateGame)
	e.GET("/api/v1/games/state", h.handleGetGame)
	e.GET("/api/v1/games/promotion", h.handlePromotion)
	e.POST("/api/v1/games/moves", h.handlePlayMove)
	e.POST("/api/v1/games/resign", h.handleResign)

	e.GET("/pod/*", h.handleGetDocument)
	e.PUT("/pod/*", h.handlePutDocument)
	e.PATCH("/pod/*", h.handlePatchDocument)

	e.GET("/inbox/*", h.handleListInbox)
	e.POST("/inbox/*", h.handlePostInbox)

	return e
}
