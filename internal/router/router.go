package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"gatebot/internal/middleware"
)

// Setup configures all routes for the Echo server.
func Setup(
	e *echo.Echo,
	logger *zap.Logger,
	updateDeduper middleware.UpdateDeduper,
	webhookHandler http.Handler,
) {
	e.Use(echomw.Recover())

	// Telegram webhook, deduplicated by update_id
	if webhookHandler != nil {
		botGroup := e.Group("/bot")
		botGroup.Use(middleware.TelegramUpdateDedup(updateDeduper))
		botGroup.POST("/webhook", echo.WrapHandler(webhookHandler))
	} else {
		logger.Info("Telegram webhook routes disabled (bot update mode is polling)")
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
