// Package server assembles the HTTP router.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jimdaga/apod-auth/internal/config"
	"github.com/jimdaga/apod-auth/internal/health"
)

// Routes registers a group of endpoints on the router.
type Routes interface {
	Register(r gin.IRouter)
}

// NewRouter builds the gin engine with middleware, health checks and the
// given route groups. ready backs the readiness check.
func NewRouter(cfg *config.Config, logger *slog.Logger, ready func(ctx context.Context) error, routes ...Routes) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	if cfg.IsProduction() {
		r.Use(SecurityHeaders())
	}
	r.Use(CORS(cfg.CORSOrigins))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Hello")
	})
	r.GET("/health", gin.WrapF(health.Handler))
	r.GET("/health/ready", gin.WrapF(health.Readiness(ready)))

	for _, rt := range routes {
		rt.Register(r)
	}

	return r
}
