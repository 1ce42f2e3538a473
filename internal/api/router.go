package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	MetricsEnabled bool
}

// NewRouter wires the public HTTP surface. Callers may register further
// routes on the returned engine.
func NewRouter(profiles *ProfileHandler, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(), Recovery(), Metrics(), CORS())

	router.POST("/generate-profile", profiles.GenerateProfiles)

	router.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	if cfg.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	return router
}
