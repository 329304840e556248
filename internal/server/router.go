package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/r9s-ai/open-line-parsers/pkg/config"
)

func NewRouter(cfg *config.Config, requestLogger *log.Logger, requestLoggerColor bool) *gin.Engine {
	r := gin.New()
	if cfg.Logging.RequestLogEnabled() {
		r.Use(requestLoggerWithColor(requestLogger, requestLoggerColor))
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	h := &handlers{cfg: cfg}
	api := r.Group("/api")
	api.Use(bodyLimit(cfg.Server.MaxBodyBytes))
	api.POST("/rows", h.rows)
	api.POST("/directives", h.directives)
	api.POST("/split", h.split)

	return r
}
