package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/eden-ncr/backend/internal/config"
	"github.com/eden-ncr/backend/internal/http/handlers"
	"github.com/eden-ncr/backend/internal/http/middleware"
	"github.com/eden-ncr/backend/internal/service"
)

func Router(cfg config.Config, reports *service.ReportService, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Reports:   reports,
		Validator: validator.New(),
		Logger:    logger,
		AdminKey:  cfg.AdminKey,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	api.Use(middleware.AdminKey(cfg.AdminKey))
	{
		api.POST("/fetch", h.Fetch)
		api.POST("/reports/ncr", h.NCRReport)
		api.POST("/reports/safety", h.SafetyReport)
		api.POST("/reports/housekeeping", h.HousekeepingReport)
		api.POST("/reports/combined", h.CombinedReport)
	}

	return r
}
