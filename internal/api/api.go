// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/api/handlers"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/api/middleware"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	DashboardService *service.DashboardService
	MaxUploadBytes   int64
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil && services.DashboardService != nil {
		h := handlers.NewDashboardHandler(services.DashboardService, services.MaxUploadBytes)

		datasets := apiGroup.Group("/datasets")
		{
			datasets.POST("", h.Upload)
			datasets.GET("/current", h.GetCurrent)
			datasets.DELETE("/current", h.ResetCurrent)
		}

		apiGroup.GET("/filters", h.GetFilters)
		apiGroup.GET("/records", h.GetRecords)
		apiGroup.GET("/dashboard", h.GetDashboard)
		apiGroup.GET("/views/:view", h.GetView)
		apiGroup.GET("/export/:view", h.ExportView)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
