package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jengzang/geolife-tracks/internal/handler"
	"github.com/jengzang/geolife-tracks/internal/middleware"
	"github.com/jengzang/geolife-tracks/internal/pkg/logger"
)

// Report routes allow this many requests per client and minute.
const reportRateLimit = 30

// SetupRouter 设置路由
func SetupRouter(reports *handler.ReportHandler, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(log))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "GeoLife report API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API 路由组
	api := r.Group("/api/v1")
	{
		// 报表接口
		group := api.Group("/reports")
		group.Use(middleware.RateLimit(reportRateLimit, time.Minute))
		{
			group.GET("", reports.ListReports)
			group.GET("/:name", reports.GetReport)
		}
	}

	return r
}
