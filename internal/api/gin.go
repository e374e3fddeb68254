package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewGin creates the gin boundary adapter. It serves exactly the same
// routes and status mapping as NewMux — the two engines are interchangeable
// front ends over one Service.
func NewGin(svc *Service, origins []string, stream http.Handler) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	if len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowMethods = []string{http.MethodGet, http.MethodOptions}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", svc.AuthHeader()}
		engine.Use(cors.New(corsConfig))
	}

	healthHandler := func(c *gin.Context) {
		code, resp := svc.Health()
		c.JSON(code, resp)
	}
	engine.GET("/", healthHandler)
	engine.GET("/health", healthHandler)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if stream != nil {
		engine.GET("/ws/readings", gin.WrapH(stream))
	}

	authed := engine.Group("/api", requireKey(svc))
	authed.GET("/sensors", func(c *gin.Context) {
		code, resp := svc.ListSensors()
		c.JSON(code, resp)
	})
	authed.GET("/sensors/:id", func(c *gin.Context) {
		code, resp := svc.SensorData(c.Param("id"))
		c.JSON(code, resp)
	})
	authed.GET("/sensors/:id/info", func(c *gin.Context) {
		code, resp := svc.SensorInfo(c.Param("id"))
		c.JSON(code, resp)
	})
	authed.GET("/temp-and-humid-sensor", func(c *gin.Context) {
		code, resp := svc.LegacySensorData()
		c.JSON(code, resp)
	})

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	})

	return engine
}

// requireKey aborts with 401 before any handler — and therefore before any
// sensor read — when the presented credential does not match.
func requireKey(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !svc.Authorized(c.GetHeader(svc.AuthHeader())) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid or missing API key"})
			return
		}
		c.Next()
	}
}
