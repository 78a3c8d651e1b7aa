package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	productsBasePath = "/products"

	healthStatusOK        = "ok"
	healthStatusUnhealthy = "unhealthy"
)

type HealthChecker interface {
	Health() error
}

// RegisterProductRoutes binds the five product operations under /products.
func RegisterProductRoutes(router gin.IRouter, handler *Handler) {
	group := router.Group(productsBasePath)
	group.POST("", handler.CreateProduct)
	group.GET("", handler.ListProducts)
	group.GET("/:id", handler.GetProduct)
	group.PATCH("/:id", handler.UpdateProduct)
	group.DELETE("/:id", handler.DeleteProduct)
}

func RegisterRoutes(router *gin.Engine, handler *Handler, checker HealthChecker) {
	RegisterProductRoutes(router, handler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		if err := checker.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": healthStatusUnhealthy})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": healthStatusOK})
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
