package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the HTTP surface of both services: the auth endpoints
// fronting the provisioning saga and the catalog endpoints.
func NewRouter(auth *AuthHandler, products *ProductHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", auth.Register)
			authGroup.POST("/login", auth.Login)
			authGroup.POST("/refresh", auth.Refresh)
		}

		productGroup := v1.Group("/products")
		{
			productGroup.GET("/search", products.Search)
			productGroup.GET("/slug/:slug", products.GetBySlug)
			productGroup.GET("/:id", products.GetByID)
			productGroup.GET("/:id/active", products.GetActiveVariants)
			productGroup.POST("", products.Create)
			productGroup.PATCH("/:id", products.Update)
			productGroup.DELETE("/:id", products.Delete)
			productGroup.POST("/:id/variants", products.CreateVariants)
			productGroup.POST("/images", products.UploadImage)
		}
	}

	return router
}
