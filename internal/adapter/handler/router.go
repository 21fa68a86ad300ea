package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/nopadol/stockledger/internal/port"
)

func NewRouter(h *HTTPHandler, verifier port.TokenVerifier) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.HealthCheck)

	v1 := router.Group("/v1")
	{
		v1.POST("/auth/register", h.Register)
		v1.POST("/auth/login", h.Login)

		authed := v1.Group("/")
		authed.Use(AuthMiddleware(verifier))
		{
			authed.POST("/businesses", h.CreateBusiness)
			authed.GET("/businesses/:id", h.GetBusiness)
			authed.POST("/businesses/:id/members", h.AddMember)

			authed.POST("/inventory/products", h.CreateProduct)
			authed.PATCH("/inventory/products/:id", h.UpdateProduct)
			authed.DELETE("/inventory/products/:id", h.DeactivateProduct)
			authed.POST("/inventory/transactions", h.RecordTransaction)

			authed.GET("/businesses/:id/products", h.ListProducts)
			authed.GET("/businesses/:id/products/barcode/:barcode", h.FindProductByBarcode)
			authed.GET("/businesses/:id/products/:productID/stock", h.GetSnapshot)
			authed.GET("/businesses/:id/products/:productID/transactions", h.ListTransactions)
		}
	}

	return router
}
