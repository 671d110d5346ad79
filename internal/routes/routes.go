package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"shopora_back_end/internal/handlers/basket"
	"shopora_back_end/internal/handlers/order"
	"shopora_back_end/internal/handlers/payment"
	"shopora_back_end/internal/handlers/product"
	"shopora_back_end/internal/middleware"
	"shopora_back_end/internal/utils"
)

func RegisterRoutes(r *gin.Engine) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Shop-ID", "X-Session-ID"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	api.Use(middleware.APIRateLimit())

	// --- Paniers (invité via X-Shop-ID/X-Session-ID, client via JWT) ---
	baskets := api.Group("/baskets")
	{
		baskets.POST("", basket.GetOrCreateBasket)
		baskets.GET("/:id", basket.GetBasket)
		baskets.GET("/token/:token", basket.GetBasketByToken)
		baskets.POST("/:id/items", middleware.BasketRateLimit(), basket.AddItem)
		baskets.PATCH("/:id/items/:itemId", middleware.BasketRateLimit(), basket.UpdateItem)
		baskets.DELETE("/:id/items/:itemId", basket.RemoveItem)
		baskets.DELETE("/:id/items", basket.ClearBasket)
	}

	// Rattachement d'un panier invité après login
	authBaskets := api.Group("/baskets")
	authBaskets.Use(middleware.AuthRequired())
	{
		authBaskets.POST("/convert", basket.ConvertGuestBasket)
		authBaskets.POST("/merge", basket.MergeBaskets)
	}

	// --- Commandes ---
	orders := api.Group("/orders")
	orders.Use(middleware.AuthRequired())
	{
		orders.POST("/checkout", order.Checkout)
		orders.GET("/:id", order.GetOrder)
		orders.GET("/number/:number", order.GetOrderByNumber)

		// Routes staff
		staff := orders.Group("")
		staff.Use(middleware.RequireStaff)
		{
			staff.POST("", order.CreateDirect)
			staff.GET("", order.ListOrders)
			staff.GET("/stats", order.GetStats)
			staff.PATCH("/status", order.BulkUpdateStatus)
			staff.PATCH("/:id/status", middleware.AuditStatusChanges(), order.UpdateStatus)
			staff.PATCH("/:id/notes", order.UpdateNotes)
		}
	}

	// --- Produits ---
	products := api.Group("/products")
	{
		products.GET("/search", middleware.SearchRateLimit(), product.SearchProducts)
		products.GET("/:id", product.GetProduct)
		products.GET("/:id/variants/:variantId", product.GetVariant)
	}

	staffProducts := api.Group("/products")
	staffProducts.Use(middleware.AuthRequired(), middleware.RequireStaff)
	{
		staffProducts.POST("/:id/images", product.UploadImage)
		staffProducts.PATCH("/:id/stock",
			middleware.AuditCriticalActions(utils.ACTION_STOCK_UPDATE, utils.RESOURCE_INVENTORY),
			product.UpdateStock)
		staffProducts.GET("/:id/movements", product.ListStockMovements)
	}

	// --- Paiements ---
	payments := api.Group("/payments")
	{
		// Le webhook est authentifié par la signature Stripe, pas par JWT
		payments.POST("/webhook", payment.StripeWebhook)
		payments.POST("/intent", middleware.AuthRequired(), payment.CreatePaymentIntent)
	}

	// --- Administration ---
	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.RequireAdmin)
	{
		admin.GET("/baskets", basket.ListBaskets)
	}
}
