package order

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"shopora_back_end/internal/cache"
	"shopora_back_end/internal/commerce"
	"shopora_back_end/internal/models"
)

//
// 🟢 GET /api/orders?status=shipped&email=...&after=...&before=...&limit=50
// Listage des commandes de la boutique (staff). Mémoïsé dans Redis,
// invalidé par le moteur à chaque mutation.
//
func ListOrders(c *gin.Context) {
	shopID, ok := shopIDFrom(c)
	if !ok {
		return
	}

	filter := commerce.OrderFilter{
		Status:        models.OrderStatus(c.Query("status")),
		CustomerEmail: c.Query("email"),
	}
	if raw := c.Query("after"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.After = &t
		}
	}
	if raw := c.Query("before"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.Before = &t
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	cacheKey := fmt.Sprintf("orders:%s:list:%s:%s:%s:%s:%d",
		shopID, filter.Status, filter.CustomerEmail, c.Query("after"), c.Query("before"), filter.Limit)

	var cached []models.Order
	if cache.GetJSON(c.Request.Context(), cacheKey, &cached) {
		c.JSON(http.StatusOK, gin.H{"orders": cached, "count": len(cached), "cached": true})
		return
	}

	orders, err := Manager.ListOrders(c.Request.Context(), shopID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur listage commandes"})
		return
	}

	cache.SetJSON(c.Request.Context(), cacheKey, orders, cache.OrderCacheTTL)
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

//
// 🟢 GET /api/orders/stats (staff)
// Compteurs agrégés de la boutique — mémoïsés dans Redis.
//
func GetStats(c *gin.Context) {
	shopID, ok := shopIDFrom(c)
	if !ok {
		return
	}

	cacheKey := fmt.Sprintf("orders:%s:stats", shopID)

	var cached commerce.OrderStats
	if cache.GetJSON(c.Request.Context(), cacheKey, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	stats, err := Manager.Stats(c.Request.Context(), shopID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur calcul statistiques"})
		return
	}

	cache.SetJSON(c.Request.Context(), cacheKey, stats, cache.OrderStatsCacheTTL)
	c.JSON(http.StatusOK, stats)
}
