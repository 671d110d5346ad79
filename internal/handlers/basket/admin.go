package basket

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"shopora_back_end/internal/commerce"
)

// Store donne l'accès listage aux routes staff (injecté au démarrage)
var Store commerce.BasketStore

func InitStore(s commerce.BasketStore) {
	Store = s
}

//
// 🟢 GET /api/admin/baskets?status=active&is_guest=true&limit=50
// Listage des paniers de la boutique (staff).
//
func ListBaskets(c *gin.Context) {
	raw := c.GetString("shop_id")
	shopID, err := gocql.ParseUUID(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID boutique invalide"})
		return
	}

	filter := commerce.BasketFilter{
		Status: c.Query("status"),
	}
	if raw := c.Query("is_guest"); raw != "" {
		isGuest := raw == "true"
		filter.IsGuest = &isGuest
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	baskets, err := Store.List(c.Request.Context(), shopID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur listage paniers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"baskets": baskets,
		"count":   len(baskets),
	})
}
