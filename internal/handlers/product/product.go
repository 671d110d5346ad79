package product

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"shopora_back_end/internal/commerce"
	"shopora_back_end/internal/handlers"
	"shopora_back_end/internal/services"
)

// Directory est injecté au démarrage (voir routes.SetupRouter)
var Directory commerce.ProductDirectory

func Init(d commerce.ProductDirectory) {
	Directory = d
}

func shopIDFrom(c *gin.Context) (gocql.UUID, bool) {
	raw := c.GetString("shop_id")
	if raw == "" {
		raw = c.GetHeader("X-Shop-ID")
	}
	shopID, err := gocql.ParseUUID(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID boutique invalide"})
		return gocql.UUID{}, false
	}
	return shopID, true
}

//
// 🟢 GET /api/products/:id
//
func GetProduct(c *gin.Context) {
	shopID, ok := shopIDFrom(c)
	if !ok {
		return
	}

	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	product, err := Directory.GetProduct(c.Request.Context(), shopID, productID)
	if err != nil {
		c.JSON(handlers.ErrorStatus(err), gin.H{"error": "Produit non trouvé"})
		return
	}
	c.JSON(http.StatusOK, product)
}

//
// 🟢 GET /api/products/:id/variants/:variantId
//
func GetVariant(c *gin.Context) {
	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}
	variantID, err := gocql.ParseUUID(c.Param("variantId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID variante invalide"})
		return
	}

	variant, err := Directory.GetVariant(c.Request.Context(), productID, variantID)
	if err != nil {
		c.JSON(handlers.ErrorStatus(err), gin.H{"error": "Variante non trouvée"})
		return
	}
	c.JSON(http.StatusOK, variant)
}

//
// 🟢 GET /api/products/search?q=...
// Recherche plein texte via Elasticsearch, restreinte à la boutique.
//
func SearchProducts(c *gin.Context) {
	shopID, ok := shopIDFrom(c)
	if !ok {
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre q requis"})
		return
	}

	results, err := services.SearchProducts(shopID.String(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur recherche produits"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
	})
}
