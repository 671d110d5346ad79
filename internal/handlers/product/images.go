package product

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"shopora_back_end/internal/database"
	"shopora_back_end/internal/services"
	"shopora_back_end/internal/utils"
)

//
// 🟢 POST /api/products/:id/images (staff)
// Upload d'une image produit vers MinIO, puis ajout de l'URL au produit
// et réindexation Elasticsearch.
//
func UploadImage(c *gin.Context) {
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
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit non trouvé"})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier image requis"})
		return
	}

	url, err := services.UploadProductImage(c.Request.Context(), productID.String(), file)
	if err != nil {
		log.Printf("❌ Erreur upload image produit %s: %v", productID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur upload image"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	imageURLs := append(product.ImageURLs, url)
	if err := session.Query(
		`UPDATE products SET image_urls = ? WHERE product_id = ?`,
		imageURLs, productID,
	).WithContext(c.Request.Context()).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour produit"})
		return
	}

	// Réindexer avec la nouvelle image
	product.ImageURLs = imageURLs
	go services.IndexProduct(*product)

	utils.LogAction(c, utils.ACTION_PRODUCT_IMAGE_UPLOAD, utils.RESOURCE_PRODUCT, productID.String(),
		nil, gin.H{"url": url})
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
