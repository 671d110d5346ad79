package product

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"shopora_back_end/internal/database"
	"shopora_back_end/internal/utils"
)

//
// 🟢 PATCH /api/products/:id/stock (staff)
// Réassort ou ajustement manuel du stock, avec traçage du mouvement.
//
func UpdateStock(c *gin.Context) {
	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	var req struct {
		Quantity int    `json:"quantity" binding:"required"`
		Reason   string `json:"reason" binding:"required"`
		Type     string `json:"type" binding:"required"` // "restock", "adjustment"
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	// Récupérer le stock actuel
	var currentStock, lowStockThreshold int
	var productName string
	query := `SELECT stock, low_stock_threshold, name FROM products WHERE product_id = ?`
	if err := session.Query(query, productID).WithContext(c.Request.Context()).
		Scan(&currentStock, &lowStockThreshold, &productName); err != nil {
		log.Printf("❌ Produit non trouvé: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit non trouvé"})
		return
	}

	var newStock int
	switch req.Type {
	case "restock":
		newStock = currentStock + req.Quantity
	case "adjustment":
		newStock = req.Quantity // Quantité absolue
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Type invalide (restock ou adjustment)"})
		return
	}
	if newStock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le stock ne peut pas être négatif"})
		return
	}

	// Écriture conditionnelle : un débit concurrent ne doit pas être écrasé
	applied, err := session.Query(
		`UPDATE products SET stock = ? WHERE product_id = ? IF stock = ?`,
		newStock, productID, currentStock,
	).WithContext(c.Request.Context()).ScanCAS()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour stock"})
		return
	}
	if !applied {
		c.JSON(http.StatusConflict, gin.H{"error": "Stock modifié entre-temps, réessayez"})
		return
	}

	// Tracer le mouvement
	if err := session.Query(
		`INSERT INTO stock_movements (movement_id, product_id, variant_id, type, quantity,
			prev_stock, new_stock, reason, order_id, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gocql.TimeUUID(), productID, nil, req.Type, req.Quantity,
		currentStock, newStock, req.Reason, nil, c.GetString("user_id"), time.Now(),
	).WithContext(c.Request.Context()).Exec(); err != nil {
		log.Printf("⚠️ Mouvement de stock non tracé pour %s: %v", productID, err)
	}

	if newStock <= lowStockThreshold {
		log.Printf("⚠️ Stock bas pour %s (%s): %d restants", productName, productID, newStock)
		utils.LogAction(c, utils.ACTION_STOCK_ALERT, utils.RESOURCE_INVENTORY, productID.String(),
			nil, gin.H{"stock": newStock, "threshold": lowStockThreshold})
	}

	utils.LogAction(c, utils.ACTION_STOCK_UPDATE, utils.RESOURCE_INVENTORY, productID.String(),
		gin.H{"stock": currentStock}, gin.H{"stock": newStock})

	log.Printf("✅ Stock mis à jour: %s (%d → %d, %s)", productName, currentStock, newStock, req.Type)
	c.JSON(http.StatusOK, gin.H{
		"product_id": productID.String(),
		"prev_stock": currentStock,
		"new_stock":  newStock,
	})
}

//
// 🟢 GET /api/products/:id/movements (staff)
// Historique des mouvements de stock d'un produit.
//
func ListStockMovements(c *gin.Context) {
	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(
		`SELECT movement_id, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at
		 FROM stock_movements WHERE product_id = ? ALLOW FILTERING`,
		productID,
	).WithContext(c.Request.Context()).Iter()

	movements := make([]gin.H, 0)
	var (
		movementID gocql.UUID
		movType    string
		quantity   int
		prevStock  int
		newStock   int
		reason     string
		orderID    *gocql.UUID
		userID     string
		createdAt  time.Time
	)
	for iter.Scan(&movementID, &movType, &quantity, &prevStock, &newStock, &reason, &orderID, &userID, &createdAt) {
		entry := gin.H{
			"id":         movementID.String(),
			"type":       movType,
			"quantity":   quantity,
			"prev_stock": prevStock,
			"new_stock":  newStock,
			"reason":     reason,
			"user_id":    userID,
			"created_at": createdAt,
		}
		if orderID != nil {
			entry["order_id"] = orderID.String()
		}
		movements = append(movements, entry)
		orderID = nil
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture mouvements"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"movements": movements, "count": len(movements)})
}
