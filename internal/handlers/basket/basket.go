package basket

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"shopora_back_end/internal/commerce"
	"shopora_back_end/internal/handlers"
	"shopora_back_end/internal/utils"
)

// Manager est injecté au démarrage (voir routes.SetupRouter)
var Manager *commerce.BasketManager

func Init(m *commerce.BasketManager) {
	Manager = m
}

// shopIDFrom extrait l'identifiant boutique : claims JWT pour les routes
// authentifiées, header X-Shop-ID pour les routes invité.
func shopIDFrom(c *gin.Context) (gocql.UUID, bool) {
	raw := c.GetString("shop_id")
	if raw == "" {
		raw = c.GetHeader("X-Shop-ID")
	}
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Boutique non identifiée"})
		return gocql.UUID{}, false
	}
	shopID, err := gocql.ParseUUID(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID boutique invalide"})
		return gocql.UUID{}, false
	}
	return shopID, true
}

func parseUUIDParam(c *gin.Context, name string) (gocql.UUID, bool) {
	id, err := gocql.ParseUUID(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID invalide"})
		return gocql.UUID{}, false
	}
	return id, true
}

//
// 🟢 POST /api/baskets
// Récupère ou crée le panier actif du client authentifié, ou celui de la
// session invitée (header X-Session-ID).
//
func GetOrCreateBasket(c *gin.Context) {
	shopID, ok := shopIDFrom(c)
	if !ok {
		return
	}

	userID := c.GetString("user_id")
	if userID != "" {
		customerID, err := gocql.ParseUUID(userID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID client invalide"})
			return
		}
		basket, err := Manager.GetOrCreateCustomerBasket(c.Request.Context(), shopID, customerID)
		if err != nil {
			log.Printf("❌ Erreur récupération panier client: %v", err)
			c.JSON(handlers.ErrorStatus(err), gin.H{"error": "Impossible de récupérer le panier"})
			return
		}
		c.JSON(http.StatusOK, basket)
		return
	}

	sessionID := c.GetHeader("X-Session-ID")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session invitée manquante"})
		return
	}
	basket, err := Manager.GetOrCreateGuestBasket(c.Request.Context(), shopID, sessionID)
	if err != nil {
		log.Printf("❌ Erreur récupération panier invité: %v", err)
		c.JSON(handlers.ErrorStatus(err), gin.H{"error": "Impossible de récupérer le panier"})
		return
	}
	c.JSON(http.StatusOK, basket)
}

//
// 🟢 GET /api/baskets/:id
//
func GetBasket(c *gin.Context) {
	basketID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	basket, err := Manager.GetBasket(c.Request.Context(), basketID)
	if err != nil {
		c.JSON(handlers.ErrorStatus(err), gin.H{"error": "Panier non trouvé"})
		return
	}
	c.JSON(http.StatusOK, basket)
}

//
// 🟢 GET /api/baskets/token/:token
// Lookup par token opaque — utilisé par les clients sans identifiant interne.
//
func GetBasketByToken(c *gin.Context) {
	shopID, ok := shopIDFrom(c)
	if !ok {
		return
	}

	basket, err := Manager.GetBasketByToken(c.Request.Context(), shopID, c.Param("token"))
	if err != nil {
		c.JSON(handlers.ErrorStatus(err), gin.H{"error": "Panier non trouvé"})
		return
	}
	c.JSON(http.StatusOK, basket)
}

//
// 🟢 POST /api/baskets/:id/items
//
func AddItem(c *gin.Context) {
	basketID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var input struct {
		ProductID string  `json:"product_id" binding:"required"`
		VariantID *string `json:"variant_id"`
		Quantity  int     `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if input.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}

	productID, err := gocql.ParseUUID(input.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	var variantID *gocql.UUID
	if input.VariantID != nil {
		vid, err := gocql.ParseUUID(*input.VariantID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID variante invalide"})
			return
		}
		variantID = &vid
	}

	basket, err := Manager.AddItem(c.Request.Context(), basketID, productID, variantID, input.Quantity)
	if err != nil {
		log.Printf("❌ Erreur ajout au panier %s: %v", basketID, err)
		c.JSON(handlers.ErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, basket)
}

//
// 🟢 PATCH /api/baskets/:id/items/:itemId
//
func UpdateItem(c *gin.Context) {
	basketID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	itemID, err := gocql.ParseUUID(c.Param("itemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de ligne invalide"})
		return
	}

	var input struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	basket, err := Manager.UpdateItemQuantity(c.Request.Context(), basketID, itemID, input.Quantity)
	if err != nil {
		c.JSON(handlers.ErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, basket)
}

//
// 🟢 DELETE /api/baskets/:id/items/:itemId
//
func RemoveItem(c *gin.Context) {
	basketID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	itemID, err := gocql.ParseUUID(c.Param("itemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de ligne invalide"})
		return
	}

	basket, err := Manager.RemoveItem(c.Request.Context(), basketID, itemID)
	if err != nil {
		c.JSON(handlers.ErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, basket)
}

//
// 🟢 DELETE /api/baskets/:id/items
// Vide le panier sans le supprimer.
//
func ClearBasket(c *gin.Context) {
	basketID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	basket, err := Manager.Clear(c.Request.Context(), basketID)
	if err != nil {
		c.JSON(handlers.ErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	utils.LogAction(c, utils.ACTION_BASKET_CLEAR, utils.RESOURCE_BASKET, basketID.String(), nil, nil)
	c.JSON(http.StatusOK, basket)
}

//
// 🟢 POST /api/baskets/merge
// Fusionne le panier source dans le panier cible (même boutique).
//
func MergeBaskets(c *gin.Context) {
	var input struct {
		SourceID string `json:"source_id" binding:"required"`
		TargetID string `json:"target_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	sourceID, err := gocql.ParseUUID(input.SourceID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID source invalide"})
		return
	}
	targetID, err := gocql.ParseUUID(input.TargetID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID cible invalide"})
		return
	}

	basket, err := Manager.MergeBaskets(c.Request.Context(), sourceID, targetID)
	if err != nil {
		log.Printf("❌ Erreur fusion paniers %s → %s: %v", sourceID, targetID, err)
		c.JSON(handlers.ErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	utils.LogAction(c, utils.ACTION_BASKET_MERGE, utils.RESOURCE_BASKET, targetID.String(),
		gin.H{"source_id": sourceID.String()}, nil)
	c.JSON(http.StatusOK, basket)
}

//
// 🟢 POST /api/baskets/convert
// Rattache un panier invité au client authentifié (login pendant le shopping).
//
func ConvertGuestBasket(c *gin.Context) {
	shopID, ok := shopIDFrom(c)
	if !ok {
		return
	}

	customerID, err := gocql.ParseUUID(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		BasketToken string `json:"basket_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	basket, err := Manager.ConvertGuestToCustomer(c.Request.Context(), shopID, input.BasketToken, customerID)
	if err != nil {
		log.Printf("❌ Erreur conversion panier invité: %v", err)
		c.JSON(handlers.ErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	utils.LogAction(c, utils.ACTION_BASKET_CONVERT, utils.RESOURCE_BASKET, basket.ID.String(), nil, nil)
	c.JSON(http.StatusOK, basket)
}
