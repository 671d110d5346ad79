package order

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"shopora_back_end/internal/commerce"
	"shopora_back_end/internal/handlers"
	"shopora_back_end/internal/models"
	"shopora_back_end/internal/utils"
)

// Manager est injecté au démarrage (voir routes.SetupRouter)
var Manager *commerce.OrderManager

func Init(m *commerce.OrderManager) {
	Manager = m
}

func shopIDFrom(c *gin.Context) (gocql.UUID, bool) {
	shopID, err := gocql.ParseUUID(c.GetString("shop_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID boutique invalide"})
		return gocql.UUID{}, false
	}
	return shopID, true
}

type addressInput struct {
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code" binding:"required"`
	Country    string `json:"country" binding:"required"`
	Phone      string `json:"phone"`
}

func (a *addressInput) toModel() *models.Address {
	if a == nil {
		return nil
	}
	return &models.Address{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}

//
// 🟢 POST /api/orders/checkout
// Convertit un panier en commande : débit de stock, snapshot des lignes,
// passage du panier en "converted".
//
func Checkout(c *gin.Context) {
	var input struct {
		BasketID        string        `json:"basket_id" binding:"required"`
		ShippingAddress *addressInput `json:"shipping_address"`
		BillingAddress  *addressInput `json:"billing_address"`
		PaymentMethod   string        `json:"payment_method"`
		CustomerNotes   string        `json:"customer_notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	basketID, err := gocql.ParseUUID(input.BasketID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID panier invalide"})
		return
	}

	order, err := Manager.CreateFromBasket(c.Request.Context(), basketID, commerce.CreateOrderInput{
		ShippingAddress: input.ShippingAddress.toModel(),
		BillingAddress:  input.BillingAddress.toModel(),
		PaymentMethod:   input.PaymentMethod,
		CustomerNotes:   input.CustomerNotes,
		Actor:           c.GetString("email"),
	})
	if err != nil {
		log.Printf("❌ Erreur checkout panier %s: %v", basketID, err)
		c.JSON(handlers.ErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	utils.LogAction(c, utils.ACTION_ORDER_CREATE, utils.RESOURCE_ORDER, order.ID.String(),
		gin.H{"basket_id": basketID.String()}, gin.H{"order_number": order.OrderNumber})
	log.Printf("✅ Commande %s créée depuis le panier %s", order.OrderNumber, basketID)
	c.JSON(http.StatusCreated, order)
}

//
// 🟢 POST /api/orders (staff)
// Commande directe sans panier source (saisie manuelle, téléphone).
//
func CreateDirect(c *gin.Context) {
	shopID, ok := shopIDFrom(c)
	if !ok {
		return
	}

	var input struct {
		CustomerID      *string       `json:"customer_id"`
		CustomerEmail   string        `json:"customer_email" binding:"required"`
		CustomerName    string        `json:"customer_name" binding:"required"`
		CustomerPhone   string        `json:"customer_phone"`
		ShippingAddress *addressInput `json:"shipping_address"`
		BillingAddress  *addressInput `json:"billing_address"`
		PaymentMethod   string        `json:"payment_method"`
		CustomerNotes   string        `json:"customer_notes"`
		Items           []struct {
			ProductID string  `json:"product_id" binding:"required"`
			VariantID *string `json:"variant_id"`
			Quantity  int     `json:"quantity" binding:"required"`
		} `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	contact := commerce.CustomerContact{
		Email:           input.CustomerEmail,
		Name:            input.CustomerName,
		Phone:           input.CustomerPhone,
		ShippingAddress: input.ShippingAddress.toModel(),
		BillingAddress:  input.BillingAddress.toModel(),
	}
	if input.CustomerID != nil {
		cid, err := gocql.ParseUUID(*input.CustomerID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID client invalide"})
			return
		}
		contact.CustomerID = &cid
	}

	lines := make([]commerce.DirectOrderLine, 0, len(input.Items))
	for _, item := range input.Items {
		productID, err := gocql.ParseUUID(item.ProductID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
			return
		}
		line := commerce.DirectOrderLine{ProductID: productID, Quantity: item.Quantity}
		if item.VariantID != nil {
			vid, err := gocql.ParseUUID(*item.VariantID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "ID variante invalide"})
				return
			}
			line.VariantID = &vid
		}
		lines = append(lines, line)
	}

	order, err := Manager.CreateDirect(c.Request.Context(), shopID, contact, lines, commerce.CreateOrderInput{
		ShippingAddress: contact.ShippingAddress,
		BillingAddress:  contact.BillingAddress,
		PaymentMethod:   input.PaymentMethod,
		CustomerNotes:   input.CustomerNotes,
		Actor:           c.GetString("email"),
	})
	if err != nil {
		log.Printf("❌ Erreur commande directe: %v", err)
		c.JSON(handlers.ErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	utils.LogAction(c, utils.ACTION_ORDER_CREATE, utils.RESOURCE_ORDER, order.ID.String(),
		nil, gin.H{"order_number": order.OrderNumber})
	c.JSON(http.StatusCreated, order)
}

//
// 🟢 GET /api/orders/:id
//
func GetOrder(c *gin.Context) {
	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	order, err := Manager.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(handlers.ErrorStatus(err), gin.H{"error": "Commande non trouvée"})
		return
	}
	c.JSON(http.StatusOK, order)
}

//
// 🟢 GET /api/orders/number/:number
//
func GetOrderByNumber(c *gin.Context) {
	shopID, ok := shopIDFrom(c)
	if !ok {
		return
	}

	order, err := Manager.GetOrderByNumber(c.Request.Context(), shopID, c.Param("number"))
	if err != nil {
		c.JSON(handlers.ErrorStatus(err), gin.H{"error": "Commande non trouvée"})
		return
	}
	c.JSON(http.StatusOK, order)
}

//
// 🟢 PATCH /api/orders/:id/status (staff)
// Transition de la machine à états. Un statut hors table est refusé.
//
func UpdateStatus(c *gin.Context) {
	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	var input struct {
		Status string `json:"status" binding:"required"`
		Note   string `json:"note"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	order, err := Manager.TransitionStatus(c.Request.Context(), orderID,
		models.OrderStatus(input.Status), input.Note, c.GetString("email"))
	if err != nil {
		log.Printf("⚠️ Transition refusée pour la commande %s → %s: %v", orderID, input.Status, err)
		c.JSON(handlers.ErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, order)
}

//
// 🟢 PATCH /api/orders/status (staff)
// Transition en masse — chaque commande est traitée indépendamment.
//
func BulkUpdateStatus(c *gin.Context) {
	var input struct {
		OrderIDs []string `json:"order_ids" binding:"required"`
		Status   string   `json:"status" binding:"required"`
		Note     string   `json:"note"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	orderIDs := make([]gocql.UUID, 0, len(input.OrderIDs))
	for _, raw := range input.OrderIDs {
		id, err := gocql.ParseUUID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide: " + raw})
			return
		}
		orderIDs = append(orderIDs, id)
	}

	results := Manager.BulkTransition(c.Request.Context(), orderIDs,
		models.OrderStatus(input.Status), input.Note, c.GetString("email"))

	succeeded := 0
	for _, r := range results {
		if r.OK {
			succeeded++
		}
	}

	utils.LogAction(c, utils.ACTION_ORDER_BULK_STATUS, utils.RESOURCE_ORDER, "",
		nil, gin.H{"status": input.Status, "succeeded": succeeded, "total": len(results)})

	response := make([]gin.H, 0, len(results))
	for _, r := range results {
		entry := gin.H{"order_id": r.OrderID.String(), "success": r.OK}
		if !r.OK {
			entry["error"] = r.Error
		}
		response = append(response, entry)
	}
	c.JSON(http.StatusOK, gin.H{
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
		"results":   response,
	})
}

//
// 🟢 PATCH /api/orders/:id/notes (staff)
// Notes et informations de suivi — hors machine à états.
//
func UpdateNotes(c *gin.Context) {
	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	var input struct {
		CustomerNotes   *string `json:"customer_notes"`
		StaffNotes      *string `json:"staff_notes"`
		TrackingNumber  *string `json:"tracking_number"`
		ShippingCarrier *string `json:"shipping_carrier"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	order, err := Manager.UpdateNotes(c.Request.Context(), orderID, commerce.NotesUpdate{
		CustomerNotes:   input.CustomerNotes,
		StaffNotes:      input.StaffNotes,
		TrackingNumber:  input.TrackingNumber,
		ShippingCarrier: input.ShippingCarrier,
	})
	if err != nil {
		c.JSON(handlers.ErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	utils.LogAction(c, utils.ACTION_ORDER_NOTES_UPDATE, utils.RESOURCE_ORDER, orderID.String(), nil, nil)
	c.JSON(http.StatusOK, order)
}
