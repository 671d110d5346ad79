package payment

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"

	"shopora_back_end/internal/commerce"
	"shopora_back_end/internal/handlers"
	"shopora_back_end/internal/models"
)

// Manager est injecté au démarrage (voir routes.SetupRouter)
var Manager *commerce.OrderManager

func Init(m *commerce.OrderManager) {
	Manager = m
}

//
// 🟢 POST /api/payments/intent
// Crée un PaymentIntent Stripe pour une commande existante. Le montant
// vient de la commande, jamais du client.
//
func CreatePaymentIntent(c *gin.Context) {
	var req struct {
		OrderID string `json:"order_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}

	orderID, err := gocql.ParseUUID(req.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	order, err := Manager.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(handlers.ErrorStatus(err), gin.H{"error": "Commande non trouvée"})
		return
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		c.JSON(http.StatusConflict, gin.H{"error": "Commande déjà payée"})
		return
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(order.TotalAmount * 100)),
		Currency: stripe.String("eur"),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
		},
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		log.Println("❌ Erreur Stripe:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("💳 PaymentIntent créé : %s (%.2f€) pour la commande %s",
		intent.ID, order.TotalAmount, order.OrderNumber)

	c.JSON(http.StatusOK, gin.H{
		"clientSecret": intent.ClientSecret,
		"paymentId":    intent.ID,
	})
}

//
// 🟢 POST /api/payments/webhook
// Webhook Stripe : enregistre le résultat de paiement sur la commande.
//
func StripeWebhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload échouée:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	secret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	var event stripe.Event

	if secret == "" {
		log.Println("⚠️ Pas de STRIPE_WEBHOOK_SECRET — mode test")
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Println("❌ JSON invalide:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "JSON invalide"})
			return
		}
	} else {
		event, err = webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), secret)
		if err != nil {
			log.Println("❌ Signature Stripe invalide:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
			return
		}
	}

	log.Printf("📥 Événement Stripe reçu : %s", event.Type)
	handleStripeEvent(c, event)

	c.Status(http.StatusOK)
}

func handleStripeEvent(c *gin.Context, event stripe.Event) {
	var status models.PaymentStatus
	switch event.Type {
	case "payment_intent.succeeded":
		status = models.PaymentStatusPaid
	case "payment_intent.payment_failed":
		status = models.PaymentStatusFailed
	default:
		log.Printf("ℹ️ Événement ignoré : %s", event.Type)
		return
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		log.Println("❌ Erreur décodage PaymentIntent:", err)
		return
	}

	rawOrderID := pi.Metadata["order_id"]
	if rawOrderID == "" {
		log.Println("⚠️ PaymentIntent sans order_id, ignoré")
		return
	}
	orderID, err := gocql.ParseUUID(rawOrderID)
	if err != nil {
		log.Printf("❌ order_id invalide dans les métadonnées: %s", rawOrderID)
		return
	}

	order, err := Manager.RecordPayment(c.Request.Context(), orderID, status, pi.ID)
	if err != nil {
		log.Printf("❌ Enregistrement paiement échoué pour la commande %s: %v", orderID, err)
		return
	}
	log.Printf("✅ Paiement %s enregistré sur la commande %s", status, order.OrderNumber)
}
