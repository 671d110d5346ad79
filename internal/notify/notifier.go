package notify

import (
	"log"

	"shopora_back_end/internal/models"
)

// EmailNotifier envoie les emails de cycle de vie des commandes.
// Fire-and-forget : chaque envoi part dans sa goroutine, un échec est
// loggé mais ne remonte jamais vers le moteur.
type EmailNotifier struct {
	// Enabled coupe tous les envois (environnements de dev/test)
	Enabled bool
}

func NewEmailNotifier(enabled bool) *EmailNotifier {
	return &EmailNotifier{Enabled: enabled}
}

func (n *EmailNotifier) OrderCreated(order *models.Order) {
	if !n.Enabled || order.CustomerEmail == "" {
		return
	}

	o := *order
	go func() {
		subject := "🛒 Confirmation de votre commande " + o.OrderNumber + " - Shopora"
		if err := sendEmail(o.CustomerEmail, subject, orderConfirmationHTML(&o)); err != nil {
			log.Printf("❌ Erreur envoi email confirmation commande %s: %v", o.OrderNumber, err)
			return
		}
		log.Printf("📧 Email de confirmation envoyé: %s → %s", o.OrderNumber, o.CustomerEmail)
	}()
}

func (n *EmailNotifier) OrderStatusChanged(order *models.Order, change models.StatusChange) {
	if !n.Enabled || order.CustomerEmail == "" {
		return
	}

	o := *order
	go func() {
		subject := statusEmailSubject(change.NewStatus)
		if err := sendEmail(o.CustomerEmail, subject, statusChangeHTML(&o, change.NewStatus)); err != nil {
			log.Printf("❌ Erreur envoi email statut: %v", err)
			return
		}
		log.Printf("📧 Email de statut envoyé: %s → %s", change.NewStatus, o.CustomerEmail)
	}()
}
