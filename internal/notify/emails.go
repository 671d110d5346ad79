package notify

import (
	"fmt"

	"shopora_back_end/internal/models"
)

func statusEmailSubject(status models.OrderStatus) string {
	switch status {
	case models.OrderStatusProcessing:
		return "✅ Paiement confirmé - Shopora"
	case models.OrderStatusShipped:
		return "📦 Votre commande a été expédiée - Shopora"
	case models.OrderStatusDelivered:
		return "🎉 Votre commande a été livrée - Shopora"
	case models.OrderStatusCancelled:
		return "❌ Commande annulée - Shopora"
	case models.OrderStatusRefunded:
		return "💰 Remboursement effectué - Shopora"
	default:
		return "📋 Mise à jour de votre commande - Shopora"
	}
}

func statusMessage(status models.OrderStatus) string {
	switch status {
	case models.OrderStatusProcessing:
		return "Votre paiement a été confirmé avec succès. Nous préparons votre commande."
	case models.OrderStatusShipped:
		return "Bonne nouvelle ! Votre commande a été expédiée et est en route vers vous."
	case models.OrderStatusDelivered:
		return "Votre commande a été livrée avec succès. Nous espérons que vous en êtes satisfait !"
	case models.OrderStatusCancelled:
		return "Votre commande a été annulée. Si vous avez des questions, n'hésitez pas à nous contacter."
	case models.OrderStatusRefunded:
		return "Votre remboursement a été traité. Les fonds seront crédités sur votre compte sous 5-10 jours ouvrés."
	default:
		return "Le statut de votre commande a été mis à jour."
	}
}

func statusIcon(status models.OrderStatus) string {
	switch status {
	case models.OrderStatusProcessing:
		return "✅"
	case models.OrderStatusShipped:
		return "📦"
	case models.OrderStatusDelivered:
		return "🎉"
	case models.OrderStatusCancelled:
		return "❌"
	case models.OrderStatusRefunded:
		return "💰"
	default:
		return "📋"
	}
}

func statusColor(status models.OrderStatus) string {
	switch status {
	case models.OrderStatusProcessing:
		return "#10b981" // Green
	case models.OrderStatusShipped:
		return "#3b82f6" // Blue
	case models.OrderStatusDelivered:
		return "#8b5cf6" // Purple
	case models.OrderStatusCancelled:
		return "#ef4444" // Red
	case models.OrderStatusRefunded:
		return "#f59e0b" // Orange
	default:
		return "#6b7280" // Gray
	}
}

// orderConfirmationHTML génère le HTML de confirmation de commande
func orderConfirmationHTML(order *models.Order) string {
	itemsHTML := ""
	for _, item := range order.Items {
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td style="padding: 10px; border: 1px solid #ddd;">%s</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%d</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%.2f€</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%.2f€</td>
			</tr>`, item.ProductName, item.Quantity, item.UnitPrice, item.TotalPrice)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Confirmation de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Confirmation de votre commande %s</h2>
		<p>Bonjour %s,</p>
		<p>Votre commande a été enregistrée avec succès.</p>

		<h3>Détails de la commande</h3>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Produit</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Quantité</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Prix unitaire</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Total</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
			<tfoot>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right;">Sous-total:</td>
					<td style="padding: 10px;">%.2f€</td>
				</tr>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right;">Livraison:</td>
					<td style="padding: 10px;">%.2f€</td>
				</tr>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right;">TVA:</td>
					<td style="padding: 10px;">%.2f€</td>
				</tr>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right; font-weight: bold;">Total:</td>
					<td style="padding: 10px; font-weight: bold;">%.2f€</td>
				</tr>
			</tfoot>
		</table>

		<p style="margin-top: 30px; color: #555;">
			Cordialement,<br>
			<strong>L'équipe Shopora</strong>
		</p>
	</div>
</body>
</html>`, order.OrderNumber, order.CustomerName, itemsHTML,
		order.Subtotal, order.ShippingAmount, order.TaxAmount, order.TotalAmount)
}

// statusChangeHTML génère le HTML de notification de changement de statut
func statusChangeHTML(order *models.Order, status models.OrderStatus) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Mise à jour de commande</title>
</head>
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f5f5f5;">
    <div style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px; padding: 30px;">
        <h1 style="margin: 0 0 20px 0; color: #333; font-size: 24px;">%s Mise à jour de votre commande</h1>
        <div style="display: inline-block; padding: 12px 24px; background-color: %s; color: #ffffff; border-radius: 25px; font-weight: 600; font-size: 14px; text-transform: uppercase;">
            %s %s
        </div>
        <p style="margin: 20px 0; color: #333; font-size: 16px; line-height: 1.6;">%s</p>
        <div style="background-color: #f8f9fa; border-radius: 8px; padding: 20px; margin: 20px 0;">
            <p style="margin: 0 0 8px 0; color: #666; font-size: 14px;"><strong style="color: #333;">Numéro de commande:</strong> %s</p>
            <p style="margin: 0; color: #666; font-size: 14px;"><strong style="color: #333;">Montant total:</strong> %.2f€</p>
        </div>
        <p style="margin: 20px 0 0 0; color: #999; font-size: 12px;">
            Cet email a été envoyé automatiquement, merci de ne pas y répondre.
        </p>
    </div>
</body>
</html>`, statusIcon(status), statusColor(status), statusIcon(status), status,
		statusMessage(status), order.OrderNumber, order.TotalAmount)
}
