package commerce

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"shopora_back_end/internal/models"
)

// allowedTransitions est la table des transitions de statut autorisées.
// Toute transition absente échoue avec ErrInvalidTransition et laisse la
// commande inchangée — jamais d'application partielle.
var allowedTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled, models.OrderStatusRefunded},
	models.OrderStatusShipped:    {models.OrderStatusDelivered, models.OrderStatusCancelled, models.OrderStatusRefunded},
	models.OrderStatusDelivered:  {models.OrderStatusRefunded},
}

// CanTransition indique si le passage from → to figure dans la table.
func CanTransition(from, to models.OrderStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// OrderManager possède la création des commandes (depuis un panier ou en
// saisie directe), la machine à états de statut, le journal d'audit et les
// notifications.
type OrderManager struct {
	orders    OrderStore
	baskets   BasketStore
	products  ProductDirectory
	customers CustomerDirectory
	shops     ShopDirectory
	inventory InventoryGateway
	notifier  Notifier
	cache     CacheInvalidator
	pricing   PricingConfig
}

func NewOrderManager(orders OrderStore, baskets BasketStore, products ProductDirectory,
	customers CustomerDirectory, shops ShopDirectory, inventory InventoryGateway,
	notifier Notifier, cache CacheInvalidator, pricing PricingConfig) *OrderManager {
	if pricing == (PricingConfig{}) {
		pricing = DefaultPricingConfig()
	}
	return &OrderManager{
		orders:    orders,
		baskets:   baskets,
		products:  products,
		customers: customers,
		shops:     shops,
		inventory: inventory,
		notifier:  notifier,
		cache:     cache,
		pricing:   pricing,
	}
}

// generateOrderNumber produit un numéro lisible : horodatage + suffixe
// aléatoire. La collision est négligeable, le store impose de toute façon
// l'unicité comme contrainte dure.
func generateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("ORD%s%s", now.Format("20060102150405"), suffix)
}

// CreateOrderInput porte les informations de checkout.
type CreateOrderInput struct {
	ShippingAddress *models.Address
	BillingAddress  *models.Address
	PaymentMethod   string
	CustomerNotes   string
	Actor           string
}

// debitedLine garde la trace d'un débit de stock à compenser en cas d'échec
type debitedLine struct {
	productID gocql.UUID
	variantID *gocql.UUID
	qty       int
}

// debitStock débite l'inventaire pour chaque ligne gérée en stock. C'est le
// contrôle autoritaire. Si une ligne échoue, tous les débits déjà effectués
// sont compensés avant de retourner l'erreur : l'appelant ne voit jamais une
// commande qui sous-compte son propre débit d'inventaire.
func (m *OrderManager) debitStock(ctx context.Context, shopID, orderID gocql.UUID, items []models.OrderItem) error {
	debited := make([]debitedLine, 0, len(items))

	rollback := func() {
		for _, d := range debited {
			if err := m.inventory.Increment(ctx, d.productID, d.variantID, d.qty, orderID); err != nil {
				log.Printf("❌ Compensation de stock échouée pour le produit %s: %v", d.productID, err)
			}
		}
	}

	for _, item := range items {
		product, err := m.products.GetProduct(ctx, shopID, item.ProductID)
		if err != nil {
			rollback()
			return err
		}
		if !product.ManageStock {
			continue
		}
		if err := m.inventory.Decrement(ctx, item.ProductID, item.VariantID, item.Quantity, orderID); err != nil {
			rollback()
			if errors.Is(err, ErrInsufficientStock) {
				return fmt.Errorf("%w: %s", ErrInsufficientStock, item.ProductName)
			}
			return err
		}
		debited = append(debited, debitedLine{item.ProductID, item.VariantID, item.Quantity})
	}
	return nil
}

// creditStock recrédite l'inventaire d'une commande annulée.
func (m *OrderManager) creditStock(ctx context.Context, order *models.Order) {
	for _, item := range order.Items {
		product, err := m.products.GetProduct(ctx, order.ShopID, item.ProductID)
		if err != nil || !product.ManageStock {
			continue
		}
		if err := m.inventory.Increment(ctx, item.ProductID, item.VariantID, item.Quantity, order.ID); err != nil {
			log.Printf("❌ Recrédit de stock échoué pour le produit %s: %v", item.ProductID, err)
		}
	}
}

// CreateFromBasket convertit un panier en commande : snapshot immuable des
// lignes, totaux copiés tels quels (le panier fait autorité à l'instant de
// la conversion), débit atomique du stock, puis bascule du panier en
// converted.
func (m *OrderManager) CreateFromBasket(ctx context.Context, basketID gocql.UUID, input CreateOrderInput) (*models.Order, error) {
	basket, err := m.baskets.GetByID(ctx, basketID)
	if err != nil {
		return nil, err
	}
	if !basket.IsMutable() {
		return nil, fmt.Errorf("%w: statut %s", ErrBasketNotActive, basket.Status)
	}
	if basket.IsEmpty() {
		return nil, ErrEmptyBasket
	}

	now := time.Now()
	orderID := gocql.TimeUUID()

	order := &models.Order{
		ID:              orderID,
		ShopID:          basket.ShopID,
		OrderNumber:     generateOrderNumber(now),
		CustomerID:      basket.CustomerID,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		PaymentMethod:   input.PaymentMethod,
		CustomerNotes:   input.CustomerNotes,
		// Totaux copiés du panier, sans recalcul
		Subtotal:       basket.Subtotal,
		DiscountAmount: basket.DiscountAmount,
		ShippingAmount: basket.ShippingAmount,
		TaxAmount:      basket.TaxAmount,
		TotalAmount:    basket.TotalAmount,
		Currency:       basket.Currency,
		SourceBasketID: &basket.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if basket.CustomerID != nil && m.customers != nil {
		if customer, err := m.customers.GetCustomer(ctx, basket.ShopID, *basket.CustomerID); err == nil {
			order.CustomerEmail = customer.Email
			order.CustomerName = customer.FullName
			order.CustomerPhone = customer.Phone
			if order.ShippingAddress == nil {
				order.ShippingAddress = customer.DefaultAddress
			}
		}
	}

	for _, line := range basket.Items {
		order.Items = append(order.Items, models.OrderItem{
			ID:                gocql.TimeUUID(),
			OrderID:           orderID,
			ProductID:         line.ProductID,
			VariantID:         line.VariantID,
			ProductName:       line.ProductName,
			ProductSKU:        line.ProductSKU,
			VariantName:       line.VariantName,
			VariantAttributes: line.VariantAttributes,
			ImageURL:          line.ImageURL,
			UnitPrice:         line.UnitPrice,
			DiscountAmount:    line.DiscountAmount,
			Quantity:          line.Quantity,
			TotalPrice:        line.LineTotal(),
		})
	}

	// Débit autoritaire — tout ou rien
	if err := m.debitStock(ctx, basket.ShopID, orderID, order.Items); err != nil {
		return nil, err
	}

	if err := m.orders.Insert(ctx, order); err != nil {
		// La commande n'existe pas : on rend le stock débité
		m.creditStock(ctx, order)
		return nil, fmt.Errorf("insertion commande: %w", err)
	}

	// Bascule du panier en converted — exactement une fois
	basket.Status = models.BasketStatusConverted
	basket.LastActivityAt = now
	basket.UpdatedAt = now
	if err := m.baskets.Save(ctx, basket); err != nil {
		// La commande et le débit sont corrects ; on retente sur l'état frais
		if errors.Is(err, ErrConflict) {
			if fresh, ferr := m.baskets.GetByID(ctx, basketID); ferr == nil && fresh.Status != models.BasketStatusConverted {
				fresh.Status = models.BasketStatusConverted
				fresh.UpdatedAt = time.Now()
				err = m.baskets.Save(ctx, fresh)
			} else {
				err = ferr
			}
		}
		if err != nil {
			log.Printf("⚠️ Bascule du panier %s en converted échouée: %v", basketID, err)
		}
	}

	m.invalidateOrderCache(ctx, order.ShopID)
	if m.notifier != nil {
		m.notifier.OrderCreated(order)
	}

	log.Printf("✅ Commande %s créée depuis le panier %s (%.2f %s)",
		order.OrderNumber, basketID, order.TotalAmount, order.Currency)
	return order, nil
}

// DirectOrderLine est une ligne de commande saisie manuellement.
type DirectOrderLine struct {
	ProductID gocql.UUID
	VariantID *gocql.UUID
	Quantity  int
}

// CustomerContact est le snapshot de contact d'une commande directe.
type CustomerContact struct {
	CustomerID      *gocql.UUID
	Email           string
	Name            string
	Phone           string
	ShippingAddress *models.Address
	BillingAddress  *models.Address
}

// CreateDirect crée une commande sans panier source (saisie manuelle).
// Mêmes validations et même logique de snapshot que CreateFromBasket, avec
// un calcul de totaux depuis les prix produit courants.
func (m *OrderManager) CreateDirect(ctx context.Context, shopID gocql.UUID, contact CustomerContact, lines []DirectOrderLine, input CreateOrderInput) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyBasket
	}
	if contact.Email == "" {
		return nil, fmt.Errorf("%w: email client manquant", ErrInvalidArgument)
	}

	now := time.Now()
	orderID := gocql.TimeUUID()

	// Construit des lignes de panier éphémères pour réutiliser le calcul
	// tarifaire, puis les fige en OrderItems
	var basketItems []models.BasketItem
	var orderItems []models.OrderItem
	currency := "EUR"

	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantité %d", ErrInvalidArgument, line.Quantity)
		}
		product, err := m.products.GetProduct(ctx, shopID, line.ProductID)
		if err != nil {
			return nil, err
		}

		item := models.BasketItem{
			ProductID:        line.ProductID,
			VariantID:        line.VariantID,
			ProductName:      product.Name,
			ProductSKU:       product.SKU,
			ImageURL:         product.MainImage(),
			Weight:           product.Weight,
			RequiresShipping: product.RequiresShipping,
			UnitPrice:        product.Price,
			OriginalPrice:    product.OriginalPrice,
			Quantity:         line.Quantity,
		}
		if line.VariantID != nil {
			variant, err := m.products.GetVariant(ctx, line.ProductID, *line.VariantID)
			if err != nil {
				return nil, err
			}
			item.VariantName = variant.Name
			item.VariantAttributes = variant.Attributes
			item.UnitPrice = variant.Price
			item.OriginalPrice = variant.OriginalPrice
			if variant.Weight > 0 {
				item.Weight = variant.Weight
			}
		}
		if item.OriginalPrice > item.UnitPrice {
			item.DiscountAmount = item.OriginalPrice - item.UnitPrice
		}
		basketItems = append(basketItems, item)

		orderItems = append(orderItems, models.OrderItem{
			ID:                gocql.TimeUUID(),
			OrderID:           orderID,
			ProductID:         item.ProductID,
			VariantID:         item.VariantID,
			ProductName:       item.ProductName,
			ProductSKU:        item.ProductSKU,
			VariantName:       item.VariantName,
			VariantAttributes: item.VariantAttributes,
			ImageURL:          item.ImageURL,
			UnitPrice:         item.UnitPrice,
			DiscountAmount:    item.DiscountAmount,
			Quantity:          item.Quantity,
			TotalPrice:        item.LineTotal(),
		})
	}

	pricing := m.pricing
	if m.shops != nil {
		if shop, err := m.shops.GetShop(ctx, shopID); err == nil {
			pricing = m.pricing.Merge(shop.Settings)
			if shop.Currency != "" {
				currency = shop.Currency
			}
		}
	}
	totals := ComputeTotals(basketItems, pricing)

	order := &models.Order{
		ID:              orderID,
		ShopID:          shopID,
		OrderNumber:     generateOrderNumber(now),
		CustomerID:      contact.CustomerID,
		CustomerEmail:   contact.Email,
		CustomerName:    contact.Name,
		CustomerPhone:   contact.Phone,
		ShippingAddress: contact.ShippingAddress,
		BillingAddress:  contact.BillingAddress,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		PaymentMethod:   input.PaymentMethod,
		CustomerNotes:   input.CustomerNotes,
		Subtotal:        totals.Subtotal,
		DiscountAmount:  totals.DiscountAmount,
		ShippingAmount:  totals.ShippingAmount,
		TaxAmount:       totals.TaxAmount,
		TotalAmount:     totals.Total,
		Currency:        currency,
		Items:           orderItems,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := m.debitStock(ctx, shopID, orderID, order.Items); err != nil {
		return nil, err
	}

	if err := m.orders.Insert(ctx, order); err != nil {
		m.creditStock(ctx, order)
		return nil, fmt.Errorf("insertion commande: %w", err)
	}

	m.invalidateOrderCache(ctx, shopID)
	if m.notifier != nil {
		m.notifier.OrderCreated(order)
	}

	log.Printf("✅ Commande directe %s créée (%.2f %s)", order.OrderNumber, order.TotalAmount, order.Currency)
	return order, nil
}

// TransitionStatus applique un changement de statut validé par la table.
// Effets de bord en cas de succès : entrée d'historique, marqueurs
// temporels, notification, et recrédit du stock sur cancelled.
func (m *OrderManager) TransitionStatus(ctx context.Context, orderID gocql.UUID, newStatus models.OrderStatus, note, actor string) (*models.Order, error) {
	if !models.ValidOrderStatus(newStatus) {
		return nil, fmt.Errorf("%w: statut %q inconnu", ErrInvalidArgument, newStatus)
	}

	order, err := m.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	oldStatus := order.Status
	if !CanTransition(oldStatus, newStatus) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, oldStatus, newStatus)
	}

	now := time.Now()
	change := models.StatusChange{
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Actor:     actor,
		Note:      note,
		ChangedAt: now,
	}

	order.Status = newStatus
	order.StatusHistory = append(order.StatusHistory, change)
	order.UpdatedAt = now

	switch newStatus {
	case models.OrderStatusProcessing:
		// processing est l'équivalent payé côté cycle de vie
		if order.PaidAt == nil {
			order.PaidAt = &now
		}
	case models.OrderStatusShipped:
		if order.ShippedAt == nil {
			order.ShippedAt = &now
		}
	case models.OrderStatusDelivered:
		if order.DeliveredAt == nil {
			order.DeliveredAt = &now
		}
	}

	if err := m.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	// Seule l'annulation touche l'inventaire : compensation du débit de
	// création
	if newStatus == models.OrderStatusCancelled {
		m.creditStock(ctx, order)
	}

	m.invalidateOrderCache(ctx, order.ShopID)
	if m.notifier != nil {
		m.notifier.OrderStatusChanged(order, change)
	}

	log.Printf("✅ Commande %s: %s → %s (par %s)", order.OrderNumber, oldStatus, newStatus, actor)
	return order, nil
}

// BulkResult est l'issue d'une transition dans un lot.
type BulkResult struct {
	OrderID gocql.UUID `json:"order_id"`
	OK      bool       `json:"ok"`
	Error   string     `json:"error,omitempty"`
}

// BulkTransition applique la même règle de transition à chaque commande
// indépendamment. Un échec n'annule pas les autres : le succès partiel est
// attendu et rapporté, pas traité comme fatal.
func (m *OrderManager) BulkTransition(ctx context.Context, orderIDs []gocql.UUID, newStatus models.OrderStatus, note, actor string) []BulkResult {
	results := make([]BulkResult, 0, len(orderIDs))
	for _, id := range orderIDs {
		_, err := m.TransitionStatus(ctx, id, newStatus, note, actor)
		result := BulkResult{OrderID: id, OK: err == nil}
		if err != nil {
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results
}

// NotesUpdate porte les champs modifiables hors machine à états.
type NotesUpdate struct {
	CustomerNotes   *string
	StaffNotes      *string
	TrackingNumber  *string
	ShippingCarrier *string
}

// UpdateNotes met à jour notes et suivi d'expédition. Refusé sur les
// commandes en état terminal.
func (m *OrderManager) UpdateNotes(ctx context.Context, orderID gocql.UUID, update NotesUpdate) (*models.Order, error) {
	order, err := m.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsTerminal() {
		return nil, fmt.Errorf("%w: commande en état terminal %s", ErrInvalidTransition, order.Status)
	}

	if update.CustomerNotes != nil {
		order.CustomerNotes = *update.CustomerNotes
	}
	if update.StaffNotes != nil {
		order.StaffNotes = *update.StaffNotes
	}
	if update.TrackingNumber != nil {
		order.TrackingNumber = *update.TrackingNumber
	}
	if update.ShippingCarrier != nil {
		order.ShippingCarrier = *update.ShippingCarrier
	}
	order.UpdatedAt = time.Now()

	if err := m.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	m.invalidateOrderCache(ctx, order.ShopID)
	return order, nil
}

// RecordPayment enregistre le statut de paiement rapporté par la passerelle.
// Le moteur ne fait qu'enregistrer l'énumération — aucune logique de capture.
func (m *OrderManager) RecordPayment(ctx context.Context, orderID gocql.UUID, status models.PaymentStatus, reference string) (*models.Order, error) {
	order, err := m.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order.PaymentStatus = status
	if reference != "" {
		order.PaymentReference = reference
	}
	if status == models.PaymentStatusPaid && order.PaidAt == nil {
		order.PaidAt = &now
	}
	order.UpdatedAt = now

	if err := m.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	m.invalidateOrderCache(ctx, order.ShopID)
	log.Printf("💳 Paiement %s enregistré pour la commande %s", status, order.OrderNumber)
	return order, nil
}

// GetOrder charge une commande par identifiant.
func (m *OrderManager) GetOrder(ctx context.Context, orderID gocql.UUID) (*models.Order, error) {
	return m.orders.GetByID(ctx, orderID)
}

// GetOrderByNumber charge une commande par son numéro lisible.
func (m *OrderManager) GetOrderByNumber(ctx context.Context, shopID gocql.UUID, number string) (*models.Order, error) {
	return m.orders.GetByNumber(ctx, shopID, number)
}

// ListOrders liste les commandes d'une boutique avec filtres.
func (m *OrderManager) ListOrders(ctx context.Context, shopID gocql.UUID, f OrderFilter) ([]models.Order, error) {
	return m.orders.List(ctx, shopID, f)
}

// Stats retourne les agrégats de la boutique.
func (m *OrderManager) Stats(ctx context.Context, shopID gocql.UUID) (*OrderStats, error) {
	return m.orders.Stats(ctx, shopID)
}

func (m *OrderManager) invalidateOrderCache(ctx context.Context, shopID gocql.UUID) {
	if m.cache != nil {
		m.cache.Invalidate(ctx, "orders:"+shopID.String()+":*")
	}
}
