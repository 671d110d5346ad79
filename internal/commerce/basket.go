package commerce

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"

	"shopora_back_end/internal/models"
)

// BasketManagerConfig règle les durées de vie et la tarification par défaut.
type BasketManagerConfig struct {
	Pricing           PricingConfig
	CustomerBasketTTL time.Duration // expiration des paniers clients (+30j)
	GuestBasketTTL    time.Duration // expiration des paniers invités (+7j)
	DefaultCurrency   string
}

// BasketManager possède le cycle de vie des paniers : création, mutation des
// lignes, fusion, conversion invité → client et balayage d'abandon. Chaque
// mutation réussie recalcule les totaux et rafraîchit last_activity_at.
type BasketManager struct {
	baskets   BasketStore
	products  ProductDirectory
	shops     ShopDirectory
	inventory InventoryGateway
	cfg       BasketManagerConfig
}

func NewBasketManager(baskets BasketStore, products ProductDirectory, shops ShopDirectory, inventory InventoryGateway, cfg BasketManagerConfig) *BasketManager {
	if cfg.Pricing == (PricingConfig{}) {
		cfg.Pricing = DefaultPricingConfig()
	}
	if cfg.CustomerBasketTTL == 0 {
		cfg.CustomerBasketTTL = 30 * 24 * time.Hour
	}
	if cfg.GuestBasketTTL == 0 {
		cfg.GuestBasketTTL = 7 * 24 * time.Hour
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "EUR"
	}
	return &BasketManager{
		baskets:   baskets,
		products:  products,
		shops:     shops,
		inventory: inventory,
		cfg:       cfg,
	}
}

// generateBasketToken produit un jeton opaque unique
func generateBasketToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// rand.Read n'échoue pas en pratique ; on garde un repli déterministe
		return fmt.Sprintf("basket_%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("basket_%s_%d", hex.EncodeToString(buf), time.Now().Unix())
}

// pricingFor retourne la configuration tarifaire effective de la boutique
func (m *BasketManager) pricingFor(ctx context.Context, shopID gocql.UUID) PricingConfig {
	if m.shops == nil {
		return m.cfg.Pricing
	}
	shop, err := m.shops.GetShop(ctx, shopID)
	if err != nil {
		return m.cfg.Pricing
	}
	return m.cfg.Pricing.Merge(shop.Settings)
}

// GetBasket charge un panier par identifiant.
func (m *BasketManager) GetBasket(ctx context.Context, basketID gocql.UUID) (*models.Basket, error) {
	return m.baskets.GetByID(ctx, basketID)
}

// GetBasketByToken charge un panier par son jeton opaque (sessions anonymes).
func (m *BasketManager) GetBasketByToken(ctx context.Context, shopID gocql.UUID, token string) (*models.Basket, error) {
	return m.baskets.GetByToken(ctx, shopID, token)
}

// GetOrCreateCustomerBasket retourne l'unique panier actif du client, en le
// créant s'il n'existe pas. Au plus un panier actif par (boutique, client) :
// on interroge toujours avant de créer.
func (m *BasketManager) GetOrCreateCustomerBasket(ctx context.Context, shopID, customerID gocql.UUID) (*models.Basket, error) {
	basket, err := m.baskets.FindActiveByCustomer(ctx, shopID, customerID)
	if err == nil {
		return basket, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	expires := now.Add(m.cfg.CustomerBasketTTL)
	cid := customerID
	basket = &models.Basket{
		ID:             gocql.TimeUUID(),
		ShopID:         shopID,
		CustomerID:     &cid,
		Token:          generateBasketToken(),
		Status:         models.BasketStatusActive,
		IsGuest:        false,
		Currency:       m.cfg.DefaultCurrency,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      &expires,
	}
	if err := m.baskets.Insert(ctx, basket); err != nil {
		return nil, fmt.Errorf("création panier client: %w", err)
	}
	log.Printf("✅ Panier créé pour le client %s (token %s)", customerID, basket.Token)
	return basket, nil
}

// GetOrCreateGuestBasket retourne l'unique panier actif de la session
// anonyme, en le créant s'il n'existe pas.
func (m *BasketManager) GetOrCreateGuestBasket(ctx context.Context, shopID gocql.UUID, sessionID string) (*models.Basket, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session_id manquant", ErrInvalidArgument)
	}

	basket, err := m.baskets.FindActiveBySession(ctx, shopID, sessionID)
	if err == nil {
		return basket, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	expires := now.Add(m.cfg.GuestBasketTTL)
	basket = &models.Basket{
		ID:             gocql.TimeUUID(),
		ShopID:         shopID,
		SessionID:      sessionID,
		Token:          generateBasketToken(),
		Status:         models.BasketStatusActive,
		IsGuest:        true,
		Currency:       m.cfg.DefaultCurrency,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      &expires,
	}
	if err := m.baskets.Insert(ctx, basket); err != nil {
		return nil, fmt.Errorf("création panier invité: %w", err)
	}
	log.Printf("✅ Panier invité créé (session %s, token %s)", sessionID, basket.Token)
	return basket, nil
}

// checkStock effectue le contrôle indicatif de stock. Ce n'est pas une
// réservation : deux ajouts concurrents peuvent passer tous les deux et
// n'être tranchés qu'au débit autoritaire à la conversion.
func (m *BasketManager) checkStock(ctx context.Context, product *models.Product, variantID *gocql.UUID, wanted int) (int, error) {
	if !product.ManageStock {
		return 0, nil
	}
	available, err := m.inventory.CheckAvailable(ctx, product.ID, variantID)
	if err != nil {
		return 0, err
	}
	if wanted > available {
		return available, fmt.Errorf("%w: produit %s, demandé %d, disponible %d",
			ErrInsufficientStock, product.Name, wanted, available)
	}
	return available, nil
}

// AddItem ajoute un produit au panier. Si une ligne (produit, variante)
// existe déjà, les quantités sont cumulées — jamais de ligne dupliquée.
// Le snapshot prix/nom/poids est capturé à la première insertion.
func (m *BasketManager) AddItem(ctx context.Context, basketID, productID gocql.UUID, variantID *gocql.UUID, quantity int) (*models.Basket, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantité %d", ErrInvalidArgument, quantity)
	}

	basket, err := m.baskets.GetByID(ctx, basketID)
	if err != nil {
		return nil, err
	}
	if !basket.IsMutable() {
		return nil, fmt.Errorf("%w: statut %s", ErrBasketNotActive, basket.Status)
	}

	product, err := m.products.GetProduct(ctx, basket.ShopID, productID)
	if err != nil {
		return nil, err
	}

	var variant *models.ProductVariant
	if variantID != nil {
		variant, err = m.products.GetVariant(ctx, productID, *variantID)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	existing := basket.FindItem(productID, variantID)

	wanted := quantity
	if existing != nil {
		wanted += existing.Quantity
	}
	observed, err := m.checkStock(ctx, product, variantID, wanted)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		existing.Quantity = wanted
		existing.StockObserved = observed
		existing.UpdatedAt = now
	} else {
		item := models.BasketItem{
			ID:               gocql.TimeUUID(),
			BasketID:         basket.ID,
			ProductID:        productID,
			VariantID:        variantID,
			ProductName:      product.Name,
			ProductSKU:       product.SKU,
			ImageURL:         product.MainImage(),
			Weight:           product.Weight,
			RequiresShipping: product.RequiresShipping,
			UnitPrice:        product.Price,
			OriginalPrice:    product.OriginalPrice,
			Quantity:         quantity,
			InStock:          !product.ManageStock || observed > 0,
			StockObserved:    observed,
			AddedAt:          now,
			UpdatedAt:        now,
		}
		if variant != nil {
			item.VariantName = variant.Name
			item.VariantAttributes = variant.Attributes
			item.UnitPrice = variant.Price
			item.OriginalPrice = variant.OriginalPrice
			if variant.SKU != "" {
				item.ProductSKU = variant.SKU
			}
			if variant.Weight > 0 {
				item.Weight = variant.Weight
			}
		}
		// Remise unitaire bornée à zéro : jamais négative
		if item.OriginalPrice > item.UnitPrice {
			item.DiscountAmount = item.OriginalPrice - item.UnitPrice
		}
		basket.Items = append(basket.Items, item)
	}

	return basket, m.commit(ctx, basket, now)
}

// UpdateItemQuantity remplace la quantité d'une ligne existante.
func (m *BasketManager) UpdateItemQuantity(ctx context.Context, basketID, itemID gocql.UUID, quantity int) (*models.Basket, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantité %d", ErrInvalidArgument, quantity)
	}

	basket, err := m.baskets.GetByID(ctx, basketID)
	if err != nil {
		return nil, err
	}
	if !basket.IsMutable() {
		return nil, fmt.Errorf("%w: statut %s", ErrBasketNotActive, basket.Status)
	}

	item := basket.FindItemByID(itemID)
	if item == nil {
		return nil, fmt.Errorf("%w: item %s", ErrNotFound, itemID)
	}

	product, err := m.products.GetProduct(ctx, basket.ShopID, item.ProductID)
	if err != nil {
		return nil, err
	}
	observed, err := m.checkStock(ctx, product, item.VariantID, quantity)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	item.Quantity = quantity
	item.StockObserved = observed
	item.UpdatedAt = now

	return basket, m.commit(ctx, basket, now)
}

// RemoveItem supprime une ligne du panier.
func (m *BasketManager) RemoveItem(ctx context.Context, basketID, itemID gocql.UUID) (*models.Basket, error) {
	basket, err := m.baskets.GetByID(ctx, basketID)
	if err != nil {
		return nil, err
	}
	if !basket.IsMutable() {
		return nil, fmt.Errorf("%w: statut %s", ErrBasketNotActive, basket.Status)
	}

	found := false
	for idx := range basket.Items {
		if basket.Items[idx].ID == itemID {
			basket.Items = append(basket.Items[:idx], basket.Items[idx+1:]...)
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: item %s", ErrNotFound, itemID)
	}

	return basket, m.commit(ctx, basket, time.Now())
}

// Clear vide le panier. Un panier vide a des totaux à zéro, il n'est pas
// supprimé.
func (m *BasketManager) Clear(ctx context.Context, basketID gocql.UUID) (*models.Basket, error) {
	basket, err := m.baskets.GetByID(ctx, basketID)
	if err != nil {
		return nil, err
	}
	if !basket.IsMutable() {
		return nil, fmt.Errorf("%w: statut %s", ErrBasketNotActive, basket.Status)
	}

	basket.Items = nil
	return basket, m.commit(ctx, basket, time.Now())
}

// MergeBaskets verse les lignes du panier source dans le panier cible. Les
// lignes (produit, variante) déjà présentes cumulent leurs quantités, les
// autres sont copiées. Les totaux de la cible sont recalculés une seule fois
// après la fusion. Le panier source passe en converted et disparaît des
// recherches de panier actif.
func (m *BasketManager) MergeBaskets(ctx context.Context, sourceID, targetID gocql.UUID) (*models.Basket, error) {
	if sourceID == targetID {
		return nil, fmt.Errorf("%w: fusion d'un panier avec lui-même", ErrInvalidArgument)
	}

	source, err := m.baskets.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	target, err := m.baskets.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !target.IsMutable() {
		return nil, fmt.Errorf("%w: panier cible %s", ErrBasketNotActive, target.Status)
	}

	now := time.Now()
	for _, src := range source.Items {
		if existing := target.FindItem(src.ProductID, src.VariantID); existing != nil {
			existing.Quantity += src.Quantity
			existing.UpdatedAt = now
			continue
		}
		copied := src
		copied.ID = gocql.TimeUUID()
		copied.BasketID = target.ID
		copied.UpdatedAt = now
		target.Items = append(target.Items, copied)
	}

	if err := m.commit(ctx, target, now); err != nil {
		return nil, err
	}

	// Le source est marqué converted (état terminal réutilisé pour les
	// paniers fusionnés)
	source.Items = nil
	source.Status = models.BasketStatusConverted
	source.LastActivityAt = now
	source.UpdatedAt = now
	ApplyTotals(source, Totals{})
	if err := m.baskets.Save(ctx, source); err != nil {
		return nil, fmt.Errorf("clôture panier source: %w", err)
	}

	log.Printf("✅ Paniers fusionnés: %s → %s (%d lignes)", sourceID, targetID, len(target.Items))
	return target, nil
}

// ConvertGuestToCustomer rattache un panier invité au client qui vient de
// s'authentifier. Si le client possède déjà un panier actif, on fusionne ;
// sinon le panier invité est simplement ré-approprié.
func (m *BasketManager) ConvertGuestToCustomer(ctx context.Context, shopID gocql.UUID, basketToken string, customerID gocql.UUID) (*models.Basket, error) {
	guest, err := m.baskets.GetByToken(ctx, shopID, basketToken)
	if err != nil {
		return nil, err
	}
	if !guest.IsGuest {
		return nil, fmt.Errorf("%w: le panier %s n'est pas un panier invité", ErrInvalidArgument, basketToken)
	}

	existing, err := m.baskets.FindActiveByCustomer(ctx, shopID, customerID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return m.MergeBaskets(ctx, guest.ID, existing.ID)
	}

	now := time.Now()
	cid := customerID
	guest.IsGuest = false
	guest.CustomerID = &cid
	guest.SessionID = ""
	expires := now.Add(m.cfg.CustomerBasketTTL)
	guest.ExpiresAt = &expires
	guest.UpdatedAt = now
	guest.LastActivityAt = now
	if err := m.baskets.Save(ctx, guest); err != nil {
		return nil, err
	}
	log.Printf("✅ Panier invité %s rattaché au client %s", guest.ID, customerID)
	return guest, nil
}

// SweepAbandoned marque abandoned tout panier actif sans activité depuis le
// seuil donné. Idempotent : abandoned sort des recherches de panier actif,
// un second passage ne retransitionne rien.
func (m *BasketManager) SweepAbandoned(ctx context.Context, threshold time.Duration) (int, error) {
	cutoff := time.Now().Add(-threshold)
	candidates, err := m.baskets.ListInactiveSince(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	swept := 0
	for idx := range candidates {
		basket := &candidates[idx]
		if basket.Status != models.BasketStatusActive {
			continue
		}
		basket.Status = models.BasketStatusAbandoned
		basket.UpdatedAt = time.Now()
		if err := m.baskets.Save(ctx, basket); err != nil {
			// Un conflit signifie qu'une requête vient de toucher ce panier :
			// il n'est plus candidat, on continue
			if errors.Is(err, ErrConflict) {
				continue
			}
			return swept, err
		}
		swept++
	}

	if swept > 0 {
		log.Printf("🧹 Balayage d'abandon: %d panier(s) marqué(s) abandoned", swept)
	}
	return swept, nil
}

// commit recalcule les totaux, horodate l'activité et persiste le panier.
// Toute validation a déjà eu lieu : en cas d'échec en amont, commit n'est
// jamais appelé et rien n'est écrit.
func (m *BasketManager) commit(ctx context.Context, basket *models.Basket, now time.Time) error {
	totals := ComputeTotals(basket.Items, m.pricingFor(ctx, basket.ShopID))
	ApplyTotals(basket, totals)
	basket.LastActivityAt = now
	basket.UpdatedAt = now
	return m.baskets.Save(ctx, basket)
}
