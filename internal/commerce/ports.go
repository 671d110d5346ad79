package commerce

import (
	"context"
	"time"

	"github.com/gocql/gocql"

	"shopora_back_end/internal/models"
)

// BasketFilter restreint les listages de paniers.
type BasketFilter struct {
	Status  string
	IsGuest *bool
	Limit   int
}

// BasketStore persiste les paniers et leurs lignes. Save applique un
// verrouillage optimiste : la version en base doit correspondre à celle du
// panier chargé, sinon ErrConflict.
type BasketStore interface {
	GetByID(ctx context.Context, id gocql.UUID) (*models.Basket, error)
	GetByToken(ctx context.Context, shopID gocql.UUID, token string) (*models.Basket, error)
	FindActiveByCustomer(ctx context.Context, shopID, customerID gocql.UUID) (*models.Basket, error)
	FindActiveBySession(ctx context.Context, shopID gocql.UUID, sessionID string) (*models.Basket, error)
	Insert(ctx context.Context, b *models.Basket) error
	Save(ctx context.Context, b *models.Basket) error
	List(ctx context.Context, shopID gocql.UUID, f BasketFilter) ([]models.Basket, error)
	// ListInactiveSince retourne les paniers actifs sans activité depuis cutoff
	ListInactiveSince(ctx context.Context, cutoff time.Time) ([]models.Basket, error)
}

// OrderFilter restreint les listages de commandes.
type OrderFilter struct {
	Status        models.OrderStatus
	CustomerEmail string
	After         *time.Time
	Before        *time.Time
	Limit         int
}

// OrderStats agrège les compteurs d'une boutique.
type OrderStats struct {
	TotalOrders   int                        `json:"total_orders"`
	TotalRevenue  float64                    `json:"total_revenue"`
	CountByStatus map[models.OrderStatus]int `json:"count_by_status"`
}

// OrderStore persiste les commandes. Update suit la même discipline de
// version que BasketStore.Save. Insert échoue si le numéro de commande
// existe déjà (contrainte d'unicité dure).
type OrderStore interface {
	GetByID(ctx context.Context, id gocql.UUID) (*models.Order, error)
	GetByNumber(ctx context.Context, shopID gocql.UUID, orderNumber string) (*models.Order, error)
	Insert(ctx context.Context, o *models.Order) error
	Update(ctx context.Context, o *models.Order) error
	List(ctx context.Context, shopID gocql.UUID, f OrderFilter) ([]models.Order, error)
	Stats(ctx context.Context, shopID gocql.UUID) (*OrderStats, error)
}

// ProductDirectory est l'annuaire produits en lecture seule.
// Répond ErrNotFound pour un identifiant inconnu ou hors boutique.
type ProductDirectory interface {
	GetProduct(ctx context.Context, shopID, productID gocql.UUID) (*models.Product, error)
	GetVariant(ctx context.Context, productID, variantID gocql.UUID) (*models.ProductVariant, error)
}

// ShopDirectory expose la configuration tarifaire d'une boutique.
type ShopDirectory interface {
	GetShop(ctx context.Context, shopID gocql.UUID) (*models.Shop, error)
}

// CustomerDirectory est l'annuaire clients en lecture seule.
type CustomerDirectory interface {
	GetCustomer(ctx context.Context, shopID, customerID gocql.UUID) (*models.Customer, error)
}

// InventoryGateway donne accès au stock disponible d'un produit.
// Decrement est atomique par appel (compare-and-set) et ne fait jamais
// passer le stock sous zéro — c'est le contrôle autoritaire, les
// vérifications côté panier ne sont qu'indicatives.
type InventoryGateway interface {
	CheckAvailable(ctx context.Context, productID gocql.UUID, variantID *gocql.UUID) (int, error)
	Decrement(ctx context.Context, productID gocql.UUID, variantID *gocql.UUID, qty int, orderID gocql.UUID) error
	Increment(ctx context.Context, productID gocql.UUID, variantID *gocql.UUID, qty int, orderID gocql.UUID) error
}

// Notifier reçoit les événements de cycle de vie des commandes.
// Fire-and-forget : un échec est loggé par l'implémentation, jamais propagé.
type Notifier interface {
	OrderCreated(order *models.Order)
	OrderStatusChanged(order *models.Order, change models.StatusChange)
}

// CacheInvalidator invalide les entrées mémoïsées après une mutation.
// Le moteur appelle explicitement l'invalidation — pas de décoration
// implicite du chemin de lecture.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string)
}
