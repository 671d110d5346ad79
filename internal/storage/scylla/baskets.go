package scylla

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"shopora_back_end/internal/commerce"
	"shopora_back_end/internal/database"
	"shopora_back_end/internal/models"
)

// BasketStore persiste les paniers dans le keyspace orders.
// Les lignes sont sérialisées en JSON dans la colonne items_json ;
// l'écriture est protégée par LWT sur la colonne version.
type BasketStore struct{}

func NewBasketStore() *BasketStore {
	return &BasketStore{}
}

func scanBasket(scanner interface{ Scan(...interface{}) error }) (*models.Basket, error) {
	var (
		b         models.Basket
		itemsJSON string
	)
	err := scanner.Scan(
		&b.ID, &b.ShopID, &b.CustomerID, &b.SessionID, &b.Token, &b.Status, &b.IsGuest,
		&b.Subtotal, &b.DiscountAmount, &b.ShippingAmount, &b.TaxAmount, &b.TotalAmount,
		&b.ItemCount, &b.UniqueItemCount, &b.Currency, &b.CouponCode, &b.ShippingAddressID,
		&itemsJSON, &b.Version, &b.CreatedAt, &b.UpdatedAt, &b.LastActivityAt, &b.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	if itemsJSON != "" {
		if err := json.Unmarshal([]byte(itemsJSON), &b.Items); err != nil {
			return nil, fmt.Errorf("items_json corrompu pour le panier %s: %v", b.ID, err)
		}
	}
	return &b, nil
}

func marshalItems(items []models.BasketItem) (string, error) {
	if len(items) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("sérialisation des lignes du panier: %v", err)
	}
	return string(raw), nil
}

func (s *BasketStore) GetByID(ctx context.Context, id gocql.UUID) (*models.Basket, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	b, err := scanBasket(database.QueryBasketByID(session, id).WithContext(ctx))
	if err == gocql.ErrNotFound {
		return nil, commerce.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BasketStore) GetByToken(ctx context.Context, shopID gocql.UUID, token string) (*models.Basket, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	b, err := scanBasket(database.QueryBasketByToken(session, token).WithContext(ctx))
	if err == gocql.ErrNotFound {
		return nil, commerce.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	// Le token est opaque mais la boutique doit correspondre
	if b.ShopID != shopID {
		return nil, commerce.ErrNotFound
	}
	return b, nil
}

func (s *BasketStore) FindActiveByCustomer(ctx context.Context, shopID, customerID gocql.UUID) (*models.Basket, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	b, err := scanBasket(session.Query(
		`SELECT `+basketSelectColumns+` FROM baskets
		 WHERE shop_id = ? AND customer_id = ? AND status = ? LIMIT 1 ALLOW FILTERING`,
		shopID, customerID, models.BasketStatusActive,
	).WithContext(ctx))
	if err == gocql.ErrNotFound {
		return nil, commerce.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BasketStore) FindActiveBySession(ctx context.Context, shopID gocql.UUID, sessionID string) (*models.Basket, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	b, err := scanBasket(session.Query(
		`SELECT `+basketSelectColumns+` FROM baskets
		 WHERE shop_id = ? AND session_id = ? AND status = ? LIMIT 1 ALLOW FILTERING`,
		shopID, sessionID, models.BasketStatusActive,
	).WithContext(ctx))
	if err == gocql.ErrNotFound {
		return nil, commerce.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

const basketSelectColumns = `basket_id, shop_id, customer_id, session_id, token, status, is_guest,
	subtotal, discount_amount, shipping_amount, tax_amount, total_amount,
	item_count, unique_item_count, currency, coupon_code, shipping_address_id,
	items_json, version, created_at, updated_at, last_activity_at, expires_at`

func (s *BasketStore) Insert(ctx context.Context, b *models.Basket) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	itemsJSON, err := marshalItems(b.Items)
	if err != nil {
		return err
	}

	b.Version = 1
	applied, err := session.Query(
		`INSERT INTO baskets (basket_id, shop_id, customer_id, session_id, token, status, is_guest,
			subtotal, discount_amount, shipping_amount, tax_amount, total_amount,
			item_count, unique_item_count, currency, coupon_code, shipping_address_id,
			items_json, version, created_at, updated_at, last_activity_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 IF NOT EXISTS`,
		b.ID, b.ShopID, b.CustomerID, b.SessionID, b.Token, b.Status, b.IsGuest,
		b.Subtotal, b.DiscountAmount, b.ShippingAmount, b.TaxAmount, b.TotalAmount,
		b.ItemCount, b.UniqueItemCount, b.Currency, b.CouponCode, b.ShippingAddressID,
		itemsJSON, b.Version, b.CreatedAt, b.UpdatedAt, b.LastActivityAt, b.ExpiresAt,
	).WithContext(ctx).ScanCAS()
	if err != nil {
		return err
	}
	if !applied {
		return commerce.ErrConflict
	}
	return nil
}

// Save écrit le panier sous condition de version (verrouillage optimiste).
// Si la version en base a bougé, retourne ErrConflict sans rien modifier.
func (s *BasketStore) Save(ctx context.Context, b *models.Basket) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	itemsJSON, err := marshalItems(b.Items)
	if err != nil {
		return err
	}

	newVersion := b.Version + 1
	applied, err := session.Query(
		`UPDATE baskets SET
			customer_id = ?, session_id = ?, status = ?, is_guest = ?,
			subtotal = ?, discount_amount = ?, shipping_amount = ?, tax_amount = ?, total_amount = ?,
			item_count = ?, unique_item_count = ?, currency = ?, coupon_code = ?, shipping_address_id = ?,
			items_json = ?, version = ?, updated_at = ?, last_activity_at = ?, expires_at = ?
		 WHERE basket_id = ?
		 IF version = ?`,
		b.CustomerID, b.SessionID, b.Status, b.IsGuest,
		b.Subtotal, b.DiscountAmount, b.ShippingAmount, b.TaxAmount, b.TotalAmount,
		b.ItemCount, b.UniqueItemCount, b.Currency, b.CouponCode, b.ShippingAddressID,
		itemsJSON, newVersion, b.UpdatedAt, b.LastActivityAt, b.ExpiresAt,
		b.ID,
		b.Version,
	).WithContext(ctx).ScanCAS()
	if err != nil {
		return err
	}
	if !applied {
		return commerce.ErrConflict
	}
	b.Version = newVersion
	return nil
}

func (s *BasketStore) List(ctx context.Context, shopID gocql.UUID, f commerce.BasketFilter) ([]models.Basket, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(
		`SELECT `+basketSelectColumns+` FROM baskets WHERE shop_id = ? ALLOW FILTERING`,
		shopID,
	).WithContext(ctx).Iter()

	baskets := make([]models.Basket, 0)
	for {
		b, err := scanBasket(iterScanner{iter})
		if err != nil {
			break
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.IsGuest != nil && b.IsGuest != *f.IsGuest {
			continue
		}
		baskets = append(baskets, *b)
		if f.Limit > 0 && len(baskets) >= f.Limit {
			break
		}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return baskets, nil
}

func (s *BasketStore) ListInactiveSince(ctx context.Context, cutoff time.Time) ([]models.Basket, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(
		`SELECT `+basketSelectColumns+` FROM baskets
		 WHERE status = ? AND last_activity_at < ? ALLOW FILTERING`,
		models.BasketStatusActive, cutoff,
	).WithContext(ctx).Iter()

	baskets := make([]models.Basket, 0)
	for {
		b, err := scanBasket(iterScanner{iter})
		if err != nil {
			break
		}
		baskets = append(baskets, *b)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return baskets, nil
}

// iterScanner adapte gocql.Iter à l'interface Scan utilisée par scanBasket.
// Iter.Scan retourne false en fin d'itération (sans distinction d'erreur :
// celle-ci est récupérée par Iter.Close).
type iterScanner struct {
	iter *gocql.Iter
}

func (s iterScanner) Scan(dest ...interface{}) error {
	if !s.iter.Scan(dest...) {
		return gocql.ErrNotFound
	}
	return nil
}
