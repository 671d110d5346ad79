package commerce_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopora_back_end/internal/commerce"
	"shopora_back_end/internal/models"
	"shopora_back_end/internal/storage/memory"
)

type basketFixture struct {
	manager *commerce.BasketManager
	baskets *memory.BasketStore
	catalog *memory.Catalog
	shopID  gocql.UUID
}

func newBasketFixture(t *testing.T) *basketFixture {
	t.Helper()
	baskets := memory.NewBasketStore()
	catalog := memory.NewCatalog()
	shopID := gocql.TimeUUID()
	catalog.PutShop(&models.Shop{ID: shopID, Name: "Atelier Nord", Currency: "EUR", IsActive: true})
	return &basketFixture{
		manager: commerce.NewBasketManager(baskets, catalog, catalog, catalog, commerce.BasketManagerConfig{}),
		baskets: baskets,
		catalog: catalog,
		shopID:  shopID,
	}
}

func (f *basketFixture) seedProduct(price float64, stock int, manage bool) *models.Product {
	p := &models.Product{
		ID:               gocql.TimeUUID(),
		ShopID:           f.shopID,
		Name:             "Tasse en grès",
		SKU:              "TAS-001",
		Price:            price,
		OriginalPrice:    price,
		ManageStock:      manage,
		Stock:            stock,
		Weight:           0.4,
		RequiresShipping: true,
		IsActive:         true,
	}
	f.catalog.PutProduct(p)
	return p
}

func TestGetOrCreateCustomerBasketIsIdempotent(t *testing.T) {
	f := newBasketFixture(t)
	ctx := context.Background()
	customerID := gocql.TimeUUID()

	first, err := f.manager.GetOrCreateCustomerBasket(ctx, f.shopID, customerID)
	require.NoError(t, err)
	assert.Equal(t, models.BasketStatusActive, first.Status)
	assert.False(t, first.IsGuest)
	assert.True(t, strings.HasPrefix(first.Token, "basket_"))
	require.NotNil(t, first.ExpiresAt)

	second, err := f.manager.GetOrCreateCustomerBasket(ctx, f.shopID, customerID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "un seul panier actif par (boutique, client)")
}

func TestGetOrCreateGuestBasket(t *testing.T) {
	f := newBasketFixture(t)
	ctx := context.Background()

	_, err := f.manager.GetOrCreateGuestBasket(ctx, f.shopID, "")
	require.ErrorIs(t, err, commerce.ErrInvalidArgument)

	first, err := f.manager.GetOrCreateGuestBasket(ctx, f.shopID, "sess-42")
	require.NoError(t, err)
	assert.True(t, first.IsGuest)
	assert.Equal(t, "sess-42", first.SessionID)

	second, err := f.manager.GetOrCreateGuestBasket(ctx, f.shopID, "sess-42")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := f.manager.GetOrCreateGuestBasket(ctx, f.shopID, "sess-43")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestAddItemSnapshotsProduct(t *testing.T) {
	f := newBasketFixture(t)
	ctx := context.Background()
	product := f.seedProduct(19.99, 10, true)

	basket, err := f.manager.GetOrCreateGuestBasket(ctx, f.shopID, "sess-1")
	require.NoError(t, err)

	basket, err = f.manager.AddItem(ctx, basket.ID, product.ID, nil, 2)
	require.NoError(t, err)
	require.Len(t, basket.Items, 1)

	line := basket.Items[0]
	assert.Equal(t, product.Name, line.ProductName)
	assert.Equal(t, product.SKU, line.ProductSKU)
	assert.InDelta(t, 19.99, line.UnitPrice, 0.001)
	assert.Equal(t, 2, line.Quantity)
	assert.True(t, line.InStock)

	assert.InDelta(t, 39.98, basket.Subtotal, 0.001)
	assert.Equal(t, 2, basket.ItemCount)
	assert.Equal(t, 1, basket.UniqueItemCount)
}

func TestAddItemMergesDuplicateLine(t *testing.T) {
	f := newBasketFixture(t)
	ctx := context.Background()
	product := f.seedProduct(10, 20, true)

	basket, err := f.manager.GetOrCreateGuestBasket(ctx, f.shopID, "sess-1")
	require.NoError(t, err)

	_, err = f.manager.AddItem(ctx, basket.ID, product.ID, nil, 2)
	require.NoError(t, err)
	basket, err = f.manager.AddItem(ctx, basket.ID, product.ID, nil, 3)
	require.NoError(t, err)

	// Jamais de ligne dupliquée : les quantités se cumulent
	require.Len(t, basket.Items, 1)
	assert.Equal(t, 5, basket.Items[0].Quantity)
	assert.Equal(t, 5, basket.ItemCount)
}

func TestAddItemRejectsInsufficientStock(t *testing.T) {
	f := newBasketFixture(t)
	ctx := context.Background()
	product := f.seedProduct(10, 3, true)

	basket, err := f.manager.GetOrCreateGuestBasket(ctx, f.shopID, "sess-1")
	require.NoError(t, err)

	_, err = f.manager.AddItem(ctx, basket.ID, product.ID, nil, 5)
	require.ErrorIs(t, err, commerce.ErrInsufficientStock)

	// Le contrôle cumule la quantité déjà au panier
	_, err = f.manager.AddItem(ctx, basket.ID, product.ID, nil, 2)
	require.NoError(t, err)
	_, err = f.manager.AddItem(ctx, basket.ID, product.ID, nil, 2)
	require.ErrorIs(t, err, commerce.ErrInsufficientStock)

	// L'échec ne laisse rien derrière lui
	basket, err = f.manager.GetBasket(ctx, basket.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, basket.ItemCount)
}

func TestAddItemIgnoresStockWhenUnmanaged(t *testing.T) {
	f := newBasketFixture(t)
	ctx := context.Background()
	product := f.seedProduct(5, 0, false)

	basket, err := f.manager.GetOrCreateGuestBasket(ctx, f.shopID, "sess-1")
	require.NoError(t, err)

	basket, err = f.manager.AddItem(ctx, basket.ID, product.ID, nil, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, basket.ItemCount)
}

func TestAddItemWithVariantSnapshot(t *testing.T) {
	f := newBasketFixture(t)
	ctx := context.Background()
	product := f.seedProduct(30, 10, true)
	variant := &models.ProductVariant{
		ID:            gocql.TimeUUID(),
		ProductID:     product.ID,
		Name:          "Taille L",
		SKU:           "TAS-001-L",
		Price:         24,
		OriginalPrice: 30,
		Stock:         10,
		Weight:        0.6,
		Attributes:    map[string]string{"size": "L"},
		IsActive:      true,
	}
	f.catalog.PutVariant(variant)

	basket, err := f.manager.GetOrCreateGuestBasket(ctx, f.shopID, "sess-1")
	require.NoError(t, err)

	basket, err = f.manager.AddItem(ctx, basket.ID, product.ID, &variant.ID, 1)
	require.NoError(t, err)
	require.Len(t, basket.Items, 1)

	line := basket.Items[0]
	assert.Equal(t, "Taille L", line.VariantName)
	assert.Equal(t, "TAS-001-L", line.ProductSKU)
	assert.InDelta(t, 24.0, line.UnitPrice, 0.001)
	// Remise dérivée du prix barré de la variante
	assert.InDelta(t, 6.0, line.DiscountAmount, 0.001)
	assert.InDelta(t, 0.6, line.Weight, 0.001)
}

func TestUpdateItemQuantityAndRemove(t *testing.T) {
	f := newBasketFixture(t)
	ctx := context.Background()
	product := f.seedProduct(10, 20, true)

	basket, err := f.manager.GetOrCreateGuestBasket(ctx, f.shopID, "sess-1")
	require.NoError(t, err)
	basket, err = f.manager.AddItem(ctx, basket.ID, product.ID, nil, 2)
	require.NoError(t, err)
	itemID := basket.Items[0].ID

	_, err = f.manager.UpdateItemQuantity(ctx, basket.ID, itemID, 0)
	require.ErrorIs(t, err, commerce.ErrInvalidArgument)

	basket, err = f.manager.UpdateItemQuantity(ctx, basket.ID, itemID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, basket.Items[0].Quantity)
	assert.InDelta(t, 70.0, basket.Subtotal, 0.001)

	_, err = f.manager.RemoveItem(ctx, basket.ID, gocql.TimeUUID())
	require.ErrorIs(t, err, commerce.ErrNotFound)

	basket, err = f.manager.RemoveItem(ctx, basket.ID, itemID)
	require.NoError(t, err)
	assert.True(t, basket.IsEmpty())
	assert.Zero(t, basket.TotalAmount)
}

func TestClearKeepsBasketActive(t *testing.T) {
	f := newBasketFixture(t)
	ctx := context.Background()
	product := f.seedProduct(10, 20, true)

	basket, err := f.manager.GetOrCreateGuestBasket(ctx, f.shopID, "sess-1")
	require.NoError(t, err)
	_, err = f.manager.AddItem(ctx, basket.ID, product.ID, nil, 3)
	require.NoError(t, err)

	basket, err = f.manager.Clear(ctx, basket.ID)
	require.NoError(t, err)
	assert.True(t, basket.IsEmpty())
	assert.Zero(t, basket.Subtotal)
	assert.Zero(t, basket.ItemCount)
	// Vidé, pas supprimé
	assert.Equal(t, models.BasketStatusActive, basket.Status)
}

func TestMutationsRefusedOnInactiveBasket(t *testing.T) {
	f := newBasketFixture(t)
	ctx := context.Background()
	product := f.seedProduct(10, 20, true)

	basket, err := f.manager.GetOrCreateGuestBasket(ctx, f.shopID, "sess-1")
	require.NoError(t, err)

	stored, err := f.baskets.GetByID(ctx, basket.ID)
	require.NoError(t, err)
	stored.Status = models.BasketStatusAbandoned
	require.NoError(t, f.baskets.Save(ctx, stored))

	_, err = f.manager.AddItem(ctx, basket.ID, product.ID, nil, 1)
	require.ErrorIs(t, err, commerce.ErrBasketNotActive)
	_, err = f.manager.Clear(ctx, basket.ID)
	require.ErrorIs(t, err, commerce.ErrBasketNotActive)
}

func TestMergeBasketsConservesQuantities(t *testing.T) {
	f := newBasketFixture(t)
	ctx := context.Background()
	shared := f.seedProduct(10, 50, true)
	only := f.seedProduct(20, 50, true)

	source, err := f.manager.GetOrCreateGuestBasket(ctx, f.shopID, "sess-src")
	require.NoError(t, err)
	_, err = f.manager.AddItem(ctx, source.ID, shared.ID, nil, 2)
	require.NoError(t, err)
	_, err = f.manager.AddItem(ctx, source.ID, only.ID, nil, 1)
	require.NoError(t, err)

	target, err := f.manager.GetOrCreateGuestBasket(ctx, f.shopID, "sess-dst")
	require.NoError(t, err)
	_, err = f.manager.AddItem(ctx, target.ID, shared.ID, nil, 3)
	require.NoError(t, err)

	_, err = f.manager.MergeBaskets(ctx, source.ID, source.ID)
	require.ErrorIs(t, err, commerce.ErrInvalidArgument)

	merged, err := f.manager.MergeBaskets(ctx, source.ID, target.ID)
	require.NoError(t, err)

	require.Len(t, merged.Items, 2)
	assert.Equal(t, 5, merged.FindItem(shared.ID, nil).Quantity)
	assert.Equal(t, 1, merged.FindItem(only.ID, nil).Quantity)
	assert.Equal(t, 6, merged.ItemCount)

	// Le source est clôturé, vidé, totaux à zéro
	closed, err := f.manager.GetBasket(ctx, source.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BasketStatusConverted, closed.Status)
	assert.True(t, closed.IsEmpty())
	assert.Zero(t, closed.TotalAmount)

	// Il ne répond plus aux recherches de panier actif
	_, err = f.manager.GetOrCreateGuestBasket(ctx, f.shopID, "sess-src")
	require.NoError(t, err)
}

func TestConvertGuestToCustomerReowns(t *testing.T) {
	f := newBasketFixture(t)
	ctx := context.Background()
	product := f.seedProduct(10, 20, true)
	customerID := gocql.TimeUUID()

	guest, err := f.manager.GetOrCreateGuestBasket(ctx, f.shopID, "sess-1")
	require.NoError(t, err)
	_, err = f.manager.AddItem(ctx, guest.ID, product.ID, nil, 2)
	require.NoError(t, err)

	converted, err := f.manager.ConvertGuestToCustomer(ctx, f.shopID, guest.Token, customerID)
	require.NoError(t, err)

	assert.Equal(t, guest.ID, converted.ID, "pas de panier client existant : simple ré-appropriation")
	assert.False(t, converted.IsGuest)
	require.NotNil(t, converted.CustomerID)
	assert.Equal(t, customerID, *converted.CustomerID)
	assert.Empty(t, converted.SessionID)
	assert.Equal(t, 2, converted.ItemCount)
}

func TestConvertGuestToCustomerMergesIntoExisting(t *testing.T) {
	f := newBasketFixture(t)
	ctx := context.Background()
	product := f.seedProduct(10, 50, true)
	customerID := gocql.TimeUUID()

	existing, err := f.manager.GetOrCreateCustomerBasket(ctx, f.shopID, customerID)
	require.NoError(t, err)
	_, err = f.manager.AddItem(ctx, existing.ID, product.ID, nil, 1)
	require.NoError(t, err)

	guest, err := f.manager.GetOrCreateGuestBasket(ctx, f.shopID, "sess-1")
	require.NoError(t, err)
	_, err = f.manager.AddItem(ctx, guest.ID, product.ID, nil, 4)
	require.NoError(t, err)

	converted, err := f.manager.ConvertGuestToCustomer(ctx, f.shopID, guest.Token, customerID)
	require.NoError(t, err)

	assert.Equal(t, existing.ID, converted.ID, "fusion dans le panier client existant")
	assert.Equal(t, 5, converted.ItemCount)

	closed, err := f.manager.GetBasket(ctx, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BasketStatusConverted, closed.Status)
}

func TestConvertRejectsNonGuestBasket(t *testing.T) {
	f := newBasketFixture(t)
	ctx := context.Background()
	customerID := gocql.TimeUUID()

	owned, err := f.manager.GetOrCreateCustomerBasket(ctx, f.shopID, customerID)
	require.NoError(t, err)

	_, err = f.manager.ConvertGuestToCustomer(ctx, f.shopID, owned.Token, gocql.TimeUUID())
	require.ErrorIs(t, err, commerce.ErrInvalidArgument)
}

func TestSweepAbandonedIsIdempotent(t *testing.T) {
	f := newBasketFixture(t)
	ctx := context.Background()

	stale := &models.Basket{
		ID:             gocql.TimeUUID(),
		ShopID:         f.shopID,
		SessionID:      "sess-stale",
		Token:          "basket_stale",
		Status:         models.BasketStatusActive,
		IsGuest:        true,
		Currency:       "EUR",
		LastActivityAt: time.Now().Add(-96 * time.Hour),
	}
	require.NoError(t, f.baskets.Insert(ctx, stale))

	fresh, err := f.manager.GetOrCreateGuestBasket(ctx, f.shopID, "sess-fresh")
	require.NoError(t, err)

	swept, err := f.manager.SweepAbandoned(ctx, 72*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	marked, err := f.manager.GetBasket(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BasketStatusAbandoned, marked.Status)

	untouched, err := f.manager.GetBasket(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BasketStatusActive, untouched.Status)

	// Second passage : plus aucun candidat
	swept, err = f.manager.SweepAbandoned(ctx, 72*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, swept)
}

func TestCrossShopTokenLookupFails(t *testing.T) {
	f := newBasketFixture(t)
	ctx := context.Background()

	basket, err := f.manager.GetOrCreateGuestBasket(ctx, f.shopID, "sess-1")
	require.NoError(t, err)

	_, err = f.manager.GetBasketByToken(ctx, gocql.TimeUUID(), basket.Token)
	require.ErrorIs(t, err, commerce.ErrNotFound)
}
