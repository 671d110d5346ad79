package commerce_test

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopora_back_end/internal/commerce"
	"shopora_back_end/internal/models"
	"shopora_back_end/internal/storage/memory"
)

type captureNotifier struct {
	mu      sync.Mutex
	created []string
	changes []models.StatusChange
}

func (n *captureNotifier) OrderCreated(order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, order.OrderNumber)
}

func (n *captureNotifier) OrderStatusChanged(_ *models.Order, change models.StatusChange) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, change)
}

type orderFixture struct {
	orders    *memory.OrderStore
	baskets   *memory.BasketStore
	catalog   *memory.Catalog
	notifier  *captureNotifier
	basketMgr *commerce.BasketManager
	orderMgr  *commerce.OrderManager
	shopID    gocql.UUID
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	f := &orderFixture{
		orders:   memory.NewOrderStore(),
		baskets:  memory.NewBasketStore(),
		catalog:  memory.NewCatalog(),
		notifier: &captureNotifier{},
		shopID:   gocql.TimeUUID(),
	}
	f.catalog.PutShop(&models.Shop{ID: f.shopID, Name: "Atelier Nord", Currency: "EUR", IsActive: true})
	f.basketMgr = commerce.NewBasketManager(f.baskets, f.catalog, f.catalog, f.catalog, commerce.BasketManagerConfig{})
	f.orderMgr = commerce.NewOrderManager(f.orders, f.baskets, f.catalog, f.catalog, f.catalog,
		f.catalog, f.notifier, nil, commerce.PricingConfig{})
	return f
}

func (f *orderFixture) seedProduct(name string, price float64, stock int) *models.Product {
	p := &models.Product{
		ID:               gocql.TimeUUID(),
		ShopID:           f.shopID,
		Name:             name,
		SKU:              "SKU-" + name,
		Price:            price,
		OriginalPrice:    price,
		ManageStock:      true,
		Stock:            stock,
		Weight:           0.5,
		RequiresShipping: true,
		IsActive:         true,
	}
	f.catalog.PutProduct(p)
	return p
}

func (f *orderFixture) available(t *testing.T, productID gocql.UUID) int {
	t.Helper()
	n, err := f.catalog.CheckAvailable(context.Background(), productID, nil)
	require.NoError(t, err)
	return n
}

var orderNumberPattern = regexp.MustCompile(`^ORD\d{14}[0-9A-F]{8}$`)

func TestCanTransitionTable(t *testing.T) {
	cases := []struct {
		from, to models.OrderStatus
		ok       bool
	}{
		{models.OrderStatusPending, models.OrderStatusProcessing, true},
		{models.OrderStatusPending, models.OrderStatusCancelled, true},
		{models.OrderStatusPending, models.OrderStatusDelivered, false},
		{models.OrderStatusProcessing, models.OrderStatusShipped, true},
		{models.OrderStatusProcessing, models.OrderStatusRefunded, true},
		{models.OrderStatusShipped, models.OrderStatusDelivered, true},
		{models.OrderStatusShipped, models.OrderStatusPending, false},
		{models.OrderStatusDelivered, models.OrderStatusRefunded, true},
		{models.OrderStatusDelivered, models.OrderStatusShipped, false},
		// États terminaux : aucune sortie
		{models.OrderStatusCancelled, models.OrderStatusPending, false},
		{models.OrderStatusRefunded, models.OrderStatusProcessing, false},
		{models.OrderStatusFailed, models.OrderStatusPending, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, commerce.CanTransition(tc.from, tc.to), "%s → %s", tc.from, tc.to)
	}
}

func TestCreateFromBasket(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	product := f.seedProduct("Carafe", 50, 10)

	customerID := gocql.TimeUUID()
	f.catalog.PutCustomer(&models.Customer{
		ID:       customerID,
		ShopID:   f.shopID,
		Email:    "claire@example.com",
		FullName: "Claire Dupont",
		DefaultAddress: &models.Address{
			Line1: "12 rue des Lilas", City: "Lille", PostalCode: "59000", Country: "FR",
		},
		IsActive: true,
	})

	basket, err := f.basketMgr.GetOrCreateCustomerBasket(ctx, f.shopID, customerID)
	require.NoError(t, err)
	basket, err = f.basketMgr.AddItem(ctx, basket.ID, product.ID, nil, 2)
	require.NoError(t, err)

	order, err := f.orderMgr.CreateFromBasket(ctx, basket.ID, commerce.CreateOrderInput{
		PaymentMethod: "card",
		Actor:         "claire@example.com",
	})
	require.NoError(t, err)

	assert.Regexp(t, orderNumberPattern, order.OrderNumber)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)

	// Totaux copiés du panier tels quels, sans recalcul
	assert.InDelta(t, basket.Subtotal, order.Subtotal, 0.001)
	assert.InDelta(t, basket.TaxAmount, order.TaxAmount, 0.001)
	assert.InDelta(t, basket.ShippingAmount, order.ShippingAmount, 0.001)
	assert.InDelta(t, basket.TotalAmount, order.TotalAmount, 0.001)

	// Snapshot client et adresse par défaut
	assert.Equal(t, "claire@example.com", order.CustomerEmail)
	assert.Equal(t, "Claire Dupont", order.CustomerName)
	require.NotNil(t, order.ShippingAddress)
	assert.Equal(t, "Lille", order.ShippingAddress.City)

	// Débit autoritaire du stock
	assert.Equal(t, 8, f.available(t, product.ID))

	// Le panier source bascule en converted, exactement une fois
	converted, err := f.baskets.GetByID(ctx, basket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BasketStatusConverted, converted.Status)

	assert.Equal(t, []string{order.OrderNumber}, f.notifier.created)

	// Relecture par numéro
	found, err := f.orderMgr.GetOrderByNumber(ctx, f.shopID, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
}

func TestCreateFromBasketRefusesEmptyOrInactive(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	basket, err := f.basketMgr.GetOrCreateGuestBasket(ctx, f.shopID, "sess-1")
	require.NoError(t, err)

	_, err = f.orderMgr.CreateFromBasket(ctx, basket.ID, commerce.CreateOrderInput{})
	require.ErrorIs(t, err, commerce.ErrEmptyBasket)

	stored, err := f.baskets.GetByID(ctx, basket.ID)
	require.NoError(t, err)
	stored.Status = models.BasketStatusConverted
	require.NoError(t, f.baskets.Save(ctx, stored))

	_, err = f.orderMgr.CreateFromBasket(ctx, basket.ID, commerce.CreateOrderInput{})
	require.ErrorIs(t, err, commerce.ErrBasketNotActive)
}

func TestCreateFromBasketRollsBackStockOnShortage(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	plenty := f.seedProduct("Assiette", 20, 10)
	scarce := f.seedProduct("Plat", 40, 1)

	basket, err := f.basketMgr.GetOrCreateGuestBasket(ctx, f.shopID, "sess-1")
	require.NoError(t, err)
	_, err = f.basketMgr.AddItem(ctx, basket.ID, plenty.ID, nil, 2)
	require.NoError(t, err)
	_, err = f.basketMgr.AddItem(ctx, basket.ID, scarce.ID, nil, 1)
	require.NoError(t, err)

	// Une vente concurrente épuise le second produit après l'ajout au panier
	require.NoError(t, f.catalog.Decrement(ctx, scarce.ID, nil, 1, gocql.TimeUUID()))

	_, err = f.orderMgr.CreateFromBasket(ctx, basket.ID, commerce.CreateOrderInput{})
	require.ErrorIs(t, err, commerce.ErrInsufficientStock)

	// Le débit déjà effectué sur le premier produit est compensé
	assert.Equal(t, 10, f.available(t, plenty.ID))

	// Le panier reste actif et intact
	intact, err := f.baskets.GetByID(ctx, basket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BasketStatusActive, intact.Status)
	assert.Len(t, intact.Items, 2)

	assert.Empty(t, f.notifier.created)
}

func TestCreateDirect(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	product := f.seedProduct("Vase", 80, 5)

	_, err := f.orderMgr.CreateDirect(ctx, f.shopID, commerce.CustomerContact{}, nil, commerce.CreateOrderInput{})
	require.ErrorIs(t, err, commerce.ErrEmptyBasket)

	lines := []commerce.DirectOrderLine{{ProductID: product.ID, Quantity: 2}}
	_, err = f.orderMgr.CreateDirect(ctx, f.shopID, commerce.CustomerContact{}, lines, commerce.CreateOrderInput{})
	require.ErrorIs(t, err, commerce.ErrInvalidArgument)

	order, err := f.orderMgr.CreateDirect(ctx, f.shopID, commerce.CustomerContact{
		Email: "paul@example.com",
		Name:  "Paul Martin",
	}, lines, commerce.CreateOrderInput{PaymentMethod: "transfer", Actor: "staff@shop"})
	require.NoError(t, err)

	assert.Regexp(t, orderNumberPattern, order.OrderNumber)
	assert.InDelta(t, 160.0, order.Subtotal, 0.001)
	// 160 * 0.10 de taxe + 300 de port (sous le seuil de gratuité)
	assert.InDelta(t, 16.0, order.TaxAmount, 0.001)
	assert.InDelta(t, 300.0, order.ShippingAmount, 0.001)
	assert.InDelta(t, 476.0, order.TotalAmount, 0.001)
	assert.Equal(t, "EUR", order.Currency)
	assert.Nil(t, order.SourceBasketID)

	assert.Equal(t, 3, f.available(t, product.ID))
}

func TestTransitionStatusLifecycle(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	product := f.seedProduct("Bol", 15, 10)

	order, err := f.orderMgr.CreateDirect(ctx, f.shopID, commerce.CustomerContact{Email: "a@b.c"},
		[]commerce.DirectOrderLine{{ProductID: product.ID, Quantity: 1}}, commerce.CreateOrderInput{})
	require.NoError(t, err)

	_, err = f.orderMgr.TransitionStatus(ctx, order.ID, "teleported", "", "staff")
	require.ErrorIs(t, err, commerce.ErrInvalidArgument)

	_, err = f.orderMgr.TransitionStatus(ctx, order.ID, models.OrderStatusDelivered, "", "staff")
	require.ErrorIs(t, err, commerce.ErrInvalidTransition)

	// pending → processing vaut paiement côté cycle de vie
	order, err = f.orderMgr.TransitionStatus(ctx, order.ID, models.OrderStatusProcessing, "paiement reçu", "staff")
	require.NoError(t, err)
	require.NotNil(t, order.PaidAt)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, models.OrderStatusPending, order.StatusHistory[0].OldStatus)
	assert.Equal(t, "paiement reçu", order.StatusHistory[0].Note)
	assert.Equal(t, "staff", order.StatusHistory[0].Actor)

	order, err = f.orderMgr.TransitionStatus(ctx, order.ID, models.OrderStatusShipped, "", "staff")
	require.NoError(t, err)
	require.NotNil(t, order.ShippedAt)

	order, err = f.orderMgr.TransitionStatus(ctx, order.ID, models.OrderStatusDelivered, "", "staff")
	require.NoError(t, err)
	require.NotNil(t, order.DeliveredAt)
	require.Len(t, order.StatusHistory, 3)

	assert.Len(t, f.notifier.changes, 3)
}

func TestCancellationCreditsStock(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	product := f.seedProduct("Pichet", 35, 10)

	order, err := f.orderMgr.CreateDirect(ctx, f.shopID, commerce.CustomerContact{Email: "a@b.c"},
		[]commerce.DirectOrderLine{{ProductID: product.ID, Quantity: 3}}, commerce.CreateOrderInput{})
	require.NoError(t, err)
	require.Equal(t, 7, f.available(t, product.ID))

	order, err = f.orderMgr.TransitionStatus(ctx, order.ID, models.OrderStatusCancelled, "rupture", "staff")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)

	// L'annulation recrédite le débit de création
	assert.Equal(t, 10, f.available(t, product.ID))

	// Terminal : plus aucune transition ni mise à jour de notes
	_, err = f.orderMgr.TransitionStatus(ctx, order.ID, models.OrderStatusProcessing, "", "staff")
	require.ErrorIs(t, err, commerce.ErrInvalidTransition)
	note := "tentative tardive"
	_, err = f.orderMgr.UpdateNotes(ctx, order.ID, commerce.NotesUpdate{StaffNotes: &note})
	require.ErrorIs(t, err, commerce.ErrInvalidTransition)
}

func TestBulkTransitionReportsPartialSuccess(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	product := f.seedProduct("Saladier", 25, 20)

	first, err := f.orderMgr.CreateDirect(ctx, f.shopID, commerce.CustomerContact{Email: "a@b.c"},
		[]commerce.DirectOrderLine{{ProductID: product.ID, Quantity: 1}}, commerce.CreateOrderInput{})
	require.NoError(t, err)
	second, err := f.orderMgr.CreateDirect(ctx, f.shopID, commerce.CustomerContact{Email: "a@b.c"},
		[]commerce.DirectOrderLine{{ProductID: product.ID, Quantity: 1}}, commerce.CreateOrderInput{})
	require.NoError(t, err)

	_, err = f.orderMgr.TransitionStatus(ctx, second.ID, models.OrderStatusCancelled, "", "staff")
	require.NoError(t, err)

	results := f.orderMgr.BulkTransition(ctx, []gocql.UUID{first.ID, second.ID, gocql.TimeUUID()},
		models.OrderStatusProcessing, "lot du matin", "staff")
	require.Len(t, results, 3)

	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK, "commande annulée : transition refusée")
	assert.NotEmpty(t, results[1].Error)
	assert.False(t, results[2].OK, "commande inconnue")

	// L'échec d'une commande n'empêche pas les autres
	updated, err := f.orderMgr.GetOrder(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, updated.Status)
}

func TestUpdateNotes(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	product := f.seedProduct("Théière", 60, 5)

	order, err := f.orderMgr.CreateDirect(ctx, f.shopID, commerce.CustomerContact{Email: "a@b.c"},
		[]commerce.DirectOrderLine{{ProductID: product.ID, Quantity: 1}}, commerce.CreateOrderInput{})
	require.NoError(t, err)

	tracking := "COLIS-123"
	carrier := "colissimo"
	order, err = f.orderMgr.UpdateNotes(ctx, order.ID, commerce.NotesUpdate{
		TrackingNumber:  &tracking,
		ShippingCarrier: &carrier,
	})
	require.NoError(t, err)
	assert.Equal(t, "COLIS-123", order.TrackingNumber)
	assert.Equal(t, "colissimo", order.ShippingCarrier)
	// Les champs non fournis restent intacts
	assert.Empty(t, order.StaffNotes)
}

func TestRecordPayment(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	product := f.seedProduct("Mug", 12, 5)

	order, err := f.orderMgr.CreateDirect(ctx, f.shopID, commerce.CustomerContact{Email: "a@b.c"},
		[]commerce.DirectOrderLine{{ProductID: product.ID, Quantity: 1}}, commerce.CreateOrderInput{})
	require.NoError(t, err)
	require.Nil(t, order.PaidAt)

	order, err = f.orderMgr.RecordPayment(ctx, order.ID, models.PaymentStatusPaid, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, "pi_123", order.PaymentReference)
	require.NotNil(t, order.PaidAt)

	// Le statut de commande vit sa propre machine à états
	assert.Equal(t, models.OrderStatusPending, order.Status)
}

func TestOrderStats(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	product := f.seedProduct("Coupe", 100, 20)

	paid, err := f.orderMgr.CreateDirect(ctx, f.shopID, commerce.CustomerContact{Email: "a@b.c"},
		[]commerce.DirectOrderLine{{ProductID: product.ID, Quantity: 1}}, commerce.CreateOrderInput{})
	require.NoError(t, err)
	_, err = f.orderMgr.RecordPayment(ctx, paid.ID, models.PaymentStatusPaid, "pi_1")
	require.NoError(t, err)

	_, err = f.orderMgr.CreateDirect(ctx, f.shopID, commerce.CustomerContact{Email: "a@b.c"},
		[]commerce.DirectOrderLine{{ProductID: product.ID, Quantity: 1}}, commerce.CreateOrderInput{})
	require.NoError(t, err)

	stats, err := f.orderMgr.Stats(ctx, f.shopID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalOrders)
	assert.Equal(t, 2, stats.CountByStatus[models.OrderStatusPending])
	// Seule la commande payée compte au chiffre d'affaires
	assert.InDelta(t, paid.TotalAmount, stats.TotalRevenue, 0.001)
}
