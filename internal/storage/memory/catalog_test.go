package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopora_back_end/internal/commerce"
	"shopora_back_end/internal/models"
)

func TestDecrementNeverOversells(t *testing.T) {
	catalog := NewCatalog()
	ctx := context.Background()
	product := &models.Product{
		ID:          gocql.TimeUUID(),
		ShopID:      gocql.TimeUUID(),
		Name:        "Edition limitée",
		ManageStock: true,
		Stock:       50,
	}
	catalog.PutProduct(product)

	// 100 acheteurs pour 50 unités : exactement 50 débits doivent passer
	const buyers = 100
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted, refused := 0, 0

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := catalog.Decrement(ctx, product.ID, nil, 1, gocql.TimeUUID())
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				granted++
			} else {
				assert.ErrorIs(t, err, commerce.ErrInsufficientStock)
				refused++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, granted)
	assert.Equal(t, 50, refused)

	remaining, err := catalog.CheckAvailable(ctx, product.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, remaining, "le stock ne passe jamais sous zéro")

	// Chaque débit accordé a laissé un mouvement
	assert.Len(t, catalog.Movements(), 50)
}

func TestDecrementRejectsInvalidQuantity(t *testing.T) {
	catalog := NewCatalog()
	ctx := context.Background()
	product := &models.Product{ID: gocql.TimeUUID(), ManageStock: true, Stock: 5}
	catalog.PutProduct(product)

	err := catalog.Decrement(ctx, product.ID, nil, 0, gocql.TimeUUID())
	require.ErrorIs(t, err, commerce.ErrInvalidArgument)
	err = catalog.Decrement(ctx, product.ID, nil, -3, gocql.TimeUUID())
	require.ErrorIs(t, err, commerce.ErrInvalidArgument)

	err = catalog.Decrement(ctx, gocql.TimeUUID(), nil, 1, gocql.TimeUUID())
	require.ErrorIs(t, err, commerce.ErrNotFound)
}

func TestVariantStockIsIndependent(t *testing.T) {
	catalog := NewCatalog()
	ctx := context.Background()
	product := &models.Product{ID: gocql.TimeUUID(), ManageStock: true, Stock: 10}
	catalog.PutProduct(product)
	variant := &models.ProductVariant{ID: gocql.TimeUUID(), ProductID: product.ID, Stock: 3}
	catalog.PutVariant(variant)

	require.NoError(t, catalog.Decrement(ctx, product.ID, &variant.ID, 2, gocql.TimeUUID()))

	// Le débit porte sur la variante, pas sur le produit parent
	left, err := catalog.CheckAvailable(ctx, product.ID, &variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, left)

	parent, err := catalog.CheckAvailable(ctx, product.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, parent)
}

func TestIncrementRestocks(t *testing.T) {
	catalog := NewCatalog()
	ctx := context.Background()
	product := &models.Product{ID: gocql.TimeUUID(), ManageStock: true, Stock: 2}
	catalog.PutProduct(product)
	orderID := gocql.TimeUUID()

	require.NoError(t, catalog.Decrement(ctx, product.ID, nil, 2, orderID))
	require.NoError(t, catalog.Increment(ctx, product.ID, nil, 2, orderID))

	left, err := catalog.CheckAvailable(ctx, product.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, left)

	movements := catalog.Movements()
	require.Len(t, movements, 2)
	assert.Equal(t, "sale", movements[0].Type)
	assert.Equal(t, -2, movements[0].Quantity)
	assert.Equal(t, "return", movements[1].Type)
	assert.Equal(t, 2, movements[1].Quantity)
}
