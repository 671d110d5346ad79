package memory

import (
	"context"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopora_back_end/internal/commerce"
	"shopora_back_end/internal/models"
)

func newActiveBasket(shopID gocql.UUID) *models.Basket {
	return &models.Basket{
		ID:             gocql.TimeUUID(),
		ShopID:         shopID,
		SessionID:      "sess-1",
		Token:          "basket_test",
		Status:         models.BasketStatusActive,
		IsGuest:        true,
		Currency:       "EUR",
		LastActivityAt: time.Now(),
	}
}

func TestBasketSaveDetectsStaleVersion(t *testing.T) {
	store := NewBasketStore()
	ctx := context.Background()
	basket := newActiveBasket(gocql.TimeUUID())
	require.NoError(t, store.Insert(ctx, basket))

	first, err := store.GetByID(ctx, basket.ID)
	require.NoError(t, err)
	second, err := store.GetByID(ctx, basket.ID)
	require.NoError(t, err)

	// Deux lecteurs concurrents : seul le premier écrivain gagne
	first.SessionID = "gagnant"
	require.NoError(t, store.Save(ctx, first))

	second.SessionID = "perdant"
	err = store.Save(ctx, second)
	require.ErrorIs(t, err, commerce.ErrConflict)

	stored, err := store.GetByID(ctx, basket.ID)
	require.NoError(t, err)
	assert.Equal(t, "gagnant", stored.SessionID)
}

func TestBasketInsertRejectsDuplicate(t *testing.T) {
	store := NewBasketStore()
	ctx := context.Background()
	basket := newActiveBasket(gocql.TimeUUID())
	require.NoError(t, store.Insert(ctx, basket))
	require.ErrorIs(t, store.Insert(ctx, basket), commerce.ErrConflict)
}

func TestOrderInsertEnforcesUniqueNumber(t *testing.T) {
	store := NewOrderStore()
	ctx := context.Background()
	shopID := gocql.TimeUUID()

	first := &models.Order{
		ID:          gocql.TimeUUID(),
		ShopID:      shopID,
		OrderNumber: "ORD20260831120000ABCDEF01",
		Status:      models.OrderStatusPending,
	}
	require.NoError(t, store.Insert(ctx, first))

	// Même numéro, identifiant différent : la contrainte dure refuse
	clash := &models.Order{
		ID:          gocql.TimeUUID(),
		ShopID:      shopID,
		OrderNumber: first.OrderNumber,
		Status:      models.OrderStatusPending,
	}
	require.ErrorIs(t, store.Insert(ctx, clash), commerce.ErrConflict)

	found, err := store.GetByNumber(ctx, shopID, first.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	// Le numéro ne répond pas pour une autre boutique
	_, err = store.GetByNumber(ctx, gocql.TimeUUID(), first.OrderNumber)
	require.ErrorIs(t, err, commerce.ErrNotFound)
}
