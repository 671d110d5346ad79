package basket

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopora_back_end/internal/commerce"
	"shopora_back_end/internal/models"
	"shopora_back_end/internal/storage/memory"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *memory.Catalog, gocql.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog := memory.NewCatalog()
	shopID := gocql.TimeUUID()
	catalog.PutShop(&models.Shop{ID: shopID, Name: "Boutique Test", Currency: "EUR", IsActive: true})

	Init(commerce.NewBasketManager(memory.NewBasketStore(), catalog, catalog, catalog, commerce.BasketManagerConfig{}))

	router := gin.New()
	router.POST("/api/baskets", GetOrCreateBasket)
	router.GET("/api/baskets/:id", GetBasket)
	router.GET("/api/baskets/token/:token", GetBasketByToken)
	router.POST("/api/baskets/:id/items", AddItem)
	router.PATCH("/api/baskets/:id/items/:itemId", UpdateItem)
	router.DELETE("/api/baskets/:id/items/:itemId", RemoveItem)
	return router, catalog, shopID
}

func guestRequest(method, path string, shopID gocql.UUID, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shop-ID", shopID.String())
	req.Header.Set("X-Session-ID", "sess-test")
	return req
}

func TestGetOrCreateBasketGuest(t *testing.T) {
	router, _, shopID := setupTestRouter(t)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, guestRequest("POST", "/api/baskets", shopID, nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var basket models.Basket
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &basket))
	assert.True(t, basket.IsGuest)
	assert.Equal(t, shopID, basket.ShopID)
	assert.Equal(t, models.BasketStatusActive, basket.Status)

	// Rejouer la requête retourne le même panier
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, guestRequest("POST", "/api/baskets", shopID, nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var again models.Basket
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &again))
	assert.Equal(t, basket.ID, again.ID)
}

func TestGetOrCreateBasketRequiresShopAndSession(t *testing.T) {
	router, _, shopID := setupTestRouter(t)

	// Pas de boutique identifiable
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("POST", "/api/baskets", nil))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	// Boutique sans session invitée ni authentification
	recorder = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/baskets", nil)
	req.Header.Set("X-Shop-ID", shopID.String())
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAddItemEndpoint(t *testing.T) {
	router, catalog, shopID := setupTestRouter(t)
	product := &models.Product{
		ID:               gocql.TimeUUID(),
		ShopID:           shopID,
		Name:             "Lampe",
		Price:            45,
		OriginalPrice:    45,
		ManageStock:      true,
		Stock:            2,
		RequiresShipping: true,
		IsActive:         true,
	}
	catalog.PutProduct(product)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, guestRequest("POST", "/api/baskets", shopID, nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	var basket models.Basket
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &basket))

	itemsPath := fmt.Sprintf("/api/baskets/%s/items", basket.ID)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, guestRequest("POST", itemsPath, shopID,
		gin.H{"product_id": product.ID.String(), "quantity": 2}))
	require.Equal(t, http.StatusOK, recorder.Code)

	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &basket))
	require.Len(t, basket.Items, 1)
	assert.Equal(t, 2, basket.Items[0].Quantity)
	assert.InDelta(t, 90.0, basket.Subtotal, 0.001)

	// Stock épuisé : l'ajout suivant est refusé en 409
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, guestRequest("POST", itemsPath, shopID,
		gin.H{"product_id": product.ID.String(), "quantity": 1}))
	assert.Equal(t, http.StatusConflict, recorder.Code)

	// Quantité invalide
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, guestRequest("POST", itemsPath, shopID,
		gin.H{"product_id": product.ID.String(), "quantity": 0}))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetBasketNotFound(t *testing.T) {
	router, _, shopID := setupTestRouter(t)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, guestRequest("GET", "/api/baskets/"+gocql.TimeUUID().String(), shopID, nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, guestRequest("GET", "/api/baskets/token/inconnu", shopID, nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestUpdateAndRemoveItemEndpoints(t *testing.T) {
	router, catalog, shopID := setupTestRouter(t)
	product := &models.Product{
		ID:            gocql.TimeUUID(),
		ShopID:        shopID,
		Name:          "Cadre",
		Price:         20,
		OriginalPrice: 20,
		Stock:         50,
		ManageStock:   true,
		IsActive:      true,
	}
	catalog.PutProduct(product)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, guestRequest("POST", "/api/baskets", shopID, nil))
	var basket models.Basket
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &basket))

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, guestRequest("POST", fmt.Sprintf("/api/baskets/%s/items", basket.ID), shopID,
		gin.H{"product_id": product.ID.String(), "quantity": 1}))
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &basket))
	require.Len(t, basket.Items, 1)
	itemPath := fmt.Sprintf("/api/baskets/%s/items/%s", basket.ID, basket.Items[0].ID)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, guestRequest("PATCH", itemPath, shopID, gin.H{"quantity": 4}))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &basket))
	assert.Equal(t, 4, basket.Items[0].Quantity)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, guestRequest("DELETE", itemPath, shopID, nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &basket))
	assert.Empty(t, basket.Items)
	assert.Zero(t, basket.TotalAmount)
}
