// Package memory fournit des implémentations en mémoire des ports du moteur
// commerce, utilisées par les tests et le mode développement local.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gocql/gocql"

	"shopora_back_end/internal/commerce"
	"shopora_back_end/internal/models"
)

type BasketStore struct {
	mu      sync.RWMutex
	baskets map[gocql.UUID]*models.Basket
}

func NewBasketStore() *BasketStore {
	return &BasketStore{baskets: make(map[gocql.UUID]*models.Basket)}
}

func cloneBasket(b *models.Basket) *models.Basket {
	out := *b
	out.Items = make([]models.BasketItem, len(b.Items))
	copy(out.Items, b.Items)
	return &out
}

func (s *BasketStore) GetByID(_ context.Context, id gocql.UUID) (*models.Basket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	basket, ok := s.baskets[id]
	if !ok {
		return nil, commerce.ErrNotFound
	}
	return cloneBasket(basket), nil
}

func (s *BasketStore) GetByToken(_ context.Context, shopID gocql.UUID, token string) (*models.Basket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, basket := range s.baskets {
		if basket.ShopID == shopID && basket.Token == token {
			return cloneBasket(basket), nil
		}
	}
	return nil, commerce.ErrNotFound
}

func (s *BasketStore) FindActiveByCustomer(_ context.Context, shopID, customerID gocql.UUID) (*models.Basket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, basket := range s.baskets {
		if basket.ShopID == shopID && basket.Status == models.BasketStatusActive &&
			basket.CustomerID != nil && *basket.CustomerID == customerID {
			return cloneBasket(basket), nil
		}
	}
	return nil, commerce.ErrNotFound
}

func (s *BasketStore) FindActiveBySession(_ context.Context, shopID gocql.UUID, sessionID string) (*models.Basket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, basket := range s.baskets {
		if basket.ShopID == shopID && basket.Status == models.BasketStatusActive &&
			basket.IsGuest && basket.SessionID == sessionID {
			return cloneBasket(basket), nil
		}
	}
	return nil, commerce.ErrNotFound
}

func (s *BasketStore) Insert(_ context.Context, b *models.Basket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.baskets[b.ID]; exists {
		return commerce.ErrConflict
	}
	b.Version = 1
	s.baskets[b.ID] = cloneBasket(b)
	return nil
}

// Save applique le verrouillage optimiste : la version du panier fourni doit
// correspondre à celle en mémoire, sinon ErrConflict.
func (s *BasketStore) Save(_ context.Context, b *models.Basket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.baskets[b.ID]
	if !ok {
		return commerce.ErrNotFound
	}
	if current.Version != b.Version {
		return commerce.ErrConflict
	}
	b.Version++
	s.baskets[b.ID] = cloneBasket(b)
	return nil
}

func (s *BasketStore) List(_ context.Context, shopID gocql.UUID, f commerce.BasketFilter) ([]models.Basket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Basket
	for _, basket := range s.baskets {
		if basket.ShopID != shopID {
			continue
		}
		if f.Status != "" && basket.Status != f.Status {
			continue
		}
		if f.IsGuest != nil && basket.IsGuest != *f.IsGuest {
			continue
		}
		out = append(out, *cloneBasket(basket))
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

func (s *BasketStore) ListInactiveSince(_ context.Context, cutoff time.Time) ([]models.Basket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Basket
	for _, basket := range s.baskets {
		if basket.Status == models.BasketStatusActive && basket.LastActivityAt.Before(cutoff) {
			out = append(out, *cloneBasket(basket))
		}
	}
	return out, nil
}
