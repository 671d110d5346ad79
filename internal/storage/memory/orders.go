package memory

import (
	"context"
	"sync"

	"github.com/gocql/gocql"

	"shopora_back_end/internal/commerce"
	"shopora_back_end/internal/models"
)

type OrderStore struct {
	mu      sync.RWMutex
	orders  map[gocql.UUID]*models.Order
	numbers map[string]gocql.UUID // numéro de commande → id (contrainte d'unicité)
}

func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:  make(map[gocql.UUID]*models.Order),
		numbers: make(map[string]gocql.UUID),
	}
}

func cloneOrder(o *models.Order) *models.Order {
	out := *o
	out.Items = make([]models.OrderItem, len(o.Items))
	copy(out.Items, o.Items)
	out.StatusHistory = make([]models.StatusChange, len(o.StatusHistory))
	copy(out.StatusHistory, o.StatusHistory)
	return &out
}

func (s *OrderStore) GetByID(_ context.Context, id gocql.UUID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, commerce.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (s *OrderStore) GetByNumber(_ context.Context, shopID gocql.UUID, orderNumber string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.numbers[orderNumber]
	if !ok {
		return nil, commerce.ErrNotFound
	}
	order := s.orders[id]
	if order == nil || order.ShopID != shopID {
		return nil, commerce.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (s *OrderStore) Insert(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[o.ID]; exists {
		return commerce.ErrConflict
	}
	if _, exists := s.numbers[o.OrderNumber]; exists {
		return commerce.ErrConflict
	}
	o.Version = 1
	s.orders[o.ID] = cloneOrder(o)
	s.numbers[o.OrderNumber] = o.ID
	return nil
}

func (s *OrderStore) Update(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.orders[o.ID]
	if !ok {
		return commerce.ErrNotFound
	}
	if current.Version != o.Version {
		return commerce.ErrConflict
	}
	o.Version++
	s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (s *OrderStore) List(_ context.Context, shopID gocql.UUID, f commerce.OrderFilter) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Order
	for _, order := range s.orders {
		if order.ShopID != shopID {
			continue
		}
		if f.Status != "" && order.Status != f.Status {
			continue
		}
		if f.CustomerEmail != "" && order.CustomerEmail != f.CustomerEmail {
			continue
		}
		if f.After != nil && order.CreatedAt.Before(*f.After) {
			continue
		}
		if f.Before != nil && order.CreatedAt.After(*f.Before) {
			continue
		}
		out = append(out, *cloneOrder(order))
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

func (s *OrderStore) Stats(_ context.Context, shopID gocql.UUID) (*commerce.OrderStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := &commerce.OrderStats{CountByStatus: make(map[models.OrderStatus]int)}
	for _, order := range s.orders {
		if order.ShopID != shopID {
			continue
		}
		stats.TotalOrders++
		stats.CountByStatus[order.Status]++
		// Le chiffre d'affaires compte les commandes payées ou livrées
		if order.PaymentStatus == models.PaymentStatusPaid || order.Status == models.OrderStatusDelivered {
			stats.TotalRevenue += order.TotalAmount
		}
	}
	return stats, nil
}
