package scylla

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/gocql/gocql"

	"shopora_back_end/internal/commerce"
	"shopora_back_end/internal/database"
	"shopora_back_end/internal/models"
)

// OrderStore persiste les commandes dans le keyspace orders.
// L'unicité du numéro de commande est garantie par une insertion LWT
// dans la table orders_by_number — c'est la contrainte dure, la
// génération du numéro n'est qu'une source d'entropie.
type OrderStore struct{}

func NewOrderStore() *OrderStore {
	return &OrderStore{}
}

const orderSelectColumns = `order_id, shop_id, order_number, customer_id, customer_email, customer_name, customer_phone,
	shipping_address_json, billing_address_json, status, payment_status, payment_method, payment_reference,
	subtotal, discount_amount, shipping_amount, tax_amount, total_amount, currency,
	tracking_number, shipping_carrier, customer_notes, staff_notes,
	items_json, history_json, source_basket_id, version,
	created_at, updated_at, paid_at, shipped_at, delivered_at`

func scanOrder(scanner interface{ Scan(...interface{}) error }) (*models.Order, error) {
	var (
		o            models.Order
		shippingJSON string
		billingJSON  string
		itemsJSON    string
		historyJSON  string
	)
	err := scanner.Scan(
		&o.ID, &o.ShopID, &o.OrderNumber, &o.CustomerID, &o.CustomerEmail, &o.CustomerName, &o.CustomerPhone,
		&shippingJSON, &billingJSON, &o.Status, &o.PaymentStatus, &o.PaymentMethod, &o.PaymentReference,
		&o.Subtotal, &o.DiscountAmount, &o.ShippingAmount, &o.TaxAmount, &o.TotalAmount, &o.Currency,
		&o.TrackingNumber, &o.ShippingCarrier, &o.CustomerNotes, &o.StaffNotes,
		&itemsJSON, &historyJSON, &o.SourceBasketID, &o.Version,
		&o.CreatedAt, &o.UpdatedAt, &o.PaidAt, &o.ShippedAt, &o.DeliveredAt,
	)
	if err != nil {
		return nil, err
	}
	if shippingJSON != "" {
		if err := json.Unmarshal([]byte(shippingJSON), &o.ShippingAddress); err != nil {
			return nil, fmt.Errorf("shipping_address_json corrompu pour la commande %s: %v", o.ID, err)
		}
	}
	if billingJSON != "" {
		if err := json.Unmarshal([]byte(billingJSON), &o.BillingAddress); err != nil {
			return nil, fmt.Errorf("billing_address_json corrompu pour la commande %s: %v", o.ID, err)
		}
	}
	if itemsJSON != "" {
		if err := json.Unmarshal([]byte(itemsJSON), &o.Items); err != nil {
			return nil, fmt.Errorf("items_json corrompu pour la commande %s: %v", o.ID, err)
		}
	}
	if historyJSON != "" {
		if err := json.Unmarshal([]byte(historyJSON), &o.StatusHistory); err != nil {
			return nil, fmt.Errorf("history_json corrompu pour la commande %s: %v", o.ID, err)
		}
	}
	return &o, nil
}

func marshalOrderColumns(o *models.Order) (shipping, billing, items, history string, err error) {
	marshal := func(v interface{}, empty string) (string, error) {
		if v == nil {
			return empty, nil
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	if o.ShippingAddress != nil {
		if shipping, err = marshal(o.ShippingAddress, ""); err != nil {
			return
		}
	}
	if o.BillingAddress != nil {
		if billing, err = marshal(o.BillingAddress, ""); err != nil {
			return
		}
	}
	if items, err = marshal(o.Items, "[]"); err != nil {
		return
	}
	history, err = marshal(o.StatusHistory, "[]")
	return
}

func (s *OrderStore) GetByID(ctx context.Context, id gocql.UUID) (*models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	o, err := scanOrder(database.QueryOrderByID(session, id).WithContext(ctx))
	if err == gocql.ErrNotFound {
		return nil, commerce.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderStore) GetByNumber(ctx context.Context, shopID gocql.UUID, orderNumber string) (*models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	var orderID gocql.UUID
	err = database.QueryOrderIDByNumber(session, shopID, orderNumber).WithContext(ctx).Scan(&orderID)
	if err == gocql.ErrNotFound {
		return nil, commerce.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, orderID)
}

func (s *OrderStore) Insert(ctx context.Context, o *models.Order) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	// 1. Réserver le numéro de commande (contrainte d'unicité dure)
	applied, err := session.Query(
		`INSERT INTO orders_by_number (shop_id, order_number, order_id)
		 VALUES (?, ?, ?) IF NOT EXISTS`,
		o.ShopID, o.OrderNumber, o.ID,
	).WithContext(ctx).ScanCAS()
	if err != nil {
		return err
	}
	if !applied {
		return commerce.ErrConflict
	}

	shippingJSON, billingJSON, itemsJSON, historyJSON, err := marshalOrderColumns(o)
	if err != nil {
		return err
	}

	// 2. Écrire la commande elle-même
	o.Version = 1
	err = session.Query(
		`INSERT INTO orders (order_id, shop_id, order_number, customer_id, customer_email, customer_name, customer_phone,
			shipping_address_json, billing_address_json, status, payment_status, payment_method, payment_reference,
			subtotal, discount_amount, shipping_amount, tax_amount, total_amount, currency,
			tracking_number, shipping_carrier, customer_notes, staff_notes,
			items_json, history_json, source_basket_id, version,
			created_at, updated_at, paid_at, shipped_at, delivered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.ShopID, o.OrderNumber, o.CustomerID, o.CustomerEmail, o.CustomerName, o.CustomerPhone,
		shippingJSON, billingJSON, o.Status, o.PaymentStatus, o.PaymentMethod, o.PaymentReference,
		o.Subtotal, o.DiscountAmount, o.ShippingAmount, o.TaxAmount, o.TotalAmount, o.Currency,
		o.TrackingNumber, o.ShippingCarrier, o.CustomerNotes, o.StaffNotes,
		itemsJSON, historyJSON, o.SourceBasketID, o.Version,
		o.CreatedAt, o.UpdatedAt, o.PaidAt, o.ShippedAt, o.DeliveredAt,
	).WithContext(ctx).Exec()
	if err != nil {
		// Libérer la réservation du numéro pour ne pas laisser un orphelin
		if delErr := session.Query(
			`DELETE FROM orders_by_number WHERE shop_id = ? AND order_number = ?`,
			o.ShopID, o.OrderNumber,
		).WithContext(ctx).Exec(); delErr != nil {
			log.Printf("⚠️ Numéro de commande orphelin %s (boutique %s): %v", o.OrderNumber, o.ShopID, delErr)
		}
		return err
	}
	return nil
}

// Update écrit la commande sous condition de version, comme BasketStore.Save.
func (s *OrderStore) Update(ctx context.Context, o *models.Order) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	shippingJSON, billingJSON, itemsJSON, historyJSON, err := marshalOrderColumns(o)
	if err != nil {
		return err
	}

	newVersion := o.Version + 1
	applied, err := session.Query(
		`UPDATE orders SET
			shipping_address_json = ?, billing_address_json = ?,
			status = ?, payment_status = ?, payment_method = ?, payment_reference = ?,
			tracking_number = ?, shipping_carrier = ?, customer_notes = ?, staff_notes = ?,
			items_json = ?, history_json = ?, version = ?,
			updated_at = ?, paid_at = ?, shipped_at = ?, delivered_at = ?
		 WHERE order_id = ?
		 IF version = ?`,
		shippingJSON, billingJSON,
		o.Status, o.PaymentStatus, o.PaymentMethod, o.PaymentReference,
		o.TrackingNumber, o.ShippingCarrier, o.CustomerNotes, o.StaffNotes,
		itemsJSON, historyJSON, newVersion,
		o.UpdatedAt, o.PaidAt, o.ShippedAt, o.DeliveredAt,
		o.ID,
		o.Version,
	).WithContext(ctx).ScanCAS()
	if err != nil {
		return err
	}
	if !applied {
		return commerce.ErrConflict
	}
	o.Version = newVersion
	return nil
}

func (s *OrderStore) List(ctx context.Context, shopID gocql.UUID, f commerce.OrderFilter) ([]models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(
		`SELECT `+orderSelectColumns+` FROM orders WHERE shop_id = ? ALLOW FILTERING`,
		shopID,
	).WithContext(ctx).Iter()

	orders := make([]models.Order, 0)
	for {
		o, err := scanOrder(iterScanner{iter})
		if err != nil {
			break
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.CustomerEmail != "" && o.CustomerEmail != f.CustomerEmail {
			continue
		}
		if f.After != nil && o.CreatedAt.Before(*f.After) {
			continue
		}
		if f.Before != nil && o.CreatedAt.After(*f.Before) {
			continue
		}
		orders = append(orders, *o)
		if f.Limit > 0 && len(orders) >= f.Limit {
			break
		}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderStore) Stats(ctx context.Context, shopID gocql.UUID) (*commerce.OrderStats, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(
		`SELECT status, payment_status, total_amount FROM orders WHERE shop_id = ? ALLOW FILTERING`,
		shopID,
	).WithContext(ctx).Iter()

	stats := &commerce.OrderStats{
		CountByStatus: make(map[models.OrderStatus]int),
	}
	var (
		status        models.OrderStatus
		paymentStatus models.PaymentStatus
		totalAmount   float64
	)
	for iter.Scan(&status, &paymentStatus, &totalAmount) {
		stats.TotalOrders++
		stats.CountByStatus[status]++
		// Le chiffre d'affaires ne compte que l'encaissé ou le livré
		if paymentStatus == models.PaymentStatusPaid || status == models.OrderStatusDelivered {
			stats.TotalRevenue += totalAmount
		}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return stats, nil
}
