package database

import (
	"log"
	"sync"

	"github.com/gocql/gocql"
)

// Requêtes chaudes du chemin panier/commande. Préparées une seule fois
// par process, puis réutilisées par les stores.
var (
	stmtOnce sync.Once

	basketByIDStmt    string
	basketByTokenStmt string
	orderByIDStmt     string
	orderByNumberStmt string
)

const basketColumns = `basket_id, shop_id, customer_id, session_id, token, status, is_guest,
		subtotal, discount_amount, shipping_amount, tax_amount, total_amount,
		item_count, unique_item_count, currency, coupon_code, shipping_address_id,
		items_json, version, created_at, updated_at, last_activity_at, expires_at`

const orderColumns = `order_id, shop_id, order_number, customer_id, customer_email, customer_name, customer_phone,
		shipping_address_json, billing_address_json, status, payment_status, payment_method, payment_reference,
		subtotal, discount_amount, shipping_amount, tax_amount, total_amount, currency,
		tracking_number, shipping_carrier, customer_notes, staff_notes,
		items_json, history_json, source_basket_id, version,
		created_at, updated_at, paid_at, shipped_at, delivered_at`

// InitPreparedStatements assemble les textes de requêtes des chemins chauds.
// gocql prépare et met en cache les requêtes côté driver à la première exécution.
func InitPreparedStatements() {
	stmtOnce.Do(func() {
		basketByIDStmt = `SELECT ` + basketColumns + ` FROM baskets WHERE basket_id = ?`
		basketByTokenStmt = `SELECT ` + basketColumns + ` FROM baskets WHERE token = ? ALLOW FILTERING`
		orderByIDStmt = `SELECT ` + orderColumns + ` FROM orders WHERE order_id = ?`
		orderByNumberStmt = `SELECT order_id FROM orders_by_number WHERE shop_id = ? AND order_number = ?`
		log.Println("✅ Requêtes panier/commande initialisées")
	})
}

// QueryBasketByID retourne la requête de lecture d'un panier par son ID
func QueryBasketByID(session *gocql.Session, basketID gocql.UUID) *gocql.Query {
	InitPreparedStatements()
	return session.Query(basketByIDStmt, basketID)
}

// QueryBasketByToken retourne la requête de lecture d'un panier par son token public
func QueryBasketByToken(session *gocql.Session, token string) *gocql.Query {
	InitPreparedStatements()
	return session.Query(basketByTokenStmt, token)
}

// QueryOrderByID retourne la requête de lecture d'une commande par son ID
func QueryOrderByID(session *gocql.Session, orderID gocql.UUID) *gocql.Query {
	InitPreparedStatements()
	return session.Query(orderByIDStmt, orderID)
}

// QueryOrderIDByNumber résout un numéro de commande vers son ID
func QueryOrderIDByNumber(session *gocql.Session, shopID gocql.UUID, orderNumber string) *gocql.Query {
	InitPreparedStatements()
	return session.Query(orderByNumberStmt, shopID, orderNumber)
}
