package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Address est un objet valeur structuré — pas de dictionnaire libre,
// chaque champ lu par le moteur est explicite
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

type Customer struct {
	ID             gocql.UUID `json:"id"`
	ShopID         gocql.UUID `json:"shop_id"`
	Email          string     `json:"email"`
	FullName       string     `json:"full_name"`
	Phone          string     `json:"phone,omitempty"`
	DefaultAddress *Address   `json:"default_address,omitempty"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
