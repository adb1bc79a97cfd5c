package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Product struct {
	ID        gocql.UUID `json:"id" db:"product_id"`
	Name      string     `json:"name" db:"name"`
	Price     float64    `json:"price" db:"price"`
	Stock     int        `json:"stock" db:"stock"`
	SKU       string     `json:"sku" db:"sku"`
	ImageURLs []string   `json:"image_urls" db:"image_urls"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}
