package store

import (
	"context"

	"github.com/gocql/gocql"

	"velora_back_end/internal/checkout"
	"velora_back_end/internal/models"
)

// ScyllaCatalog lit les produits dans le keyspace products. Lecture
// seule : le catalogue fait foi pour prix et stock au checkout.
type ScyllaCatalog struct {
	Session *gocql.Session
}

func (c *ScyllaCatalog) GetProduct(ctx context.Context, productID string) (models.Product, error) {
	uid, err := gocql.ParseUUID(productID)
	if err != nil {
		return models.Product{}, checkout.ErrProductGone
	}

	var p models.Product
	p.ID = uid
	err = c.Session.Query(`SELECT name, price, stock, is_active, image_urls FROM products WHERE product_id = ?`, uid).
		WithContext(ctx).
		Scan(&p.Name, &p.Price, &p.Stock, &p.IsActive, &p.ImageURLs)
	if err == gocql.ErrNotFound {
		return models.Product{}, checkout.ErrProductGone
	}
	if err != nil {
		return models.Product{}, err
	}
	return p, nil
}
