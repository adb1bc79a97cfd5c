package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
)

// ScyllaStock réserve du stock par lightweight transaction : lecture du
// stock courant puis UPDATE … IF stock = ?. Deux checkouts concurrents
// sur le même produit ne peuvent pas passer tous les deux le contrôle
// avec le même stock (le perdant du CAS relit et réessaie).
type ScyllaStock struct {
	Session *gocql.Session
}

const casAttempts = 5

func (s *ScyllaStock) Reserve(ctx context.Context, productID string, qty int) (bool, error) {
	uid, err := gocql.ParseUUID(productID)
	if err != nil {
		return false, fmt.Errorf("id produit invalide: %v", err)
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		var stock int
		if err := s.Session.Query(`SELECT stock FROM products WHERE product_id = ?`, uid).
			WithContext(ctx).Scan(&stock); err != nil {
			return false, err
		}
		if stock < qty {
			return false, nil
		}

		applied, err := s.casStock(ctx, uid, stock, stock-qty)
		if err != nil {
			return false, err
		}
		if applied {
			return true, nil
		}
		// CAS perdu : un autre checkout a bougé le stock, on relit
	}
	return false, fmt.Errorf("réservation de stock en contention pour %s", productID)
}

func (s *ScyllaStock) Release(ctx context.Context, productID string, qty int) error {
	uid, err := gocql.ParseUUID(productID)
	if err != nil {
		return fmt.Errorf("id produit invalide: %v", err)
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		var stock int
		if err := s.Session.Query(`SELECT stock FROM products WHERE product_id = ?`, uid).
			WithContext(ctx).Scan(&stock); err != nil {
			return err
		}

		applied, err := s.casStock(ctx, uid, stock, stock+qty)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
	}
	return fmt.Errorf("libération de stock en contention pour %s", productID)
}

func (s *ScyllaStock) casStock(ctx context.Context, uid gocql.UUID, from, to int) (bool, error) {
	prev := map[string]interface{}{}
	return s.Session.Query(`UPDATE products SET stock = ?, updated_at = ? WHERE product_id = ? IF stock = ?`,
		to, time.Now(), uid, from).
		WithContext(ctx).
		MapScanCAS(prev)
}
