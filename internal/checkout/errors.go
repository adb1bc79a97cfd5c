package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart = errors.New("panier vide")
	// ErrProductGone : le produit référencé par le panier n'existe plus
	ErrProductGone = errors.New("produit introuvable")
)

// ProductUnavailableError : produit désactivé entre l'ajout au panier et
// le checkout.
type ProductUnavailableError struct {
	ProductID string
	Name      string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("produit indisponible: %s", e.Name)
}

// InsufficientStockError : le stock courant ne couvre plus la quantité
// demandée (re-vérifié au checkout, le stock a pu bouger depuis l'ajout).
type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuffisant pour %s: %d disponible(s), %d demandé(s)",
		e.Name, e.Available, e.Requested)
}

// ValidationError porte le détail champ par champ de l'adresse refusée.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("adresse de livraison invalide (%d champ(s))", len(e.Fields))
}
