package checkout

import (
	"context"

	"velora_back_end/internal/models"
)

// Catalog est le collaborateur catalogue, source de vérité pour prix et
// stock au moment du checkout. Retourne ErrProductGone si absent.
type Catalog interface {
	GetProduct(ctx context.Context, productID string) (models.Product, error)
}

// Carts lit et vide le panier d'un utilisateur.
type Carts interface {
	Get(ctx context.Context, userID string) ([]models.CartItem, error)
	Clear(ctx context.Context, userID string) error
}

// Orders persiste les commandes.
type Orders interface {
	Insert(ctx context.Context, order models.Order) error
}

// Stock réserve et libère du stock de façon atomique (compare-and-swap
// côté base). Reserve retourne false sans erreur quand le stock courant
// ne couvre pas la quantité.
type Stock interface {
	Reserve(ctx context.Context, productID string, qty int) (bool, error)
	Release(ctx context.Context, productID string, qty int) error
}

// Line est une ligne de snapshot : quantité du panier, prix du catalogue.
type Line struct {
	ProductID string
	Name      string
	Size      string
	Color     string
	Quantity  int
	UnitPrice float64
}

// Snapshot est la vue du panier re-pricée et re-vérifiée à l'instant où
// le checkout commence.
type Snapshot struct {
	Lines    []Line
	Subtotal float64
}

// Resolve relit le panier et, pour chaque ligne, recharge le produit :
// produit disparu → ErrProductGone, désactivé → ProductUnavailableError,
// stock insuffisant → InsufficientStockError. Le prix unitaire est le
// prix catalogue COURANT ; le prix stocké sur la ligne de panier est
// ignoré (le client ne peut pas influencer le montant facturé).
func (s *Service) Resolve(ctx context.Context, userID string) (*Snapshot, error) {
	items, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	snap := &Snapshot{Lines: make([]Line, 0, len(items))}
	for _, item := range items {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}

		if !product.IsActive {
			return nil, &ProductUnavailableError{ProductID: item.ProductID, Name: product.Name}
		}
		if product.Stock < item.Quantity {
			return nil, &InsufficientStockError{
				ProductID: item.ProductID,
				Name:      product.Name,
				Available: product.Stock,
				Requested: item.Quantity,
			}
		}

		line := Line{
			ProductID: item.ProductID,
			Name:      product.Name,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
			UnitPrice: product.Price, // prix courant, pas item.Price
		}
		snap.Lines = append(snap.Lines, line)
		snap.Subtotal += line.UnitPrice * float64(line.Quantity)
	}

	return snap, nil
}
