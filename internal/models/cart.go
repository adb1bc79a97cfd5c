package models

// CartItem est une ligne de panier. Price est le prix au moment de
// l'ajout, conservé pour l'affichage uniquement : le montant facturé est
// toujours recalculé depuis le catalogue au moment du checkout.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name,omitempty"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url,omitempty"`
}

// Key identifie une ligne de panier : un même produit peut apparaître
// plusieurs fois avec une taille ou une couleur différente.
func (i CartItem) Key() string {
	return i.ProductID + "|" + i.Size + "|" + i.Color
}
