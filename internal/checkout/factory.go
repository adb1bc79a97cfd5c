package checkout

import (
	"context"
	"log"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"velora_back_end/internal/models"
)

// TaxRate est la TVA appliquée au sous-total. Taux unique codé en dur :
// pas de taux par produit ni par juridiction (limitation assumée).
const TaxRate = 0.18

var pincodeRe = regexp.MustCompile(`^[0-9]{6}$`)

// Service orchestre le checkout : snapshot du panier, réservation de
// stock, création de la commande, puis vidage du panier.
type Service struct {
	catalog  Catalog
	carts    Carts
	orders   Orders
	stock    Stock
	currency string
	now      func() time.Time
}

func NewService(catalog Catalog, carts Carts, orders Orders, stock Stock, currency string) *Service {
	return &Service{
		catalog:  catalog,
		carts:    carts,
		orders:   orders,
		stock:    stock,
		currency: currency,
		now:      time.Now,
	}
}

// Total applique la TVA et arrondit à l'unité de devise.
func Total(subtotal float64) float64 {
	return math.Round(subtotal * (1 + TaxRate))
}

// ValidateAddress exige rue, ville, état et un code postal à 6 chiffres.
func ValidateAddress(addr models.ShippingAddress) *ValidationError {
	fields := make(map[string]string)
	if strings.TrimSpace(addr.Street) == "" {
		fields["street"] = "champ requis"
	}
	if strings.TrimSpace(addr.City) == "" {
		fields["city"] = "champ requis"
	}
	if strings.TrimSpace(addr.State) == "" {
		fields["state"] = "champ requis"
	}
	if !pincodeRe.MatchString(addr.Pincode) {
		fields["pincode"] = "6 chiffres attendus"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Create valide l'adresse, réserve le stock ligne par ligne puis écrit
// la commande en pending/pending. Toute réservation déjà prise est
// rendue si une étape suivante échoue, et le panier n'est vidé qu'APRÈS
// l'écriture durable de la commande : s'il n'y a pas de commande, le
// panier reste intact.
func (s *Service) Create(ctx context.Context, userID string, addr models.ShippingAddress, snap *Snapshot) (*models.Order, error) {
	if err := ValidateAddress(addr); err != nil {
		return nil, err
	}

	// Réservation atomique du stock, produit par produit
	reserved := make([]Line, 0, len(snap.Lines))
	for _, line := range snap.Lines {
		ok, err := s.stock.Reserve(ctx, line.ProductID, line.Quantity)
		if err != nil {
			s.releaseAll(ctx, reserved)
			return nil, err
		}
		if !ok {
			s.releaseAll(ctx, reserved)
			return nil, &InsufficientStockError{
				ProductID: line.ProductID,
				Name:      line.Name,
				Requested: line.Quantity,
			}
		}
		reserved = append(reserved, line)
	}

	now := s.now()
	order := models.Order{
		ID:            gocql.TimeUUID(),
		UserID:        userID,
		Items:         make([]models.OrderItem, 0, len(snap.Lines)),
		Subtotal:      snap.Subtotal,
		TotalAmount:   Total(snap.Subtotal),
		Currency:      s.currency,
		PaymentStatus: models.PaymentStatusPending,
		OrderStatus:   models.OrderStatusPending,
		ShippingAddress: models.ShippingAddress{
			Street:  strings.TrimSpace(addr.Street),
			City:    strings.TrimSpace(addr.City),
			State:   strings.TrimSpace(addr.State),
			Pincode: addr.Pincode,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, line := range snap.Lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		s.releaseAll(ctx, reserved)
		return nil, err
	}

	// Le panier n'est vidé qu'une fois la commande écrite
	if err := s.carts.Clear(ctx, userID); err != nil {
		log.Printf("⚠️ Panier non vidé pour %s après commande %s: %v", userID, order.ID, err)
	}

	return &order, nil
}

func (s *Service) releaseAll(ctx context.Context, lines []Line) {
	for _, line := range lines {
		if err := s.stock.Release(ctx, line.ProductID, line.Quantity); err != nil {
			log.Printf("❌ Libération de stock échouée pour %s (+%d): %v", line.ProductID, line.Quantity, err)
		}
	}
}
