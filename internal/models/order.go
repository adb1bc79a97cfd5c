package models

import (
	"time"

	"github.com/gocql/gocql"
)

// OrderItem est une ligne de commande figée au checkout : le prix
// unitaire vient du catalogue au moment de la commande, jamais du panier.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// Order : les lignes sont immuables après création, seuls les champs de
// statut et les identifiants passerelle évoluent ensuite.
type Order struct {
	ID               gocql.UUID      `json:"order_id"`
	UserID           string          `json:"user_id"`
	Items            []OrderItem     `json:"items"`
	Subtotal         float64         `json:"subtotal"`
	TotalAmount      float64         `json:"total_amount"`
	Currency         string          `json:"currency"`
	PaymentStatus    string          `json:"payment_status"`
	OrderStatus      string          `json:"order_status"`
	GatewayIntentID  string          `json:"gateway_intent_id,omitempty"`
	GatewayPaymentID string          `json:"gateway_payment_id,omitempty"`
	GatewaySignature string          `json:"-"`
	ShippingAddress  ShippingAddress `json:"shipping_address"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// OrderSummary est la projection dénormalisée orders_by_user.
type OrderSummary struct {
	OrderID       gocql.UUID `json:"order_id"`
	TotalAmount   float64    `json:"total_amount"`
	PaymentStatus string     `json:"payment_status"`
	OrderStatus   string     `json:"order_status"`
	CreatedAt     time.Time  `json:"created_at"`
}
