package pa

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/checkout"
	"velora_back_end/internal/database"
	"velora_back_end/internal/gateway"
	"velora_back_end/internal/models"
	"velora_back_end/internal/payments"
	"velora_back_end/internal/store"
)

var (
	checkoutSvc   *checkout.Service
	ordersStore   *store.ScyllaOrders
	cartsStore    *store.RedisCarts
	gatewayClient *gateway.Client
	verifier      *payments.Verifier
)

// Init câble le pipeline de checkout et de paiement sur les bases
// connectées. À appeler après ConnectDatabases.
func Init() {
	productsSession, err := database.GetProductsSession()
	if err != nil {
		log.Printf("⚠️ Session products indisponible pour le checkout: %v", err)
		return
	}
	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		log.Printf("⚠️ Session orders indisponible pour le checkout: %v", err)
		return
	}

	catalog := &store.ScyllaCatalog{Session: productsSession}
	stock := &store.ScyllaStock{Session: productsSession}
	cartsStore = &store.RedisCarts{Client: database.Redis}
	ordersStore = &store.ScyllaOrders{Session: ordersSession}

	checkoutSvc = checkout.NewService(catalog, cartsStore, ordersStore, stock, "INR")
	gatewayClient = gateway.NewClientFromEnv()
	verifier = payments.NewVerifier(ordersStore, gatewayClient)
}

// Checkout transforme le panier en commande : re-pricing depuis le
// catalogue, validation d'adresse, réservation atomique du stock,
// insertion durable, puis vidage du panier.
func Checkout(c *gin.Context) {
	var req struct {
		ShippingAddress models.ShippingAddress `json:"shipping_address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	ctx := c.Request.Context()

	snap, err := checkoutSvc.Resolve(ctx, userID)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	order, err := checkoutSvc.Create(ctx, userID, req.ShippingAddress, snap)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	log.Printf("✅ Commande %s créée pour %s (total: %.2f %s)",
		order.ID.String(), userID, order.TotalAmount, order.Currency)

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

func respondCheckoutError(c *gin.Context, err error) {
	var (
		unavailable  *checkout.ProductUnavailableError
		insufficient *checkout.InsufficientStockError
		validation   *checkout.ValidationError
	)

	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide"})
	case errors.Is(err, checkout.ErrProductGone):
		c.JSON(http.StatusNotFound, gin.H{"error": "Un produit du panier n'existe plus"})
	case errors.As(err, &unavailable):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Produit indisponible",
			"product_id": unavailable.ProductID,
			"name":       unavailable.Name,
		})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Stock insuffisant",
			"product_id": insufficient.ProductID,
			"name":       insufficient.Name,
			"available":  insufficient.Available,
			"requested":  insufficient.Requested,
		})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Adresse de livraison invalide",
			"fields": validation.Fields,
		})
	default:
		log.Printf("❌ Erreur checkout: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
	}
}
