package pa

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/gateway"
	"velora_back_end/internal/models"
	"velora_back_end/internal/payments"
	"velora_back_end/internal/utils"
)

// CreatePaymentIntent déclare la commande auprès de la passerelle de
// paiement et enregistre l'intent retourné. Rejouable tant que la
// commande n'est pas payée : un nouvel intent remplace l'ancien.
func CreatePaymentIntent(c *gin.Context) {
	var req struct {
		OrderID string `json:"order_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_id requis"})
		return
	}

	userID := c.GetString("user_id")
	ctx := c.Request.Context()

	order, err := ordersStore.Get(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, payments.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
			return
		}
		log.Printf("❌ Erreur lecture commande %s: %v", req.OrderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	if order.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cette commande ne vous appartient pas"})
		return
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Commande déjà payée"})
		return
	}

	intent, err := gatewayClient.CreateIntent(ctx, order)
	if err != nil {
		var unavailable *gateway.UnavailableError
		if errors.As(err, &unavailable) {
			log.Printf("💳 Passerelle indisponible: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{
				"error":     "Passerelle de paiement indisponible, réessayez",
				"retryable": true,
			})
			return
		}
		log.Printf("❌ Erreur création intent: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	if err := ordersStore.RecordIntent(ctx, req.OrderID, intent.ID); err != nil {
		log.Printf("❌ Erreur enregistrement intent %s: %v", intent.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	checkoutURL := gatewayClient.CheckoutURL(intent.ID)
	qrCode, err := utils.GeneratePaymentQR(checkoutURL)
	if err != nil {
		log.Printf("⚠️ Erreur génération QR: %v", err)
		qrCode = ""
	}

	log.Printf("💳 Intent %s créé pour la commande %s", intent.ID, req.OrderID)
	c.JSON(http.StatusOK, gin.H{
		"intent_id":    intent.ID,
		"amount_minor": intent.AmountMinor,
		"currency":     intent.Currency,
		"checkout_url": checkoutURL,
		"qr_code":      qrCode,
	})
}

// VerifyPayment contrôle la signature HMAC renvoyée par la passerelle.
// Signature valide : commande payée (idempotent sur rejeu du même
// couple intent/paiement). Signature invalide : paiement marqué failed,
// le stock réservé est conservé pour permettre une nouvelle tentative.
func VerifyPayment(c *gin.Context) {
	var req struct {
		OrderID   string `json:"order_id" binding:"required"`
		IntentID  string `json:"intent_id" binding:"required"`
		PaymentID string `json:"payment_id" binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	userID := c.GetString("user_id")
	email := c.GetString("email")
	ctx := c.Request.Context()

	result, err := verifier.VerifyPayment(ctx, req.OrderID, userID, req.IntentID, req.PaymentID, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrOrderNotFound), errors.Is(err, payments.ErrForbidden):
			// Même réponse pour absente et non possédée
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		case errors.Is(err, payments.ErrAlreadyPaid):
			c.JSON(http.StatusConflict, gin.H{"error": "Commande déjà payée"})
		default:
			log.Printf("❌ Erreur vérification paiement: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		}
		return
	}

	if !result.Verified {
		log.Printf("❌ Signature invalide pour la commande %s (paiement %s)", req.OrderID, req.PaymentID)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Signature de paiement invalide",
			"order": result.Order,
		})
		return
	}

	// Mail de confirmation uniquement au premier passage en "paid"
	if !result.AlreadyPaid && email != "" {
		order := result.Order
		go func(to string, o models.Order) {
			html := utils.GenerateOrderConfirmationHTML(o)
			if err := utils.SendEmail(to, "Votre commande Velora est confirmée", html); err != nil {
				log.Printf("⚠️ Envoi confirmation commande %s impossible: %v", o.ID.String(), err)
			}
		}(email, order)
	}

	log.Printf("✅ Paiement vérifié pour la commande %s", req.OrderID)
	c.JSON(http.StatusOK, gin.H{
		"order":        result.Order,
		"already_paid": result.AlreadyPaid,
	})
}
