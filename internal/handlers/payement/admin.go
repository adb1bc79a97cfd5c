package pa

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/cache"
	"velora_back_end/internal/models"
	"velora_back_end/internal/payments"
	"velora_back_end/internal/utils"
)

// UpdateOrderStatus change le statut logistique d'une commande (staff).
func UpdateOrderStatus(c *gin.Context) {
	orderID := c.Param("id")

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status requis"})
		return
	}

	if !models.IsValidOrderStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Statut inconnu: " + req.Status})
		return
	}

	ctx := c.Request.Context()

	order, err := ordersStore.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, payments.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
			return
		}
		log.Printf("❌ Erreur lecture commande %s: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	if err := ordersStore.UpdateStatus(ctx, orderID, req.Status); err != nil {
		log.Printf("❌ Erreur mise à jour statut commande %s: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	order.OrderStatus = req.Status

	// Notifier le client du changement de statut
	go func(o models.Order) {
		u, err := cache.GetUserFromCache(o.UserID)
		if err != nil || u.Email == "" {
			return
		}
		html := utils.GenerateOrderStatusHTML(o)
		if err := utils.SendEmail(u.Email, "Mise à jour de votre commande Velora", html); err != nil {
			log.Printf("⚠️ Envoi mail statut commande %s impossible: %v", o.ID.String(), err)
		}
	}(order)

	log.Printf("✅ Commande %s passée au statut %s", orderID, req.Status)
	c.JSON(http.StatusOK, gin.H{"order_id": orderID, "order_status": req.Status})
}
