package user

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/payments"
	"velora_back_end/internal/store"
)

var ordersStore *store.ScyllaOrders

// InitOrders branche le magasin de commandes sur le keyspace orders.
func InitOrders() {
	session, err := database.GetOrdersSession()
	if err != nil {
		log.Printf("⚠️ Session orders indisponible: %v", err)
		return
	}
	ordersStore = &store.ScyllaOrders{Session: session}
}

func GetMyOrders(c *gin.Context) {
	userID := c.GetString("user_id")

	orders, err := ordersStore.ListByUser(c.Request.Context(), userID)
	if err != nil {
		log.Printf("❌ Erreur lecture commandes: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if orders == nil {
		orders = []models.OrderSummary{}
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrderByID retourne une commande. Même réponse 404 pour une commande
// inexistante et pour celle d'un autre utilisateur.
func GetOrderByID(c *gin.Context) {
	userID := c.GetString("user_id")
	orderID := c.Param("id")

	order, err := ordersStore.Get(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, payments.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
			return
		}
		log.Printf("❌ Erreur lecture commande %s: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	if order.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}
