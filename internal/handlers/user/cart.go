package user

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/store"
)

var (
	carts   *store.RedisCarts
	catalog *store.ScyllaCatalog
)

// InitCart branche le panier Redis et le catalogue Scylla.
func InitCart() {
	carts = &store.RedisCarts{Client: database.Redis}

	session, err := database.GetProductsSession()
	if err != nil {
		log.Printf("⚠️ Session products indisponible pour le panier: %v", err)
		return
	}
	catalog = &store.ScyllaCatalog{Session: session}
}

func GetCart(c *gin.Context) {
	userID := c.GetString("user_id")

	items, err := carts.Get(c.Request.Context(), userID)
	if err != nil {
		log.Printf("❌ Erreur lecture panier: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if items == nil {
		items = []models.CartItem{}
	}

	total := 0.0
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

// AddToCart ajoute une ligne au panier. Le prix stocké est le prix
// catalogue du moment, purement indicatif : le checkout re-price.
func AddToCart(c *gin.Context) {
	userID := c.GetString("user_id")

	var input struct {
		ProductID string `json:"product_id" binding:"required"`
		Size      string `json:"size"`
		Color     string `json:"color"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Quantity <= 0 {
		input.Quantity = 1
	}

	ctx := c.Request.Context()

	product, err := catalog.GetProduct(ctx, input.ProductID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}
	if !product.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Produit indisponible"})
		return
	}
	if product.Stock < input.Quantity {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Stock insuffisant",
			"available": product.Stock,
		})
		return
	}

	items, err := carts.Get(ctx, userID)
	if err != nil {
		log.Printf("❌ Erreur lecture panier: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	newItem := models.CartItem{
		ProductID: input.ProductID,
		Name:      product.Name,
		Size:      input.Size,
		Color:     input.Color,
		Quantity:  input.Quantity,
		Price:     product.Price,
	}
	if len(product.ImageURLs) > 0 {
		newItem.ImageURL = product.ImageURLs[0]
	}

	// Fusionner avec une ligne existante (même produit, taille, couleur)
	merged := false
	for i, item := range items {
		if item.Key() == newItem.Key() {
			items[i].Quantity += input.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, newItem)
	}

	if err := carts.Set(ctx, userID, items); err != nil {
		log.Printf("❌ Erreur sauvegarde panier: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Produit ajouté au panier", "items": items})
}

// UpdateCartItem change la quantité d'une ligne. Quantité 0 = suppression.
func UpdateCartItem(c *gin.Context) {
	userID := c.GetString("user_id")

	var input struct {
		ProductID string `json:"product_id" binding:"required"`
		Size      string `json:"size"`
		Color     string `json:"color"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}

	ctx := c.Request.Context()

	items, err := carts.Get(ctx, userID)
	if err != nil {
		log.Printf("❌ Erreur lecture panier: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	target := models.CartItem{ProductID: input.ProductID, Size: input.Size, Color: input.Color}
	found := false
	updated := items[:0]
	for _, item := range items {
		if item.Key() == target.Key() {
			found = true
			if input.Quantity == 0 {
				continue
			}
			item.Quantity = input.Quantity
		}
		updated = append(updated, item)
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ligne de panier introuvable"})
		return
	}

	if err := carts.Set(ctx, userID, updated); err != nil {
		log.Printf("❌ Erreur sauvegarde panier: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Panier mis à jour", "items": updated})
}

func RemoveFromCart(c *gin.Context) {
	userID := c.GetString("user_id")

	var input struct {
		ProductID string `json:"product_id" binding:"required"`
		Size      string `json:"size"`
		Color     string `json:"color"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	items, err := carts.Get(ctx, userID)
	if err != nil {
		log.Printf("❌ Erreur lecture panier: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	target := models.CartItem{ProductID: input.ProductID, Size: input.Size, Color: input.Color}
	updated := items[:0]
	for _, item := range items {
		if item.Key() != target.Key() {
			updated = append(updated, item)
		}
	}

	if err := carts.Set(ctx, userID, updated); err != nil {
		log.Printf("❌ Erreur sauvegarde panier: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Produit retiré du panier", "items": updated})
}

func ClearCart(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := carts.Clear(c.Request.Context(), userID); err != nil {
		log.Printf("❌ Erreur vidage panier: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Panier vidé"})
}
