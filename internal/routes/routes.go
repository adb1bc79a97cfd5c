package routes

import (
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	adminh "velora_back_end/internal/handlers/admin"
	pa "velora_back_end/internal/handlers/payement"
	"velora_back_end/internal/handlers/user"
	"velora_back_end/internal/middleware"
)

func RegisterRoutes(r *gin.Engine) {
	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	api.Use(middleware.APIRateLimit())

	// Auth
	api.POST("/auth/register", middleware.RegisterRateLimit(), user.CreateUser)
	api.POST("/auth/login", middleware.LoginRateLimit(), user.LoginUser)
	api.POST("/auth/forgot-password", middleware.ForgotPasswordRateLimit(), user.ForgotPassword)
	api.POST("/auth/reset-password", user.ResetPassword)

	// Routes authentifiées
	auth := api.Group("")
	auth.Use(middleware.AuthRequired())
	{
		// Panier
		auth.GET("/cart", user.GetCart)
		auth.POST("/cart", middleware.CartRateLimit(), user.AddToCart)
		auth.PUT("/cart", user.UpdateCartItem)
		auth.DELETE("/cart/item", user.RemoveFromCart)
		auth.DELETE("/cart", user.ClearCart)

		// Checkout et paiement
		auth.POST("/checkout", pa.Checkout)
		auth.POST("/payment/create-intent", pa.CreatePaymentIntent)
		auth.POST("/payment/verify", pa.VerifyPayment)

		// Commandes
		auth.GET("/orders", user.GetMyOrders)
		auth.GET("/orders/:id", user.GetOrderByID)
	}

	// Routes admin
	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.RequireAdmin)
	{
		admin.PUT("/orders/:id/status", pa.UpdateOrderStatus)
		admin.POST("/request-promotion", middleware.PromotionRateLimit(), adminh.RequestPromotion)
		admin.POST("/verify-promotion", adminh.VerifyPromotion)
	}
}
