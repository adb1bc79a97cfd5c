package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	adminh "velora_back_end/internal/handlers/admin"
	pa "velora_back_end/internal/handlers/payement"
	"velora_back_end/internal/handlers/user"

	"velora_back_end/internal/config"
	"velora_back_end/internal/database"
	"velora_back_end/internal/routes"
)

func main() {
	config.Load()

	database.ConnectDatabases()

	// ✅ Initialiser les prepared statements pour améliorer les performances
	database.InitPreparedStatements()

	// Câblage des handlers sur les bases connectées
	user.Init()
	user.InitCart()
	user.InitOrders()
	pa.Init()
	adminh.Init()

	r := gin.Default()
	routes.RegisterRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur Velora lancé sur le port", port)
	r.Run(":" + port)
}
