package user

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"velora_back_end/internal/cache"
	"velora_back_end/internal/database"
	"velora_back_end/internal/otp"
	"velora_back_end/internal/utils"
)

var otpService *otp.Service

// Init branche le service OTP sur Redis. À appeler après ConnectDatabases.
func Init() {
	otpService = otp.NewService(otp.NewRedisStore(database.Redis))
}

// ForgotPassword génère un code de réinitialisation et l'envoie par mail.
// L'envoi est synchrone : si le mail ne part pas, le code est révoqué.
func ForgotPassword(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email requis"})
		return
	}

	var userID gocql.UUID
	if err := database.GetPreparedGetUserByEmail().Bind(input.Email).Scan(&userID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Aucun compte associé à cet email"})
		return
	}

	ctx := c.Request.Context()
	code, err := otpService.Issue(ctx, userID.String(), otp.PurposePasswordReset, otp.PasswordResetTTL)
	if err != nil {
		log.Printf("❌ Erreur génération code: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	minutes := int(otp.PasswordResetTTL.Minutes())
	html := utils.GenerateOTPEmailHTML(code, "réinitialiser votre mot de passe", minutes)
	if err := utils.SendEmail(input.Email, "Réinitialisation de votre mot de passe", html); err != nil {
		log.Printf("❌ Envoi du code impossible à %s: %v", input.Email, err)
		if rerr := otpService.Revoke(ctx, userID.String(), otp.PurposePasswordReset); rerr != nil {
			log.Printf("⚠️ Révocation du code impossible: %v", rerr)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Envoi de l'e-mail impossible, réessayez"})
		return
	}

	log.Printf("✅ Code de réinitialisation envoyé à %s", input.Email)
	c.JSON(http.StatusOK, gin.H{"message": "Un code de réinitialisation a été envoyé"})
}

// ResetPassword vérifie le code puis remplace le mot de passe. Le code
// est à usage unique : consommé en cas de succès, conservé en cas de
// mauvaise saisie (jusqu'à expiration).
func ResetPassword(c *gin.Context) {
	var input struct {
		Email       string `json:"email" binding:"required,email"`
		OTP         string `json:"otp" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var userID gocql.UUID
	if err := database.GetPreparedGetUserByEmail().Bind(input.Email).Scan(&userID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Aucun compte associé à cet email"})
		return
	}

	ctx := c.Request.Context()
	if err := otpService.Verify(ctx, userID.String(), otp.PurposePasswordReset, input.OTP); err != nil {
		switch {
		case errors.Is(err, otp.ErrNotFound), errors.Is(err, otp.ErrExpired), errors.Is(err, otp.ErrMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Code invalide ou expiré"})
		default:
			log.Printf("❌ Erreur vérification code: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		}
		return
	}

	hashedPassword, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		log.Printf("❌ Erreur hash mot de passe: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if err := session.Query(
		"UPDATE users SET password = ?, updated_at = ? WHERE user_id = ?",
		hashedPassword, time.Now(), userID,
	).Exec(); err != nil {
		log.Printf("❌ Erreur mise à jour mot de passe: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	cache.InvalidateUserCache(userID.String())

	log.Printf("✅ Mot de passe réinitialisé pour %s", input.Email)
	c.JSON(http.StatusOK, gin.H{"message": "Mot de passe réinitialisé"})
}
