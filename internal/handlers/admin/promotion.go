package admin

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"velora_back_end/internal/cache"
	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/otp"
	"velora_back_end/internal/utils"
)

var otpService *otp.Service

// Init branche le service OTP sur Redis. À appeler après ConnectDatabases.
func Init() {
	otpService = otp.NewService(otp.NewRedisStore(database.Redis))
}

// RequestPromotion envoie un code de confirmation à l'admin connecté.
// La promotion d'un customer en admin exige ce second facteur.
func RequestPromotion(c *gin.Context) {
	adminID := c.GetString("user_id")
	adminEmail := c.GetString("email")

	if adminEmail == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "E-mail administrateur manquant"})
		return
	}

	ctx := c.Request.Context()
	code, err := otpService.Issue(ctx, adminID, otp.PurposeAdminPromotion, otp.AdminPromotionTTL)
	if err != nil {
		log.Printf("❌ Erreur génération code promotion: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	minutes := int(otp.AdminPromotionTTL.Minutes())
	html := utils.GenerateOTPEmailHTML(code, "confirmer une promotion administrateur", minutes)
	if err := utils.SendEmail(adminEmail, "Confirmation de promotion administrateur", html); err != nil {
		log.Printf("❌ Envoi du code promotion impossible à %s: %v", adminEmail, err)
		if rerr := otpService.Revoke(ctx, adminID, otp.PurposeAdminPromotion); rerr != nil {
			log.Printf("⚠️ Révocation du code impossible: %v", rerr)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Envoi de l'e-mail impossible, réessayez"})
		return
	}

	log.Printf("✅ Code de promotion envoyé à %s", adminEmail)
	c.JSON(http.StatusOK, gin.H{"message": "Un code de confirmation a été envoyé"})
}

// VerifyPromotion vérifie le code de l'admin connecté puis promeut
// l'utilisateur cible. La réponse ne distingue pas code inconnu, expiré
// ou erroné.
func VerifyPromotion(c *gin.Context) {
	adminID := c.GetString("user_id")

	var input struct {
		TargetUserID string `json:"target_user_id" binding:"required"`
		OTP          string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_user_id et otp requis"})
		return
	}

	targetUUID, err := uuid.Parse(input.TargetUserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id invalide"})
		return
	}

	// La cible doit exister avant de consommer le code
	target, err := cache.GetUserFromCache(input.TargetUserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}
	if target.Role == models.RoleAdmin {
		c.JSON(http.StatusConflict, gin.H{"error": "Utilisateur déjà administrateur"})
		return
	}

	ctx := c.Request.Context()
	if err := otpService.Verify(ctx, adminID, otp.PurposeAdminPromotion, input.OTP); err != nil {
		switch {
		case errors.Is(err, otp.ErrNotFound), errors.Is(err, otp.ErrExpired), errors.Is(err, otp.ErrMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Code invalide ou expiré"})
		default:
			log.Printf("❌ Erreur vérification code promotion: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		}
		return
	}

	if err := database.GetPreparedUpdateUserRole().Bind(
		models.RoleAdmin, time.Now(), gocql.UUID(targetUUID),
	).Exec(); err != nil {
		log.Printf("❌ Erreur promotion utilisateur %s: %v", input.TargetUserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	cache.InvalidateUserCache(input.TargetUserID)

	log.Printf("✅ Utilisateur %s promu admin par %s", input.TargetUserID, adminID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Utilisateur promu administrateur",
		"user_id": input.TargetUserID,
		"role":    models.RoleAdmin,
	})
}
