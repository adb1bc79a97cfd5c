package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"math/big"
	"time"
)

// Purpose identifie l'action protégée par le code. Un même utilisateur
// peut avoir au plus un code en attente par purpose.
type Purpose string

const (
	PurposePasswordReset  Purpose = "password-reset"
	PurposeAdminPromotion Purpose = "admin-promotion"
)

// TTL par purpose. Constantes séparées pour pouvoir les faire diverger
// volontairement, mais alignées sur 10 minutes.
const (
	CodeLength        = 6
	PasswordResetTTL  = 10 * time.Minute
	AdminPromotionTTL = 10 * time.Minute
)

var (
	ErrNotFound = errors.New("aucun code en attente")
	ErrExpired  = errors.New("code expiré")
	ErrMismatch = errors.New("code incorrect")
)

// Record est un code en attente avec son échéance logique.
type Record struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store persiste les codes par (ownerID, purpose). ttl est indicatif :
// le store peut purger après ttl, mais l'échéance qui fait foi est
// Record.ExpiresAt, vérifiée par le Service.
type Store interface {
	Put(ctx context.Context, ownerID string, purpose Purpose, rec Record, ttl time.Duration) error
	Get(ctx context.Context, ownerID string, purpose Purpose) (Record, bool, error)
	Delete(ctx context.Context, ownerID string, purpose Purpose) error
}

// Service émet et vérifie des codes à usage unique. Il remplace les
// paires de champs OTP/expiry dupliquées sur le compte utilisateur.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Issue génère un code numérique à 6 chiffres et l'enregistre pour
// (ownerID, purpose), en écrasant tout code encore en attente. L'envoi
// du code (email) est à la charge de l'appelant ; si l'envoi échoue,
// l'appelant DOIT appeler Revoke.
func (s *Service) Issue(ctx context.Context, ownerID string, purpose Purpose, ttl time.Duration) (string, error) {
	code, err := generateCode(CodeLength)
	if err != nil {
		return "", err
	}

	rec := Record{Code: code, ExpiresAt: s.now().Add(ttl)}
	if err := s.store.Put(ctx, ownerID, purpose, rec, ttl); err != nil {
		return "", err
	}
	return code, nil
}

// Revoke efface un code en attente (échec d'envoi, abandon de l'action).
func (s *Service) Revoke(ctx context.Context, ownerID string, purpose Purpose) error {
	return s.store.Delete(ctx, ownerID, purpose)
}

// Verify contrôle le code fourni : ErrNotFound sans code en attente,
// ErrExpired si now >= expiresAt, ErrMismatch si les codes diffèrent.
// En cas de succès le code est effacé (usage unique).
func (s *Service) Verify(ctx context.Context, ownerID string, purpose Purpose, supplied string) error {
	rec, ok, err := s.store.Get(ctx, ownerID, purpose)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}

	if !s.now().Before(rec.ExpiresAt) {
		// Code périmé : on le purge tout de suite
		_ = s.store.Delete(ctx, ownerID, purpose)
		return ErrExpired
	}

	// Comparaison en temps constant
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(supplied)) != 1 {
		return ErrMismatch
	}

	return s.store.Delete(ctx, ownerID, purpose)
}

// generateCode tire n chiffres via crypto/rand.
func generateCode(n int) (string, error) {
	const digits = "0123456789"
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		buf[i] = digits[idx.Int64()]
	}
	return string(buf), nil
}
