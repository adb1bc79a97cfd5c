package otp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	recs map[string]Record
}

func newMemStore() *memStore {
	return &memStore{recs: make(map[string]Record)}
}

func (m *memStore) Put(_ context.Context, ownerID string, purpose Purpose, rec Record, _ time.Duration) error {
	m.recs[key(ownerID, purpose)] = rec
	return nil
}

func (m *memStore) Get(_ context.Context, ownerID string, purpose Purpose) (Record, bool, error) {
	rec, ok := m.recs[key(ownerID, purpose)]
	return rec, ok, nil
}

func (m *memStore) Delete(_ context.Context, ownerID string, purpose Purpose) error {
	delete(m.recs, key(ownerID, purpose))
	return nil
}

func newTestService(store Store, at time.Time) (*Service, *time.Time) {
	clock := at
	s := NewService(store)
	s.now = func() time.Time { return clock }
	return s, &clock
}

func TestIssueVerify(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, _ := newTestService(store, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	code, err := svc.Issue(ctx, "u1", PurposePasswordReset, PasswordResetTTL)
	require.NoError(t, err)
	require.Len(t, code, CodeLength)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9')
	}

	require.NoError(t, svc.Verify(ctx, "u1", PurposePasswordReset, code))
}

func TestVerifySingleUse(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(newMemStore(), time.Now())

	code, err := svc.Issue(ctx, "u1", PurposePasswordReset, PasswordResetTTL)
	require.NoError(t, err)

	require.NoError(t, svc.Verify(ctx, "u1", PurposePasswordReset, code))

	// Le même code resoumis immédiatement ne doit plus exister
	err = svc.Verify(ctx, "u1", PurposePasswordReset, code)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("juste avant l'échéance", func(t *testing.T) {
		svc, clock := newTestService(newMemStore(), start)
		code, err := svc.Issue(ctx, "u1", PurposePasswordReset, PasswordResetTTL)
		require.NoError(t, err)

		*clock = start.Add(PasswordResetTTL - time.Millisecond)
		assert.NoError(t, svc.Verify(ctx, "u1", PurposePasswordReset, code))
	})

	t.Run("juste après l'échéance", func(t *testing.T) {
		svc, clock := newTestService(newMemStore(), start)
		code, err := svc.Issue(ctx, "u1", PurposePasswordReset, PasswordResetTTL)
		require.NoError(t, err)

		*clock = start.Add(PasswordResetTTL + time.Millisecond)
		assert.ErrorIs(t, svc.Verify(ctx, "u1", PurposePasswordReset, code), ErrExpired)

		// Le code périmé est purgé : la tentative suivante ne le voit plus
		assert.ErrorIs(t, svc.Verify(ctx, "u1", PurposePasswordReset, code), ErrNotFound)
	})

	t.Run("exactement à l'échéance", func(t *testing.T) {
		svc, clock := newTestService(newMemStore(), start)
		code, err := svc.Issue(ctx, "u1", PurposePasswordReset, PasswordResetTTL)
		require.NoError(t, err)

		*clock = start.Add(PasswordResetTTL)
		assert.ErrorIs(t, svc.Verify(ctx, "u1", PurposePasswordReset, code), ErrExpired)
	})
}

func TestVerifyMismatch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(newMemStore(), time.Now())

	code, err := svc.Issue(ctx, "u1", PurposeAdminPromotion, AdminPromotionTTL)
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	assert.ErrorIs(t, svc.Verify(ctx, "u1", PurposeAdminPromotion, wrong), ErrMismatch)

	// Un mauvais essai ne consomme pas le code
	assert.NoError(t, svc.Verify(ctx, "u1", PurposeAdminPromotion, code))
}

func TestIssueOverwritesPendingCode(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(newMemStore(), time.Now())

	first, err := svc.Issue(ctx, "u1", PurposePasswordReset, PasswordResetTTL)
	require.NoError(t, err)
	second, err := svc.Issue(ctx, "u1", PurposePasswordReset, PasswordResetTTL)
	require.NoError(t, err)

	if first != second {
		assert.ErrorIs(t, svc.Verify(ctx, "u1", PurposePasswordReset, first), ErrMismatch)
	}
	assert.NoError(t, svc.Verify(ctx, "u1", PurposePasswordReset, second))
}

func TestPurposesAreIndependent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(newMemStore(), time.Now())

	_, err := svc.Issue(ctx, "u1", PurposePasswordReset, PasswordResetTTL)
	require.NoError(t, err)

	// Aucun code n'a été émis pour la promotion
	assert.ErrorIs(t, svc.Verify(ctx, "u1", PurposeAdminPromotion, "123456"), ErrNotFound)
}

func TestCodeBoundToOwner(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(newMemStore(), time.Now())

	// Le code de promotion est émis pour admin-a : un autre admin ne
	// peut pas s'en servir, même en le connaissant
	code, err := svc.Issue(ctx, "admin-a", PurposeAdminPromotion, AdminPromotionTTL)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Verify(ctx, "admin-b", PurposeAdminPromotion, code), ErrNotFound)

	// La tentative d'admin-b ne consomme pas le code d'admin-a
	require.NoError(t, svc.Verify(ctx, "admin-a", PurposeAdminPromotion, code))
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(newMemStore(), time.Now())

	code, err := svc.Issue(ctx, "u1", PurposePasswordReset, PasswordResetTTL)
	require.NoError(t, err)

	// Échec d'envoi simulé : le code révoqué n'est plus utilisable
	require.NoError(t, svc.Revoke(ctx, "u1", PurposePasswordReset))
	assert.ErrorIs(t, svc.Verify(ctx, "u1", PurposePasswordReset, code), ErrNotFound)
}

// Scénario complet : reset de mot de passe vérifié à T+9min59s, puis
// resoumission du même code.
func TestPasswordResetScenario(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, clock := newTestService(newMemStore(), start)

	code, err := svc.Issue(ctx, "u1", PurposePasswordReset, PasswordResetTTL)
	require.NoError(t, err)

	*clock = start.Add(9*time.Minute + 59*time.Second)
	require.NoError(t, svc.Verify(ctx, "u1", PurposePasswordReset, code))

	assert.ErrorIs(t, svc.Verify(ctx, "u1", PurposePasswordReset, code), ErrNotFound)
}
