package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velora_back_end/internal/gateway"
	"velora_back_end/internal/models"
)

const testSecret = "secret_test"

type fakeOrderStore struct {
	orders      map[string]models.Order
	markPaidOps int
}

func (f *fakeOrderStore) Get(_ context.Context, orderID string) (models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return models.Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrderStore) RecordIntent(_ context.Context, orderID, intentID string) error {
	o := f.orders[orderID]
	o.GatewayIntentID = intentID
	f.orders[orderID] = o
	return nil
}

func (f *fakeOrderStore) MarkPaid(_ context.Context, orderID, paymentID, signature, priorStatus string) (bool, models.Order, error) {
	f.markPaidOps++
	o := f.orders[orderID]
	if o.PaymentStatus != priorStatus || !models.CanTransitionPayment(o.PaymentStatus, models.PaymentStatusPaid) {
		return false, o, nil
	}
	o.PaymentStatus = models.PaymentStatusPaid
	o.OrderStatus = models.OrderStatusProcessing
	o.GatewayPaymentID = paymentID
	o.GatewaySignature = signature
	f.orders[orderID] = o
	return true, o, nil
}

func (f *fakeOrderStore) MarkFailed(_ context.Context, orderID string) error {
	o := f.orders[orderID]
	if models.CanTransitionPayment(o.PaymentStatus, models.PaymentStatusFailed) {
		o.PaymentStatus = models.PaymentStatusFailed
		f.orders[orderID] = o
	}
	return nil
}

func sign(intentID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(intentID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func newVerifierFixture() (*Verifier, *fakeOrderStore, string) {
	store := &fakeOrderStore{orders: map[string]models.Order{}}
	orderID := gocql.TimeUUID().String()

	id, _ := gocql.ParseUUID(orderID)
	store.orders[orderID] = models.Order{
		ID:              id,
		UserID:          "u1",
		TotalAmount:     236,
		Currency:        "INR",
		PaymentStatus:   models.PaymentStatusPending,
		OrderStatus:     models.OrderStatusPending,
		GatewayIntentID: "intent_1",
		CreatedAt:       time.Now(),
	}

	client := gateway.NewClient("https://gw.example", "key", testSecret)
	return NewVerifier(store, client), store, orderID
}

func TestVerifyPaymentSuccess(t *testing.T) {
	v, store, orderID := newVerifierFixture()

	res, err := v.VerifyPayment(context.Background(), orderID, "u1", "intent_1", "pay_1", sign("intent_1", "pay_1"))
	require.NoError(t, err)

	assert.True(t, res.Verified)
	assert.False(t, res.AlreadyPaid)
	assert.Equal(t, models.PaymentStatusPaid, res.Order.PaymentStatus)
	assert.Equal(t, models.OrderStatusProcessing, res.Order.OrderStatus)
	assert.Equal(t, "pay_1", res.Order.GatewayPaymentID)

	// paid implique intent enregistré + signature validée, persistés
	stored := store.orders[orderID]
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, "intent_1", stored.GatewayIntentID)
	assert.NotEmpty(t, stored.GatewaySignature)
}

func TestVerifyPaymentTamperedPaymentID(t *testing.T) {
	v, store, orderID := newVerifierFixture()

	// Signature calculée pour pay_1, soumise avec pay_2
	res, err := v.VerifyPayment(context.Background(), orderID, "u1", "intent_1", "pay_2", sign("intent_1", "pay_1"))
	require.NoError(t, err) // issue métier, pas une faute

	assert.False(t, res.Verified)
	assert.Equal(t, models.PaymentStatusFailed, res.Order.PaymentStatus)
	// Le statut de commande ne bouge pas sur un échec de signature
	assert.Equal(t, models.OrderStatusPending, store.orders[orderID].OrderStatus)
	assert.Equal(t, models.PaymentStatusFailed, store.orders[orderID].PaymentStatus)
}

func TestVerifyPaymentWrongIntent(t *testing.T) {
	v, store, orderID := newVerifierFixture()

	// Signature valide mais pour un intent qui n'est pas celui de la commande
	res, err := v.VerifyPayment(context.Background(), orderID, "u1", "intent_9", "pay_1", sign("intent_9", "pay_1"))
	require.NoError(t, err)

	assert.False(t, res.Verified)
	assert.Equal(t, models.PaymentStatusFailed, store.orders[orderID].PaymentStatus)
}

func TestVerifyPaymentIdempotent(t *testing.T) {
	v, store, orderID := newVerifierFixture()
	sig := sign("intent_1", "pay_1")

	first, err := v.VerifyPayment(context.Background(), orderID, "u1", "intent_1", "pay_1", sig)
	require.NoError(t, err)
	require.True(t, first.Verified)
	opsAfterFirst := store.markPaidOps

	// Même couple (intent, paiement) : no-op, même état terminal
	second, err := v.VerifyPayment(context.Background(), orderID, "u1", "intent_1", "pay_1", sig)
	require.NoError(t, err)

	assert.True(t, second.Verified)
	assert.True(t, second.AlreadyPaid)
	assert.Equal(t, models.PaymentStatusPaid, second.Order.PaymentStatus)
	// Aucune nouvelle écriture
	assert.Equal(t, opsAfterFirst, store.markPaidOps)
}

func TestVerifyPaymentDifferentPairOnPaidOrder(t *testing.T) {
	v, _, orderID := newVerifierFixture()

	_, err := v.VerifyPayment(context.Background(), orderID, "u1", "intent_1", "pay_1", sign("intent_1", "pay_1"))
	require.NoError(t, err)

	_, err = v.VerifyPayment(context.Background(), orderID, "u1", "intent_1", "pay_9", sign("intent_1", "pay_9"))
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestVerifyPaymentRetryAfterFailure(t *testing.T) {
	v, store, orderID := newVerifierFixture()

	// Premier essai : signature invalide → failed
	res, err := v.VerifyPayment(context.Background(), orderID, "u1", "intent_1", "pay_1", "mauvaise")
	require.NoError(t, err)
	require.False(t, res.Verified)

	// failed est rejouable : un second essai valide aboutit
	res, err = v.VerifyPayment(context.Background(), orderID, "u1", "intent_1", "pay_2", sign("intent_1", "pay_2"))
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.Equal(t, models.PaymentStatusPaid, store.orders[orderID].PaymentStatus)
}

func TestVerifyPaymentNotFound(t *testing.T) {
	v, _, _ := newVerifierFixture()
	_, err := v.VerifyPayment(context.Background(), gocql.TimeUUID().String(), "u1", "i", "p", "s")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestVerifyPaymentForbidden(t *testing.T) {
	v, store, orderID := newVerifierFixture()

	_, err := v.VerifyPayment(context.Background(), orderID, "u2", "intent_1", "pay_1", sign("intent_1", "pay_1"))
	assert.ErrorIs(t, err, ErrForbidden)
	// Aucun effet de bord pour un non-propriétaire
	assert.Equal(t, models.PaymentStatusPending, store.orders[orderID].PaymentStatus)
}

// paid n'est atteignable que par une vérification de signature : aucune
// opération publique ne pose paid directement, et la machine à états
// refuse toute transition sortant de paid.
func TestPaidIsTerminal(t *testing.T) {
	assert.False(t, models.CanTransitionPayment(models.PaymentStatusPaid, models.PaymentStatusPending))
	assert.False(t, models.CanTransitionPayment(models.PaymentStatusPaid, models.PaymentStatusFailed))
	assert.False(t, models.CanTransitionPayment(models.PaymentStatusPaid, models.PaymentStatusPaid))
	assert.True(t, models.CanTransitionPayment(models.PaymentStatusPending, models.PaymentStatusPaid))
	assert.True(t, models.CanTransitionPayment(models.PaymentStatusFailed, models.PaymentStatusPaid))
}
