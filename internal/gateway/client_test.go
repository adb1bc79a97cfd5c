package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velora_back_end/internal/models"
)

func sign(secret, intentID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(intentID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateIntent(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/create-intent", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "key_test", user)
		require.Equal(t, "secret_test", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(Intent{
			ID:          "intent_42",
			AmountMinor: int64(got["amount_minor"].(float64)),
			Currency:    got["currency"].(string),
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key_test", "secret_test")
	order := models.Order{
		ID:          gocql.TimeUUID(),
		TotalAmount: 236,
		Currency:    "INR",
	}

	intent, err := client.CreateIntent(context.Background(), order)
	require.NoError(t, err)

	assert.Equal(t, "intent_42", intent.ID)
	// Le montant envoyé est dérivé du total serveur, en unités mineures
	assert.Equal(t, float64(23600), got["amount_minor"])
	assert.Equal(t, order.ID.String(), got["receipt_ref"])
	assert.Equal(t, int64(23600), intent.AmountMinor)
}

func TestCreateIntentGatewayDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", "s")
	_, err := client.CreateIntent(context.Background(), models.Order{ID: gocql.TimeUUID(), TotalAmount: 100, Currency: "INR"})

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, http.StatusServiceUnavailable, unavailable.Status)
}

func TestVerifySignature(t *testing.T) {
	client := NewClient("https://gw.example", "k", "secret_test")

	valid := sign("secret_test", "intent_1", "pay_1")
	assert.True(t, client.VerifySignature("intent_1", "pay_1", valid))

	// payment_id falsifié
	assert.False(t, client.VerifySignature("intent_1", "pay_2", valid))
	// intent différent
	assert.False(t, client.VerifySignature("intent_2", "pay_1", valid))
	// mauvais secret
	assert.False(t, client.VerifySignature("intent_1", "pay_1", sign("autre", "intent_1", "pay_1")))
	// signature vide
	assert.False(t, client.VerifySignature("intent_1", "pay_1", ""))
}

func TestAmountMinorUnits(t *testing.T) {
	assert.Equal(t, int64(23600), AmountMinorUnits(236))
	assert.Equal(t, int64(10050), AmountMinorUnits(100.5))
	assert.Equal(t, int64(0), AmountMinorUnits(0))
}
