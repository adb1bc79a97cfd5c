package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"velora_back_end/internal/models"
)

// Intent est un paiement autorisé côté passerelle, en attente de
// règlement par le client.
type Intent struct {
	ID          string `json:"intent_id"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

// UnavailableError : la passerelle n'a pas pu créer l'intent. Erreur
// transitoire pour l'appelant, la commande reste en pending.
type UnavailableError struct {
	Status int
	Reason string
}

func (e *UnavailableError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("passerelle de paiement indisponible (HTTP %d): %s", e.Status, e.Reason)
	}
	return "passerelle de paiement injoignable: " + e.Reason
}

// Client est la frontière HTTP/JSON avec le processeur de paiement.
// Le montant envoyé vient toujours de la commande côté serveur, jamais
// d'un panier fourni par le client.
type Client struct {
	BaseURL string
	KeyID   string
	secret  string
	http    *http.Client
}

func NewClient(baseURL, keyID, secret string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		KeyID:   keyID,
		secret:  secret,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientFromEnv construit le client depuis .env
func NewClientFromEnv() *Client {
	return NewClient(
		os.Getenv("PAYMENT_GATEWAY_URL"),
		os.Getenv("PAYMENT_GATEWAY_KEY_ID"),
		os.Getenv("PAYMENT_GATEWAY_SECRET"),
	)
}

// CreateIntent crée un intent distant pour une commande. Le montant est
// converti en unités mineures (centimes/paise) depuis le total serveur.
func (c *Client) CreateIntent(ctx context.Context, order models.Order) (*Intent, error) {
	payload := map[string]interface{}{
		"amount_minor": AmountMinorUnits(order.TotalAmount),
		"currency":     order.Currency,
		"receipt_ref":  order.ID.String(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/create-intent", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.KeyID, c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &UnavailableError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &UnavailableError{Status: resp.StatusCode, Reason: string(raw)}
	}

	var intent Intent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, &UnavailableError{Reason: "réponse passerelle illisible: " + err.Error()}
	}
	if intent.ID == "" {
		return nil, &UnavailableError{Reason: "réponse passerelle sans intent_id"}
	}

	return &intent, nil
}

// VerifySignature recalcule HMAC-SHA256(secret, intentID|paymentID) en
// hexa et compare en temps constant. C'est le seul signal accepté pour
// considérer un paiement comme effectué.
func (c *Client) VerifySignature(intentID, paymentID, supplied string) bool {
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(intentID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(supplied))
}

// CheckoutURL est le lien de règlement côté passerelle pour un intent,
// encodé aussi en QR dans la réponse create-intent.
func (c *Client) CheckoutURL(intentID string) string {
	return c.BaseURL + "/pay/" + intentID
}

// AmountMinorUnits convertit un total en unités mineures de la devise.
func AmountMinorUnits(total float64) int64 {
	return int64(math.Round(total * 100))
}
