package store

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gocql/gocql"

	"velora_back_end/internal/models"
	"velora_back_end/internal/payments"
)

// ScyllaOrders persiste les commandes : table orders (détail, lignes et
// adresse en JSON, figées à la création) + projection orders_by_user
// pour le listing. Les transitions de statut de paiement passent par des
// lightweight transactions.
type ScyllaOrders struct {
	Session *gocql.Session
}

func (s *ScyllaOrders) Insert(ctx context.Context, order models.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	addrJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return err
	}

	if err := s.Session.Query(`INSERT INTO orders (order_id, user_id, items, shipping_address, subtotal, total_amount, currency,
			payment_status, order_status, gateway_intent_id, gateway_payment_id, gateway_signature, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.UserID, string(itemsJSON), string(addrJSON), order.Subtotal, order.TotalAmount, order.Currency,
		order.PaymentStatus, order.OrderStatus, "", "", "", order.CreatedAt, order.UpdatedAt).
		WithContext(ctx).Exec(); err != nil {
		return err
	}

	// Projection pour GET /api/orders
	if err := s.Session.Query(`INSERT INTO orders_by_user (user_id, order_id, total_amount, payment_status, order_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		order.UserID, order.ID, order.TotalAmount, order.PaymentStatus, order.OrderStatus, order.CreatedAt).
		WithContext(ctx).Exec(); err != nil {
		log.Printf("⚠️ Projection orders_by_user non écrite pour %s: %v", order.ID, err)
	}

	return nil
}

func (s *ScyllaOrders) Get(ctx context.Context, orderID string) (models.Order, error) {
	uid, err := gocql.ParseUUID(orderID)
	if err != nil {
		return models.Order{}, payments.ErrOrderNotFound
	}

	var (
		order               models.Order
		itemsJSON, addrJSON string
	)
	order.ID = uid

	err = s.Session.Query(`SELECT user_id, items, shipping_address, subtotal, total_amount, currency,
			payment_status, order_status, gateway_intent_id, gateway_payment_id, gateway_signature, created_at, updated_at
		FROM orders WHERE order_id = ?`, uid).
		WithContext(ctx).
		Scan(&order.UserID, &itemsJSON, &addrJSON, &order.Subtotal, &order.TotalAmount, &order.Currency,
			&order.PaymentStatus, &order.OrderStatus, &order.GatewayIntentID, &order.GatewayPaymentID,
			&order.GatewaySignature, &order.CreatedAt, &order.UpdatedAt)
	if err == gocql.ErrNotFound {
		return models.Order{}, payments.ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, err
	}

	if err := json.Unmarshal([]byte(itemsJSON), &order.Items); err != nil {
		return models.Order{}, err
	}
	if err := json.Unmarshal([]byte(addrJSON), &order.ShippingAddress); err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// ListByUser retourne les résumés de commandes, plus récentes d'abord.
func (s *ScyllaOrders) ListByUser(ctx context.Context, userID string) ([]models.OrderSummary, error) {
	iter := s.Session.Query(`SELECT order_id, total_amount, payment_status, order_status, created_at
		FROM orders_by_user WHERE user_id = ?`, userID).
		WithContext(ctx).Iter()

	var (
		summaries []models.OrderSummary
		sum       models.OrderSummary
	)
	for iter.Scan(&sum.OrderID, &sum.TotalAmount, &sum.PaymentStatus, &sum.OrderStatus, &sum.CreatedAt) {
		summaries = append(summaries, sum)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// RecordIntent pose (ou remplace, en cas de retry) l'intent passerelle
// d'une commande encore impayée.
func (s *ScyllaOrders) RecordIntent(ctx context.Context, orderID, intentID string) error {
	uid, err := gocql.ParseUUID(orderID)
	if err != nil {
		return payments.ErrOrderNotFound
	}
	return s.Session.Query(`UPDATE orders SET gateway_intent_id = ?, updated_at = ? WHERE order_id = ?`,
		intentID, time.Now(), uid).
		WithContext(ctx).Exec()
}

// MarkPaid fait la transition vers paid sous condition du statut lu par
// l'appelant. applied=false si le statut a bougé entre-temps ; current
// reflète alors l'état réellement en base.
func (s *ScyllaOrders) MarkPaid(ctx context.Context, orderID, paymentID, signature, priorStatus string) (bool, models.Order, error) {
	uid, err := gocql.ParseUUID(orderID)
	if err != nil {
		return false, models.Order{}, payments.ErrOrderNotFound
	}

	now := time.Now()
	prev := map[string]interface{}{}
	applied, err := s.Session.Query(`UPDATE orders
		SET payment_status = ?, order_status = ?, gateway_payment_id = ?, gateway_signature = ?, updated_at = ?
		WHERE order_id = ? IF payment_status = ?`,
		models.PaymentStatusPaid, models.OrderStatusProcessing, paymentID, signature, now,
		uid, priorStatus).
		WithContext(ctx).
		MapScanCAS(prev)
	if err != nil {
		return false, models.Order{}, err
	}

	current, err := s.Get(ctx, orderID)
	if err != nil {
		return applied, models.Order{}, err
	}
	if applied {
		s.syncProjection(ctx, current)
	}
	return applied, current, nil
}

// MarkFailed passe une commande impayée en failed (échec de signature).
// No-op silencieux si la commande est déjà failed ou déjà payée.
func (s *ScyllaOrders) MarkFailed(ctx context.Context, orderID string) error {
	uid, err := gocql.ParseUUID(orderID)
	if err != nil {
		return payments.ErrOrderNotFound
	}

	prev := map[string]interface{}{}
	applied, err := s.Session.Query(`UPDATE orders SET payment_status = ?, updated_at = ?
		WHERE order_id = ? IF payment_status = ?`,
		models.PaymentStatusFailed, time.Now(), uid, models.PaymentStatusPending).
		WithContext(ctx).
		MapScanCAS(prev)
	if err != nil {
		return err
	}

	if applied {
		if current, err := s.Get(ctx, orderID); err == nil {
			s.syncProjection(ctx, current)
		}
	}
	return nil
}

// UpdateStatus : avancement staff du statut de commande (ensemble plat,
// pas de contrainte d'ordre).
func (s *ScyllaOrders) UpdateStatus(ctx context.Context, orderID, status string) error {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return err
	}

	if err := s.Session.Query(`UPDATE orders SET order_status = ?, updated_at = ? WHERE order_id = ?`,
		status, time.Now(), order.ID).
		WithContext(ctx).Exec(); err != nil {
		return err
	}

	order.OrderStatus = status
	s.syncProjection(ctx, order)
	return nil
}

func (s *ScyllaOrders) syncProjection(ctx context.Context, order models.Order) {
	if err := s.Session.Query(`UPDATE orders_by_user SET payment_status = ?, order_status = ?
		WHERE user_id = ? AND created_at = ? AND order_id = ?`,
		order.PaymentStatus, order.OrderStatus, order.UserID, order.CreatedAt, order.ID).
		WithContext(ctx).Exec(); err != nil {
		log.Printf("⚠️ Projection orders_by_user désynchronisée pour %s: %v", order.ID, err)
	}
}
