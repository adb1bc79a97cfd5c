package payments

import (
	"context"
	"errors"

	"velora_back_end/internal/models"
)

var (
	ErrOrderNotFound = errors.New("commande introuvable")
	// ErrForbidden : la commande appartient à un autre utilisateur. La
	// vérification répond alors comme pour une commande absente, et la
	// signature n'est même pas regardée.
	ErrForbidden = errors.New("commande non autorisée")
	// ErrAlreadyPaid : la commande est déjà payée avec un AUTRE couple
	// intent/paiement, ou on tente de re-créer un intent dessus.
	ErrAlreadyPaid = errors.New("commande déjà payée")
)

// OrderStore est la vue des commandes nécessaire à la vérification.
// MarkPaid est un compare-and-swap sur le statut de paiement : applied
// vaut false si le statut a changé entre la lecture et l'écriture, et
// current reflète alors l'état en base.
type OrderStore interface {
	Get(ctx context.Context, orderID string) (models.Order, error)
	RecordIntent(ctx context.Context, orderID, intentID string) error
	MarkPaid(ctx context.Context, orderID, paymentID, signature, priorStatus string) (applied bool, current models.Order, err error)
	MarkFailed(ctx context.Context, orderID string) error
}

// SignatureVerifier est le point de confiance unique : HMAC recalculé
// côté serveur, aucun autre signal n'est accepté.
type SignatureVerifier interface {
	VerifySignature(intentID, paymentID, supplied string) bool
}

// Result est l'issue métier d'une vérification. Verified=false n'est pas
// une faute système : la commande passe en failed et le client peut
// retenter le paiement.
type Result struct {
	Order       models.Order
	Verified    bool
	AlreadyPaid bool
}

type Verifier struct {
	orders OrderStore
	sig    SignatureVerifier
}

func NewVerifier(orders OrderStore, sig SignatureVerifier) *Verifier {
	return &Verifier{orders: orders, sig: sig}
}

// VerifyPayment valide un retour de passerelle contre la commande qu'il
// prétend régler et fait avancer la machine à états :
//
//	pending/failed --[signature valide]--> paid   (order_status → processing)
//	pending/failed --[signature invalide]--> failed (order_status inchangé)
//
// Re-vérifier une commande déjà payée avec le même couple
// (intent, paiement) est un no-op idempotent (AlreadyPaid=true, aucun
// effet de bord) ; avec un couple différent, ErrAlreadyPaid.
func (v *Verifier) VerifyPayment(ctx context.Context, orderID, callerUserID, intentID, paymentID, signature string) (*Result, error) {
	order, err := v.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != callerUserID {
		return nil, ErrForbidden
	}

	if order.PaymentStatus == models.PaymentStatusPaid {
		if order.GatewayIntentID == intentID && order.GatewayPaymentID == paymentID {
			return &Result{Order: order, Verified: true, AlreadyPaid: true}, nil
		}
		return nil, ErrAlreadyPaid
	}

	// La signature doit porter sur l'intent enregistré pour CETTE commande
	valid := order.GatewayIntentID != "" &&
		order.GatewayIntentID == intentID &&
		v.sig.VerifySignature(intentID, paymentID, signature)

	if !valid {
		if err := v.orders.MarkFailed(ctx, orderID); err != nil {
			return nil, err
		}
		order.PaymentStatus = models.PaymentStatusFailed
		return &Result{Order: order, Verified: false}, nil
	}

	applied, current, err := v.orders.MarkPaid(ctx, orderID, paymentID, signature, order.PaymentStatus)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Course avec une autre vérification : si elle a posé le même
		// couple, on est idempotent, sinon conflit.
		if current.PaymentStatus == models.PaymentStatusPaid &&
			current.GatewayIntentID == intentID && current.GatewayPaymentID == paymentID {
			return &Result{Order: current, Verified: true, AlreadyPaid: true}, nil
		}
		return nil, ErrAlreadyPaid
	}

	return &Result{Order: current, Verified: true}, nil
}
