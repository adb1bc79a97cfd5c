package models

// Statuts de paiement. "paid" est terminal, "failed" est rejouable : le
// client peut retenter le paiement sur la même commande.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Statuts de commande, avancés par le staff. Aucune contrainte d'ordre
// n'est imposée entre eux (ensemble plat, comportement historique).
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

var validOrderStatuses = map[string]bool{
	OrderStatusPending:    true,
	OrderStatusProcessing: true,
	OrderStatusShipped:    true,
	OrderStatusDelivered:  true,
	OrderStatusCancelled:  true,
}

// IsValidOrderStatus valide l'appartenance à l'ensemble des statuts staff.
func IsValidOrderStatus(s string) bool {
	return validOrderStatuses[s]
}

// CanTransitionPayment est la machine à états du statut de paiement,
// appliquée à chaque mutation. paid n'a aucune transition sortante.
func CanTransitionPayment(from, to string) bool {
	switch from {
	case PaymentStatusPending, PaymentStatusFailed:
		return to == PaymentStatusPaid || to == PaymentStatusFailed
	default:
		return false
	}
}
