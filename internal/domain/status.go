package domain

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	StatusPendingConfirmation OrderStatus = "pending_confirmation"
	StatusConfirmed           OrderStatus = "confirmed"
	StatusDelivering          OrderStatus = "delivering"
	StatusDelivered           OrderStatus = "delivered"
	StatusCancelled           OrderStatus = "cancelled"
)

// AllStatuses lists every order status in lifecycle order
func AllStatuses() []OrderStatus {
	return []OrderStatus{
		StatusPendingConfirmation,
		StatusConfirmed,
		StatusDelivering,
		StatusDelivered,
		StatusCancelled,
	}
}

// transitions is never mutated after initialization; callers only get copies.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPendingConfirmation: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:           {StatusDelivering, StatusCancelled},
	StatusDelivering:          {StatusDelivered, StatusCancelled},
	StatusDelivered:           {},
	StatusCancelled:           {},
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// NextStatuses returns the statuses an order may move to from s
func (s OrderStatus) NextStatuses() []OrderStatus {
	next := transitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// CanTransitionTo reports whether moving from s to target is allowed
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Terminal reports whether s has no outgoing transitions
func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}
