package order

import (
	"errors"
	"fmt"

	"github.com/example/event-ticketing/internal/infrastructure/store"
)

const (
	AggregateType = "Order"
	Collection    = "orders"
)

type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusPending        Status = "PENDING"
	StatusCompleted      Status = "COMPLETED"
	StatusCancelled      Status = "CANCELLED"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrTicketNotFound        = errors.New("ticket not found")
	ErrInvalidQuantity       = errors.New("quantity must be at least 1")
	ErrInsufficientInventory = errors.New("ticket not enough")
	ErrInvalidTransition     = errors.New("invalid order status transition")
	ErrTerminalConflict      = errors.New("order is in a terminal state")
	ErrConcurrentUpdate      = errors.New("order was modified concurrently")
	ErrInconsistentState     = errors.New("order and ticket inventory are inconsistent")

	ErrOrderCompleted error = &terminalError{msg: "order already completed"}
	ErrOrderCancelled error = &terminalError{msg: "order already cancelled"}
)

// terminalError reports a transition out of a terminal state. It matches
// ErrTerminalConflict under errors.Is.
type terminalError struct {
	msg string
}

func (e *terminalError) Error() string        { return e.msg }
func (e *terminalError) Is(target error) bool { return target == ErrTerminalConflict }

// validTransitions defines allowed state transitions
var validTransitions = map[Status][]Status{
	StatusPendingPayment: {StatusPending, StatusCompleted, StatusCancelled},
	StatusPending:        {StatusPending, StatusCompleted, StatusCancelled},
	StatusCompleted:      {}, // terminal state
	StatusCancelled:      {}, // terminal state
}

// Voucher is one redeemable unit of a completed order.
type Voucher struct {
	VoucherID string `json:"voucherId" bson:"voucherId"`
	IsPrint   bool   `json:"isPrint" bson:"isPrint"`
}

type Order struct {
	store.Base `bson:",inline"`
	OrderID    string    `json:"orderId" bson:"orderId"`
	CreatedBy  string    `json:"createdBy" bson:"createdBy"`
	Ticket     string    `json:"ticket" bson:"ticket"`
	Events     string    `json:"events" bson:"events"`
	Quantity   int       `json:"quantity" bson:"quantity"`
	Total      int64     `json:"total" bson:"total"`
	Status     Status    `json:"status" bson:"status"`
	Vouchers   []Voucher `json:"vouchers" bson:"vouchers"`
}

func New() *Order { return &Order{} }

// State is the order status, reading a missing status as PENDING_PAYMENT.
func (o *Order) State() Status {
	if o.Status == "" {
		return StatusPendingPayment
	}
	return o.Status
}

// IsTerminal reports whether no further transition is possible.
func (o *Order) IsTerminal() bool {
	return len(validTransitions[o.State()]) == 0
}

// CanTransitionTo checks if the order can transition to the target status
func (o *Order) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[o.State()]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// transitionError returns an appropriate error for an invalid transition
func (o *Order) transitionError(target Status) error {
	switch o.State() {
	case StatusCompleted:
		return ErrOrderCompleted
	case StatusCancelled:
		return ErrOrderCancelled
	default:
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, o.State(), target)
	}
}

// isTarget reports whether s may be requested through a transition.
func isTarget(s Status) bool {
	return s == StatusPending || s == StatusCompleted || s == StatusCancelled
}
