package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/event-ticketing/internal/domain/ticket"
	"github.com/example/event-ticketing/internal/idgen"
	"github.com/example/event-ticketing/internal/infrastructure/store"
	"go.uber.org/zap"
)

// TicketStore is the part of the ticket store the lifecycle needs: a read
// for pricing and the atomic stock counter.
type TicketStore interface {
	FindByID(ctx context.Context, id string) (*ticket.Ticket, error)
	store.Counter
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, aggregateID, aggregateType, eventType string, data any) error
}

// Caller identifies who invokes an operation. Non-admin callers only see
// their own orders.
type Caller struct {
	ID    string
	Admin bool
}

type CreateInput struct {
	CreatedBy string
	Ticket    string
	Quantity  int
}

// Query is a paginated listing request. Status is optional.
type Query struct {
	Search string
	Status Status
	Page   store.Page
}

// List is one page of orders with the total match count.
type List struct {
	Items []*Order
	Total int64
}

type Service struct {
	orders    store.Collection[*Order]
	tickets   TicketStore
	publisher EventPublisher
	ids       idgen.Generator
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(orders store.Collection[*Order], tickets TicketStore, publisher EventPublisher, logger *zap.Logger) *Service {
	return &Service{
		orders:    orders,
		tickets:   tickets,
		publisher: publisher,
		ids:       idgen.ULID{},
		logger:    logger.Named("order"),
		now:       time.Now,
	}
}

// Create places an order in PENDING_PAYMENT. The stock check here is
// advisory: nothing is reserved until the order completes.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Order, error) {
	if in.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	t, err := s.tickets.FindByID(ctx, in.Ticket)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("load ticket: %w", err)
	}
	if t.Quantity < in.Quantity {
		return nil, ErrInsufficientInventory
	}

	o := &Order{
		OrderID:   s.ids.OrderID(),
		CreatedBy: in.CreatedBy,
		Ticket:    t.ID,
		Events:    t.Events,
		Quantity:  in.Quantity,
		Total:     t.Price * int64(in.Quantity),
		Status:    StatusPendingPayment,
		Vouchers:  []Voucher{},
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order created",
		zap.String("order_id", o.OrderID),
		zap.String("ticket_id", o.Ticket),
		zap.Int("quantity", o.Quantity),
		zap.Int64("total", o.Total),
	)
	s.publish(ctx, o, EventOrderCreated, OrderCreated{
		OrderID:   o.OrderID,
		CreatedBy: o.CreatedBy,
		Ticket:    o.Ticket,
		Quantity:  o.Quantity,
		Total:     o.Total,
		CreatedAt: o.CreatedAt,
	})
	return o, nil
}

func (s *Service) Complete(ctx context.Context, caller Caller, orderID string) (*Order, error) {
	return s.Transition(ctx, caller, orderID, StatusCompleted)
}

func (s *Service) Pending(ctx context.Context, caller Caller, orderID string) (*Order, error) {
	return s.Transition(ctx, caller, orderID, StatusPending)
}

func (s *Service) Cancel(ctx context.Context, caller Caller, orderID string) (*Order, error) {
	return s.Transition(ctx, caller, orderID, StatusCancelled)
}

// Transition moves an order to target, applying inventory side effects for
// COMPLETED.
func (s *Service) Transition(ctx context.Context, caller Caller, orderID string, target Status) (*Order, error) {
	if !isTarget(target) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, target)
	}

	o, err := s.findOrder(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}

	if !o.CanTransitionTo(target) {
		return nil, o.transitionError(target)
	}

	if target == StatusCompleted {
		return s.complete(ctx, o)
	}
	return s.setStatus(ctx, o, target)
}

func (s *Service) setStatus(ctx context.Context, o *Order, target Status) (*Order, error) {
	o.Status = target
	if err := s.orders.UpdateByID(ctx, o); err != nil {
		return nil, s.updateFailure(ctx, o.ID, target, err)
	}

	s.logger.Info("order status changed", zap.String("order_id", o.OrderID), zap.String("status", string(target)))

	eventType := EventOrderPending
	if target == StatusCancelled {
		eventType = EventOrderCancelled
	}
	s.publish(ctx, o, eventType, OrderStatusChanged{
		OrderID:   o.OrderID,
		CreatedBy: o.CreatedBy,
		Status:    target,
		ChangedAt: o.UpdatedAt,
	})
	return o, nil
}

// complete takes the stock first, then marks the order. If the order write
// fails the stock is given back, so a failure never leaves inventory short.
func (s *Service) complete(ctx context.Context, o *Order) (*Order, error) {
	if err := s.tickets.Decrement(ctx, o.Ticket, ticket.QuantityField, o.Quantity); err != nil {
		switch {
		case errors.Is(err, store.ErrInsufficient):
			return nil, ErrInsufficientInventory
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrTicketNotFound
		default:
			return nil, fmt.Errorf("decrement ticket stock: %w", err)
		}
	}

	o.Status = StatusCompleted
	o.Vouchers = s.issueVouchers(o.Quantity)

	if err := s.orders.UpdateByID(ctx, o); err != nil {
		if cerr := s.tickets.Increment(ctx, o.Ticket, ticket.QuantityField, o.Quantity); cerr != nil {
			s.logger.Error("inventory compensation failed, manual reconciliation required",
				zap.String("order_id", o.OrderID),
				zap.String("ticket_id", o.Ticket),
				zap.Int("quantity", o.Quantity),
				zap.NamedError("update_error", err),
				zap.NamedError("compensation_error", cerr),
			)
			return nil, fmt.Errorf("%w: order %s holds %d units of ticket %s that were not restored",
				ErrInconsistentState, o.OrderID, o.Quantity, o.Ticket)
		}
		s.logger.Warn("order completion failed, inventory restored",
			zap.String("order_id", o.OrderID),
			zap.String("ticket_id", o.Ticket),
			zap.Error(err),
		)
		return nil, s.updateFailure(ctx, o.ID, StatusCompleted, err)
	}

	s.logger.Info("order completed",
		zap.String("order_id", o.OrderID),
		zap.String("ticket_id", o.Ticket),
		zap.Int("vouchers", len(o.Vouchers)),
	)
	s.publish(ctx, o, EventOrderCompleted, OrderCompleted{
		OrderID:     o.OrderID,
		CreatedBy:   o.CreatedBy,
		Ticket:      o.Ticket,
		Events:      o.Events,
		Quantity:    o.Quantity,
		Total:       o.Total,
		Vouchers:    o.Vouchers,
		CompletedAt: o.UpdatedAt,
	})
	return o, nil
}

func (s *Service) issueVouchers(n int) []Voucher {
	vouchers := make([]Voucher, n)
	for i := range vouchers {
		vouchers[i] = Voucher{VoucherID: s.ids.VoucherID(), IsPrint: false}
	}
	return vouchers
}

// updateFailure maps a failed order write. A version conflict is re-checked
// against the latest state so a lost race against a terminal transition
// reports the terminal conflict.
func (s *Service) updateFailure(ctx context.Context, id string, target Status, err error) error {
	switch {
	case errors.Is(err, store.ErrVersionConflict):
		current, ferr := s.orders.FindByID(ctx, id)
		if ferr != nil {
			if errors.Is(ferr, store.ErrNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("reload order: %w", ferr)
		}
		if !current.CanTransitionTo(target) {
			return current.transitionError(target)
		}
		return ErrConcurrentUpdate
	case errors.Is(err, store.ErrNotFound):
		return ErrOrderNotFound
	default:
		return fmt.Errorf("update order: %w", err)
	}
}

// Remove hard-deletes an order regardless of its status.
func (s *Service) Remove(ctx context.Context, orderID string) (*Order, error) {
	o, err := s.findOrder(ctx, Caller{Admin: true}, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.orders.DeleteByID(ctx, o.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("delete order: %w", err)
	}

	s.logger.Info("order removed", zap.String("order_id", o.OrderID), zap.String("status", string(o.Status)))
	s.publish(ctx, o, EventOrderRemoved, OrderRemoved{OrderID: o.OrderID, RemovedAt: s.now()})
	return o, nil
}

// FindOne returns an order by its external id. Members only see their own.
func (s *Service) FindOne(ctx context.Context, caller Caller, orderID string) (*Order, error) {
	return s.findOrder(ctx, caller, orderID)
}

// FindAll lists every order.
func (s *Service) FindAll(ctx context.Context, q Query) (*List, error) {
	return s.list(ctx, s.queryFilter(store.Filter{}, q), q.Page)
}

// FindAllByOwner lists the caller's own orders.
func (s *Service) FindAllByOwner(ctx context.Context, caller Caller, q Query) (*List, error) {
	return s.list(ctx, s.queryFilter(store.Where("createdBy", caller.ID), q), q.Page)
}

func (s *Service) queryFilter(base store.Filter, q Query) store.Filter {
	if q.Status != "" {
		base = base.And("status", q.Status)
	}
	return base.WithSearch(q.Search, "orderId")
}

func (s *Service) list(ctx context.Context, filter store.Filter, page store.Page) (*List, error) {
	items, err := s.orders.Find(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	total, err := s.orders.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &List{Items: items, Total: total}, nil
}

func (s *Service) findOrder(ctx context.Context, caller Caller, orderID string) (*Order, error) {
	filter := store.Where("orderId", orderID)
	if !caller.Admin {
		filter = filter.And("createdBy", caller.ID)
	}

	o, err := s.orders.FindOne(ctx, filter)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	return o, nil
}

// publish is best effort: the order is already persisted.
func (s *Service) publish(ctx context.Context, o *Order, eventType string, data any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, o.OrderID, AggregateType, eventType, data); err != nil {
		s.logger.Warn("failed to publish order event",
			zap.String("order_id", o.OrderID),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
