package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/event-ticketing/internal/domain/order"
	"github.com/example/event-ticketing/internal/domain/user"
	"github.com/example/event-ticketing/internal/email"
	"github.com/example/event-ticketing/internal/infrastructure/kafka"
	"github.com/example/event-ticketing/internal/infrastructure/store"
	"go.uber.org/zap"
)

// Mailer sends the notification mails.
type Mailer interface {
	SendActivation(to string, data email.ActivationData) error
	SendVouchers(to string, data email.VoucherData) error
}

// UserLookup resolves the recipient of an order mail.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
}

// Handler processes events for sending notifications
type Handler struct {
	mailer Mailer
	users  UserLookup
	logger *zap.Logger
}

// NewHandler creates a new notification handler
func NewHandler(mailer Mailer, users UserLookup, logger *zap.Logger) *Handler {
	return &Handler{mailer: mailer, users: users, logger: logger.Named("notifier")}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event kafka.Event
	if err := json.Unmarshal(value, &event); err != nil {
		h.logger.Warn("failed to unmarshal event", zap.ByteString("key", key), zap.Error(err))
		return err
	}

	switch event.EventType {
	case user.EventUserRegistered:
		return h.handleUserRegistered(event)
	case order.EventOrderCompleted:
		var e order.OrderCompleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			h.logger.Warn("failed to unmarshal OrderCompleted event", zap.String("event_id", event.ID), zap.Error(err))
			return err
		}
		return h.HandleOrderCompleted(ctx, &order.Order{
			OrderID:   e.OrderID,
			CreatedBy: e.CreatedBy,
			Ticket:    e.Ticket,
			Events:    e.Events,
			Quantity:  e.Quantity,
			Total:     e.Total,
			Status:    order.StatusCompleted,
			Vouchers:  e.Vouchers,
		})
	}
	return nil
}

func (h *Handler) handleUserRegistered(event kafka.Event) error {
	var e user.UserRegistered
	if err := json.Unmarshal(event.Data, &e); err != nil {
		h.logger.Warn("failed to unmarshal UserRegistered event", zap.String("event_id", event.ID), zap.Error(err))
		return err
	}

	err := h.mailer.SendActivation(e.Email, email.ActivationData{
		FullName:       e.FullName,
		Username:       e.Username,
		Email:          e.Email,
		ActivationLink: e.ActivationLink,
		CreatedAt:      e.RegisteredAt,
	})
	if err != nil {
		h.logger.Error("failed to send activation mail", zap.String("user_id", e.UserID), zap.Error(err))
		return err
	}

	h.logger.Info("activation mail sent", zap.String("user_id", e.UserID))
	return nil
}

// HandleOrderCompleted mails the voucher codes of a completed order to its
// owner. A missing owner is logged and skipped.
func (h *Handler) HandleOrderCompleted(ctx context.Context, o *order.Order) error {
	if o.Status != order.StatusCompleted {
		return fmt.Errorf("order %s is %s, not %s", o.OrderID, o.Status, order.StatusCompleted)
	}

	u, err := h.users.FindByID(ctx, o.CreatedBy)
	if errors.Is(err, store.ErrNotFound) {
		h.logger.Warn("order owner not found", zap.String("order_id", o.OrderID), zap.String("user_id", o.CreatedBy))
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup user %s: %w", o.CreatedBy, err)
	}

	codes := make([]string, len(o.Vouchers))
	for i, v := range o.Vouchers {
		codes[i] = v.VoucherID
	}

	err = h.mailer.SendVouchers(u.Email, email.VoucherData{
		FullName: u.FullName,
		OrderID:  o.OrderID,
		Quantity: o.Quantity,
		Total:    o.Total,
		Vouchers: codes,
	})
	if err != nil {
		h.logger.Error("failed to send voucher mail", zap.String("order_id", o.OrderID), zap.Error(err))
		return err
	}

	h.logger.Info("voucher mail sent", zap.String("order_id", o.OrderID), zap.Int("vouchers", len(codes)))
	return nil
}
