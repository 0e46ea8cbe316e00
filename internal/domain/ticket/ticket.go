package ticket

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/event-ticketing/internal/infrastructure/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	Collection = "tickets"
	// QuantityField is the stock field adjusted by the order lifecycle.
	QuantityField = "quantity"
)

var (
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrInvalidName     = errors.New("name is required")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidQuantity = errors.New("quantity must not be negative")
	ErrInvalidEventID  = errors.New("invalid event id")
)

// Ticket is a purchasable admission type for an event.
type Ticket struct {
	store.Base  `bson:",inline"`
	Name        string `json:"name" bson:"name"`
	Description string `json:"description" bson:"description"`
	Price       int64  `json:"price" bson:"price"`
	Quantity    int    `json:"quantity" bson:"quantity"`
	Events      string `json:"events" bson:"events"`
}

func New() *Ticket { return &Ticket{} }

// Store is the persistence the ticket catalog and the order lifecycle need.
type Store interface {
	store.Collection[*Ticket]
	store.Counter
}

// Input holds the mutable fields of a ticket.
type Input struct {
	Name        string
	Description string
	Price       int64
	Quantity    int
	Events      string
}

func (in Input) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return ErrInvalidName
	case in.Price < 0:
		return ErrInvalidPrice
	case in.Quantity < 0:
		return ErrInvalidQuantity
	}
	if _, err := uuid.Parse(in.Events); err != nil {
		return ErrInvalidEventID
	}
	return nil
}

// Query is a paginated listing request.
type Query struct {
	Search string
	Page   store.Page
}

// List is one page of tickets with the total match count.
type List struct {
	Items []*Ticket
	Total int64
}

// Service handles ticket catalog operations
type Service struct {
	tickets Store
	logger  *zap.Logger
}

// NewService creates a new ticket service
func NewService(tickets Store, logger *zap.Logger) *Service {
	return &Service{tickets: tickets, logger: logger.Named("ticket")}
}

func (s *Service) Create(ctx context.Context, in Input) (*Ticket, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	t := &Ticket{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Events:      in.Events,
	}
	if err := s.tickets.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	s.logger.Info("ticket created", zap.String("ticket_id", t.ID), zap.String("event_id", t.Events))
	return t, nil
}

func (s *Service) FindAll(ctx context.Context, q Query) (*List, error) {
	return s.list(ctx, store.Filter{}.WithSearch(q.Search, "name"), q.Page)
}

// FindAllByEvent lists the tickets of one event.
func (s *Service) FindAllByEvent(ctx context.Context, eventID string, q Query) (*List, error) {
	if _, err := uuid.Parse(eventID); err != nil {
		return nil, ErrInvalidEventID
	}
	return s.list(ctx, store.Where("events", eventID).WithSearch(q.Search, "name"), q.Page)
}

func (s *Service) list(ctx context.Context, filter store.Filter, page store.Page) (*List, error) {
	items, err := s.tickets.Find(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	total, err := s.tickets.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &List{Items: items, Total: total}, nil
}

func (s *Service) FindOne(ctx context.Context, id string) (*Ticket, error) {
	t, err := s.tickets.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTicketNotFound
	}
	return t, err
}

// Update replaces the mutable fields. Existing orders keep the total they
// were created with.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Ticket, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	t, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}

	t.Name = strings.TrimSpace(in.Name)
	t.Description = in.Description
	t.Price = in.Price
	t.Quantity = in.Quantity
	t.Events = in.Events

	if err := s.tickets.UpdateByID(ctx, t); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("update ticket: %w", err)
	}
	return t, nil
}

func (s *Service) Remove(ctx context.Context, id string) (*Ticket, error) {
	t, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return t, nil
}
