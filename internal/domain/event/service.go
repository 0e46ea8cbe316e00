package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/event-ticketing/internal/infrastructure/store"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// Service handles event catalog operations
type Service struct {
	events store.Collection[*Event]
	policy *bluemonday.Policy
	logger *zap.Logger
}

// NewService creates a new event service
func NewService(events store.Collection[*Event], logger *zap.Logger) *Service {
	return &Service{
		events: events,
		policy: newDescriptionPolicy(),
		logger: logger.Named("event"),
	}
}

func newDescriptionPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// Create stores a new event owned by createdBy.
func (s *Service) Create(ctx context.Context, createdBy string, in Input) (*Event, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, in.Slug, ""); err != nil {
		return nil, err
	}

	e := &Event{CreatedBy: createdBy}
	s.apply(e, in)

	if err := s.events.Create(ctx, e); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.logger.Info("event created", zap.String("event_id", e.ID), zap.String("slug", e.Slug))
	return e, nil
}

func (s *Service) FindAll(ctx context.Context, q Query) (*List, error) {
	filter := q.filter()
	items, err := s.events.Find(ctx, filter, q.Page)
	if err != nil {
		return nil, err
	}
	total, err := s.events.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &List{Items: items, Total: total}, nil
}

func (s *Service) FindOne(ctx context.Context, id string) (*Event, error) {
	e, err := s.events.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	return e, err
}

func (s *Service) FindOneBySlug(ctx context.Context, slug string) (*Event, error) {
	e, err := s.events.FindOne(ctx, store.Where("slug", slug))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	return e, err
}

// Update replaces the mutable fields. The owner is unchanged.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Event, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	e, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, in.Slug, e.ID); err != nil {
		return nil, err
	}

	s.apply(e, in)
	if err := s.events.UpdateByID(ctx, e); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrEventNotFound
		case errors.Is(err, store.ErrDuplicate):
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return e, nil
}

func (s *Service) Remove(ctx context.Context, id string) (*Event, error) {
	e, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.events.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	s.logger.Info("event removed", zap.String("event_id", id))
	return e, nil
}

func (s *Service) apply(e *Event, in Input) {
	e.Name = in.Name
	e.Slug = in.Slug
	e.Category = in.Category
	e.Description = s.policy.Sanitize(in.Description)
	e.StartDate = in.StartDate
	e.EndDate = in.EndDate
	e.IsFeatured = in.IsFeatured
	e.IsOnline = in.IsOnline
	e.IsPublish = in.IsPublish
	e.Banner = in.Banner
	e.Location = in.Location
	if e.Location.Coordinates == nil {
		e.Location.Coordinates = []float64{}
	}
}

// ensureSlugFree rejects a slug held by any event other than selfID.
func (s *Service) ensureSlugFree(ctx context.Context, slug, selfID string) error {
	existing, err := s.events.FindOne(ctx, store.Where("slug", slug))
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("check slug: %w", err)
	case existing.ID != selfID:
		return ErrSlugTaken
	}
	return nil
}
