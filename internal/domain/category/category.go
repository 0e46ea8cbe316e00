package category

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/event-ticketing/internal/infrastructure/store"
	"go.uber.org/zap"
)

const Collection = "categories"

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidName      = errors.New("name is required")
)

// Category groups events
type Category struct {
	store.Base  `bson:",inline"`
	Name        string `json:"name" bson:"name"`
	Description string `json:"description" bson:"description"`
	Icon        string `json:"icon" bson:"icon"`
}

func New() *Category { return &Category{} }

type Input struct {
	Name        string
	Description string
	Icon        string
}

type Query struct {
	Search string
	Page   store.Page
}

type List struct {
	Items []*Category
	Total int64
}

// Service handles category operations
type Service struct {
	categories store.Collection[*Category]
	logger     *zap.Logger
}

// NewService creates a new category service
func NewService(categories store.Collection[*Category], logger *zap.Logger) *Service {
	return &Service{categories: categories, logger: logger.Named("category")}
}

// Create creates a new category
func (s *Service) Create(ctx context.Context, in Input) (*Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	c := &Category{Name: name, Description: in.Description, Icon: in.Icon}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.logger.Info("category created", zap.String("category_id", c.ID))
	return c, nil
}

func (s *Service) FindAll(ctx context.Context, q Query) (*List, error) {
	filter := store.Filter{}.WithSearch(q.Search, "name")
	items, err := s.categories.Find(ctx, filter, q.Page)
	if err != nil {
		return nil, err
	}
	total, err := s.categories.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &List{Items: items, Total: total}, nil
}

func (s *Service) FindOne(ctx context.Context, id string) (*Category, error) {
	c, err := s.categories.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrCategoryNotFound
	}
	return c, err
}

// Update updates an existing category
func (s *Service) Update(ctx context.Context, id string, in Input) (*Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	c, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = name
	c.Description = in.Description
	c.Icon = in.Icon

	if err := s.categories.UpdateByID(ctx, c); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// Remove deletes a category
func (s *Service) Remove(ctx context.Context, id string) (*Category, error) {
	c, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.categories.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}
