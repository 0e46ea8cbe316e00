package banner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/event-ticketing/internal/infrastructure/store"
	"go.uber.org/zap"
)

const Collection = "banners"

var (
	ErrBannerNotFound = errors.New("banner not found")
	ErrInvalidTitle   = errors.New("title is required")
	ErrInvalidImage   = errors.New("image is required")
)

type Banner struct {
	store.Base `bson:",inline"`
	Title      string `json:"title" bson:"title"`
	Image      string `json:"image" bson:"image"`
	IsShow     bool   `json:"isShow" bson:"isShow"`
}

func New() *Banner { return &Banner{} }

type Input struct {
	Title  string
	Image  string
	IsShow bool
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrInvalidTitle
	}
	if strings.TrimSpace(in.Image) == "" {
		return ErrInvalidImage
	}
	return nil
}

// Query lists banners. A nil IsShow returns hidden and shown banners alike.
type Query struct {
	Search string
	IsShow *bool
	Page   store.Page
}

type List struct {
	Items []*Banner
	Total int64
}

type Service struct {
	banners store.Collection[*Banner]
	logger  *zap.Logger
}

func NewService(banners store.Collection[*Banner], logger *zap.Logger) *Service {
	return &Service{banners: banners, logger: logger.Named("banner")}
}

func (s *Service) Create(ctx context.Context, in Input) (*Banner, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	b := &Banner{Title: strings.TrimSpace(in.Title), Image: in.Image, IsShow: in.IsShow}
	if err := s.banners.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create banner: %w", err)
	}
	s.logger.Info("banner created", zap.String("banner_id", b.ID))
	return b, nil
}

func (s *Service) FindAll(ctx context.Context, q Query) (*List, error) {
	filter := store.Filter{}
	if q.IsShow != nil {
		filter = filter.And("isShow", *q.IsShow)
	}
	filter = filter.WithSearch(q.Search, "title")

	items, err := s.banners.Find(ctx, filter, q.Page)
	if err != nil {
		return nil, err
	}
	total, err := s.banners.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &List{Items: items, Total: total}, nil
}

func (s *Service) FindOne(ctx context.Context, id string) (*Banner, error) {
	b, err := s.banners.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrBannerNotFound
	}
	return b, err
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*Banner, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	b, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Title = strings.TrimSpace(in.Title)
	b.Image = in.Image
	b.IsShow = in.IsShow

	if err := s.banners.UpdateByID(ctx, b); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBannerNotFound
		}
		return nil, fmt.Errorf("update banner: %w", err)
	}
	return b, nil
}

func (s *Service) Remove(ctx context.Context, id string) (*Banner, error) {
	b, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.banners.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBannerNotFound
		}
		return nil, err
	}
	return b, nil
}
