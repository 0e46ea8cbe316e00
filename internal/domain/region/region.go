package region

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/event-ticketing/internal/infrastructure/store"
	"go.uber.org/zap"
)

const Collection = "regions"

type Level string

const (
	LevelProvince Level = "province"
	LevelRegency  Level = "regency"
	LevelDistrict Level = "district"
	LevelVillage  Level = "village"
)

// childLevel maps each level to the level directly below it.
var childLevel = map[Level]Level{
	LevelProvince: LevelRegency,
	LevelRegency:  LevelDistrict,
	LevelDistrict: LevelVillage,
}

var (
	ErrRegionNotFound = errors.New("region not found")
	ErrInvalidSearch  = errors.New("name is required")
)

// Region is an administrative area. Its storage id is the government code.
type Region struct {
	store.Base `bson:",inline"`
	Name       string `json:"name" bson:"name"`
	Level      Level  `json:"level" bson:"level"`
	ParentID   string `json:"parentId" bson:"parentId"`
}

func New() *Region { return &Region{} }

// Tree is a region with its direct children.
type Tree struct {
	*Region
	Children []*Region `json:"children"`
}

type Service struct {
	regions store.Collection[*Region]
	logger  *zap.Logger
}

func NewService(regions store.Collection[*Region], logger *zap.Logger) *Service {
	return &Service{regions: regions, logger: logger.Named("region")}
}

func (s *Service) Provinces(ctx context.Context) ([]*Region, error) {
	return s.regions.Find(ctx, store.Where("level", LevelProvince), store.All)
}

func (s *Service) Province(ctx context.Context, id string) (*Tree, error) {
	return s.tree(ctx, id, LevelProvince)
}

func (s *Service) Regency(ctx context.Context, id string) (*Tree, error) {
	return s.tree(ctx, id, LevelRegency)
}

func (s *Service) District(ctx context.Context, id string) (*Tree, error) {
	return s.tree(ctx, id, LevelDistrict)
}

func (s *Service) Village(ctx context.Context, id string) (*Region, error) {
	return s.find(ctx, id, LevelVillage)
}

// Search finds regencies by name, case-insensitively.
func (s *Service) Search(ctx context.Context, name string) ([]*Region, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidSearch
	}
	return s.regions.Find(ctx, store.Where("level", LevelRegency).WithSearch(name, "name"), store.All)
}

func (s *Service) tree(ctx context.Context, id string, level Level) (*Tree, error) {
	r, err := s.find(ctx, id, level)
	if err != nil {
		return nil, err
	}
	children, err := s.regions.Find(ctx, store.Where("parentId", r.ID).And("level", childLevel[level]), store.All)
	if err != nil {
		return nil, err
	}
	return &Tree{Region: r, Children: children}, nil
}

func (s *Service) find(ctx context.Context, id string, level Level) (*Region, error) {
	r, err := s.regions.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRegionNotFound
	}
	if err != nil {
		return nil, err
	}
	if r.Level != level {
		return nil, ErrRegionNotFound
	}
	return r, nil
}

// Import stores regions, skipping ids that already exist.
func (s *Service) Import(ctx context.Context, regions []*Region) (created, skipped int, err error) {
	for _, r := range regions {
		err := s.regions.Create(ctx, r)
		switch {
		case err == nil:
			created++
		case errors.Is(err, store.ErrDuplicate):
			skipped++
		default:
			return created, skipped, fmt.Errorf("import region %s: %w", r.ID, err)
		}
	}
	s.logger.Info("regions imported", zap.Int("created", created), zap.Int("skipped", skipped))
	return created, skipped, nil
}
