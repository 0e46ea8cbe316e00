package event

import (
	"errors"
	"strings"
	"time"

	"github.com/example/event-ticketing/internal/infrastructure/store"
)

const Collection = "events"

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrInvalidName      = errors.New("name is required")
	ErrInvalidCategory  = errors.New("category is required")
	ErrInvalidSlug      = errors.New("invalid slug format")
	ErrSlugTaken        = errors.New("slug is already in use")
	ErrInvalidDateRange = errors.New("end date must not be before start date")
	ErrInvalidLocation  = errors.New("coordinates must be [latitude, longitude]")
)

// Location places an event in a region.
type Location struct {
	Region      string    `json:"region" bson:"region"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

type Event struct {
	store.Base  `bson:",inline"`
	Name        string    `json:"name" bson:"name"`
	Slug        string    `json:"slug" bson:"slug"`
	Category    string    `json:"category" bson:"category"`
	Description string    `json:"description" bson:"description"`
	StartDate   time.Time `json:"startDate" bson:"startDate"`
	EndDate     time.Time `json:"endDate" bson:"endDate"`
	IsFeatured  bool      `json:"isFeatured" bson:"isFeatured"`
	IsOnline    bool      `json:"isOnline" bson:"isOnline"`
	IsPublish   bool      `json:"isPublish" bson:"isPublish"`
	Banner      string    `json:"banner" bson:"banner"`
	Location    Location  `json:"location" bson:"location"`
	CreatedBy   string    `json:"createdBy" bson:"createdBy"`
}

func New() *Event { return &Event{} }

// Input holds the caller-supplied fields of an event.
type Input struct {
	Name        string
	Slug        string
	Category    string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	IsFeatured  bool
	IsOnline    bool
	IsPublish   bool
	Banner      string
	Location    Location
}

func (in *Input) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(in.Category) == "" {
		return ErrInvalidCategory
	}
	if !in.StartDate.IsZero() && !in.EndDate.IsZero() && in.EndDate.Before(in.StartDate) {
		return ErrInvalidDateRange
	}
	if n := len(in.Location.Coordinates); n != 0 && n != 2 {
		return ErrInvalidLocation
	}

	if in.Slug == "" {
		in.Slug = generateSlug(in.Name)
	}
	if !slugRegex.MatchString(in.Slug) {
		return ErrInvalidSlug
	}
	return nil
}

// Query filters the event listing. Nil flags are not applied.
type Query struct {
	Search     string
	Category   string
	IsOnline   *bool
	IsFeatured *bool
	IsPublish  *bool
	Page       store.Page
}

func (q Query) filter() store.Filter {
	f := store.Filter{}
	if q.Category != "" {
		f = f.And("category", q.Category)
	}
	if q.IsOnline != nil {
		f = f.And("isOnline", *q.IsOnline)
	}
	if q.IsFeatured != nil {
		f = f.And("isFeatured", *q.IsFeatured)
	}
	if q.IsPublish != nil {
		f = f.And("isPublish", *q.IsPublish)
	}
	return f.WithSearch(q.Search, "name")
}

// List is one page of events with the total match count.
type List struct {
	Items []*Event
	Total int64
}
