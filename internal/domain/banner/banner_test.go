package banner

import (
	"context"
	"errors"
	"testing"

	"github.com/example/event-ticketing/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestBannerService() (*Service, *mocks.MockCollection[*Banner]) {
	banners := mocks.NewMockCollection(New)
	return NewService(banners, zap.NewNop()), banners
}

func TestService_Create(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want error
	}{
		{"valid", Input{Title: "Year End Sale", Image: "https://cdn/banner.jpg", IsShow: true}, nil},
		{"missing title", Input{Image: "https://cdn/banner.jpg"}, ErrInvalidTitle},
		{"missing image", Input{Title: "Sale"}, ErrInvalidImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newTestBannerService()

			b, err := service.Create(context.Background(), tt.in)

			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, b.ID)
			assert.True(t, b.IsShow)
		})
	}
}

func TestService_FindAll_ShownOnly(t *testing.T) {
	service, _ := newTestBannerService()
	ctx := context.Background()
	_, err := service.Create(ctx, Input{Title: "Shown", Image: "a.jpg", IsShow: true})
	require.NoError(t, err)
	_, err = service.Create(ctx, Input{Title: "Hidden", Image: "b.jpg"})
	require.NoError(t, err)

	shown := true
	list, err := service.FindAll(ctx, Query{IsShow: &shown})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Shown", list.Items[0].Title)

	all, err := service.FindAll(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
}

func TestService_UpdateAndRemove(t *testing.T) {
	service, banners := newTestBannerService()
	ctx := context.Background()
	b, err := service.Create(ctx, Input{Title: "Sale", Image: "a.jpg"})
	require.NoError(t, err)

	updated, err := service.Update(ctx, b.ID, Input{Title: "Big Sale", Image: "b.jpg", IsShow: true})
	require.NoError(t, err)
	assert.Equal(t, "Big Sale", updated.Title)
	assert.True(t, updated.IsShow)

	banners.DeleteErr = errors.New("db down")
	_, err = service.Remove(ctx, b.ID)
	assert.Error(t, err)

	banners.DeleteErr = nil
	_, err = service.Remove(ctx, b.ID)
	require.NoError(t, err)

	_, err = service.Remove(ctx, b.ID)
	assert.ErrorIs(t, err, ErrBannerNotFound)
}
