package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/event-ticketing/internal/api/middleware"
	"github.com/example/event-ticketing/internal/auth"
	"github.com/example/event-ticketing/internal/domain/banner"
	"github.com/example/event-ticketing/internal/domain/category"
	"github.com/example/event-ticketing/internal/domain/event"
	"github.com/example/event-ticketing/internal/domain/order"
	"github.com/example/event-ticketing/internal/domain/region"
	"github.com/example/event-ticketing/internal/domain/ticket"
	"github.com/example/event-ticketing/internal/domain/user"
	"github.com/example/event-ticketing/internal/infrastructure/store"
	"github.com/example/event-ticketing/internal/infrastructure/store/mocks"
	"github.com/example/event-ticketing/internal/media"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUploader struct {
	uploaded []string
	removed  []string
}

func (u *fakeUploader) Upload(ctx context.Context, f media.File) (*media.Result, error) {
	data, err := io.ReadAll(f.Content)
	if err != nil {
		return nil, err
	}
	url := "https://storage.googleapis.com/test-bucket/media/" + f.Name
	u.uploaded = append(u.uploaded, url)
	return &media.Result{URL: url, Name: f.Name, ContentType: f.ContentType, Size: int64(len(data))}, nil
}

func (u *fakeUploader) Remove(ctx context.Context, url string) error {
	u.removed = append(u.removed, url)
	return nil
}

type testServer struct {
	handler   http.Handler
	jwt       *auth.JWTService
	users     *store.MemoryCollection[*user.User]
	tickets   *store.MemoryCollection[*ticket.Ticket]
	publisher *mocks.MockPublisher
	uploader  *fakeUploader
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	jwtService := auth.NewJWTService("test-secret-key-for-testing-purposes", time.Hour)

	users := store.NewMemoryCollection(user.New)
	tickets := store.NewMemoryCollection(ticket.New)
	publisher := mocks.NewMockPublisher()
	uploader := &fakeUploader{}

	regions := region.NewService(store.NewMemoryCollection(region.New), logger)
	seed := []*region.Region{
		{Name: "DKI JAKARTA", Level: region.LevelProvince},
		{Name: "KOTA JAKARTA SELATAN", Level: region.LevelRegency, ParentID: "31"},
	}
	seed[0].ID, seed[1].ID = "31", "3171"
	_, _, err := regions.Import(context.Background(), seed)
	require.NoError(t, err)

	handlers := NewHandlers(Services{
		Users:      user.NewService(users, jwtService, publisher, "http://localhost:3001", logger),
		Categories: category.NewService(store.NewMemoryCollection(category.New), logger),
		Events:     event.NewService(store.NewMemoryCollection(event.New), logger),
		Tickets:    ticket.NewService(tickets, logger),
		Banners:    banner.NewService(store.NewMemoryCollection(banner.New), logger),
		Regions:    regions,
		Media:      media.NewService(uploader, logger),
		Orders:     order.NewService(store.NewMemoryCollection(order.New), tickets, publisher, logger),
	}, Options{MaxUploadBytes: 1 << 10}, logger)

	return &testServer{
		handler:   NewRouter(handlers, jwtService, []string{"*"}, logger),
		jwt:       jwtService,
		users:     users,
		tickets:   tickets,
		publisher: publisher,
		uploader:  uploader,
	}
}

type response struct {
	Code       int
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination *pagination     `json:"pagination"`
	Header     http.Header
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) response {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	resp.Code = rec.Code
	resp.Header = rec.Header()
	return resp
}

func (s *testServer) token(t *testing.T, userID, role string) string {
	t.Helper()
	token, _, err := s.jwt.GenerateAccessToken(userID, role)
	require.NoError(t, err)
	return token
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/", "", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Server is running!", resp.Message)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/nope", "", nil)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

// ============================================
// Auth Tests
// ============================================

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	register := map[string]string{
		"fullName":        "Budi Santoso",
		"username":        "budi",
		"email":           "budi@example.com",
		"password":        "Secret123",
		"confirmPassword": "Secret123",
	}

	resp := s.do(t, http.MethodPost, "/auth/register", "", register)
	require.Equal(t, http.StatusOK, resp.Code, resp.Message)
	assert.NotContains(t, string(resp.Data), "password")
	assert.NotContains(t, string(resp.Data), "activationCode")
	assert.Equal(t, []string{user.EventUserRegistered}, s.publisher.EventTypes())

	resp = s.do(t, http.MethodPost, "/auth/register", "", register)
	assert.Equal(t, http.StatusConflict, resp.Code)

	login := map[string]string{"identifier": "budi", "password": "Secret123"}
	resp = s.do(t, http.MethodPost, "/auth/login", "", login)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	stored, err := s.users.FindOne(context.Background(), store.Where("username", "budi"))
	require.NoError(t, err)
	resp = s.do(t, http.MethodPost, "/auth/activation", "", map[string]string{"code": stored.ActivationCode})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, decode[UserResponse](t, resp.Data).IsActive)

	resp = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"identifier": "budi", "password": "Wrong123"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = s.do(t, http.MethodPost, "/auth/login", "", login)
	require.Equal(t, http.StatusOK, resp.Code)
	token := decode[LoginResponse](t, resp.Data).Token
	require.NotEmpty(t, token)
	assert.Contains(t, resp.Header.Get("Set-Cookie"), middleware.AccessTokenCookie+"="+token)

	resp = s.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	me := decode[UserResponse](t, resp.Data)
	assert.Equal(t, "budi", me.Username)
	assert.Equal(t, auth.RoleMember, me.Role)

	resp = s.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    map[string]string
		message string
	}{
		{
			"missing fields",
			map[string]string{"password": "Secret123", "confirmPassword": "Secret123"},
			"fullName is required, username is required, email is required",
		},
		{
			"weak password",
			map[string]string{"fullName": "A", "username": "a", "email": "a@example.com", "password": "secret", "confirmPassword": "secret"},
			"password must contain at least one uppercase letter",
		},
		{
			"mismatch",
			map[string]string{"fullName": "A", "username": "a", "email": "a@example.com", "password": "Secret123", "confirmPassword": "Secret124"},
			"confirmPassword must match password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)

			resp := s.do(t, http.MethodPost, "/auth/register", "", tt.body)

			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, tt.message, resp.Message)
			assert.Equal(t, "null", string(resp.Data))
		})
	}
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{"))

	resp := s.serve(t, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Message, "invalid request body")
}

// ============================================
// Access Control Tests
// ============================================

func TestAccessControl(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "admin-1", auth.RoleAdmin)
	member := s.token(t, "member-1", auth.RoleMember)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"public list", http.MethodGet, "/category", "", http.StatusOK},
		{"anonymous create", http.MethodPost, "/category", "", http.StatusUnauthorized},
		{"member create", http.MethodPost, "/category", member, http.StatusForbidden},
		{"admin create", http.MethodPost, "/category", admin, http.StatusOK},
		{"member lists all orders", http.MethodGet, "/orders", member, http.StatusForbidden},
		{"admin lists all orders", http.MethodGet, "/orders", admin, http.StatusOK},
		{"admin creates order", http.MethodPost, "/orders", admin, http.StatusForbidden},
		{"admin order history", http.MethodGet, "/orders-history", admin, http.StatusForbidden},
		{"member cancels", http.MethodPut, "/orders/ORD-1/cancelled", member, http.StatusForbidden},
		{"admin completes", http.MethodPut, "/orders/ORD-1/completed", admin, http.StatusForbidden},
		{"member deletes order", http.MethodDelete, "/orders/ORD-1", member, http.StatusForbidden},
		{"anonymous upload", http.MethodPost, "/media/upload-single", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body any
			if tt.method == http.MethodPost && tt.path == "/category" {
				body = map[string]string{"name": "Musik"}
			}
			resp := s.do(t, tt.method, tt.path, tt.token, body)
			assert.Equal(t, tt.want, resp.Code, resp.Message)
		})
	}
}

// ============================================
// Catalog Tests
// ============================================

func TestEventsAndTickets(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "admin-1", auth.RoleAdmin)

	resp := s.do(t, http.MethodPost, "/events", admin, map[string]any{
		"name":      "Konser Musik Jakarta",
		"category":  "music",
		"isOnline":  false,
		"isPublish": true,
		"location":  map[string]any{"region": "3171", "coordinates": []float64{-6.2, 106.8}},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Message)
	created := decode[event.Event](t, resp.Data)
	assert.Equal(t, "konser-musik-jakarta", created.Slug)
	assert.Equal(t, "admin-1", created.CreatedBy)

	resp = s.do(t, http.MethodGet, "/events/konser-musik-jakarta/slug", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, created.ID, decode[event.Event](t, resp.Data).ID)

	resp = s.do(t, http.MethodGet, "/events?isPublish=true&search=konser", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, resp.Pagination.Total)

	resp = s.do(t, http.MethodGet, "/events?isOnline=maybe", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	for _, name := range []string{"Reguler", "VIP"} {
		resp = s.do(t, http.MethodPost, "/tickets", admin, map[string]any{
			"name": name, "price": 150000, "quantity": 10, "events": created.ID,
		})
		require.Equal(t, http.StatusOK, resp.Code, resp.Message)
	}

	resp = s.do(t, http.MethodGet, "/tickets/"+created.ID+"/events?limit=1", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[[]ticket.Ticket](t, resp.Data), 1)
	assert.Equal(t, &pagination{Total: 2, Current: 1, TotalPages: 2}, resp.Pagination)

	resp = s.do(t, http.MethodGet, "/tickets/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "ticket not found", resp.Message)

	resp = s.do(t, http.MethodDelete, "/events/"+created.ID, admin, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	resp = s.do(t, http.MethodGet, "/events/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestBanners(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "admin-1", auth.RoleAdmin)

	resp := s.do(t, http.MethodPost, "/banners", admin, map[string]any{"title": "Promo", "image": "https://cdn/x.png", "isShow": true})
	require.Equal(t, http.StatusOK, resp.Code)
	b := decode[banner.Banner](t, resp.Data)

	resp = s.do(t, http.MethodPut, "/banners/"+b.ID, admin, map[string]any{"title": "Promo 2", "image": "https://cdn/x.png"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, decode[banner.Banner](t, resp.Data).IsShow)

	resp = s.do(t, http.MethodGet, "/banners?isShow=true", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 0, resp.Pagination.Total)
}

func TestRegions(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/regions", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[[]region.Region](t, resp.Data), 1)

	resp = s.do(t, http.MethodGet, "/regions/31/province", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	tree := decode[struct {
		Name     string          `json:"name"`
		Children []region.Region `json:"children"`
	}](t, resp.Data)
	assert.Equal(t, "DKI JAKARTA", tree.Name)
	assert.Len(t, tree.Children, 1)

	resp = s.do(t, http.MethodGet, "/regions/31/village", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = s.do(t, http.MethodGet, "/regions-search?name=selatan", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[[]region.Region](t, resp.Data), 1)

	resp = s.do(t, http.MethodGet, "/regions-search", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

// ============================================
// Order Tests
// ============================================

func (s *testServer) seedTicket(t *testing.T, quantity int) *ticket.Ticket {
	t.Helper()
	tk := &ticket.Ticket{Name: "Reguler", Price: 50000, Quantity: quantity, Events: uuid.NewString()}
	require.NoError(t, s.tickets.Create(context.Background(), tk))
	return tk
}

func TestOrderLifecycle(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "admin-1", auth.RoleAdmin)
	member := s.token(t, "member-1", auth.RoleMember)
	other := s.token(t, "member-2", auth.RoleMember)
	tk := s.seedTicket(t, 100)

	resp := s.do(t, http.MethodPost, "/orders", member, map[string]any{"ticket": tk.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, resp.Code, resp.Message)
	o := decode[order.Order](t, resp.Data)
	assert.Equal(t, order.StatusPendingPayment, o.Status)
	assert.EqualValues(t, 100000, o.Total)
	assert.Equal(t, "member-1", o.CreatedBy)

	resp = s.do(t, http.MethodGet, "/orders/"+o.OrderID, other, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	resp = s.do(t, http.MethodGet, "/orders/"+o.OrderID, admin, nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = s.do(t, http.MethodPut, "/orders/"+o.OrderID+"/pending", admin, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, order.StatusPending, decode[order.Order](t, resp.Data).Status)

	resp = s.do(t, http.MethodPut, "/orders/"+o.OrderID+"/completed", member, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Message)
	completed := decode[order.Order](t, resp.Data)
	assert.Equal(t, order.StatusCompleted, completed.Status)
	assert.Len(t, completed.Vouchers, 2)

	stock, err := s.tickets.FindByID(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, 98, stock.Quantity)

	resp = s.do(t, http.MethodPut, "/orders/"+o.OrderID+"/completed", member, nil)
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "order already completed", resp.Message)

	resp = s.do(t, http.MethodPut, "/orders/"+o.OrderID+"/cancelled", admin, nil)
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = s.do(t, http.MethodGet, "/orders-history", member, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, resp.Pagination.Total)
	resp = s.do(t, http.MethodGet, "/orders-history", other, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 0, resp.Pagination.Total)

	resp = s.do(t, http.MethodDelete, "/orders/"+o.OrderID, admin, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	resp = s.do(t, http.MethodDelete, "/orders/"+o.OrderID, admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestOrderCreate_Errors(t *testing.T) {
	s := newTestServer(t)
	member := s.token(t, "member-1", auth.RoleMember)
	tk := s.seedTicket(t, 1)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing ticket", map[string]any{"quantity": 1}, http.StatusBadRequest},
		{"zero quantity", map[string]any{"ticket": tk.ID, "quantity": 0}, http.StatusBadRequest},
		{"unknown ticket", map[string]any{"ticket": uuid.NewString(), "quantity": 1}, http.StatusNotFound},
		{"not enough stock", map[string]any{"ticket": tk.ID, "quantity": 2}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, http.MethodPost, "/orders", member, tt.body)
			assert.Equal(t, tt.want, resp.Code, resp.Message)
		})
	}
}

func TestOrderCancelThenComplete(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "admin-1", auth.RoleAdmin)
	member := s.token(t, "member-1", auth.RoleMember)
	tk := s.seedTicket(t, 5)

	resp := s.do(t, http.MethodPost, "/orders", member, map[string]any{"ticket": tk.ID, "quantity": 1})
	require.Equal(t, http.StatusOK, resp.Code)
	o := decode[order.Order](t, resp.Data)

	resp = s.do(t, http.MethodPut, "/orders/"+o.OrderID+"/cancelled", admin, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = s.do(t, http.MethodPut, "/orders/"+o.OrderID+"/completed", member, nil)
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "order already cancelled", resp.Message)

	stock, err := s.tickets.FindByID(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stock.Quantity)
}

// ============================================
// Media Tests
// ============================================

func multipartRequest(t *testing.T, path, token, field string, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestMediaUpload(t *testing.T) {
	s := newTestServer(t)
	member := s.token(t, "member-1", auth.RoleMember)

	resp := s.serve(t, multipartRequest(t, "/media/upload-single", member, "file", map[string]string{"a.png": "png-bytes"}))
	require.Equal(t, http.StatusOK, resp.Code, resp.Message)
	result := decode[media.Result](t, resp.Data)
	assert.Equal(t, "a.png", result.Name)
	assert.EqualValues(t, len("png-bytes"), result.Size)

	resp = s.serve(t, multipartRequest(t, "/media/upload-multiple", member, "files", map[string]string{"a.png": "1", "b.png": "2"}))
	require.Equal(t, http.StatusOK, resp.Code, resp.Message)
	assert.Len(t, decode[[]media.Result](t, resp.Data), 2)

	resp = s.serve(t, multipartRequest(t, "/media/upload-single", member, "other", map[string]string{"a.png": "x"}))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = s.do(t, http.MethodDelete, "/media/remove", member, map[string]string{"fileUrl": result.URL})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{result.URL}, s.uploader.removed)

	resp = s.do(t, http.MethodDelete, "/media/remove", member, map[string]string{"fileUrl": "not a url"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestMediaUpload_TooLarge(t *testing.T) {
	s := newTestServer(t)
	member := s.token(t, "member-1", auth.RoleMember)
	big := string(bytes.Repeat([]byte("x"), 4<<10))

	resp := s.serve(t, multipartRequest(t, "/media/upload-single", member, "file", map[string]string{"big.png": big}))

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
	assert.Empty(t, s.uploader.uploaded)
}
