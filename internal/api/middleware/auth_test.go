package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/event-ticketing/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-testing-purposes"

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(testSecret, 15*time.Minute)
}

func captureClaims(out **auth.Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := GetUserFromContext(r.Context()); ok {
			*out = claims
		}
		w.WriteHeader(http.StatusOK)
	})
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestAuthMiddleware_ValidToken_Header(t *testing.T) {
	jwtService := newTestJWTService()
	token, _, err := jwtService.GenerateAccessToken("user-123", auth.RoleMember)
	require.NoError(t, err)

	var captured *auth.Claims
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtService)(captureClaims(&captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "user-123", captured.UserID)
	assert.Equal(t, auth.RoleMember, captured.Role)
}

func TestAuthMiddleware_ValidToken_Cookie(t *testing.T) {
	jwtService := newTestJWTService()
	token, _, err := jwtService.GenerateAccessToken("user-456", auth.RoleAdmin)
	require.NoError(t, err)

	var captured *auth.Claims
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtService)(captureClaims(&captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "user-456", captured.UserID)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	jwtService := newTestJWTService()
	expired, _, err := auth.NewJWTService(testSecret, -time.Minute).GenerateAccessToken("user-123", auth.RoleMember)
	require.NoError(t, err)
	foreign, _, err := auth.NewJWTService("another-secret-key-for-other-tests", time.Hour).GenerateAccessToken("user-123", auth.RoleMember)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"no token", "", "unauthorized"},
		{"garbage", "Bearer invalid-token", "invalid token"},
		{"expired", "Bearer " + expired, "token expired"},
		{"wrong signature", "Bearer " + foreign, "invalid token"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(jwtService)(okHandler).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body["message"])
			assert.Contains(t, body, "data")
			assert.Nil(t, body["data"])
		})
	}
}

func TestAuthMiddleware_CookieTakesPrecedence(t *testing.T) {
	jwtService := newTestJWTService()
	cookieToken, _, _ := jwtService.GenerateAccessToken("cookie-user", auth.RoleMember)
	headerToken, _, _ := jwtService.GenerateAccessToken("header-user", auth.RoleAdmin)

	var captured *auth.Claims
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: cookieToken})
	req.Header.Set("Authorization", "Bearer "+headerToken)
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtService)(captureClaims(&captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "cookie-user", captured.UserID)
}

// ============================================
// Require Role Middleware Tests
// ============================================

func withClaims(role string) context.Context {
	return WithClaims(context.Background(), &auth.Claims{UserID: "user-123", Role: role})
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want int
	}{
		{"admin allowed", withClaims(auth.RoleAdmin), http.StatusOK},
		{"member allowed", withClaims(auth.RoleMember), http.StatusOK},
		{"unknown role", withClaims("guest"), http.StatusForbidden},
		{"no claims", context.Background(), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/orders", nil).WithContext(tt.ctx)
			rec := httptest.NewRecorder()

			RequireRole(auth.RoleAdmin, auth.RoleMember)(okHandler).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireRole_AdminOnly(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/orders/ORD-1", nil).WithContext(withClaims(auth.RoleMember))
	rec := httptest.NewRecorder()

	RequireRole(auth.RoleAdmin)(okHandler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "forbidden")
}

// ============================================
// Helper Functions Tests
// ============================================

func TestContextHelpers(t *testing.T) {
	ctx := withClaims(auth.RoleAdmin)

	claims, ok := GetUserFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "user-123", GetUserID(ctx))
	assert.True(t, IsAdmin(ctx))
	assert.False(t, IsAdmin(withClaims(auth.RoleMember)))
}

func TestContextHelpers_NoClaims(t *testing.T) {
	ctx := context.Background()

	result, ok := GetUserFromContext(ctx)
	assert.False(t, ok)
	assert.Nil(t, result)
	assert.Empty(t, GetUserID(ctx))
	assert.False(t, IsAdmin(ctx))
}
