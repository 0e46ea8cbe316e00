package api

import (
	"net/http"
	"time"

	"github.com/example/event-ticketing/internal/api/middleware"
	"github.com/example/event-ticketing/internal/domain/user"
)

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	FullName        string `json:"fullName" validate:"required"`
	Username        string `json:"username" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6,hasupper,hasdigit"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// LoginRequest accepts an email or a username as identifier.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type ActivationRequest struct {
	Code string `json:"code" validate:"required"`
}

// UserResponse represents user data in responses. It never carries the
// password hash or the activation code.
type UserResponse struct {
	ID             string    `json:"id"`
	FullName       string    `json:"fullName"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	ProfilePicture string    `json:"profilePicture"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		FullName:       u.FullName,
		Username:       u.Username,
		Email:          u.Email,
		Role:           u.Role,
		ProfilePicture: u.ProfilePicture,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// Register handles user registration
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.validate(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.users.Register(r.Context(), user.RegisterInput{
		FullName:        req.FullName,
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, "success registration", toUserResponse(u))
}

// Login issues an access token and mirrors it into a cookie for browsers.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.validate(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.users.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, http.StatusOK, "success login", LoginResponse{Token: result.Token, ExpiresAt: result.ExpiresAt})
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Me(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "success get user profile", toUserResponse(u))
}

func (h *Handlers) Activation(w http.ResponseWriter, r *http.Request) {
	var req ActivationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.validate(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.users.Activate(r.Context(), req.Code)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "user successfully activated", toUserResponse(u))
}
