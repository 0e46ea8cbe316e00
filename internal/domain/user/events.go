package user

import "time"

const EventUserRegistered = "UserRegistered"

// UserRegistered is emitted when a new account awaits activation
type UserRegistered struct {
	UserID         string    `json:"user_id"`
	FullName       string    `json:"full_name"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	ActivationLink string    `json:"activation_link"`
	RegisteredAt   time.Time `json:"registered_at"`
}
