package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is the profile document kept in the users collection
type User struct {
	ID        string `json:"id"`
	AccountID string `json:"accountId"` // Auth account backing this profile
	Name      string `json:"name"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	ImageURL  string `json:"imageUrl"`
}

// Account is the auth-side record created by the backend
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session is a signed-in session handed to the client
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewUser defines the request body for creating an account
type NewUser struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Username string `json:"username" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// SignInRequest defines the request body for creating a session
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}
