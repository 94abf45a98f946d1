package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued access token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// Actor is the authenticated caller a service acts on behalf of.
type Actor struct {
	ID   string
	Name string
	Role Role
}

// ActorFromClaims extracts the acting user from token claims.
func ActorFromClaims(c *JWTClaims) Actor {
	if c == nil {
		return Actor{}
	}
	name := c.FullName
	if name == "" {
		name = c.Username
	}
	return Actor{ID: c.UserID, Name: name, Role: c.Role}
}
