package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a staff member.
type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates a staff account and signs it in. An empty role means TEACHER.
type RegisterRequest struct {
	Name     string    `json:"name" validate:"required"`
	Login    string    `json:"login" validate:"required"`
	Password string    `json:"password" validate:"required,min=6"`
	Sex      string    `json:"sex" validate:"required"`
	Phone    string    `json:"phone" validate:"required"`
	Role     StaffRole `json:"role"`
}

// AuthResponse returns the issued token and staff identity.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expires_in"`
	IssuedAt  time.Time `json:"issued_at"`
	StaffCode string    `json:"staff_code"`
	Name      string    `json:"name"`
	Role      StaffRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	StaffCode string    `json:"staff_code"`
	Login     string    `json:"login"`
	Role      StaffRole `json:"role"`
	jwt.RegisteredClaims
}
