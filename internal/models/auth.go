package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles attached to gateway-issued tokens.
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleInstructor UserRole = "INSTRUCTOR"
	RoleStudent    UserRole = "STUDENT"
)

// JWTClaims represents the access token payload issued by the gateway.
// The core trusts these claims; it never issues tokens itself.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	jwt.RegisteredClaims
}
