package transfer

import "github.com/golang-jwt/jwt/v5"

// CustomClaims are the session token claims minted at login.
type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
