package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenClaims is the typed JWT carried by director requests. Auth
// issuance lives outside this service; we only verify and extract identity.
type AccessTokenClaims struct {
	DirectorID uuid.UUID `json:"director_id"`
	jwt.RegisteredClaims
}
