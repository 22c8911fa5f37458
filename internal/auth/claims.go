package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the only supported JWT claims shape for this service.
//
// Subject carries the login username. SubjectID carries the stable account id
// and is the only claim consumers may address or authorize by. Tokens minted
// before SubjectID existed lack it; such tokens are rejected for any
// identity-sensitive operation and the holder must re-login.
type Claims struct {
	jwt.RegisteredClaims

	SubjectID string `json:"user_id,omitempty"`
}
