package token

import "github.com/golang-jwt/jwt/v5"

// Claim is the bearer-token payload issued by the (out-of-scope) auth service.
type Claim struct {
	Metadata Metadata `json:"metadata"`
	jwt.RegisteredClaims
}

type Metadata struct {
	UserID   uint64 `json:"user_id"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}
