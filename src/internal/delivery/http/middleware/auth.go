package middleware

import (
	"fmt"
	"strings"

	"ledger-service/src/pkg/log"
	"ledger-service/src/pkg/token"
	"ledger-service/src/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

const authLocalsKey = "auth"

// VerifyBearer decodes the bearer token issued by the auth service and stores
// its metadata on the request context. Token issuance itself is out of scope.
func VerifyBearer(cfg *viper.Viper, logger log.Log) fiber.Handler {
	secret := []byte(cfg.GetString("jwt.secret"))

	return func(ctx *fiber.Ctx) error {
		header := ctx.Get(fiber.HeaderAuthorization)
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			return utils.Response(nil, "missing bearer token", fiber.StatusUnauthorized, ctx)
		}

		claim := new(token.Claim)
		parsed, err := jwt.ParseWithClaims(raw, claim, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !parsed.Valid {
			logger.Warn("middleware/auth", fmt.Sprintf("token rejected: %v", err), "VerifyBearer", "")
			return utils.Response(nil, "invalid bearer token", fiber.StatusUnauthorized, ctx)
		}

		ctx.Locals(authLocalsKey, &claim.Metadata)
		return ctx.Next()
	}
}

// GetUser returns the authenticated user's metadata set by VerifyBearer.
func GetUser(ctx *fiber.Ctx) *token.Metadata {
	if auth, ok := ctx.Locals(authLocalsKey).(*token.Metadata); ok {
		return auth
	}
	return &token.Metadata{}
}

// RoleInternal marks service-account tokens allowed onto the operator surface.
const RoleInternal = "internal"

// RequireInternal rejects tokens without the internal role. The ledger
// primitive endpoints take the target wallet from the request body, so they
// must never be reachable with an ordinary user token.
func RequireInternal(logger log.Log) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		auth := GetUser(ctx)
		if auth.Role != RoleInternal {
			logger.Warn("middleware/auth", fmt.Sprintf("user %d denied operator access", auth.UserID), "RequireInternal", ctx.Path())
			return utils.Response(nil, "operator role required", fiber.StatusForbidden, ctx)
		}
		return ctx.Next()
	}
}
