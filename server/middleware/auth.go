package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/hybridstt/auth"
	"github.com/kbukum/hybridstt/auth/authctx"
	"github.com/kbukum/hybridstt/errors"
	"github.com/kbukum/hybridstt/logger"
)

// HeaderAPIKey is the API-key request header.
const HeaderAPIKey = "X-API-Key"

// PrincipalKey is the gin context key holding the *auth.Principal.
const PrincipalKey = "principal"

// AuthConfig configures the authentication middleware.
type AuthConfig struct {
	Registry *auth.Registry
	// SkipPaths bypass authentication (exact match).
	SkipPaths []string
}

// Auth accepts either an X-API-Key header or an Authorization: Bearer token,
// whichever scheme the registry holds a validator for. The resulting
// principal is stored in the request context via authctx.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}
	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		scheme, token := credentials(c)
		if scheme == "" {
			unauthorized(c, "missing credentials")
			return
		}
		validator, ok := cfg.Registry.Get(scheme)
		if !ok {
			unauthorized(c, "unsupported credential type")
			return
		}
		principal, err := validator.ValidateToken(token)
		if err != nil {
			logger.GetGlobalLogger().WithContext(c.Request.Context()).Debug("Authentication rejected", logger.Fields("scheme", scheme))
			unauthorized(c, "invalid credentials")
			return
		}

		ctx := authctx.Set(c.Request.Context(), principal)
		if principal.Subject != "" {
			ctx = logger.ContextWithUserID(ctx, principal.Subject)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

func credentials(c *gin.Context) (scheme, token string) {
	if key := c.GetHeader(HeaderAPIKey); key != "" {
		return auth.SchemeAPIKey, key
	}
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ""
	}
	return auth.SchemeJWT, strings.TrimSpace(parts[1])
}

func unauthorized(c *gin.Context, reason string) {
	e := errors.Unauthorized(reason)
	abort(c, e.HTTPStatus, e.ToResponse())
}
