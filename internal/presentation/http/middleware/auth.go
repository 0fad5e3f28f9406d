package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kirtipatel215/IMS-sub000/internal/domain/user"
)

const principalKey = "portal.principal"

// BearerToken extracts the bearer token from the Authorization header.
// It returns "" when no usable token is present.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// SetPrincipal stashes the resolved principal on the request context.
func SetPrincipal(c *gin.Context, p *user.Principal) {
	c.Set(principalKey, p)
}

// GetPrincipal returns the principal resolved for this request, or nil for
// an anonymous request.
func GetPrincipal(c *gin.Context) *user.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*user.Principal)
	return p
}
