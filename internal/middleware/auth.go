package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"anoa.com/blogapp/internal/entity"
	"anoa.com/blogapp/internal/modules/auth/session"
	"anoa.com/blogapp/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	userContextKey   = "user"
	claimsContextKey = "session_claims"
)

var errNoToken = errors.New("authorization required")

type SessionValidator interface {
	Validate(ctx context.Context, token string) (*session.Claims, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*entity.User, error)
}

type AuthMiddleware struct {
	sessions   SessionValidator
	users      UserFinder
	cookieName string
}

func NewAuthMiddleware(sessions SessionValidator, users UserFinder, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		sessions:   sessions,
		users:      users,
		cookieName: cookieName,
	}
}

// RequireAuth rejects requests without a valid session.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := m.authenticate(c); err != nil {
			msg := "invalid or expired session"
			if errors.Is(err, errNoToken) {
				msg = err.Error()
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		c.Next()
	}
}

// OptionalAuth sets the user when a valid session is present and lets the
// request through either way.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = m.authenticate(c)
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			return
		}
		if !user.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": strings.ToLower(role) + " access required"})
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return m.RequireRole(entity.RoleAdmin)
}

func (m *AuthMiddleware) authenticate(c *gin.Context) error {
	token := m.tokenFromRequest(c)
	if token == "" {
		return errNoToken
	}

	ctx := c.Request.Context()
	claims, err := m.sessions.Validate(ctx, token)
	if err != nil {
		return err
	}
	userID, err := claims.UserID()
	if err != nil {
		return err
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsActive || user.SecurityStamp != claims.Stamp {
		return session.ErrInvalidToken
	}

	c.Set(response.UserIDKey, user.ID)
	c.Set(userContextKey, user)
	c.Set(claimsContextKey, claims)
	return nil
}

// tokenFromRequest reads the session cookie, then a bearer header, then
// the "token" query parameter used by websocket clients.
func (m *AuthMiddleware) tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(m.cookieName); err == nil && cookie != "" {
		return cookie
	}

	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}

	return c.Query("token")
}

func CurrentUser(c *gin.Context) (*entity.User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*entity.User)
	return user, ok
}

// SessionClaims returns the claims of the current session, or nil.
func SessionClaims(c *gin.Context) *session.Claims {
	v, ok := c.Get(claimsContextKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*session.Claims)
	return claims
}

// IsAdmin reports whether the current user has the Admin role.
func IsAdmin(c *gin.Context) bool {
	user, ok := CurrentUser(c)
	return ok && user.HasRole(entity.RoleAdmin)
}
