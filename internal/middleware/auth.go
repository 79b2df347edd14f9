package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"github.com/lmezzz/hms-api/internal/model"
	"github.com/lmezzz/hms-api/internal/repository"
	"github.com/lmezzz/hms-api/pkg/auth"
	apperr "github.com/lmezzz/hms-api/pkg/errors"
	"github.com/lmezzz/hms-api/pkg/httputil"
)

// Context keys set by Authenticate.
const (
	CtxUserID   = "userID"
	CtxUsername = "username"
	CtxRole     = "role"
)

type AuthMiddleware struct {
	jwt   auth.JWTService
	users repository.UserRepository
	// userCache keeps recently seen accounts so a dashboard refresh does
	// not hit the users table once per request.
	userCache *cache.Cache
}

func NewAuthMiddleware(jwt auth.JWTService, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwt:       jwt,
		users:     users,
		userCache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

// Authenticate verifies the bearer token and loads the account. Deactivated
// accounts are rejected even while their tokens are still unexpired.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			httputil.RespondWithError(c, apperr.Unauthorized(errors.New("missing authorization header")))
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.RespondWithError(c, apperr.Unauthorized(errors.New("invalid authorization format")))
			c.Abort()
			return
		}

		claims, err := m.jwt.ValidateToken(parts[1])
		if err != nil {
			httputil.RespondWithError(c, apperr.Unauthorized(err))
			c.Abort()
			return
		}

		user, err := m.lookupUser(c, claims.UserID)
		if err != nil {
			httputil.RespondWithError(c, err)
			c.Abort()
			return
		}
		if !user.IsActive {
			httputil.RespondWithError(c, apperr.Unauthorized(errors.New("account is deactivated")))
			c.Abort()
			return
		}

		c.Set(CtxUserID, user.ID)
		c.Set(CtxUsername, user.Username)
		c.Set(CtxRole, user.RoleName)
		c.Next()
	}
}

// RequireRoles allows only the listed roles past. Admin is always allowed.
func (m *AuthMiddleware) RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxRole)
		if role == model.RoleAdmin {
			c.Next()
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		httputil.RespondWithError(c, apperr.Forbidden("insufficient role"))
		c.Abort()
	}
}

func (m *AuthMiddleware) lookupUser(c *gin.Context, id int64) (*model.User, error) {
	key := fmt.Sprintf("user:%d", id)
	if cached, ok := m.userCache.Get(key); ok {
		return cached.(*model.User), nil
	}

	user, err := m.users.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized(errors.New("account no longer exists"))
		}
		return nil, apperr.Storage(fmt.Errorf("failed to get user: %w", err))
	}
	m.userCache.SetDefault(key, user)
	return user, nil
}

// UserID returns the authenticated user's ID from the request context.
func UserID(c *gin.Context) int64 {
	v, _ := c.Get(CtxUserID)
	id, _ := v.(int64)
	return id
}
