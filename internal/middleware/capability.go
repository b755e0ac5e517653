package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ciecnow/backend/internal/models"
	"github.com/ciecnow/backend/internal/permissions"
	"github.com/ciecnow/backend/internal/store"
	"github.com/ciecnow/backend/pkg/response"
)

// ProfileLoader reads the caller's profile.
type ProfileLoader interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
}

// Profile loads the caller's profile after JWT so approval and role changes apply without a new token.
func Profile(profiles ProfileLoader, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		id := UserID(c)
		if id == uuid.Nil {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		p, err := profiles.GetProfile(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Unauthorized(c, "unknown user")
			} else {
				logger.Error("load profile", zap.String("user_id", id.String()), zap.Error(err))
				response.Internal(c, "failed to load profile")
			}
			c.Abort()
			return
		}
		c.Set(ContextProfile, p)
		c.Next()
	}
}

// CurrentProfile returns the profile set by Profile, or nil.
func CurrentProfile(c *gin.Context) *models.UserProfile {
	v, _ := c.Get(ContextProfile)
	p, _ := v.(*models.UserProfile)
	return p
}

// Subject returns the capability subject for the caller.
func Subject(c *gin.Context) permissions.Subject {
	return permissions.ForProfile(CurrentProfile(c))
}

// RequireCapability allows the request only when the caller may perform action on resource.
func RequireCapability(action permissions.Action, resource permissions.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := CurrentProfile(c)
		if p == nil {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		if !permissions.ForProfile(p).Can(action, resource) {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
