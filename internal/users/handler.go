// Package users serves the caller's account and the administrator's user management screen.
package users

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ciecnow/backend/internal/auth"
	"github.com/ciecnow/backend/internal/middleware"
	"github.com/ciecnow/backend/internal/models"
	"github.com/ciecnow/backend/internal/store"
	"github.com/ciecnow/backend/pkg/queue"
	"github.com/ciecnow/backend/pkg/response"
	"github.com/ciecnow/backend/pkg/utils"
)

// InviteRequest is the body for POST /admin/users/invite.
type InviteRequest struct {
	Email    string          `json:"email" binding:"required,email"`
	FullName string          `json:"full_name"`
	Role     models.RoleName `json:"role" binding:"omitempty,oneof=admin editor viewer"`
}

// UpdateRequest is the body for PATCH /admin/users/:id. Nil fields are left unchanged.
type UpdateRequest struct {
	FullName *string          `json:"full_name"`
	Approved *bool            `json:"approved"`
	Role     *models.RoleName `json:"role" binding:"omitempty,oneof=admin editor viewer"`
}

// InviteNotifier queues the invitation sent to a new account.
type InviteNotifier interface {
	EnqueueUserInvite(ctx context.Context, payload queue.NotificationPayload) error
}

// Handler serves account and user management endpoints.
type Handler struct {
	accounts store.AccountStore
	resets   auth.ResetTokens
	notifier InviteNotifier
	logger   *zap.Logger
}

// NewHandler creates a users handler.
func NewHandler(accounts store.AccountStore, resets auth.ResetTokens, notifier InviteNotifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{accounts: accounts, resets: resets, notifier: notifier, logger: logger}
}

// Me handles GET /auth/me.
func (h *Handler) Me(c *gin.Context) {
	p := middleware.CurrentProfile(c)
	if p == nil {
		response.Unauthorized(c, "missing user context")
		return
	}
	response.OK(c, p)
}

// List handles GET /admin/users.
func (h *Handler) List(c *gin.Context) {
	list, err := h.accounts.ListProfiles(c.Request.Context())
	if err != nil {
		h.logger.Error("list profiles", zap.Error(err))
		response.Internal(c, "failed to list users")
		return
	}
	if list == nil {
		list = []models.UserProfile{}
	}
	response.OK(c, list)
}

// Roles handles GET /admin/roles.
func (h *Handler) Roles(c *gin.Context) {
	roles, err := h.accounts.ListRoles(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list roles")
		return
	}
	response.OK(c, roles)
}

func (h *Handler) roleID(ctx context.Context, name models.RoleName) (*int, error) {
	roles, err := h.accounts.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if r.Name == name {
			id := r.ID
			return &id, nil
		}
	}
	return nil, store.ErrNotFound
}

// Update handles PATCH /admin/users/:id: approve or disapprove, rename, set role.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if id == middleware.UserID(c) && (req.Approved != nil || req.Role != nil) {
		response.BadRequest(c, "cannot change your own approval or role")
		return
	}

	ctx := c.Request.Context()
	p, err := h.accounts.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.Internal(c, "failed to load user")
		return
	}
	if req.FullName != nil {
		p.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Approved != nil {
		p.Approved = *req.Approved
	}
	if req.Role != nil {
		roleID, err := h.roleID(ctx, *req.Role)
		if err != nil {
			response.BadRequest(c, "unknown role")
			return
		}
		p.RoleID = roleID
	}
	if err := h.accounts.UpdateProfile(ctx, p); err != nil {
		h.logger.Error("update profile", zap.String("user_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to update user")
		return
	}
	updated, err := h.accounts.GetProfile(ctx, id)
	if err != nil {
		response.Internal(c, "failed to load user")
		return
	}
	h.logger.Info("user updated",
		zap.String("user_id", id.String()),
		zap.Bool("approved", updated.Approved),
		zap.String("role", string(updated.RoleName)),
		zap.String("by", middleware.UserID(c).String()),
	)
	response.OK(c, updated)
}

// Invite handles POST /admin/users/invite. The account is created pending approval with an unusable
// password; the invitation carries a reset token so the invitee can choose one.
func (h *Handler) Invite(c *gin.Context) {
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))

	profile := &models.UserProfile{FullName: strings.TrimSpace(req.FullName), Invited: true}
	if req.Role != "" {
		roleID, err := h.roleID(ctx, req.Role)
		if err != nil {
			response.BadRequest(c, "unknown role")
			return
		}
		profile.RoleID = roleID
		profile.RoleName = req.Role
	}

	unusable, err := utils.HashPassword(uuid.NewString())
	if err != nil {
		response.Internal(c, "failed to prepare account")
		return
	}
	user := &models.User{Email: email, Password: unusable}
	if err := h.accounts.CreateUser(ctx, user, profile); err != nil {
		if errors.Is(err, store.ErrConflict) {
			response.Conflict(c, "email already registered")
			return
		}
		h.logger.Error("create invited user", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	token, err := h.resets.Issue(ctx, user.ID)
	if err != nil {
		h.logger.Error("issue invite token", zap.Error(err))
		response.Internal(c, "account created but the invitation could not be prepared")
		return
	}
	inviter := ""
	if p := middleware.CurrentProfile(c); p != nil {
		inviter = p.Email
	}
	if err := h.notifier.EnqueueUserInvite(ctx, queue.NotificationPayload{
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  profile.FullName,
		Role:      string(profile.RoleName),
		Token:     token,
		InvitedBy: inviter,
	}); err != nil {
		h.logger.Error("enqueue invite", zap.Error(err))
		response.BadGateway(c, "account created but the invitation could not be queued")
		return
	}
	h.logger.Info("user invited", zap.String("user_id", user.ID.String()), zap.String("by", inviter))
	response.Created(c, profile)
}
