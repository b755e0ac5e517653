package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ciecnow/backend/internal/models"
	"github.com/ciecnow/backend/internal/store"
	"github.com/ciecnow/backend/pkg/queue"
	"github.com/ciecnow/backend/pkg/response"
	"github.com/ciecnow/backend/pkg/utils"
)

// SignupRequest is the body for POST /auth/signup.
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	FullName string `json:"full_name" binding:"required"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ResetRequest is the body for POST /auth/password/reset.
type ResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ConfirmResetRequest is the body for POST /auth/password/confirm.
type ConfirmResetRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token   string             `json:"token"`
	Profile models.UserProfile `json:"profile"`
}

// ResetNotifier queues the password reset notice.
type ResetNotifier interface {
	EnqueuePasswordReset(ctx context.Context, payload queue.NotificationPayload) error
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	accounts store.AccountStore
	jwt      *JWTService
	resets   ResetTokens
	notifier ResetNotifier
	logger   *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(accounts store.AccountStore, jwt *JWTService, resets ResetTokens, notifier ResetNotifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{accounts: accounts, jwt: jwt, resets: resets, notifier: notifier, logger: logger}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup handles POST /auth/signup. New accounts wait for an administrator's approval.
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	email := normalizeEmail(req.Email)

	if _, err := h.accounts.GetUserByEmail(c.Request.Context(), email); err == nil {
		response.Conflict(c, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user := &models.User{Email: email, Password: hash}
	profile := &models.UserProfile{FullName: strings.TrimSpace(req.FullName)}
	if err := h.accounts.CreateUser(c.Request.Context(), user, profile); err != nil {
		if errors.Is(err, store.ErrConflict) {
			response.Conflict(c, "email already registered")
			return
		}
		h.logger.Error("create user", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	h.logger.Info("user signed up", zap.String("user_id", user.ID.String()))
	response.Created(c, TokenResponse{Token: token, Profile: *profile})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.accounts.GetUserByEmail(c.Request.Context(), normalizeEmail(req.Email))
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	profile, err := h.accounts.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("load profile", zap.String("user_id", user.ID.String()), zap.Error(err))
		response.Internal(c, "failed to load profile")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.OK(c, TokenResponse{Token: token, Profile: *profile})
}

// RequestReset handles POST /auth/password/reset. The answer does not reveal whether the email exists.
func (h *Handler) RequestReset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	user, err := h.accounts.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.logger.Error("lookup user for reset", zap.Error(err))
		}
		response.OK(c, gin.H{"requested": true})
		return
	}

	token, err := h.resets.Issue(ctx, user.ID)
	if err != nil {
		h.logger.Error("issue reset token", zap.Error(err))
		response.Internal(c, "failed to issue reset token")
		return
	}
	if err := h.notifier.EnqueuePasswordReset(ctx, queue.NotificationPayload{
		UserID: user.ID,
		Email:  user.Email,
		Token:  token,
	}); err != nil {
		h.logger.Error("enqueue reset notice", zap.Error(err))
		response.Internal(c, "failed to queue reset notice")
		return
	}
	response.OK(c, gin.H{"requested": true})
}

// ConfirmReset handles POST /auth/password/confirm.
func (h *Handler) ConfirmReset(c *gin.Context) {
	var req ConfirmResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	userID, err := h.resets.Consume(ctx, req.Token)
	if err != nil {
		if errors.Is(err, ErrResetTokenInvalid) {
			response.BadRequest(c, err.Error())
			return
		}
		h.logger.Error("consume reset token", zap.Error(err))
		response.Internal(c, "failed to read reset token")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}
	if err := h.accounts.UpdatePassword(ctx, userID, hash); err != nil {
		h.logger.Error("update password", zap.String("user_id", userID.String()), zap.Error(err))
		response.Internal(c, "failed to update password")
		return
	}
	response.OK(c, gin.H{"updated": true})
}
