package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/pethub/internal/config"
	"github.com/geocoder89/pethub/internal/domain/user"
	"github.com/geocoder89/pethub/internal/security"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

type TokenIssuer interface {
	GenerateAccessToken(userID int64, email string) (string, error)
}

type AuthHandler struct {
	users   UserStore
	tokens  TokenIssuer
	log     *slog.Logger
	cost    int
	timeout time.Duration
}

func NewAuthHandler(users UserStore, tokens TokenIssuer, cfg config.Config, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}

	return &AuthHandler{
		users:   users,
		tokens:  tokens,
		log:     log,
		cost:    cfg.BcryptCost,
		timeout: cfg.DownstreamTimeout,
	}
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req user.SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	_, err := h.users.GetByEmail(cctx, req.Email)
	switch {
	case err == nil:
		RespondConflict(ctx, "conflict", "User already exists")
		return
	case !errors.Is(err, user.ErrNotFound):
		respondDownstreamErr(ctx, h.log, "Could not create user", err)
		return
	}

	hash, err := security.HashPassword(req.Password, h.cost)
	if err != nil {
		RespondInternalErr(ctx, "Could not create user", err)
		return
	}

	created, err := h.users.Create(cctx, user.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
		Email:        req.Email,
		PasswordHash: hash,
	})

	if err != nil {
		// lost a race with a concurrent signup for the same email
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "conflict", "User already exists")
			return
		}

		respondDownstreamErr(ctx, h.log, "Could not create user", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User created successfully",
		"user":    created.Summary(),
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	found, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		respondDownstreamErr(ctx, h.log, "Could not log in", err)
		return
	}

	if err := security.CheckPassword(found.PasswordHash, req.Password); err != nil {
		RespondUnAuthorized(ctx, "unauthorized", "Wrong password")
		return
	}

	token, err := h.tokens.GenerateAccessToken(found.ID, found.Email)
	if err != nil {
		RespondInternalErr(ctx, "Could not generate access token", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  found.Summary(),
	})
}

// withTimeout bounds a downstream call by d while still honoring client
// cancellation of the request.
func withTimeout(ctx *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 3 * time.Second
	}
	return context.WithTimeout(ctx.Request.Context(), d)
}
