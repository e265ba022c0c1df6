package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/profilehub/profilehub/internal/access"
	"github.com/profilehub/profilehub/internal/bootstrap"
	"github.com/profilehub/profilehub/internal/config"
	"github.com/profilehub/profilehub/internal/domain/profile"
	"github.com/profilehub/profilehub/internal/domain/role"
	"github.com/profilehub/profilehub/internal/domain/user"
	"github.com/profilehub/profilehub/internal/http/middlewares"
)

type ProfileService interface {
	Register(ctx context.Context, req profile.RegistrationRequest) (user.User, role.Role, error)
	Get(ctx context.Context, actor access.Actor, email string) (profile.View, error)
	List(ctx context.Context, actor access.Actor) ([]profile.View, error)
	Update(ctx context.Context, actor access.Actor, email string, req profile.UpdateProfileRequest) (profile.View, error)
	Delete(ctx context.Context, actor access.Actor, email string) error
}

type ProfilesHandler struct {
	profiles ProfileService
	jwt      TokenIssuer
}

func NewProfilesHandler(profiles ProfileService, jwt TokenIssuer) *ProfilesHandler {
	return &ProfilesHandler{profiles: profiles, jwt: jwt}
}

// Register creates the account and its profile, then logs the caller straight
// in by returning a token.
func (h *ProfilesHandler) Register(ctx *gin.Context) {
	var req profile.RegistrationRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	u, r, err := h.profiles.Register(cctx, req)

	if err != nil {
		switch {
		case errors.Is(err, bootstrap.ErrNotInitialized):
			RespondNotInitialized(ctx)
		case errors.Is(err, user.ErrDuplicateEmail):
			RespondConflict(ctx, "email_taken", "Email is already in use.")
		default:
			RespondInternal(ctx, "Could not create the account")
		}

		return
	}

	token, err := h.jwt.GenerateToken(u.ID, u.Email, r.Name, r.Value)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"token": token,
	})
}

func (h *ProfilesHandler) List(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	views, err := h.profiles.List(cctx, actor)

	if err != nil {
		h.respondProfileError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, views)
}

func (h *ProfilesHandler) Get(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	view, err := h.profiles.Get(cctx, actor, ctx.Param("email"))

	if err != nil {
		h.respondProfileError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, view)
}

func (h *ProfilesHandler) Update(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req profile.UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	view, err := h.profiles.Update(cctx, actor, ctx.Param("email"), req)

	if err != nil {
		h.respondProfileError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, view)
}

func (h *ProfilesHandler) Delete(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	err := h.profiles.Delete(cctx, actor, ctx.Param("email"))

	if err != nil {
		h.respondProfileError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *ProfilesHandler) respondProfileError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, access.ErrForbidden):
		RespondForbidden(ctx, "Insufficient role for this operation")
	case errors.Is(err, profile.ErrNotFound):
		RespondNotFound(ctx, "Profile not found")
	default:
		RespondInternal(ctx, "Could not complete the profile operation")
	}
}
