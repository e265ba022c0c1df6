package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/profilehub/profilehub/internal/access"
	"github.com/profilehub/profilehub/internal/config"
	"github.com/profilehub/profilehub/internal/domain/role"
	"github.com/profilehub/profilehub/internal/domain/user"
	"github.com/profilehub/profilehub/internal/http/middlewares"
)

type UserService interface {
	AssignRole(ctx context.Context, actor access.Actor, req user.AssignRoleRequest) (user.User, error)
}

type UsersHandler struct {
	users UserService
}

func NewUsersHandler(users UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// AssignRole hands the named role to the target account. The change shows up
// in tokens issued from the next login on.
func (h *UsersHandler) AssignRole(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req user.AssignRoleRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	updated, err := h.users.AssignRole(cctx, actor, req)

	if err != nil {
		switch {
		case errors.Is(err, access.ErrForbidden):
			RespondForbidden(ctx, "Insufficient role for this operation")
		case errors.Is(err, role.ErrNotFound):
			RespondNotFound(ctx, "Role not found")
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		default:
			RespondInternal(ctx, "Could not assign the role")
		}

		return
	}

	ctx.JSON(http.StatusCreated, updated)
}
