package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/profilehub/profilehub/internal/access"
	"github.com/profilehub/profilehub/internal/cache"
	"github.com/profilehub/profilehub/internal/config"
	"github.com/profilehub/profilehub/internal/domain/role"
	"github.com/profilehub/profilehub/internal/http/middlewares"
)

type RoleService interface {
	Create(ctx context.Context, actor access.Actor, req role.CreateRoleRequest) (role.Role, error)
	GetByName(ctx context.Context, name string) (role.Role, error)
	List(ctx context.Context) ([]role.Role, error)
	Update(ctx context.Context, actor access.Actor, name string, req role.UpdateRoleRequest) (role.Role, error)
	Delete(ctx context.Context, actor access.Actor, name string) error
}

// RolesHandler serves the role hierarchy. Reads are public and sit behind a
// short TTL cache; every mutation clears it.
type RolesHandler struct {
	roles RoleService
	cache *cache.Cache
}

func NewRolesHandler(roles RoleService, c *cache.Cache) *RolesHandler {
	return &RolesHandler{roles: roles, cache: c}
}

const rolesListCacheKey = "roles:list"

func (h *RolesHandler) Create(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req role.CreateRoleRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	created, err := h.roles.Create(cctx, actor, req)

	if err != nil {
		h.respondRoleError(ctx, err)
		return
	}

	h.invalidate()

	ctx.JSON(http.StatusCreated, created)
}

func (h *RolesHandler) List(ctx *gin.Context) {
	if h.cache != nil {
		if cached, ok := h.cache.Get(rolesListCacheKey); ok {
			if roles, ok := cached.([]role.Role); ok {
				ctx.JSON(http.StatusOK, roles)
				return
			}
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	roles, err := h.roles.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list roles")
		return
	}

	if h.cache != nil {
		h.cache.Set(rolesListCacheKey, roles)
	}

	ctx.JSON(http.StatusOK, roles)
}

func (h *RolesHandler) GetByName(ctx *gin.Context) {
	name := ctx.Param("name")
	cacheKey := "roles:name:" + name

	if h.cache != nil {
		if cached, ok := h.cache.Get(cacheKey); ok {
			if r, ok := cached.(role.Role); ok {
				ctx.JSON(http.StatusOK, r)
				return
			}
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	r, err := h.roles.GetByName(cctx, name)

	if err != nil {
		h.respondRoleError(ctx, err)
		return
	}

	if h.cache != nil {
		h.cache.Set(cacheKey, r)
	}

	ctx.JSON(http.StatusOK, r)
}

func (h *RolesHandler) Update(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req role.UpdateRoleRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	updated, err := h.roles.Update(cctx, actor, ctx.Param("name"), req)

	if err != nil {
		h.respondRoleError(ctx, err)
		return
	}

	h.invalidate()

	ctx.JSON(http.StatusOK, updated)
}

func (h *RolesHandler) Delete(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	err := h.roles.Delete(cctx, actor, ctx.Param("name"))

	if err != nil {
		h.respondRoleError(ctx, err)
		return
	}

	h.invalidate()

	ctx.Status(http.StatusNoContent)
}

func (h *RolesHandler) invalidate() {
	if h.cache != nil {
		h.cache.Clear()
	}
}

func (h *RolesHandler) respondRoleError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, access.ErrForbidden):
		RespondForbidden(ctx, "Insufficient role for this operation")
	case errors.Is(err, role.ErrNotFound):
		RespondNotFound(ctx, "Role not found")
	case errors.Is(err, role.ErrDuplicateName):
		RespondConflict(ctx, "role_name_taken", "Role name already exists.")
	case errors.Is(err, role.ErrInUse):
		RespondConflict(ctx, "role_in_use", "Role is still assigned to accounts.")
	default:
		RespondInternal(ctx, "Could not complete the role operation")
	}
}
