package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/profilehub/profilehub/internal/bootstrap"
	"github.com/profilehub/profilehub/internal/config"
)

type Bootstrapper interface {
	Initialize(ctx context.Context, email, password string) (bool, error)
}

type InitHandler struct {
	controller Bootstrapper
}

func NewInitHandler(controller Bootstrapper) *InitHandler {
	return &InitHandler{controller: controller}
}

type InitRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Initialize performs the one-shot bootstrap. Calling it again after success
// is a no-op that still answers 201, so provisioning scripts can run it
// unconditionally.
func (h *InitHandler) Initialize(ctx *gin.Context) {
	var req InitRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)

	defer cancel()

	created, err := h.controller.Initialize(cctx, req.Email, req.Password)

	if err != nil {
		var policyErr *bootstrap.PolicyError

		if errors.As(err, &policyErr) {
			RespondValidation(ctx, []string{policyErr.Error()})
			return
		}

		RespondInternal(ctx, "Could not initialize the resource")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"initialized": true,
		"seeded":      created,
	})
}
