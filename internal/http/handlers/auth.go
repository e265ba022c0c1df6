package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/profilehub/profilehub/internal/config"
	"github.com/profilehub/profilehub/internal/domain/role"
	"github.com/profilehub/profilehub/internal/domain/user"
	"github.com/profilehub/profilehub/internal/security"
)

type UserReader interface {
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
}

type RoleReader interface {
	GetRoleByName(ctx context.Context, name string) (role.Role, error)
}

type TokenIssuer interface {
	GenerateToken(userID, email, role string, roleValue int) (string, error)
}

type AuthHandler struct {
	users UserReader
	roles RoleReader
	jwt   TokenIssuer
}

func NewAuthHandler(users UserReader, roles RoleReader, jwt TokenIssuer) *AuthHandler {
	return &AuthHandler{
		users: users,
		roles: roles,
		jwt:   jwt,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a token carrying the caller's current
// rank. Unknown email and wrong password answer identically.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetUserByEmail(cctx, req.Email)
	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	userRole, err := h.roles.GetRoleByName(cctx, foundUser.Role)

	if err != nil {
		RespondInternal(ctx, "Could not resolve the account role")
		return
	}

	token, err := h.jwt.GenerateToken(foundUser.ID, foundUser.Email, userRole.Name, userRole.Value)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
	})
}
