package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/profilehub/profilehub/internal/access"
	"github.com/profilehub/profilehub/internal/config"
	"github.com/profilehub/profilehub/internal/domain/block"
	"github.com/profilehub/profilehub/internal/http/middlewares"
)

type BlockService interface {
	Create(ctx context.Context, actor access.Actor, req block.CreateBlockRequest, imageName string, imageData []byte) (block.TextBlock, error)
	Get(ctx context.Context, searchName string) (block.TextBlock, error)
	List(ctx context.Context, group string) ([]block.TextBlock, error)
	Update(ctx context.Context, actor access.Actor, searchName string, req block.UpdateBlockRequest) (block.TextBlock, error)
	Delete(ctx context.Context, actor access.Actor, searchName string) error
}

type BlocksHandler struct {
	blocks BlockService
}

func NewBlocksHandler(svc BlockService) *BlocksHandler {
	return &BlocksHandler{blocks: svc}
}

// Create accepts JSON or a multipart form with an optional image part.
func (h *BlocksHandler) Create(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req block.CreateBlockRequest

	if !Bind(ctx, &req) {
		return
	}

	imageName, imageData, ok := readImagePart(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)

	defer cancel()

	created, err := h.blocks.Create(cctx, actor, req, imageName, imageData)

	if err != nil {
		h.respondBlockError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (h *BlocksHandler) Get(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	b, err := h.blocks.Get(cctx, ctx.Param("searchName"))

	if err != nil {
		h.respondBlockError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, b)
}

func (h *BlocksHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	items, err := h.blocks.List(cctx, ctx.Query("group"))

	if err != nil {
		RespondInternal(ctx, "Could not list text blocks")
		return
	}

	ctx.JSON(http.StatusOK, items)
}

func (h *BlocksHandler) Update(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req block.UpdateBlockRequest

	if !Bind(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	updated, err := h.blocks.Update(cctx, actor, ctx.Param("searchName"), req)

	if err != nil {
		h.respondBlockError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *BlocksHandler) Delete(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	err := h.blocks.Delete(cctx, actor, ctx.Param("searchName"))

	if err != nil {
		h.respondBlockError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// readImagePart pulls the optional "image" part out of a multipart form. The
// bool reports whether processing may continue.
func readImagePart(ctx *gin.Context) (string, []byte, bool) {
	header, err := ctx.FormFile("image")

	if err != nil {
		// plain JSON bodies and forms without an image land here
		return "", nil, true
	}

	f, err := header.Open()

	if err != nil {
		RespondBadRequest(ctx, "Could not read the uploaded image", nil)
		return "", nil, false
	}

	defer f.Close()

	data, err := io.ReadAll(f)

	if err != nil {
		RespondBadRequest(ctx, "Could not read the uploaded image", nil)
		return "", nil, false
	}

	return header.Filename, data, true
}

func (h *BlocksHandler) respondBlockError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, access.ErrForbidden):
		RespondForbidden(ctx, "Insufficient role for this operation")
	case errors.Is(err, block.ErrNotFound):
		RespondNotFound(ctx, "Text block not found")
	case errors.Is(err, block.ErrDuplicateSearchName):
		RespondConflict(ctx, "search_name_taken", "Search name already exists.")
	default:
		RespondInternal(ctx, "Could not complete the text block operation")
	}
}
