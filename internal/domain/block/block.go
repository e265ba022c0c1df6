package block

import (
	"errors"
	"time"
)

var (
	ErrNotFound            = errors.New("text block not found")
	ErrDuplicateSearchName = errors.New("search name already exists")
)

// TextBlock is a named chunk of display content with an optional stored image.
type TextBlock struct {
	ID         string    `json:"id"`
	SearchName string    `json:"searchName"`
	Name       string    `json:"name"`
	Text       string    `json:"text"`
	Group      string    `json:"group"`
	Image      string    `json:"image,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type CreateBlockRequest struct {
	SearchName string `json:"searchName" form:"searchName" binding:"required"`
	Name       string `json:"name" form:"name" binding:"required"`
	Text       string `json:"text" form:"text" binding:"required"`
	Group      string `json:"group" form:"group"`
}

type UpdateBlockRequest struct {
	Name  *string `json:"name" form:"name"`
	Text  *string `json:"text" form:"text"`
	Group *string `json:"group" form:"group"`
}
