package blocks

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/profilehub/profilehub/internal/access"
	"github.com/profilehub/profilehub/internal/domain/block"
	"github.com/profilehub/profilehub/internal/observability"
)

type Store interface {
	CreateBlock(ctx context.Context, b block.TextBlock) error
	GetBlockBySearchName(ctx context.Context, searchName string) (block.TextBlock, error)
	// group == "" lists everything.
	ListBlocks(ctx context.Context, group string) ([]block.TextBlock, error)
	UpdateBlock(ctx context.Context, searchName string, apply func(current block.TextBlock) block.TextBlock) (block.TextBlock, error)
	DeleteBlock(ctx context.Context, searchName string) error
}

// FileStore persists uploaded block images. The block only keeps the stored
// name the FileStore hands back.
type FileStore interface {
	Save(filename string, data []byte) (string, error)
	Remove(storedName string) error
}

// Service manages display content blocks. Reads are open to any
// authenticated caller; mutations are gated on the operation minimum.
type Service struct {
	store    Store
	files    FileStore
	minValue int
	prom     *observability.Prom
}

func NewService(store Store, files FileStore, minValue int, prom *observability.Prom) *Service {
	if minValue <= 0 {
		minValue = access.MinRoleMutationValue
	}

	return &Service{store: store, files: files, minValue: minValue, prom: prom}
}

func (s *Service) guard(op string, actor access.Actor) error {
	allowed := access.MeetsMinimum(actor.RoleValue, s.minValue)

	if s.prom != nil {
		s.prom.Decision(op, allowed)
	}

	if !allowed {
		return access.ErrForbidden
	}

	return nil
}

func (s *Service) Create(ctx context.Context, actor access.Actor, req block.CreateBlockRequest, imageName string, imageData []byte) (block.TextBlock, error) {
	err := s.guard("blocks.create", actor)

	if err != nil {
		return block.TextBlock{}, err
	}

	stored := ""

	if len(imageData) > 0 && s.files != nil {
		stored, err = s.files.Save(imageName, imageData)

		if err != nil {
			return block.TextBlock{}, err
		}
	}

	now := time.Now().UTC()

	b := block.TextBlock{
		ID:         uuid.NewString(),
		SearchName: req.SearchName,
		Name:       req.Name,
		Text:       req.Text,
		Group:      req.Group,
		Image:      stored,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.store.CreateBlock(ctx, b)

	if err != nil {
		// do not leave an orphaned upload behind
		if stored != "" && s.files != nil {
			_ = s.files.Remove(stored)
		}

		return block.TextBlock{}, err
	}

	return b, nil
}

func (s *Service) Get(ctx context.Context, searchName string) (block.TextBlock, error) {
	return s.store.GetBlockBySearchName(ctx, searchName)
}

func (s *Service) List(ctx context.Context, group string) ([]block.TextBlock, error) {
	return s.store.ListBlocks(ctx, group)
}

func (s *Service) Update(ctx context.Context, actor access.Actor, searchName string, req block.UpdateBlockRequest) (block.TextBlock, error) {
	err := s.guard("blocks.update", actor)

	if err != nil {
		return block.TextBlock{}, err
	}

	return s.store.UpdateBlock(ctx, searchName, func(current block.TextBlock) block.TextBlock {
		if req.Name != nil {
			current.Name = *req.Name
		}
		if req.Text != nil {
			current.Text = *req.Text
		}
		if req.Group != nil {
			current.Group = *req.Group
		}
		current.UpdatedAt = time.Now().UTC()

		return current
	})
}

func (s *Service) Delete(ctx context.Context, actor access.Actor, searchName string) error {
	err := s.guard("blocks.delete", actor)

	if err != nil {
		return err
	}

	b, err := s.store.GetBlockBySearchName(ctx, searchName)

	if err != nil {
		return err
	}

	err = s.store.DeleteBlock(ctx, searchName)

	if err != nil {
		return err
	}

	if b.Image != "" && s.files != nil {
		_ = s.files.Remove(b.Image)
	}

	return nil
}
