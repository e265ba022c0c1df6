package blocks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/profilehub/profilehub/internal/access"
	"github.com/profilehub/profilehub/internal/blocks"
	"github.com/profilehub/profilehub/internal/domain/block"
	"github.com/profilehub/profilehub/internal/domain/role"
	"github.com/profilehub/profilehub/internal/repo/memory"
)

type fakeFileStore struct {
	saved   []string
	removed []string
	saveErr error
}

func (f *fakeFileStore) Save(filename string, data []byte) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}

	stored := "stored-" + filename
	f.saved = append(f.saved, stored)
	return stored, nil
}

func (f *fakeFileStore) Remove(storedName string) error {
	f.removed = append(f.removed, storedName)
	return nil
}

func adminActor() access.Actor {
	return access.Actor{UserID: "u-admin", RoleName: role.NameAdmin, RoleValue: role.ValueAdmin}
}

func userActor() access.Actor {
	return access.Actor{UserID: "u-user", RoleName: role.NameUser, RoleValue: role.ValueUser}
}

func TestBlockMutationsRequireMinimum(t *testing.T) {
	svc := blocks.NewService(memory.NewStore(), &fakeFileStore{}, 10, nil)

	_, err := svc.Create(context.Background(), userActor(), block.CreateBlockRequest{
		SearchName: "hero",
		Name:       "Hero",
		Text:       "Welcome",
	}, "", nil)

	if !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("USER create err = %v, want ErrForbidden", err)
	}

	name := "renamed"

	if _, err := svc.Update(context.Background(), userActor(), "hero", block.UpdateBlockRequest{Name: &name}); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("USER update err = %v, want ErrForbidden", err)
	}

	if err := svc.Delete(context.Background(), userActor(), "hero"); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("USER delete err = %v, want ErrForbidden", err)
	}
}

func TestBlockLifecycleWithImage(t *testing.T) {
	files := &fakeFileStore{}
	svc := blocks.NewService(memory.NewStore(), files, 10, nil)

	created, err := svc.Create(context.Background(), adminActor(), block.CreateBlockRequest{
		SearchName: "hero",
		Name:       "Hero",
		Text:       "Welcome",
		Group:      "landing",
	}, "banner.png", []byte{0x89, 0x50})

	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if created.Image != "stored-banner.png" {
		t.Fatalf("image = %q, want the stored name", created.Image)
	}

	// reads are open to any authenticated caller
	got, err := svc.Get(context.Background(), "hero")

	if err != nil || got.ID != created.ID {
		t.Fatalf("get: %v %+v", err, got)
	}

	listed, err := svc.List(context.Background(), "landing")

	if err != nil || len(listed) != 1 {
		t.Fatalf("list by group: %v, %d items", err, len(listed))
	}

	other, err := svc.List(context.Background(), "nope")

	if err != nil || len(other) != 0 {
		t.Fatalf("list unknown group: %v, %d items", err, len(other))
	}

	if err := svc.Delete(context.Background(), adminActor(), "hero"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if len(files.removed) != 1 || files.removed[0] != "stored-banner.png" {
		t.Fatalf("image not cleaned up, removed=%v", files.removed)
	}
}

func TestCreateDuplicateRemovesOrphanUpload(t *testing.T) {
	files := &fakeFileStore{}
	store := memory.NewStore()
	svc := blocks.NewService(store, files, 10, nil)

	req := block.CreateBlockRequest{SearchName: "hero", Name: "Hero", Text: "x"}

	if _, err := svc.Create(context.Background(), adminActor(), req, "", nil); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.Create(context.Background(), adminActor(), req, "again.png", []byte{1})

	if !errors.Is(err, block.ErrDuplicateSearchName) {
		t.Fatalf("err = %v, want ErrDuplicateSearchName", err)
	}

	if len(files.removed) != 1 {
		t.Fatalf("orphaned upload not removed, removed=%v", files.removed)
	}
}
