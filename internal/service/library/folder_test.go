package library

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"

	"valvx/internal/domain"
	"valvx/internal/domain/models"
	"valvx/internal/domain/services"
	"valvx/internal/events"
	"valvx/internal/httputil"
)

func TestCreateFolder_UniqueNames(t *testing.T) {
	c := qt.New(t)
	lib := newTestLibrary(c)

	first := lib.mkdir(c, "Ritningar", &lib.root.ID)
	second := lib.mkdir(c, " Ritningar ", &lib.root.ID)
	third := lib.mkdir(c, "Ritningar", &lib.root.ID)
	elsewhere := lib.mkdir(c, "Ritningar", nil)

	c.Assert(first.Name, qt.Equals, "Ritningar")
	c.Assert(second.Name, qt.Equals, "Ritningar (1)")
	c.Assert(third.Name, qt.Equals, "Ritningar (2)")
	c.Assert(elsewhere.Name, qt.Equals, "Ritningar")
	c.Assert(lib.events.types(), qt.DeepEquals, []string{
		events.FolderCreated, events.FolderCreated, events.FolderCreated, events.FolderCreated,
	})
}

func TestCreateFolder_Invalid(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		req  services.CreateFolderRequest
		want error
	}{
		{"empty name", services.CreateFolderRequest{Name: "   "}, domain.ErrValidation},
		{"slash", services.CreateFolderRequest{Name: "a/b"}, domain.ErrValidation},
		{"backslash", services.CreateFolderRequest{Name: `a\b`}, domain.ErrValidation},
		{"missing parent", services.CreateFolderRequest{Name: "x", ParentID: ptr(int64(404))}, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			lib := newTestLibrary(c)
			_, err := lib.folders.CreateFolder(ctx, &tt.req)
			c.Assert(err, qt.ErrorIs, tt.want)
		})
	}
}

func TestUpdateFolder(t *testing.T) {
	c := qt.New(t)
	lib := newTestLibrary(c)
	ctx := context.Background()

	a := lib.mkdir(c, "A", &lib.root.ID)
	b := lib.mkdir(c, "B", &lib.root.ID)

	updated, err := lib.folders.UpdateFolder(ctx, a.ID, &services.UpdateFolderRequest{
		Name:        ptr("Arkiv"),
		Description: ptr("gamla ritningar"),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(updated.Name, qt.Equals, "Arkiv")
	c.Assert(updated.Description, qt.Equals, "gamla ritningar")

	_, err = lib.folders.UpdateFolder(ctx, b.ID, &services.UpdateFolderRequest{Name: ptr("Arkiv")})
	c.Assert(err, qt.ErrorIs, domain.ErrConflict)

	moved, err := lib.folders.UpdateFolder(ctx, b.ID, &services.UpdateFolderRequest{
		ParentID: httputil.OptionalInt64{Present: true, Value: &a.ID},
	})
	c.Assert(err, qt.IsNil)
	c.Assert(*moved.ParentID, qt.Equals, a.ID)

	toTop, err := lib.folders.UpdateFolder(ctx, b.ID, &services.UpdateFolderRequest{
		ParentID: httputil.OptionalInt64{Present: true},
	})
	c.Assert(err, qt.IsNil)
	c.Assert(toTop.ParentID, qt.IsNil)

	_, err = lib.folders.UpdateFolder(ctx, 999, &services.UpdateFolderRequest{Name: ptr("x")})
	c.Assert(err, qt.ErrorIs, domain.ErrNotFound)
}

func TestUpdateFolder_RejectsCycles(t *testing.T) {
	c := qt.New(t)
	lib := newTestLibrary(c)
	ctx := context.Background()

	parent := lib.mkdir(c, "parent", &lib.root.ID)
	child := lib.mkdir(c, "child", &parent.ID)
	grandchild := lib.mkdir(c, "grandchild", &child.ID)

	for _, target := range []int64{parent.ID, grandchild.ID} {
		_, err := lib.folders.UpdateFolder(ctx, parent.ID, &services.UpdateFolderRequest{
			ParentID: httputil.OptionalInt64{Present: true, Value: ptr(target)},
		})
		c.Assert(err, qt.ErrorIs, domain.ErrValidation)
	}

	_, err := lib.folders.UpdateFolder(ctx, parent.ID, &services.UpdateFolderRequest{
		ParentID: httputil.OptionalInt64{Present: true, Value: ptr(int64(12345))},
	})
	c.Assert(err, qt.ErrorIs, domain.ErrValidation)
}

func TestRootFolderIsProtected(t *testing.T) {
	c := qt.New(t)
	lib := newTestLibrary(c)
	ctx := context.Background()
	other := lib.mkdir(c, "other", nil)

	_, err := lib.folders.UpdateFolder(ctx, lib.root.ID, &services.UpdateFolderRequest{Name: ptr("renamed")})
	c.Assert(err, qt.ErrorIs, domain.ErrForbidden)

	_, err = lib.folders.UpdateFolder(ctx, lib.root.ID, &services.UpdateFolderRequest{
		ParentID: httputil.OptionalInt64{Present: true, Value: &other.ID},
	})
	c.Assert(err, qt.ErrorIs, domain.ErrForbidden)

	updated, err := lib.folders.UpdateFolder(ctx, lib.root.ID, &services.UpdateFolderRequest{
		Name:        ptr(models.RootFolderName),
		Description: ptr("allt"),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(updated.Description, qt.Equals, "allt")

	err = lib.folders.DeleteFolder(ctx, lib.root.ID)
	c.Assert(err, qt.ErrorIs, domain.ErrForbidden)
}

func TestDeleteFolder(t *testing.T) {
	c := qt.New(t)
	lib := newTestLibrary(c)
	ctx := context.Background()

	full := lib.mkdir(c, "full", &lib.root.ID)
	lib.upload(c, services.UploadRequest{Filename: "a.pdf", FolderID: &full.ID})
	nested := lib.mkdir(c, "nested", &lib.root.ID)
	lib.mkdir(c, "inner", &nested.ID)
	empty := lib.mkdir(c, "empty", &lib.root.ID)

	c.Assert(lib.folders.DeleteFolder(ctx, full.ID), qt.ErrorIs, domain.ErrConflict)
	c.Assert(lib.folders.DeleteFolder(ctx, nested.ID), qt.ErrorIs, domain.ErrConflict)
	c.Assert(lib.folders.DeleteFolder(ctx, empty.ID), qt.IsNil)
	c.Assert(lib.folders.DeleteFolder(ctx, empty.ID), qt.ErrorIs, domain.ErrNotFound)

	all, err := lib.folders.ListFolders(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(all, qt.HasLen, 4)
}

func TestUniqueName(t *testing.T) {
	siblings := []models.Folder{
		{ID: 1, Name: "x"},
		{ID: 2, Name: "x (1)"},
		{ID: 3, Name: "x (3)"},
	}
	tests := []struct {
		name string
		want string
	}{
		{"y", "y"},
		{"x", "x (2)"},
		{"x (1)", "x (1) (1)"},
	}
	for _, tt := range tests {
		c := qt.New(t)
		c.Assert(uniqueName(tt.name, siblings), qt.Equals, tt.want)
	}
}

func TestSiblingNamed(t *testing.T) {
	c := qt.New(t)
	siblings := []models.Folder{{ID: 1, Name: "x"}, {ID: 2, Name: "y"}}

	c.Assert(siblingNamed(siblings, "y", 0).ID, qt.Equals, int64(2))
	c.Assert(siblingNamed(siblings, "y", 2), qt.IsNil)
	c.Assert(siblingNamed(siblings, "z", 0), qt.IsNil)
}

// staleFolders hides existing siblings, as a concurrent transaction would
// before the other insert commits.
type staleFolders struct{ memFolders }

func (staleFolders) ListChildren(context.Context, *int64) ([]models.Folder, error) {
	return nil, nil
}

func TestCreateFolder_ConcurrentDuplicateIsConflict(t *testing.T) {
	c := qt.New(t)
	lib := newTestLibrary(c)
	lib.mkdir(c, "Arkiv", &lib.root.ID)

	racing := NewFolderService(staleFolders{memFolders{lib.mem}}, memPDFs{lib.mem}, passTx{}, lib.files, lib.events, discardLogger())
	_, err := racing.CreateFolder(context.Background(), &services.CreateFolderRequest{Name: "Arkiv", ParentID: &lib.root.ID})
	c.Assert(err, qt.ErrorIs, domain.ErrConflict)
	c.Assert(domain.StatusCode(err), qt.Equals, 409)

	all, err := lib.folders.ListFolders(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(all, qt.HasLen, 2)
}
