package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/openvfx/gopublish/pkg/db/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, store.Connect(context.Background()))
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { store.Close() })
	return store
}

// TestSQLiteStore_FolderCRUD verifies folder creation and lookup by
// path.
func TestSQLiteStore_FolderCRUD(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	folder := &models.Folder{
		ID:   uuid.NewString(),
		Name: "sh010",
		Path: "shots/sq01/sh010",
	}
	require.NoError(t, store.CreateFolder(ctx, folder))

	found, err := store.GetFolderByPath(ctx, "shots/sq01/sh010")
	require.NoError(t, err)
	require.Equal(t, folder.ID, found.ID)

	_, err = store.GetFolderByPath(ctx, "shots/sq01/sh020")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

// TestSQLiteStore_ProductFamilies verifies that the families list
// survives storage.
func TestSQLiteStore_ProductFamilies(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	folder := &models.Folder{ID: uuid.NewString(), Name: "sh010", Path: "sh010"}
	require.NoError(t, store.CreateFolder(ctx, folder))

	product := &models.Product{
		ID:          uuid.NewString(),
		FolderID:    folder.ID,
		Name:        "renderMain",
		ProductType: "render",
		Families:    []string{"render", "review"},
	}
	require.NoError(t, store.CreateProduct(ctx, product))

	found, err := store.GetProductByName(ctx, folder.ID, "renderMain")
	require.NoError(t, err)
	require.Equal(t, []string{"render", "review"}, found.Families)
}

// TestSQLiteStore_LatestVersion verifies latest version lookup across
// multiple versions.
func TestSQLiteStore_LatestVersion(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	folder := &models.Folder{ID: uuid.NewString(), Name: "sh010", Path: "sh010"}
	require.NoError(t, store.CreateFolder(ctx, folder))
	product := &models.Product{
		ID: uuid.NewString(), FolderID: folder.ID,
		Name: "renderMain", ProductType: "render",
	}
	require.NoError(t, store.CreateProduct(ctx, product))

	_, err := store.GetLatestVersion(ctx, product.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	for _, number := range []int{1, 3, 2} {
		require.NoError(t, store.CreateVersion(ctx, &models.Version{
			ID:        uuid.NewString(),
			ProductID: product.ID,
			Version:   number,
		}))
	}

	latest, err := store.GetLatestVersion(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, 3, latest.Version)
}

// TestSQLiteStore_RepresentationTraits verifies that trait data maps
// survive storage.
func TestSQLiteStore_RepresentationTraits(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	folder := &models.Folder{ID: uuid.NewString(), Name: "sh010", Path: "sh010"}
	require.NoError(t, store.CreateFolder(ctx, folder))
	product := &models.Product{
		ID: uuid.NewString(), FolderID: folder.ID,
		Name: "renderMain", ProductType: "render",
	}
	require.NoError(t, store.CreateProduct(ctx, product))
	version := &models.Version{
		ID: uuid.NewString(), ProductID: product.ID, Version: 1,
	}
	require.NoError(t, store.CreateVersion(ctx, version))

	representation := &models.Representation{
		ID:        uuid.NewString(),
		VersionID: version.ID,
		Name:      "exr",
		Traits: map[string]map[string]any{
			"ayon.content.FileLocation.v1": {
				"file_path": "/mnt/projects/render.exr",
			},
		},
	}
	require.NoError(t, store.CreateRepresentation(ctx, representation))

	found, err := store.GetRepresentationByName(ctx, version.ID, "exr")
	require.NoError(t, err)
	require.Equal(t, "/mnt/projects/render.exr",
		found.Traits["ayon.content.FileLocation.v1"]["file_path"])
}
