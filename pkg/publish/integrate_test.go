package publish

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	config "github.com/openvfx/gopublish/internal/config/server"
	"github.com/openvfx/gopublish/pkg/anatomy"
	"github.com/openvfx/gopublish/pkg/db/models"
	"github.com/openvfx/gopublish/pkg/db/store"
	"github.com/openvfx/gopublish/pkg/log"
	"github.com/openvfx/gopublish/pkg/traits"
	"github.com/openvfx/gopublish/pkg/transfer"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	root       string
	store      *store.SQLiteStore
	integrator *Integrator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()

	entityStore, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, entityStore.Connect(context.Background()))
	require.NoError(t, entityStore.Migrate(context.Background()))
	t.Cleanup(func() { entityStore.Close() })

	projectAnatomy, err := anatomy.New("demo",
		map[string]string{"work": root},
		map[string]string{
			"default": "{root[work]}/{project}/{folder}/publish/{product}/" +
				"v{version:0>3}/{product}_v{version:0>3}<.{frame:0>4}><.{udim}>.{ext}",
		})
	require.NoError(t, err)

	cfg := config.GetServerDefault().Log
	cfg.NoTerminal = true
	logger := log.NewLoggerService("test", cfg)

	return &testEnv{
		root:  root,
		store: entityStore,
		integrator: NewIntegrator(logger, entityStore, projectAnatomy, Config{
			TransferMode: transfer.ModeCopy,
		}),
	}
}

func (env *testEnv) sourceFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(env.root, "src", name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (env *testEnv) createFolder(t *testing.T, folderPath string) {
	t.Helper()
	require.NoError(t, env.store.CreateFolder(context.Background(), &models.Folder{
		ID:   uuid.NewString(),
		Name: path.Base(folderPath),
		Path: folderPath,
	}))
}

// TestIntegrateInstance_SingleFile verifies the full publish of one
// persistent representation while a transient one is skipped.
func TestIntegrateInstance_SingleFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	source := env.sourceFile(t, "render.exr", "pixels")

	persistent := traits.NewRepresentation("exr",
		traits.FileLocation{FilePath: source, FileSize: 6},
		traits.Image{},
		traits.Persistent{},
	)
	transient := traits.NewRepresentation("tmp",
		traits.FileLocation{FilePath: source},
		traits.Transient{},
	)

	pctx := &Context{
		Project: "demo", User: "artist", Machine: "ws01", Comment: "first",
	}
	instance := &Instance{
		Name:        "renderMain",
		FolderPath:  "shots/sq01/sh010",
		Task:        "comp",
		ProductName: "renderMain",
		ProductType: "render",
		FPS:         24,
		Source:      "/scenes/sh010_comp.hip",
		Integrate:   true,
		Representations: []*traits.Representation{
			persistent, transient,
		},
	}
	env.createFolder(t, instance.FolderPath)

	result, err := env.integrator.IntegrateInstance(ctx, pctx, instance)
	require.NoError(t, err)
	require.Equal(t, 1, result.Version)
	require.Len(t, result.Representations, 1)
	require.Len(t, result.Transferred, 1)

	destination := filepath.Join(env.root,
		"demo", "sh010", "publish", "renderMain", "v001",
		"renderMain_v001.exr")
	data, err := os.ReadFile(destination)
	require.NoError(t, err)
	require.Equal(t, "pixels", string(data))

	// Entities landed after the transfer.
	folder, err := env.store.GetFolderByPath(ctx, "shots/sq01/sh010")
	require.NoError(t, err)
	product, err := env.store.GetProductByName(ctx, folder.ID, "renderMain")
	require.NoError(t, err)
	require.Contains(t, product.Families, "render")

	version, err := env.store.GetLatestVersion(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, "artist", version.Author)
	require.Equal(t, "first", version.Attributes["comment"])
	require.Equal(t, "ws01", version.Attributes["machine"])
	require.Equal(t, "/scenes/sh010_comp.hip", version.Attributes["source"])
	require.EqualValues(t, 24.0, version.Attributes["fps"])
	require.Contains(t, version.Attributes["families"], "render")
	require.False(t, version.CreatedAt.IsZero())

	stored, err := env.store.GetRepresentationByName(ctx, version.ID, "exr")
	require.NoError(t, err)
	rebuilt, err := traits.FromTraitData(stored.Name, stored.Traits)
	require.NoError(t, err)

	location, err := traits.GetTrait[traits.FileLocation](rebuilt)
	require.NoError(t, err)
	require.Equal(t, destination, location.FilePath)

	rootless, err := traits.GetTrait[traits.RootlessLocation](rebuilt)
	require.NoError(t, err)
	require.Equal(t,
		"{root[work]}/demo/sh010/publish/renderMain/v001/renderMain_v001.exr",
		rootless.RootlessPath)

	require.True(t, traits.ContainsTrait[traits.TemplatePath](rebuilt))
}

// TestIntegrateInstance_Sequence verifies frame-for-frame sequence
// transfers.
func TestIntegrateInstance_Sequence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var locations traits.FileLocations
	for frame := 1001; frame <= 1003; frame++ {
		path := env.sourceFile(t,
			fmt.Sprintf("shot.%04d.exr", frame),
			fmt.Sprintf("frame %d", frame))
		locations.FilePaths = append(locations.FilePaths,
			traits.FileLocation{FilePath: path})
	}

	rep := traits.NewRepresentation("exr",
		locations,
		traits.Sequence{FramePadding: 4},
		traits.FrameRanged{FrameStart: 1001, FrameEnd: 1003},
		traits.Persistent{},
	)

	pctx := &Context{Project: "demo"}
	instance := &Instance{
		Name:            "renderMain",
		FolderPath:      "sh010",
		ProductName:     "renderMain",
		ProductType:     "render",
		Integrate:       true,
		Representations: []*traits.Representation{rep},
	}
	env.createFolder(t, instance.FolderPath)

	result, err := env.integrator.IntegrateInstance(ctx, pctx, instance)
	require.NoError(t, err)
	require.Len(t, result.Transferred, 3)

	for frame := 1001; frame <= 1003; frame++ {
		destination := filepath.Join(env.root,
			"demo", "sh010", "publish", "renderMain", "v001",
			fmt.Sprintf("renderMain_v001.%04d.exr", frame))
		data, err := os.ReadFile(destination)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("frame %d", frame), string(data))
	}
}

// TestIntegrateInstance_VersionBump verifies that publishing the same
// product again produces the next version.
func TestIntegrateInstance_VersionBump(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pctx := &Context{Project: "demo"}
	env.createFolder(t, "asset/tree")

	publishOnce := func() (*Result, error) {
		source := env.sourceFile(t, "model.abc", "geometry")
		rep := traits.NewRepresentation("abc",
			traits.FileLocation{FilePath: source},
			traits.Persistent{},
		)
		return env.integrator.IntegrateInstance(ctx, pctx, &Instance{
			Name:            "modelMain",
			FolderPath:      "asset/tree",
			ProductName:     "modelMain",
			ProductType:     "model",
			Integrate:       true,
			Representations: []*traits.Representation{rep},
		})
	}

	first, err := publishOnce()
	require.NoError(t, err)
	require.Equal(t, 1, first.Version)

	second, err := publishOnce()
	require.NoError(t, err)
	require.Equal(t, 2, second.Version)
	require.Equal(t, first.ProductID, second.ProductID)
}

// TestIntegrateInstance_PinnedVersionConflict verifies that a pinned
// version which already exists is rejected.
func TestIntegrateInstance_PinnedVersionConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pctx := &Context{Project: "demo"}

	source := env.sourceFile(t, "model.abc", "geometry")
	pinned := 5
	env.createFolder(t, "asset/tree")

	build := func() *Instance {
		rep := traits.NewRepresentation("abc",
			traits.FileLocation{FilePath: source},
			traits.Persistent{},
		)
		return &Instance{
			Name:            "modelMain",
			FolderPath:      "asset/tree",
			ProductName:     "modelMain",
			ProductType:     "model",
			Version:         &pinned,
			Integrate:       true,
			Representations: []*traits.Representation{rep},
		}
	}

	result, err := env.integrator.IntegrateInstance(ctx, pctx, build())
	require.NoError(t, err)
	require.Equal(t, 5, result.Version)

	_, err = env.integrator.IntegrateInstance(ctx, pctx, build())
	require.Error(t, err)
	require.Contains(t, err.Error(), "already exists")
}

// TestIntegrateInstance_FailedTransferCommitsNothing verifies that a
// failing transfer leaves no entities behind.
func TestIntegrateInstance_FailedTransferCommitsNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pctx := &Context{Project: "demo"}

	rep := traits.NewRepresentation("exr",
		traits.FileLocation{FilePath: filepath.Join(env.root, "missing.exr")},
		traits.Persistent{},
	)
	env.createFolder(t, "sh010")

	_, err := env.integrator.IntegrateInstance(ctx, pctx, &Instance{
		Name:            "renderMain",
		FolderPath:      "sh010",
		ProductName:     "renderMain",
		ProductType:     "render",
		Integrate:       true,
		Representations: []*traits.Representation{rep},
	})
	require.Error(t, err)

	folder, err := env.store.GetFolderByPath(ctx, "sh010")
	require.NoError(t, err)
	_, err = env.store.GetProductByName(ctx, folder.ID, "renderMain")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

// TestIntegrateInstance_MissingFolder verifies that publishing into a
// folder that does not exist fails instead of creating it.
func TestIntegrateInstance_MissingFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pctx := &Context{Project: "demo"}

	source := env.sourceFile(t, "render.exr", "pixels")
	rep := traits.NewRepresentation("exr",
		traits.FileLocation{FilePath: source},
		traits.Persistent{},
	)

	_, err := env.integrator.IntegrateInstance(ctx, pctx, &Instance{
		Name:            "renderMain",
		FolderPath:      "sh999",
		ProductName:     "renderMain",
		ProductType:     "render",
		Integrate:       true,
		Representations: []*traits.Representation{rep},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "folder sh999 not found")
}

// TestEnsureFolders verifies the folder bootstrap creates missing
// folders once and leaves existing ones alone.
func TestEnsureFolders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pctx := &Context{
		Project: "demo",
		Instances: []*Instance{
			{Name: "renderMain", FolderPath: "shots/sq01/sh010"},
			{Name: "renderCrypto", FolderPath: "shots/sq01/sh010"},
		},
	}

	require.NoError(t, EnsureFolders(ctx, env.store, pctx))
	folder, err := env.store.GetFolderByPath(ctx, "shots/sq01/sh010")
	require.NoError(t, err)
	require.Equal(t, "sh010", folder.Name)

	// A second run finds the folder and keeps its identity.
	require.NoError(t, EnsureFolders(ctx, env.store, pctx))
	same, err := env.store.GetFolderByPath(ctx, "shots/sq01/sh010")
	require.NoError(t, err)
	require.Equal(t, folder.ID, same.ID)
}

// TestIntegrateInstance_InvalidRepresentation verifies that validation
// failures stop integration before any transfer.
func TestIntegrateInstance_InvalidRepresentation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pctx := &Context{Project: "demo"}

	rep := traits.NewRepresentation("exr",
		traits.FileLocations{},
		traits.Persistent{},
	)

	_, err := env.integrator.IntegrateInstance(ctx, pctx, &Instance{
		Name:            "renderMain",
		FolderPath:      "sh010",
		ProductName:     "renderMain",
		ProductType:     "render",
		Integrate:       true,
		Representations: []*traits.Representation{rep},
	})
	require.Error(t, err)

	var validation *traits.ValidationError
	require.ErrorAs(t, err, &validation)
}

// TestIntegrateContext_Skips verifies farm and disabled instances are
// skipped without error.
func TestIntegrateContext_Skips(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rep := traits.NewRepresentation("exr", traits.Persistent{},
		traits.FileLocation{FilePath: filepath.Join(env.root, "missing.exr")})

	pctx := &Context{
		Project: "demo",
		Instances: []*Instance{
			{Name: "farmed", Farm: true, Integrate: true,
				Representations: []*traits.Representation{rep}},
			{Name: "disabled", Integrate: false,
				Representations: []*traits.Representation{rep}},
			{Name: "empty", Integrate: true},
		},
	}

	results, err := env.integrator.IntegrateContext(ctx, pctx)
	require.NoError(t, err)
	require.Empty(t, results)
}

// TestIntegrateInstance_UDIM verifies tile-for-tile UDIM transfers.
func TestIntegrateInstance_UDIM(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pctx := &Context{Project: "demo"}

	var locations traits.FileLocations
	for _, tile := range []int{1001, 1002} {
		path := env.sourceFile(t,
			fmt.Sprintf("wall_diffuse.%d.tx", tile),
			fmt.Sprintf("tile %d", tile))
		locations.FilePaths = append(locations.FilePaths,
			traits.FileLocation{FilePath: path})
	}

	rep := traits.NewRepresentation("tx",
		locations,
		traits.UDIM{UDIM: []int{1001, 1002}},
		traits.Persistent{},
	)

	env.createFolder(t, "asset/wall")
	result, err := env.integrator.IntegrateInstance(ctx, pctx, &Instance{
		Name:            "lookMain",
		FolderPath:      "asset/wall",
		ProductName:     "lookMain",
		ProductType:     "look",
		Integrate:       true,
		Representations: []*traits.Representation{rep},
	})
	require.NoError(t, err)
	require.Len(t, result.Transferred, 2)

	for _, tile := range []int{1001, 1002} {
		destination := filepath.Join(env.root,
			"demo", "wall", "publish", "lookMain", "v001",
			fmt.Sprintf("lookMain_v001.%d.tx", tile))
		data, err := os.ReadFile(destination)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("tile %d", tile), string(data))
	}
}
