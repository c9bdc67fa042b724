package publish

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openvfx/gopublish/pkg/traits"
	"github.com/stretchr/testify/require"
)

const manifestJSON = `{
  "project": "demo",
  "user": "artist",
  "machine": "ws01",
  "comment": "first pass",
  "instances": [
    {
      "name": "renderMain",
      "folder_path": "shots/sq01/sh010",
      "task": "comp",
      "product_name": "renderMain",
      "product_type": "render",
      "families": ["render", "review"],
      "fps": 24,
      "source": "/scenes/sh010_comp.hip",
      "representations": [
        {
          "name": "exr",
          "traits": {
            "ayon.content.FileLocation.v1": {
              "file_path": "/mnt/projects/render.exr",
              "file_size": 1024
            },
            "ayon.2d.Image.v1": {},
            "ayon.lifecycle.Persistent.v1": {}
          }
        }
      ]
    }
  ]
}`

// TestParseManifest verifies that a manifest builds a publish context
// with typed traits.
func TestParseManifest(t *testing.T) {
	pctx, err := ParseManifest([]byte(manifestJSON))
	require.NoError(t, err)

	require.Equal(t, "demo", pctx.Project)
	require.Equal(t, "artist", pctx.User)
	require.Equal(t, "ws01", pctx.Machine)
	require.Len(t, pctx.Instances, 1)

	instance := pctx.Instances[0]
	require.Equal(t, "renderMain", instance.ProductName)
	require.Equal(t, "comp", instance.Task)
	require.Equal(t, []string{"render", "review"}, instance.Families)
	require.Equal(t, 24.0, instance.FPS)
	require.Equal(t, "/scenes/sh010_comp.hip", instance.Source)
	require.True(t, instance.Integrate)
	require.Len(t, instance.Representations, 1)

	rep := instance.Representations[0]
	require.Equal(t, "exr", rep.Name())

	location, err := traits.GetTrait[traits.FileLocation](rep)
	require.NoError(t, err)
	require.Equal(t, "/mnt/projects/render.exr", location.FilePath)
	require.Equal(t, int64(1024), location.FileSize)
}

// TestParseManifest_MissingFields verifies the required field checks.
func TestParseManifest_MissingFields(t *testing.T) {
	_, err := ParseManifest([]byte(`{"instances": []}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "project")

	_, err = ParseManifest([]byte(
		`{"project": "demo", "instances": [{"name": "x"}]}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "folder path")
}

// TestParseManifest_UnknownTrait verifies that unknown trait IDs fail
// at load time.
func TestParseManifest_UnknownTrait(t *testing.T) {
	_, err := ParseManifest([]byte(`{
      "project": "demo",
      "instances": [{
        "name": "x",
        "folder_path": "sh010",
        "product_name": "renderMain",
        "product_type": "render",
        "representations": [
          {"name": "exr", "traits": {"ayon.content.Bogus.v1": {}}}
        ]
      }]
    }`))
	require.Error(t, err)
}

// TestLoadManifest verifies reading a manifest from disk.
func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte(manifestJSON), 0o644))

	pctx, err := LoadManifest(path)
	require.NoError(t, err)
	require.Equal(t, "demo", pctx.Project)

	_, err = LoadManifest(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

// TestInstance_ActiveRepresentations verifies lifecycle filtering.
func TestInstance_ActiveRepresentations(t *testing.T) {
	persistent := traits.NewRepresentation("exr", traits.Persistent{})
	transient := traits.NewRepresentation("tmp", traits.Transient{})
	unmarked := traits.NewRepresentation("raw")

	instance := &Instance{
		Name: "renderMain",
		Representations: []*traits.Representation{
			persistent, transient, unmarked,
		},
	}

	active := instance.ActiveRepresentations()
	require.Len(t, active, 1)
	require.Equal(t, "exr", active[0].Name())
}
