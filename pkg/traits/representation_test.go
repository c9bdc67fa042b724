package traits

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

// TestRepresentation_AddAndGet verifies that traits can be added and
// retrieved by their type.
func TestRepresentation_AddAndGet(t *testing.T) {
	rep := NewRepresentation("exr",
		FileLocation{FilePath: "/mnt/projects/shot/render.exr", FileSize: 1024},
		Image{},
		Persistent{},
	)
	require.Equal(t, 3, rep.Len())

	location, err := GetTrait[FileLocation](rep)
	require.NoError(t, err)
	require.Equal(t, "/mnt/projects/shot/render.exr", location.FilePath)

	require.True(t, ContainsTrait[Image](rep))
	require.False(t, ContainsTrait[Transient](rep))
}

// TestRepresentation_AddDuplicate verifies that adding the same trait
// twice is rejected while SetTrait replaces it.
func TestRepresentation_AddDuplicate(t *testing.T) {
	rep := NewRepresentation("exr", Image{})

	err := rep.AddTrait(Image{})
	require.Error(t, err)

	require.NoError(t, rep.SetTrait(MimeType{MimeType: "image/x-exr"}))
	require.NoError(t, rep.SetTrait(MimeType{MimeType: "image/png"}))

	mime, err := GetTrait[MimeType](rep)
	require.NoError(t, err)
	require.Equal(t, "image/png", mime.MimeType)
}

// TestRepresentation_UnversionedLookup verifies that an unversioned
// trait ID resolves to the stored versioned trait.
func TestRepresentation_UnversionedLookup(t *testing.T) {
	rep := NewRepresentation("exr", Image{})

	require.True(t, rep.ContainsTraitID("ayon.2d.Image"))

	trait, err := rep.GetTraitByID("ayon.2d.Image")
	require.NoError(t, err)
	require.Equal(t, "ayon.2d.Image.v1", trait.ID())

	_, err = rep.GetTraitByID("ayon.2d.Missing")
	var missing *MissingTraitError
	require.ErrorAs(t, err, &missing)
}

// TestRepresentation_Remove verifies removal by ID and the error for
// unknown IDs.
func TestRepresentation_Remove(t *testing.T) {
	rep := NewRepresentation("exr", Image{}, Persistent{})

	require.NoError(t, rep.RemoveTraitByID(Image{}.ID()))
	require.False(t, ContainsTrait[Image](rep))
	require.Equal(t, 1, rep.Len())

	err := rep.RemoveTraitByID(Image{}.ID())
	var missing *MissingTraitError
	require.ErrorAs(t, err, &missing)
}

// TestRepresentation_ValidateCollectsErrors verifies that validation
// reports every failing trait in one error.
func TestRepresentation_ValidateCollectsErrors(t *testing.T) {
	rep := NewRepresentation("broken",
		FileLocations{},
		ColorManaged{ColorSpace: "ACEScg"},
	)

	err := rep.Validate()
	require.Error(t, err)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "broken", validation.Scope)
	require.Contains(t, validation.Message, "file locations must not be empty")
	require.Contains(t, validation.Message, "Image trait")

	// Validation is read-only, a second run reports the same failures.
	again := rep.Validate()
	require.Error(t, again)
	require.Equal(t, err.Error(), again.Error())
}

// TestRepresentation_FieldCheckOnAdd verifies that single-field sanity
// checks run when a trait enters the representation.
func TestRepresentation_FieldCheckOnAdd(t *testing.T) {
	rep := NewRepresentation("exr")

	err := rep.AddTrait(FileLocation{})
	require.Error(t, err)

	err = rep.AddTrait(FrameRanged{FrameStart: 1001, FrameEnd: 1000})
	require.Error(t, err)
}

// TestRepresentation_JSONRoundTrip verifies that a representation
// survives serialization with its ID, name and typed traits intact.
func TestRepresentation_JSONRoundTrip(t *testing.T) {
	rep := NewRepresentation("exr",
		FileLocation{FilePath: "/mnt/projects/shot/render.exr", FileSize: 1024},
		Image{},
		PixelBased{DisplayWindowWidth: 1920, DisplayWindowHeight: 1080, PixelAspectRatio: 1.0},
		Tagged{Tags: []string{"review"}},
	)

	data, err := json.Marshal(rep)
	require.NoError(t, err)

	var rebuilt Representation
	require.NoError(t, json.Unmarshal(data, &rebuilt))

	require.Equal(t, rep.ID(), rebuilt.ID())
	require.Equal(t, rep.Name(), rebuilt.Name())
	require.True(t, rep.Equal(&rebuilt))

	pixels, err := GetTrait[PixelBased](&rebuilt)
	require.NoError(t, err)
	require.Equal(t, 1920, pixels.DisplayWindowWidth)
}

// TestFromTraitData_UnknownTrait verifies that stored data with an
// unregistered trait ID fails to decode.
func TestFromTraitData_UnknownTrait(t *testing.T) {
	_, err := FromTraitData("exr", map[string]map[string]any{
		"ayon.content.Unknown.v1": {"field": "value"},
	})
	var unknown *UnknownTraitError
	require.ErrorAs(t, err, &unknown)
}

// TestRegistry_ResolveHighestVersion verifies that an unversioned ID
// resolves to the highest registered trait version.
func TestRegistry_ResolveHighestVersion(t *testing.T) {
	id, _, err := DefaultRegistry.Resolve("ayon.content.FileLocation")
	require.NoError(t, err)
	require.Equal(t, "ayon.content.FileLocation.v1", id)

	_, _, err = DefaultRegistry.Resolve("ayon.content.Nope")
	var unknown *UnknownTraitError
	require.ErrorAs(t, err, &unknown)
}

// TestRegistry_DecodeChecksFields verifies that decoding invalid trait
// data fails fast.
func TestRegistry_DecodeChecksFields(t *testing.T) {
	_, err := DefaultRegistry.Decode("ayon.content.FileLocation.v1",
		map[string]any{"file_size": 10})
	require.Error(t, err)
}

// TestTraitVersion verifies version extraction from trait IDs.
func TestTraitVersion(t *testing.T) {
	require.Equal(t, 1, TraitVersion("ayon.content.FileLocation.v1"))
	require.Equal(t, 12, TraitVersion("ayon.content.FileLocation.v12"))
	require.Equal(t, 0, TraitVersion("ayon.content.FileLocation"))
}
