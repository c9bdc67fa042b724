package traits

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/goccy/go-json"
)

// FileLocation points to a single file on disk together with its size
// and optional checksum.
type FileLocation struct {
	FilePath string `json:"file_path"`
	FileSize int64  `json:"file_size,omitempty"`
	FileHash string `json:"file_hash,omitempty"`
}

func (FileLocation) ID() string   { return "ayon.content.FileLocation.v1" }
func (FileLocation) Name() string { return "FileLocation" }
func (FileLocation) Description() string {
	return "Path to a single file with its size and checksum"
}

func (t FileLocation) checkFields() error {
	if t.FilePath == "" {
		return &ValidationError{
			Scope:   t.Name(),
			Message: "file path must not be empty",
		}
	}
	return nil
}

func (FileLocation) Validate(rep *Representation) error {
	return nil
}

// FileLocations holds multiple file locations, used for sequences,
// UDIM tile sets and bundles of related files.
type FileLocations struct {
	FilePaths []FileLocation `json:"file_paths"`
}

func (FileLocations) ID() string   { return "ayon.content.FileLocations.v1" }
func (FileLocations) Name() string { return "FileLocations" }
func (FileLocations) Description() string {
	return "Collection of file locations belonging to one representation"
}

func (t FileLocations) Validate(rep *Representation) error {
	if len(t.FilePaths) == 0 {
		return &ValidationError{
			Scope:   t.Name(),
			Message: "file locations must not be empty",
		}
	}
	if len(t.FilePaths) > 1 &&
		!ContainsTrait[Sequence](rep) &&
		!ContainsTrait[Bundle](rep) &&
		!ContainsTrait[UDIM](rep) {
		return &ValidationError{
			Scope: t.Name(),
			Message: "multiple file locations require a Sequence, " +
				"Bundle or UDIM trait",
		}
	}
	return t.validateFrameRange(rep)
}

// validateFrameRange checks that the number of files matches the frame
// span declared by FrameRanged, with handles applied when they are
// exclusive of the range.
func (t FileLocations) validateFrameRange(rep *Representation) error {
	if !ContainsTrait[FrameRanged](rep) || !ContainsTrait[Sequence](rep) {
		return nil
	}
	sequence, err := GetTrait[Sequence](rep)
	if err != nil {
		return nil
	}
	if sequence.FrameSpec != nil {
		// Gapped sequences are counted by the sequence trait itself.
		return nil
	}

	start, end, ok := frameInfoWithHandles(rep)
	if !ok {
		return nil
	}
	expected := end - start + 1
	if len(t.FilePaths) != expected {
		return &ValidationError{
			Scope: t.Name(),
			Message: fmt.Sprintf(
				"expected %d files for frame range %d-%d, found %d",
				expected, start, end, len(t.FilePaths)),
		}
	}
	return nil
}

// GetFileLocationForFrame returns the file location matching the given
// frame number, using the sequence frame regex when provided.
func (t FileLocations) GetFileLocationForFrame(
	frame int, sequence *Sequence,
) *FileLocation {
	pattern := defaultFrameRegex
	if sequence != nil {
		if compiled, err := sequence.CompiledFrameRegex(); err == nil {
			pattern = compiled
		}
	}
	for i := range t.FilePaths {
		index, _, ok := matchFrame(pattern, t.FilePaths[i].FilePath)
		if ok && index == frame {
			return &t.FilePaths[i]
		}
	}
	return nil
}

// GetFileLocationForUDIM returns the file location for a given UDIM
// tile number.
func (t FileLocations) GetFileLocationForUDIM(udim int) *FileLocation {
	for i := range t.FilePaths {
		match := udimRegex.FindStringSubmatch(
			filepath.Base(t.FilePaths[i].FilePath))
		if match == nil {
			continue
		}
		value, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if value == udim {
			return &t.FilePaths[i]
		}
	}
	return nil
}

// matchFrame extracts the frame index and its padded width from a file
// path using the given frame pattern.
func matchFrame(pattern *regexp.Regexp, path string) (index, padding int, ok bool) {
	match := pattern.FindStringSubmatch(filepath.Base(path))
	if match == nil {
		return 0, 0, false
	}
	var indexText string
	for i, name := range pattern.SubexpNames() {
		if name == "index" && i < len(match) {
			indexText = match[i]
		}
	}
	if indexText == "" {
		return 0, 0, false
	}
	value, err := strconv.Atoi(indexText)
	if err != nil {
		return 0, 0, false
	}
	return value, len(indexText), true
}

// RootlessLocation stores a path with its project root replaced by a
// placeholder, so representations stay portable between platforms.
type RootlessLocation struct {
	RootlessPath string `json:"rootless_path"`
}

func (RootlessLocation) ID() string   { return "ayon.content.RootlessLocation.v1" }
func (RootlessLocation) Name() string { return "RootlessLocation" }
func (RootlessLocation) Description() string {
	return "Path with the project root replaced by a placeholder"
}

func (RootlessLocation) Validate(rep *Representation) error {
	return nil
}

// LocatableContent marks content that carries a location reference,
// optionally templated.
type LocatableContent struct {
	Location    string `json:"location"`
	IsTemplated *bool  `json:"is_templated,omitempty"`
}

func (LocatableContent) ID() string   { return "ayon.content.LocatableContent.v1" }
func (LocatableContent) Name() string { return "LocatableContent" }
func (LocatableContent) Description() string {
	return "Content addressable by a location reference"
}

func (LocatableContent) Validate(rep *Representation) error {
	return nil
}

// MimeType describes the content type of the representation files.
type MimeType struct {
	MimeType string `json:"mime_type"`
}

func (MimeType) ID() string   { return "ayon.content.MimeType.v1" }
func (MimeType) Name() string { return "MimeType" }
func (MimeType) Description() string {
	return "MIME type of the representation content"
}

func (MimeType) Validate(rep *Representation) error {
	return nil
}

// Compressed marks content stored in a compressed form.
type Compressed struct {
	CompressionType string `json:"compression_type"`
}

func (Compressed) ID() string   { return "ayon.content.Compressed.v1" }
func (Compressed) Name() string { return "Compressed" }
func (Compressed) Description() string {
	return "Content compressed with the given algorithm"
}

func (Compressed) Validate(rep *Representation) error {
	return nil
}

// Bundle groups multiple sets of traits into one representation, such
// as a set of textures belonging to a single look.
type Bundle struct {
	Items [][]Trait `json:"items"`
}

func (Bundle) ID() string   { return "ayon.content.Bundle.v1" }
func (Bundle) Name() string { return "Bundle" }
func (Bundle) Description() string {
	return "Collection of trait sets treated as one representation"
}

func (t Bundle) Validate(rep *Representation) error {
	for i, item := range t.Items {
		if len(item) == 0 {
			return &ValidationError{
				Scope:   t.Name(),
				Message: fmt.Sprintf("bundle item %d has no traits", i),
			}
		}
	}
	return nil
}

// ToRepresentations expands bundle items into standalone
// representations named after the given prefix.
func (t Bundle) ToRepresentations(prefix string) ([]*Representation, error) {
	reps := make([]*Representation, 0, len(t.Items))
	for i, item := range t.Items {
		rep := NewRepresentation(fmt.Sprintf("%s_%d", prefix, i))
		for _, trait := range item {
			if err := rep.AddTrait(trait); err != nil {
				return nil, err
			}
		}
		reps = append(reps, rep)
	}
	return reps, nil
}

type bundleItemEnvelope struct {
	TraitID string         `json:"trait_id"`
	Data    map[string]any `json:"data"`
}

func (t Bundle) MarshalJSON() ([]byte, error) {
	items := make([][]bundleItemEnvelope, 0, len(t.Items))
	for _, item := range t.Items {
		encoded := make([]bundleItemEnvelope, 0, len(item))
		for _, trait := range item {
			raw, err := json.Marshal(trait)
			if err != nil {
				return nil, err
			}
			fields := make(map[string]any)
			if err := json.Unmarshal(raw, &fields); err != nil {
				return nil, err
			}
			encoded = append(encoded, bundleItemEnvelope{
				TraitID: trait.ID(),
				Data:    fields,
			})
		}
		items = append(items, encoded)
	}
	return json.Marshal(map[string]any{"items": items})
}

func (t *Bundle) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Items [][]bundleItemEnvelope `json:"items"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	t.Items = nil
	for _, item := range envelope.Items {
		decoded := make([]Trait, 0, len(item))
		for _, entry := range item {
			trait, err := DefaultRegistry.Decode(entry.TraitID, entry.Data)
			if err != nil {
				return err
			}
			decoded = append(decoded, trait)
		}
		t.Items = append(t.Items, decoded)
	}
	return nil
}

// Fragment marks a representation as a part of another representation,
// referenced by its ID.
type Fragment struct {
	Parent string `json:"parent"`
}

func (Fragment) ID() string   { return "ayon.content.Fragment.v1" }
func (Fragment) Name() string { return "Fragment" }
func (Fragment) Description() string {
	return "Part of another representation referenced by ID"
}

func (Fragment) Validate(rep *Representation) error {
	return nil
}
