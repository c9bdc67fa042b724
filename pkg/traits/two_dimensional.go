package traits

import (
	"fmt"
	"regexp"
)

var udimRegex = regexp.MustCompile(`(?:\.|_)(?P<udim>\d+)\.\D+\d?$`)

// Image marks the representation content as image data.
type Image struct{}

func (Image) ID() string   { return "ayon.2d.Image.v1" }
func (Image) Name() string { return "Image" }
func (Image) Description() string {
	return "Image content"
}

func (Image) Validate(rep *Representation) error {
	return nil
}

// PixelBased declares the raster dimensions of image content.
type PixelBased struct {
	DisplayWindowWidth  int     `json:"display_window_width"`
	DisplayWindowHeight int     `json:"display_window_height"`
	PixelAspectRatio    float64 `json:"pixel_aspect_ratio"`
}

func (PixelBased) ID() string   { return "ayon.2d.PixelBased.v1" }
func (PixelBased) Name() string { return "PixelBased" }
func (PixelBased) Description() string {
	return "Raster dimensions and pixel aspect of image content"
}

func (t PixelBased) checkFields() error {
	if t.DisplayWindowWidth <= 0 || t.DisplayWindowHeight <= 0 {
		return &ValidationError{
			Scope:   t.Name(),
			Message: "display window dimensions must be positive",
		}
	}
	return nil
}

func (PixelBased) Validate(rep *Representation) error {
	return nil
}

// Planar declares the planar configuration of pixel data.
type Planar struct {
	PlanarConfiguration string `json:"planar_configuration"`
}

func (Planar) ID() string   { return "ayon.2d.Planar.v1" }
func (Planar) Name() string { return "Planar" }
func (Planar) Description() string {
	return "Planar configuration of the pixel data"
}

func (Planar) Validate(rep *Representation) error {
	return nil
}

// Deep marks image content carrying deep pixel data.
type Deep struct{}

func (Deep) ID() string   { return "ayon.2d.Deep.v1" }
func (Deep) Name() string { return "Deep" }
func (Deep) Description() string {
	return "Deep pixel image content"
}

func (Deep) Validate(rep *Representation) error {
	return nil
}

// Overscan declares extra pixels around the display window.
type Overscan struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

func (Overscan) ID() string   { return "ayon.2d.Overscan.v1" }
func (Overscan) Name() string { return "Overscan" }
func (Overscan) Description() string {
	return "Extra pixels around the display window"
}

func (Overscan) Validate(rep *Representation) error {
	return nil
}

// UDIM marks the representation as a UDIM tile set and lists the tiles
// it contains.
type UDIM struct {
	UDIM      []int   `json:"udim"`
	UDIMRegex *string `json:"udim_regex,omitempty"`
}

func (UDIM) ID() string   { return "ayon.2d.UDIM.v1" }
func (UDIM) Name() string { return "UDIM" }
func (UDIM) Description() string {
	return "UDIM tile set with the tile numbers it contains"
}

func (t UDIM) checkFields() error {
	if len(t.UDIM) == 0 {
		return &ValidationError{
			Scope:   t.Name(),
			Message: "udim tile list must not be empty",
		}
	}
	for _, tile := range t.UDIM {
		if tile < 1001 {
			return &ValidationError{
				Scope:   t.Name(),
				Message: fmt.Sprintf("invalid udim tile %d", tile),
			}
		}
	}
	return nil
}

func (t UDIM) Validate(rep *Representation) error {
	locations, err := GetTrait[FileLocations](rep)
	if err != nil {
		return nil
	}
	if len(t.UDIM) != len(locations.FilePaths) {
		return &ValidationError{
			Scope: t.Name(),
			Message: fmt.Sprintf(
				"expected %d udim tiles, found %d files",
				len(t.UDIM), len(locations.FilePaths)),
		}
	}
	for _, tile := range t.UDIM {
		if locations.GetFileLocationForUDIM(tile) == nil {
			return &ValidationError{
				Scope: t.Name(),
				Message: fmt.Sprintf(
					"no file location found for udim tile %d", tile),
			}
		}
	}
	return nil
}
