package publish

import (
	"github.com/openvfx/gopublish/pkg/traits"
)

// Context carries everything one publish run needs: project scope,
// authorship and the instances to integrate.
type Context struct {
	Project   string
	User      string
	Machine   string
	Comment   string
	Instances []*Instance
}

// Instance is one publishable unit, a product-to-be with its
// representations.
type Instance struct {
	Name        string
	FolderPath  string
	Task        string
	ProductName string
	ProductType string
	Families    []string

	// FPS and Source describe where the content came from and are
	// recorded on the published version.
	FPS    float64
	Source string

	// Version pins the published version number. When nil the next
	// number after the latest stored version is used.
	Version *int

	// Farm marks the instance for render farm processing, skipping
	// local integration.
	Farm bool

	// Integrate can be switched off to run validation only.
	Integrate bool

	Representations []*traits.Representation
}

// ActiveRepresentations returns the representations integration should
// handle, which are the persistent ones. Representations without a
// lifecycle trait are skipped as well.
func (i *Instance) ActiveRepresentations() []*traits.Representation {
	var active []*traits.Representation
	for _, rep := range i.Representations {
		if traits.ContainsTrait[traits.Persistent](rep) {
			active = append(active, rep)
		}
	}
	return active
}

// Validate runs cross-trait validation on every representation of the
// instance and collects the failures into one error.
func (i *Instance) Validate() error {
	var errs []error
	for _, rep := range i.Representations {
		if err := rep.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	messages := ""
	for n, err := range errs {
		if n > 0 {
			messages += "\n"
		}
		messages += err.Error()
	}
	return &traits.ValidationError{
		Scope:   i.Name,
		Message: messages,
	}
}
