package traits

import (
	"regexp"
	"strconv"
)

// Trait is a named, immutable capability attached to a Representation.
// Concrete traits are plain value structs; cross-trait invariants are
// checked through Validate, which receives the owning representation.
type Trait interface {
	// ID returns the stable, namespaced trait identifier,
	// e.g. "ayon.content.FileLocation.v1".
	ID() string
	// Name returns the human readable trait label.
	Name() string
	// Description returns a short description of the trait.
	Description() string
	// Validate checks the trait against the other traits in the
	// representation. Traits without cross-trait invariants return nil.
	Validate(rep *Representation) error
}

// fieldChecker is implemented by traits that can verify their own field
// values without looking at the rest of the representation. It is run
// when a trait enters a representation or is decoded from stored data,
// so invalid single-field data fails fast.
type fieldChecker interface {
	checkFields() error
}

var versionRegex = regexp.MustCompile(`\.v(\d+)$`)

// TraitVersion extracts the schema version from a trait ID. Trait IDs
// end with ".v<N>"; IDs without a version suffix return 0.
func TraitVersion(id string) int {
	match := versionRegex.FindStringSubmatch(id)
	if match == nil {
		return 0
	}
	version, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return version
}
