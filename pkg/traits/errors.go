package traits

import "fmt"

// ValidationError reports a failed cross-trait invariant. Scope names
// the trait or representation the error originated from.
type ValidationError struct {
	Scope   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Scope, e.Message)
}

// MissingTraitError is returned when a requested trait is not present
// in the representation.
type MissingTraitError struct {
	ID string
}

func (e *MissingTraitError) Error() string {
	return fmt.Sprintf("trait %s not found in representation", e.ID)
}

// IncompatibleVersionError is returned when two versions of the same
// trait cannot be reconciled, such as requesting a version newer than
// the one stored in a representation.
type IncompatibleVersionError struct {
	ID        string
	Requested int
	Found     int
}

func (e *IncompatibleVersionError) Error() string {
	return fmt.Sprintf(
		"incompatible version of trait %s: requested v%d, found v%d",
		e.ID, e.Requested, e.Found)
}

// UnknownTraitError is returned when decoding stored trait data whose
// ID is not registered.
type UnknownTraitError struct {
	ID string
}

func (e *UnknownTraitError) Error() string {
	return fmt.Sprintf("trait %s is not registered", e.ID)
}
