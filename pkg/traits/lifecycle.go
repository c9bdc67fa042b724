package traits

// Persistent marks a representation to be integrated and kept.
type Persistent struct{}

func (Persistent) ID() string   { return "ayon.lifecycle.Persistent.v1" }
func (Persistent) Name() string { return "Persistent" }
func (Persistent) Description() string {
	return "Representation to be integrated and kept"
}

func (t Persistent) Validate(rep *Representation) error {
	if ContainsTrait[Transient](rep) {
		return &ValidationError{
			Scope:   t.Name(),
			Message: "representation cannot be both persistent and transient",
		}
	}
	return nil
}

// Transient marks a representation as temporary, skipped by
// integration and cleaned up afterwards.
type Transient struct{}

func (Transient) ID() string   { return "ayon.lifecycle.Transient.v1" }
func (Transient) Name() string { return "Transient" }
func (Transient) Description() string {
	return "Temporary representation skipped by integration"
}

func (t Transient) Validate(rep *Representation) error {
	if ContainsTrait[Persistent](rep) {
		return &ValidationError{
			Scope:   t.Name(),
			Message: "representation cannot be both transient and persistent",
		}
	}
	return nil
}
