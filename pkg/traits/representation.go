package traits

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Representation is a keyed collection of traits describing one
// publishable output. Traits are keyed by their versioned ID and keep
// the order in which they were added.
type Representation struct {
	name     string
	id       string
	order    []string
	traits   map[string]Trait
	registry *Registry
}

// NewRepresentation creates an empty named representation with a
// generated ID. Traits passed in are added in order; adding a duplicate
// trait panics as it is a programming error at construction time.
func NewRepresentation(name string, list ...Trait) *Representation {
	rep := &Representation{
		name:     name,
		id:       uuid.NewString(),
		traits:   make(map[string]Trait),
		registry: DefaultRegistry,
	}
	for _, trait := range list {
		if err := rep.AddTrait(trait); err != nil {
			panic(err)
		}
	}
	return rep
}

func (r *Representation) Name() string {
	return r.name
}

func (r *Representation) ID() string {
	return r.id
}

// SetID overrides the generated representation ID, used when rebuilding
// a representation from stored data.
func (r *Representation) SetID(id string) {
	r.id = id
}

func (r *Representation) Len() int {
	return len(r.traits)
}

// AddTrait adds a trait to the representation. Adding a trait whose ID
// is already present is an error; use SetTrait to replace.
func (r *Representation) AddTrait(trait Trait) error {
	if _, ok := r.traits[trait.ID()]; ok {
		return &ValidationError{
			Scope:   r.name,
			Message: fmt.Sprintf("trait %s already exists", trait.ID()),
		}
	}
	if checker, ok := trait.(fieldChecker); ok {
		if err := checker.checkFields(); err != nil {
			return err
		}
	}
	r.order = append(r.order, trait.ID())
	r.traits[trait.ID()] = trait
	return nil
}

// SetTrait adds or replaces a trait, keeping the original insertion
// position when replacing.
func (r *Representation) SetTrait(trait Trait) error {
	if checker, ok := trait.(fieldChecker); ok {
		if err := checker.checkFields(); err != nil {
			return err
		}
	}
	if _, ok := r.traits[trait.ID()]; !ok {
		r.order = append(r.order, trait.ID())
	}
	r.traits[trait.ID()] = trait
	return nil
}

// RemoveTraitByID removes a trait by its versioned ID.
func (r *Representation) RemoveTraitByID(id string) error {
	if _, ok := r.traits[id]; !ok {
		return &MissingTraitError{ID: id}
	}
	delete(r.traits, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// ContainsTraitID reports whether a trait with the given ID is present.
// An unversioned ID matches any registered version of that trait.
func (r *Representation) ContainsTraitID(id string) bool {
	if _, ok := r.traits[id]; ok {
		return true
	}
	if TraitVersion(id) == 0 {
		prefix := id + ".v"
		for existing := range r.traits {
			if strings.HasPrefix(existing, prefix) {
				return true
			}
		}
	}
	return false
}

// GetTraitByID returns the trait stored under the given ID. An
// unversioned ID resolves to the highest stored version.
func (r *Representation) GetTraitByID(id string) (Trait, error) {
	if trait, ok := r.traits[id]; ok {
		return trait, nil
	}
	if TraitVersion(id) == 0 {
		prefix := id + ".v"
		best := ""
		for existing := range r.traits {
			if !strings.HasPrefix(existing, prefix) {
				continue
			}
			if best == "" || TraitVersion(existing) > TraitVersion(best) {
				best = existing
			}
		}
		if best != "" {
			return r.traits[best], nil
		}
	}
	return nil, &MissingTraitError{ID: id}
}

// Traits returns the traits in insertion order.
func (r *Representation) Traits() []Trait {
	list := make([]Trait, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, r.traits[id])
	}
	return list
}

// TraitIDs returns the stored trait IDs in sorted order.
func (r *Representation) TraitIDs() []string {
	ids := make([]string, 0, len(r.traits))
	for id := range r.traits {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetTrait returns the typed trait T from the representation.
func GetTrait[T Trait](r *Representation) (T, error) {
	var zero T
	trait, err := r.GetTraitByID(zero.ID())
	if err != nil {
		return zero, err
	}
	typed, ok := trait.(T)
	if !ok {
		return zero, &IncompatibleVersionError{
			ID:        zero.ID(),
			Requested: TraitVersion(zero.ID()),
			Found:     TraitVersion(trait.ID()),
		}
	}
	return typed, nil
}

// ContainsTrait reports whether the typed trait T is present.
func ContainsTrait[T Trait](r *Representation) bool {
	var zero T
	return r.ContainsTraitID(zero.ID())
}

// Validate runs every trait's cross-trait checks and collects all
// failures into a single error.
func (r *Representation) Validate() error {
	var errs []string
	for _, id := range r.order {
		if err := r.traits[id].Validate(r); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return &ValidationError{
			Scope:   r.name,
			Message: strings.Join(errs, "\n"),
		}
	}
	return nil
}

// Equal reports whether two representations carry the same name and an
// identical set of traits.
func (r *Representation) Equal(other *Representation) bool {
	if other == nil || r.name != other.name || len(r.traits) != len(other.traits) {
		return false
	}
	left, err := json.Marshal(r.TraitData())
	if err != nil {
		return false
	}
	right, err := json.Marshal(other.TraitData())
	if err != nil {
		return false
	}
	return string(left) == string(right)
}

// TraitData returns the representation content keyed by trait ID, the
// shape it is stored and transmitted in.
func (r *Representation) TraitData() map[string]map[string]any {
	data := make(map[string]map[string]any, len(r.traits))
	for id, trait := range r.traits {
		raw, err := json.Marshal(trait)
		if err != nil {
			continue
		}
		fields := make(map[string]any)
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue
		}
		data[id] = fields
	}
	return data
}

// FromTraitData rebuilds a representation from stored trait data using
// the default registry.
func FromTraitData(name string, data map[string]map[string]any) (*Representation, error) {
	return FromTraitDataWithRegistry(name, data, DefaultRegistry)
}

// FromTraitDataWithRegistry rebuilds a representation using a specific
// registry.
func FromTraitDataWithRegistry(
	name string, data map[string]map[string]any, registry *Registry,
) (*Representation, error) {
	rep := NewRepresentation(name)
	rep.registry = registry

	ids := make([]string, 0, len(data))
	for id := range data {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		trait, err := registry.Decode(id, data[id])
		if err != nil {
			return nil, fmt.Errorf("failed to decode trait %s: %w", id, err)
		}
		if err := rep.AddTrait(trait); err != nil {
			return nil, err
		}
	}
	return rep, nil
}

type representationEnvelope struct {
	Name             string                    `json:"name"`
	RepresentationID string                    `json:"representation_id"`
	Traits           map[string]map[string]any `json:"traits"`
}

func (r *Representation) MarshalJSON() ([]byte, error) {
	return json.Marshal(representationEnvelope{
		Name:             r.name,
		RepresentationID: r.id,
		Traits:           r.TraitData(),
	})
}

func (r *Representation) UnmarshalJSON(data []byte) error {
	var envelope representationEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	rebuilt, err := FromTraitData(envelope.Name, envelope.Traits)
	if err != nil {
		return err
	}
	if envelope.RepresentationID != "" {
		rebuilt.SetID(envelope.RepresentationID)
	}
	*r = *rebuilt
	return nil
}
