package traits

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// decodeFunc turns raw trait data back into a typed trait value.
type decodeFunc func(data map[string]any) (Trait, error)

// Registry maps trait IDs to decoders so stored representations can be
// rebuilt into typed traits. Lookups accept either the full versioned
// ID or the unversioned prefix, in which case the highest registered
// version wins.
type Registry struct {
	mutex    sync.RWMutex
	decoders map[string]decodeFunc
}

func NewRegistry() *Registry {
	return &Registry{
		decoders: make(map[string]decodeFunc),
	}
}

// DefaultRegistry holds every trait shipped with this package. It is
// populated from init and used by Representation (de)serialization.
var DefaultRegistry = NewRegistry()

// Register adds a decoder for the trait type T under its ID.
func Register[T Trait](r *Registry) {
	var zero T
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.decoders[zero.ID()] = decodeInto[T]
}

func decodeInto[T Trait](data map[string]any) (Trait, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trait data: %w", err)
	}

	var trait T
	if err := json.Unmarshal(raw, &trait); err != nil {
		return nil, fmt.Errorf("failed to decode trait data: %w", err)
	}

	if checker, ok := Trait(trait).(fieldChecker); ok {
		if err := checker.checkFields(); err != nil {
			return nil, err
		}
	}
	return trait, nil
}

// Resolve returns the registered decoder for the given trait ID. An
// unversioned ID resolves to the highest registered version.
func (r *Registry) Resolve(id string) (string, decodeFunc, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if decode, ok := r.decoders[id]; ok {
		return id, decode, nil
	}

	if TraitVersion(id) == 0 {
		prefix := id + ".v"
		var versions []string
		for registered := range r.decoders {
			if strings.HasPrefix(registered, prefix) {
				versions = append(versions, registered)
			}
		}
		if len(versions) > 0 {
			sort.Slice(versions, func(i, j int) bool {
				return TraitVersion(versions[i]) < TraitVersion(versions[j])
			})
			latest := versions[len(versions)-1]
			return latest, r.decoders[latest], nil
		}
	}

	return "", nil, &UnknownTraitError{ID: id}
}

// Decode rebuilds a typed trait from its ID and raw data.
func (r *Registry) Decode(id string, data map[string]any) (Trait, error) {
	_, decode, err := r.Resolve(id)
	if err != nil {
		return nil, err
	}
	return decode(data)
}

// IDs returns all registered trait IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ids := make([]string, 0, len(r.decoders))
	for id := range r.decoders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func init() {
	// Content traits.
	Register[FileLocation](DefaultRegistry)
	Register[FileLocations](DefaultRegistry)
	Register[RootlessLocation](DefaultRegistry)
	Register[LocatableContent](DefaultRegistry)
	Register[MimeType](DefaultRegistry)
	Register[Compressed](DefaultRegistry)
	Register[Bundle](DefaultRegistry)
	Register[Fragment](DefaultRegistry)

	// Two-dimensional traits.
	Register[Image](DefaultRegistry)
	Register[PixelBased](DefaultRegistry)
	Register[Planar](DefaultRegistry)
	Register[Deep](DefaultRegistry)
	Register[Overscan](DefaultRegistry)
	Register[UDIM](DefaultRegistry)

	// Temporal traits.
	Register[FrameRanged](DefaultRegistry)
	Register[Handles](DefaultRegistry)
	Register[Sequence](DefaultRegistry)
	Register[Static](DefaultRegistry)
	Register[SMPTETimecode](DefaultRegistry)

	// Lifecycle traits.
	Register[Persistent](DefaultRegistry)
	Register[Transient](DefaultRegistry)

	// Metadata traits.
	Register[Tagged](DefaultRegistry)
	Register[TemplatePath](DefaultRegistry)
	Register[Variant](DefaultRegistry)
	Register[KeepOriginalLocation](DefaultRegistry)
	Register[KeepOriginalName](DefaultRegistry)
	Register[SourceApplication](DefaultRegistry)
	Register[IntendedUse](DefaultRegistry)
	Register[ColorManaged](DefaultRegistry)
}
