package publish

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/openvfx/gopublish/pkg/traits"
)

// Manifest is the JSON document describing one publish run. It is the
// input of the publish command and of the hot folder agent.
type Manifest struct {
	Project   string             `json:"project"`
	User      string             `json:"user,omitempty"`
	Machine   string             `json:"machine,omitempty"`
	Comment   string             `json:"comment,omitempty"`
	Instances []ManifestInstance `json:"instances"`
}

// ManifestInstance describes one publishable instance.
type ManifestInstance struct {
	Name            string                  `json:"name"`
	FolderPath      string                  `json:"folder_path"`
	Task            string                  `json:"task,omitempty"`
	ProductName     string                  `json:"product_name"`
	ProductType     string                  `json:"product_type"`
	Families        []string                `json:"families,omitempty"`
	Version         *int                    `json:"version,omitempty"`
	FPS             float64                 `json:"fps,omitempty"`
	Source          string                  `json:"source,omitempty"`
	Farm            bool                    `json:"farm,omitempty"`
	Integrate       *bool                   `json:"integrate,omitempty"`
	Representations []traits.Representation `json:"representations"`
}

// LoadManifest reads a manifest file and builds a publish context from
// it. Representations are rebuilt into typed traits, so unknown trait
// IDs fail here rather than halfway through integration.
func LoadManifest(path string) (*Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest builds a publish context from raw manifest JSON.
func ParseManifest(data []byte) (*Context, error) {
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if manifest.Project == "" {
		return nil, fmt.Errorf("manifest is missing the project name")
	}

	pctx := &Context{
		Project: manifest.Project,
		User:    manifest.User,
		Machine: manifest.Machine,
		Comment: manifest.Comment,
	}
	if pctx.Machine == "" {
		pctx.Machine, _ = os.Hostname()
	}

	for n := range manifest.Instances {
		entry := &manifest.Instances[n]
		if entry.FolderPath == "" {
			return nil, fmt.Errorf(
				"instance %s is missing the folder path", entry.Name)
		}
		if entry.ProductName == "" {
			return nil, fmt.Errorf(
				"instance %s is missing the product name", entry.Name)
		}

		instance := &Instance{
			Name:        entry.Name,
			FolderPath:  entry.FolderPath,
			Task:        entry.Task,
			ProductName: entry.ProductName,
			ProductType: entry.ProductType,
			Families:    entry.Families,
			Version:     entry.Version,
			FPS:         entry.FPS,
			Source:      entry.Source,
			Farm:        entry.Farm,
			Integrate:   true,
		}
		if entry.Integrate != nil {
			instance.Integrate = *entry.Integrate
		}
		for r := range entry.Representations {
			rep := entry.Representations[r]
			instance.Representations = append(instance.Representations, &rep)
		}
		pctx.Instances = append(pctx.Instances, instance)
	}

	return pctx, nil
}
