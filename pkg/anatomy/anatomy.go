package anatomy

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Anatomy holds the project roots and publish path templates used to
// resolve destinations for integrated files.
type Anatomy struct {
	project   string
	roots     map[string]string
	templates map[string]*Template
}

// New creates an anatomy from a project name, root paths keyed by root
// name and raw template strings keyed by template name.
func New(project string, roots map[string]string, templates map[string]string) (*Anatomy, error) {
	parsed := make(map[string]*Template, len(templates))
	for name, raw := range templates {
		template, err := NewTemplate(raw)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", name, err)
		}
		parsed[name] = template
	}
	cleanRoots := make(map[string]string, len(roots))
	for name, root := range roots {
		cleanRoots[name] = filepath.ToSlash(strings.TrimRight(root, "/"))
	}
	return &Anatomy{
		project:   project,
		roots:     cleanRoots,
		templates: parsed,
	}, nil
}

func (a *Anatomy) Project() string {
	return a.project
}

// Template returns the named template.
func (a *Anatomy) Template(name string) (*Template, error) {
	template, ok := a.templates[name]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", name)
	}
	return template, nil
}

// Root returns the path of the named root.
func (a *Anatomy) Root(name string) (string, error) {
	root, ok := a.roots[name]
	if !ok {
		return "", fmt.Errorf("unknown root %q", name)
	}
	return root, nil
}

// Roots returns a copy of the root map for template data.
func (a *Anatomy) Roots() map[string]string {
	roots := make(map[string]string, len(a.roots))
	for name, root := range a.roots {
		roots[name] = root
	}
	return roots
}

// RootlessPath replaces the longest matching root prefix of a path
// with a root placeholder, keeping stored paths portable between
// platforms. The second return value reports whether a root matched.
func (a *Anatomy) RootlessPath(path string) (string, bool) {
	slashed := filepath.ToSlash(path)

	names := make([]string, 0, len(a.roots))
	for name := range a.roots {
		names = append(names, name)
	}
	// Longest root wins when roots nest.
	sort.Slice(names, func(i, j int) bool {
		return len(a.roots[names[i]]) > len(a.roots[names[j]])
	})

	for _, name := range names {
		root := a.roots[name]
		if root == "" {
			continue
		}
		if strings.HasPrefix(slashed, root+"/") {
			return fmt.Sprintf("{root[%s]}%s", name, slashed[len(root):]), true
		}
		if slashed == root {
			return fmt.Sprintf("{root[%s]}", name), true
		}
	}
	return slashed, false
}
