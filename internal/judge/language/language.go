// Package language maps submission language identifiers to execution backend
// language ids and harness families.
package language

import (
	"fmt"
	"sort"
	"strings"

	appErr "codeduel/pkg/errors"
)

// Family selects the harness template used for a language.
type Family string

const (
	// FamilyNone judges by comparing raw stdout with the expected text.
	FamilyNone       Family = ""
	FamilyPython     Family = "python"
	FamilyJavaScript Family = "javascript"
)

// Descriptor defines how one submission language reaches the backend.
type Descriptor struct {
	ID        string   `yaml:"id" json:"id"`
	Name      string   `yaml:"name" json:"name"`
	BackendID int      `yaml:"backendId" json:"backendId"`
	Family    Family   `yaml:"family" json:"family,omitempty"`
	Aliases   []string `yaml:"aliases" json:"aliases,omitempty"`
}

// HasHarness reports whether submissions in this language are wrapped.
func (d Descriptor) HasHarness() bool {
	return d.Family != FamilyNone
}

// Defaults are the Judge0 CE language ids.
var Defaults = []Descriptor{
	{ID: "python", Name: "Python (3.8.1)", BackendID: 71, Family: FamilyPython, Aliases: []string{"python3", "py"}},
	{ID: "javascript", Name: "JavaScript (Node.js 12.14.0)", BackendID: 63, Family: FamilyJavaScript, Aliases: []string{"js", "node", "nodejs"}},
	{ID: "typescript", Name: "TypeScript (3.7.4)", BackendID: 74, Aliases: []string{"ts"}},
	{ID: "java", Name: "Java (OpenJDK 13.0.1)", BackendID: 62},
	{ID: "cpp", Name: "C++ (GCC 9.2.0)", BackendID: 54, Aliases: []string{"c++"}},
	{ID: "c", Name: "C (GCC 9.2.0)", BackendID: 50},
	{ID: "csharp", Name: "C# (Mono 6.6.0.161)", BackendID: 51, Aliases: []string{"c#", "cs"}},
	{ID: "go", Name: "Go (1.13.5)", BackendID: 60, Aliases: []string{"golang"}},
	{ID: "rust", Name: "Rust (1.40.0)", BackendID: 73, Aliases: []string{"rs"}},
	{ID: "ruby", Name: "Ruby (2.7.0)", BackendID: 72, Aliases: []string{"rb"}},
	{ID: "kotlin", Name: "Kotlin (1.3.70)", BackendID: 78, Aliases: []string{"kt"}},
	{ID: "swift", Name: "Swift (5.2.3)", BackendID: 83},
	{ID: "php", Name: "PHP (7.4.1)", BackendID: 68},
}

// Registry is an immutable lookup table built once at startup.
type Registry struct {
	byKey map[string]Descriptor
	list  []Descriptor
}

// NewRegistry builds a registry from the defaults overlaid with overrides.
// An override with an existing id replaces that descriptor.
func NewRegistry(overrides []Descriptor) (*Registry, error) {
	merged := make(map[string]Descriptor, len(Defaults)+len(overrides))
	for _, d := range Defaults {
		merged[d.ID] = d
	}
	for _, d := range overrides {
		d.ID = normalize(d.ID)
		if d.ID == "" {
			return nil, fmt.Errorf("language id is required")
		}
		if d.BackendID <= 0 {
			return nil, fmt.Errorf("language %s: backend id must be positive", d.ID)
		}
		switch d.Family {
		case FamilyNone, FamilyPython, FamilyJavaScript:
		default:
			return nil, fmt.Errorf("language %s: unknown harness family %q", d.ID, d.Family)
		}
		merged[d.ID] = d
	}

	reg := &Registry{byKey: make(map[string]Descriptor, len(merged)*2)}
	ids := make([]string, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		d := merged[id]
		reg.list = append(reg.list, d)
		reg.byKey[id] = d
	}
	for _, d := range reg.list {
		for _, alias := range d.Aliases {
			alias = normalize(alias)
			if alias == "" {
				continue
			}
			if existing, ok := reg.byKey[alias]; ok && existing.ID != d.ID {
				return nil, fmt.Errorf("language alias %q is used by both %s and %s", alias, existing.ID, d.ID)
			}
			reg.byKey[alias] = d
		}
	}
	return reg, nil
}

// Lookup resolves an identifier or alias, ignoring case.
func (r *Registry) Lookup(id string) (Descriptor, error) {
	key := normalize(id)
	if key == "" {
		return Descriptor{}, appErr.ValidationError("language", "required")
	}
	d, ok := r.byKey[key]
	if !ok {
		return Descriptor{}, appErr.Newf(appErr.LanguageNotSupported, "Unsupported language: %s", id).
			WithDetail("language", id)
	}
	return d, nil
}

// List returns all descriptors ordered by id.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, len(r.list))
	copy(out, r.list)
	return out
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
