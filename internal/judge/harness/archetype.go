package harness

import (
	"sort"
	"strings"

	appErr "codeduel/pkg/errors"
)

// Archetype names the argument-adaptation strategy a harness applies before
// calling the entry point.
type Archetype string

const (
	ArchetypeGeneric        Archetype = "generic"
	ArchetypeTwoSum         Archetype = "two_sum"
	ArchetypePalindrome     Archetype = "palindrome"
	ArchetypeReverseInPlace Archetype = "reverse_in_place"
)

// Strategy describes one archetype. Keywords are only consulted by the legacy
// method-name inference.
type Strategy struct {
	Archetype   Archetype
	Description string
	Keywords    []string
}

// Every strategy listed here has an adapter of the same name in each
// harness template.
var strategies = map[Archetype]Strategy{
	ArchetypeGeneric: {
		Archetype:   ArchetypeGeneric,
		Description: "named arguments, then positional map values, then a single value, then list spread",
	},
	ArchetypeTwoSum: {
		Archetype:   ArchetypeTwoSum,
		Description: "call with (nums, target)",
		Keywords:    []string{"twosum", "two_sum"},
	},
	ArchetypePalindrome: {
		Archetype:   ArchetypePalindrome,
		Description: "call with one string",
		Keywords:    []string{"palindrome"},
	},
	ArchetypeReverseInPlace: {
		Archetype:   ArchetypeReverseInPlace,
		Description: "call with one list; the mutated list is the answer when nothing is returned",
		Keywords:    []string{"reverse"},
	},
}

// legacyOrder fixes which archetype wins when a name matches several.
var legacyOrder = []Archetype{ArchetypeTwoSum, ArchetypePalindrome, ArchetypeReverseInPlace}

// ParseArchetype resolves a declared problem type. Empty means generic.
func ParseArchetype(raw string) (Archetype, error) {
	key := Archetype(strings.ToLower(strings.TrimSpace(raw)))
	if key == "" {
		return ArchetypeGeneric, nil
	}
	if _, ok := strategies[key]; !ok {
		return "", appErr.ValidationError("problemType", "unknown problem type "+raw).
			WithDetail("allowed", Archetypes())
	}
	return key, nil
}

// InferArchetype classifies a method name by substring, the way problems were
// matched before problem types were declared.
func InferArchetype(methodName string) Archetype {
	name := strings.ToLower(methodName)
	if name == "" {
		return ArchetypeGeneric
	}
	for _, a := range legacyOrder {
		for _, kw := range strategies[a].Keywords {
			if strings.Contains(name, kw) {
				return a
			}
		}
	}
	return ArchetypeGeneric
}

// Archetypes lists the registered archetype names.
func Archetypes() []string {
	out := make([]string, 0, len(strategies))
	for a := range strategies {
		out = append(out, string(a))
	}
	sort.Strings(out)
	return out
}

// Lookup returns the strategy for an archetype.
func Lookup(a Archetype) (Strategy, bool) {
	s, ok := strategies[a]
	return s, ok
}
