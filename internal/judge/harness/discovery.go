package harness

import (
	"regexp"
	"strings"

	"codeduel/internal/judge/language"
)

// entryPoints holds best-effort guesses extracted from the source text. The
// harness treats them as hints and falls back to runtime introspection.
type entryPoints struct {
	Hint       string
	Candidates []string
}

var (
	pySolutionClass = regexp.MustCompile(`(?m)^class\s+Solution\b[^\n]*:`)
	pyMethod        = regexp.MustCompile(`(?m)^[ \t]+(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(\s*self\b`)
	pyFunction      = regexp.MustCompile(`(?m)^(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`)

	jsSolutionClass = regexp.MustCompile(`\bclass\s+Solution\b[^{]*\{`)
	jsMethod        = regexp.MustCompile(`(?m)^[ \t]+(?:static\s+)?(?:async\s+)?\*?\s*([A-Za-z_$][\w$]*)\s*\([^)]*\)\s*\{`)
	jsFunction      = regexp.MustCompile(`(?m)^(?:export\s+(?:default\s+)?)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*\(`)
	jsBinding       = regexp.MustCompile(`(?m)^(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?(?:function\b|\([^)]*\)\s*=>|[A-Za-z_$][\w$]*\s*=>)`)
)

var jsReserved = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"function": true, "return": true, "with": true, "constructor": true,
}

func discoverEntryPoints(family language.Family, code string) entryPoints {
	switch family {
	case language.FamilyPython:
		return pythonEntryPoints(code)
	case language.FamilyJavaScript:
		return javascriptEntryPoints(code)
	}
	return entryPoints{}
}

func pythonEntryPoints(code string) entryPoints {
	var ep entryPoints
	if loc := pySolutionClass.FindStringIndex(code); loc != nil {
		ep.Hint = pickName(submatches(pyMethod, pythonBlock(code[loc[1]:])))
	}
	ep.Candidates = submatches(pyFunction, code)
	if ep.Hint == "" {
		ep.Hint = pickName(ep.Candidates)
	}
	return ep
}

func javascriptEntryPoints(code string) entryPoints {
	var ep entryPoints
	if loc := jsSolutionClass.FindStringIndex(code); loc != nil {
		body := braceBlock(code[loc[1]:])
		var methods []string
		for _, name := range submatches(jsMethod, body) {
			if !jsReserved[name] {
				methods = append(methods, name)
			}
		}
		ep.Hint = pickName(methods)
	}
	for _, name := range append(submatches(jsFunction, code), submatches(jsBinding, code)...) {
		if name != "Solution" && !contains(ep.Candidates, name) {
			ep.Candidates = append(ep.Candidates, name)
		}
	}
	if ep.Hint == "" {
		ep.Hint = pickName(ep.Candidates)
	}
	return ep
}

// pythonBlock returns the indented lines following a class header.
func pythonBlock(rest string) string {
	lines := strings.Split(rest, "\n")
	end := len(lines)
	for i, line := range lines {
		if i == 0 {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if line[0] != ' ' && line[0] != '\t' {
			end = i
			break
		}
	}
	return strings.Join(lines[:end], "\n")
}

// braceBlock returns text up to the brace closing an already opened block.
// Braces inside strings and comments are not special-cased.
func braceBlock(rest string) string {
	depth := 1
	for i, r := range rest {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return rest[:i]
			}
		}
	}
	return rest
}

func submatches(re *regexp.Regexp, text string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}

// pickName prefers public names, then single-underscore names; dunders never
// qualify.
func pickName(names []string) string {
	fallback := ""
	for _, name := range names {
		if strings.HasPrefix(name, "__") {
			continue
		}
		if !strings.HasPrefix(name, "_") {
			return name
		}
		if fallback == "" {
			fallback = name
		}
	}
	return fallback
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
