// Package harness wraps contestant code into a self-checking program for
// languages that have a harness family. The generated program locates the
// entry point, adapts the test input to its parameters, compares the result
// with the expected value and reports through line markers on stdout.
package harness

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"codeduel/internal/judge/compare"
	"codeduel/internal/judge/language"
	appErr "codeduel/pkg/errors"
)

// Markers printed by generated harnesses, one per line.
const (
	MarkerPassed         = "PASSED"
	MarkerFailed         = "FAILED"
	MarkerResult         = "RESULT:"
	MarkerExpected       = "EXPECTED:"
	MarkerError          = "ERROR:"
	MarkerExecutionError = "EXECUTION_ERROR:"
	MarkerDebug          = "DEBUG:"
)

const defaultMaxCodeBytes = 64 * 1024

// ErrNoHarness is returned for languages judged in raw mode.
var ErrNoHarness = errors.New("language has no harness family")

//go:embed templates/*.tmpl
var templateFS embed.FS

// Options configures a Generator.
type Options struct {
	// MaxCodeBytes bounds the submitted source. Zero uses the default.
	MaxCodeBytes int
	// InferArchetype enables the legacy method-name classification when a
	// submission declares no problem type.
	InferArchetype bool
}

// Source is one submission/test-case pair to wrap.
type Source struct {
	Code string
	// Input and Expected are serialized values. Text that is not JSON is
	// treated as a plain string.
	Input    string
	Expected string
	// ProblemType is the declared archetype; empty means generic.
	ProblemType    string
	OrderSensitive bool
}

// Program is a generated harness.
type Program struct {
	Text       string
	Archetype  Archetype
	EntryPoint string
}

// Generator renders harness programs. It is safe for concurrent use.
type Generator struct {
	templates      map[language.Family]*template.Template
	maxCodeBytes   int
	inferArchetype bool
}

type templateData struct {
	Source         string
	Input          string
	Expected       string
	Hint           string
	Candidates     string
	Archetype      string
	OrderSensitive string
}

// NewGenerator parses the embedded templates.
func NewGenerator(opts Options) (*Generator, error) {
	g := &Generator{
		templates:      make(map[language.Family]*template.Template, 2),
		maxCodeBytes:   opts.MaxCodeBytes,
		inferArchetype: opts.InferArchetype,
	}
	if g.maxCodeBytes <= 0 {
		g.maxCodeBytes = defaultMaxCodeBytes
	}
	for family, file := range map[language.Family]string{
		language.FamilyPython:     "templates/python.tmpl",
		language.FamilyJavaScript: "templates/javascript.tmpl",
	} {
		tmpl, err := template.New(string(family)).Option("missingkey=error").ParseFS(templateFS, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s harness template failed: %w", family, err)
		}
		g.templates[family] = tmpl.Lookup(strings.TrimPrefix(file, "templates/"))
	}
	return g, nil
}

// Generate wraps src for the given family.
func (g *Generator) Generate(family language.Family, src Source) (Program, error) {
	tmpl, ok := g.templates[family]
	if !ok {
		return Program{}, ErrNoHarness
	}
	if err := g.validateCode(src.Code); err != nil {
		return Program{}, err
	}
	archetype, err := ParseArchetype(src.ProblemType)
	if err != nil {
		return Program{}, err
	}

	ep := discoverEntryPoints(family, src.Code)
	if strings.TrimSpace(src.ProblemType) == "" && g.inferArchetype {
		archetype = InferArchetype(ep.Hint)
	}

	input, err := jsonText(src.Input)
	if err != nil {
		return Program{}, appErr.Wrap(err, appErr.HarnessGenerationFailed).WithDetail("field", "input")
	}
	expected, err := jsonText(src.Expected)
	if err != nil {
		return Program{}, appErr.Wrap(err, appErr.HarnessGenerationFailed).WithDetail("field", "expected")
	}
	data := templateData{
		Source:         literal(src.Code),
		Input:          literal(input),
		Expected:       literal(expected),
		Hint:           literal(ep.Hint),
		Candidates:     literal(nonNil(ep.Candidates)),
		Archetype:      literal(string(archetype)),
		OrderSensitive: boolLiteral(family, src.OrderSensitive),
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Program{}, appErr.Wrap(err, appErr.HarnessGenerationFailed)
	}
	return Program{Text: buf.String(), Archetype: archetype, EntryPoint: ep.Hint}, nil
}

func (g *Generator) validateCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return appErr.ValidationError("code", "required")
	}
	if len(code) > g.maxCodeBytes {
		return appErr.Newf(appErr.CodeTooLarge, "code exceeds %d bytes", g.maxCodeBytes).
			WithDetail("size", len(code))
	}
	if !utf8.ValidString(code) {
		return appErr.ValidationError("code", "must be valid UTF-8")
	}
	if strings.ContainsRune(code, 0) {
		return appErr.ValidationError("code", "must not contain NUL bytes")
	}
	return nil
}

// jsonText normalizes a serialized value into JSON text the harness can
// always parse. Valid JSON is compacted as is so object key order survives.
func jsonText(raw string) (string, error) {
	if json.Valid([]byte(raw)) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(raw)); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	b, err := json.Marshal(compare.Decode(raw))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// literal quotes v as JSON. A JSON string is also a valid Python and
// JavaScript string literal.
func literal(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
	return strings.TrimSuffix(buf.String(), "\n")
}

func boolLiteral(family language.Family, v bool) string {
	switch {
	case family == language.FamilyPython && v:
		return "True"
	case family == language.FamilyPython:
		return "False"
	case v:
		return "true"
	}
	return "false"
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
