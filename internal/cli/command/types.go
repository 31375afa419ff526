package command

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// FieldType describes input type.
type FieldType int

const (
	FieldString FieldType = iota
	FieldBool
	// FieldText accepts an inline value or the contents of the file named by
	// the <name>_file parameter.
	FieldText
)

// Field defines a CLI input field.
type Field struct {
	Name     string
	Aliases  []string
	Prompt   string
	Type     FieldType
	Required bool
}

// Command defines a CLI command binding.
type Command struct {
	Service      string
	Action       string
	Method       string
	PathTemplate string
	Fields       []Field
	Usage        string
}

// Key returns the "service action" lookup key.
func (c Command) Key() string {
	return c.Service + " " + c.Action
}

// RequestSpec is the built HTTP request.
type RequestSpec struct {
	Method string
	Path   string
	Body   []byte
}

// Params holds parsed input params.
type Params map[string]string

func (p Params) Get(key string) string {
	return p[strings.ToLower(key)]
}

func (p Params) Set(key, value string) {
	p[strings.ToLower(key)] = value
}

func (p Params) Has(key string) bool {
	_, ok := p[strings.ToLower(key)]
	return ok
}

func (p Params) Canonicalize(fields []Field) {
	for _, field := range fields {
		for _, alias := range field.Aliases {
			aliasKey := strings.ToLower(alias)
			if value, ok := p[aliasKey]; ok {
				p[strings.ToLower(field.Name)] = value
				delete(p, aliasKey)
			}
		}
	}
}

// Provided reports whether a field has a value, inline or from a file.
func (p Params) Provided(field Field) bool {
	if p.Get(field.Name) != "" {
		return true
	}
	return field.Type == FieldText && p.Get(field.Name+"_file") != ""
}

// ParseBool accepts true/false, yes/no and 1/0.
func ParseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "false", "no", "0":
		return false, nil
	case "yes":
		return true, nil
	}
	return strconv.ParseBool(strings.TrimSpace(value))
}

func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file failed: %w", err)
	}
	return string(data), nil
}

// TextValue returns the inline value of name, or the contents of name_file.
func TextValue(params Params, name string) (string, error) {
	if value := params.Get(name); value != "" {
		return value, nil
	}
	if path := params.Get(name + "_file"); path != "" {
		return ReadFile(path)
	}
	return "", nil
}
