package command

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Registry returns all CLI commands keyed by "service action".
func Registry() map[string]Command {
	commands := []Command{
		{
			Service:      "judge",
			Action:       "run",
			Method:       "POST",
			PathTemplate: "/api/v1/judge",
			Usage:        "judge run language=python code_file=./sol.py input='{\"nums\":[2,7],\"target\":9}' expected='[0,1]'",
			Fields: []Field{
				{Name: "language", Aliases: []string{"lang"}, Prompt: "language", Type: FieldString, Required: true},
				{Name: "code", Prompt: "code", Type: FieldText, Required: true},
				{Name: "input", Prompt: "input", Type: FieldText, Required: true},
				{Name: "expected", Prompt: "expected", Type: FieldText, Required: true},
				{Name: "problem_type", Aliases: []string{"type"}, Type: FieldString},
				{Name: "order_sensitive", Aliases: []string{"ordered"}, Type: FieldBool},
			},
		},
		{
			Service:      "judge",
			Action:       "problem",
			Method:       "POST",
			PathTemplate: "/api/v1/judge/problems/:id",
			Usage:        "judge problem id=two-sum language=js code_file=./sol.js hidden=true",
			Fields: []Field{
				{Name: "id", Aliases: []string{"problem_id"}, Prompt: "problem_id", Type: FieldString, Required: true},
				{Name: "language", Aliases: []string{"lang"}, Prompt: "language", Type: FieldString, Required: true},
				{Name: "code", Prompt: "code", Type: FieldText, Required: true},
				{Name: "include_hidden", Aliases: []string{"hidden"}, Type: FieldBool},
			},
		},
		{
			Service:      "judge",
			Action:       "compare",
			Method:       "POST",
			PathTemplate: "/api/v1/judge/compare",
			Usage:        "judge compare expected='[0,1]' actual='[1,0]' ordered=true",
			Fields: []Field{
				{Name: "expected", Prompt: "expected", Type: FieldText, Required: true},
				{Name: "actual", Type: FieldText},
				{Name: "order_sensitive", Aliases: []string{"ordered"}, Type: FieldBool},
			},
		},
		{
			Service:      "judge",
			Action:       "languages",
			Method:       "GET",
			PathTemplate: "/api/v1/judge/languages",
			Usage:        "judge languages",
		},
		{
			Service:      "engine",
			Action:       "health",
			Method:       "GET",
			PathTemplate: "/healthz",
			Usage:        "engine health",
		},
	}

	out := make(map[string]Command, len(commands))
	for _, cmd := range commands {
		out[cmd.Key()] = cmd
	}
	return out
}

func BuildRequest(cmd Command, params Params) (RequestSpec, error) {
	params.Canonicalize(cmd.Fields)
	for _, field := range cmd.Fields {
		if field.Required && !params.Provided(field) {
			return RequestSpec{}, fmt.Errorf("%s is required", field.Name)
		}
	}
	path, err := buildPath(cmd.PathTemplate, params)
	if err != nil {
		return RequestSpec{}, err
	}

	var body []byte
	if cmd.Method != "GET" && cmd.Method != "DELETE" {
		payload, err := buildPayload(cmd, params)
		if err != nil {
			return RequestSpec{}, err
		}
		if payload != nil {
			body, err = json.Marshal(payload)
			if err != nil {
				return RequestSpec{}, fmt.Errorf("marshal request body failed: %w", err)
			}
		}
	}

	return RequestSpec{
		Method: cmd.Method,
		Path:   path,
		Body:   body,
	}, nil
}

func buildPath(template string, params Params) (string, error) {
	path := template
	if strings.Contains(path, ":id") {
		value := params.Get("id")
		if value == "" {
			return "", fmt.Errorf("missing path parameter: id")
		}
		path = strings.ReplaceAll(path, ":id", value)
	}
	return path, nil
}

// buildPayload maps snake_case params onto the camelCase request body.
func buildPayload(cmd Command, params Params) (interface{}, error) {
	payload := map[string]interface{}{}
	for _, field := range cmd.Fields {
		if field.Name == "id" {
			continue
		}
		key := jsonKey(field.Name)
		switch field.Type {
		case FieldBool:
			if !params.Has(field.Name) {
				continue
			}
			v, err := ParseBool(params.Get(field.Name))
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", field.Name, err)
			}
			payload[key] = v
		case FieldText:
			v, err := TextValue(params, field.Name)
			if err != nil {
				return nil, err
			}
			if v != "" {
				payload[key] = v
			}
		default:
			if v := params.Get(field.Name); v != "" {
				payload[key] = v
			}
		}
	}
	return payload, nil
}

func jsonKey(name string) string {
	parts := strings.Split(name, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
