package agent

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Tool is a function the model may call.
type Tool interface {
	Declaration() *genai.FunctionDeclaration
	Call(ctx context.Context, args map[string]any) (map[string]any, error)
}

// CallFunc implements a FunctionTool.
type CallFunc func(ctx context.Context, args map[string]any) (map[string]any, error)

// FunctionTool is a Tool backed by a Go function.
type FunctionTool struct {
	decl *genai.FunctionDeclaration
	fn   CallFunc
}

// NewFunctionTool declares a tool whose parameters are described by the JSON
// schema in params.
func NewFunctionTool(name, description string, params map[string]any, fn CallFunc) *FunctionTool {
	return &FunctionTool{
		decl: &genai.FunctionDeclaration{
			Name:                 name,
			Description:          description,
			ParametersJsonSchema: params,
		},
		fn: fn,
	}
}

func (t *FunctionTool) Declaration() *genai.FunctionDeclaration {
	return t.decl
}

func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	return t.fn(ctx, args)
}

// ObjectSchema builds a JSON schema for an object with string properties.
// properties maps names to descriptions.
func ObjectSchema(properties map[string]string, required ...string) map[string]any {
	props := make(map[string]any, len(properties))
	for name, desc := range properties {
		props[name] = map[string]any{
			"type":        "string",
			"description": desc,
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// StringArg returns the string argument name, failing when it is missing,
// not a string or empty.
func StringArg(args map[string]any, name string) (string, error) {
	s, err := RequiredStringArg(args, name)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("argument %q must not be empty", name)
	}
	return s, nil
}

// RequiredStringArg returns the string argument name, failing when it is
// missing or not a string. The empty string is accepted.
func RequiredStringArg(args map[string]any, name string) (string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", name)
	}
	return s, nil
}

// OptionalStringArg returns the string argument name or "" when it is absent.
func OptionalStringArg(args map[string]any, name string) (string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", name)
	}
	return s, nil
}

// AsTool exposes an agent as a tool taking a single "request" argument. The
// sub-agent starts from an empty history on every call.
func AsTool(a *Agent) Tool {
	params := ObjectSchema(map[string]string{
		"request": "The task or question for " + a.name + ".",
	}, "request")

	return NewFunctionTool(a.name, a.description, params, func(ctx context.Context, args map[string]any) (map[string]any, error) {
		request, err := StringArg(args, "request")
		if err != nil {
			return nil, err
		}
		reply, err := a.Run(ctx, nil, request)
		if err != nil {
			return nil, err
		}
		return map[string]any{"result": reply.Text}, nil
	})
}
