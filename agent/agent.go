package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultMaxSteps bounds the model calls made for one user turn.
const DefaultMaxSteps = 10

var (
	// ErrMaxSteps is returned when the model keeps calling tools past MaxSteps.
	ErrMaxSteps = errors.New("agent exceeded maximum steps")
	// ErrEmptyResponse is returned when the model produced no candidate.
	ErrEmptyResponse = errors.New("model returned no content")
)

// Generator produces model output. *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config describes an agent.
type Config struct {
	Name        string
	Description string
	Model       string
	Instruction string
	Tools       []Tool
	// GoogleSearch attaches the built-in search tool. Gemini does not allow it
	// next to function tools.
	GoogleSearch bool
	MaxSteps     int
}

// Agent is a model with an instruction and a set of tools.
type Agent struct {
	name        string
	description string
	model       string
	instruction string
	tools       map[string]Tool
	order       []string
	search      bool
	maxSteps    int
	generator   Generator
	logger      *zap.Logger
}

// Reply is the outcome of one user turn.
type Reply struct {
	// Text is the model's final answer.
	Text string
	// Contents holds every content produced during the turn, starting with
	// the user message, in conversation order.
	Contents []*genai.Content
}

// New validates cfg and creates an Agent.
func New(cfg Config, generator Generator, logger *zap.Logger) (*Agent, error) {
	if cfg.Name == "" {
		return nil, errors.New("agent name must not be empty")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("agent %s: model must not be empty", cfg.Name)
	}
	if cfg.GoogleSearch && len(cfg.Tools) > 0 {
		return nil, fmt.Errorf("agent %s: google search cannot be combined with function tools", cfg.Name)
	}

	tools := make(map[string]Tool, len(cfg.Tools))
	order := make([]string, 0, len(cfg.Tools))
	for _, t := range cfg.Tools {
		name := t.Declaration().Name
		if _, dup := tools[name]; dup {
			return nil, fmt.Errorf("agent %s: duplicate tool %q", cfg.Name, name)
		}
		tools[name] = t
		order = append(order, name)
	}

	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	return &Agent{
		name:        cfg.Name,
		description: cfg.Description,
		model:       cfg.Model,
		instruction: cfg.Instruction,
		tools:       tools,
		order:       order,
		search:      cfg.GoogleSearch,
		maxSteps:    maxSteps,
		generator:   generator,
		logger:      logger.Named("agent").With(zap.String("agent", cfg.Name)),
	}, nil
}

// Name returns the agent name.
func (a *Agent) Name() string {
	return a.name
}

// ToolNames returns the names of the function tools in registration order.
func (a *Agent) ToolNames() []string {
	return append([]string(nil), a.order...)
}

// Run answers text given the prior conversation history. history is not
// modified.
func (a *Agent) Run(ctx context.Context, history []*genai.Content, text string) (*Reply, error) {
	user := genai.NewContentFromText(text, genai.RoleUser)

	contents := make([]*genai.Content, 0, len(history)+1)
	contents = append(contents, history...)
	contents = append(contents, user)
	turn := []*genai.Content{user}

	config := a.generateConfig()

	for step := 1; step <= a.maxSteps; step++ {
		resp, err := a.generator.GenerateContent(ctx, a.model, contents, config)
		if err != nil {
			return nil, fmt.Errorf("agent %s: generate content: %w", a.name, err)
		}
		if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return nil, fmt.Errorf("agent %s: %w", a.name, ErrEmptyResponse)
		}

		answer := resp.Candidates[0].Content
		if answer.Role == "" {
			answer.Role = string(genai.RoleModel)
		}
		contents = append(contents, answer)
		turn = append(turn, answer)

		calls := functionCalls(answer)
		if len(calls) == 0 {
			a.logger.Debug("agent answered", zap.Int("steps", step))
			return &Reply{Text: Text(answer), Contents: turn}, nil
		}

		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			parts = append(parts, a.invoke(ctx, call))
		}
		results := genai.NewContentFromParts(parts, genai.RoleUser)
		contents = append(contents, results)
		turn = append(turn, results)
	}

	a.logger.Warn("agent exceeded maximum steps", zap.Int("max_steps", a.maxSteps))
	return nil, fmt.Errorf("agent %s: %w (%d)", a.name, ErrMaxSteps, a.maxSteps)
}

// invoke executes one function call and wraps the outcome as a function
// response part.
func (a *Agent) invoke(ctx context.Context, call *genai.FunctionCall) *genai.Part {
	respond := func(response map[string]any) *genai.Part {
		return &genai.Part{FunctionResponse: &genai.FunctionResponse{
			ID:       call.ID,
			Name:     call.Name,
			Response: response,
		}}
	}

	t, ok := a.tools[call.Name]
	if !ok {
		a.logger.Warn("model called unknown tool", zap.String("tool", call.Name))
		return respond(map[string]any{"error": "unknown tool: " + call.Name})
	}

	a.logger.Debug("calling tool", zap.String("tool", call.Name))
	result, err := t.Call(ctx, call.Args)
	if err != nil {
		a.logger.Warn("tool call failed", zap.String("tool", call.Name), zap.Error(err))
		return respond(map[string]any{"error": err.Error()})
	}
	if result == nil {
		result = map[string]any{}
	}
	return respond(result)
}

func (a *Agent) generateConfig() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if a.instruction != "" {
		config.SystemInstruction = genai.NewContentFromText(a.instruction, genai.RoleUser)
	}
	if a.search {
		config.Tools = append(config.Tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
	}
	if len(a.order) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(a.order))
		for _, name := range a.order {
			decls = append(decls, a.tools[name].Declaration())
		}
		config.Tools = append(config.Tools, &genai.Tool{FunctionDeclarations: decls})
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAuto,
			},
		}
	}
	return config
}

func functionCalls(c *genai.Content) []*genai.FunctionCall {
	var calls []*genai.FunctionCall
	for _, part := range c.Parts {
		if part != nil && part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return calls
}

// Text joins the visible text parts of c. Thought parts are skipped.
func Text(c *genai.Content) string {
	if c == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range c.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}
