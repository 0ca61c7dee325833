package assistant

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Overwatch47/SpectraScout/agent"
	"github.com/Overwatch47/SpectraScout/config"
	"github.com/Overwatch47/SpectraScout/prompts"
	"github.com/Overwatch47/SpectraScout/tools"
)

// Agent names.
const (
	RootAgentName      = "GithubRepoInfoAgent"
	SearchAgentName    = "SearchAgent"
	SummarizeAgentName = "SummarizeAgent"
)

// ToolSource supplies remote tools. *mcptoolset.Toolset satisfies it.
type ToolSource interface {
	Tools(ctx context.Context) ([]agent.Tool, error)
}

// Deps are the collaborators of the assistant.
type Deps struct {
	Generator agent.Generator
	Checker   tools.SyntaxChecker
	Runner    tools.CodeRunner
	// GitHub may be nil when no token is configured.
	GitHub   ToolSource
	Model    string
	MaxSteps int
}

// New builds the root agent and its sub-agents. A GitHub toolset that fails
// to load is logged and skipped.
func New(ctx context.Context, deps Deps, logger *zap.Logger) (*agent.Agent, error) {
	search, err := agent.New(agent.Config{
		Name:         SearchAgentName,
		Description:  "Use this agent to perform simple google searches.",
		Model:        deps.Model,
		Instruction:  prompts.Search,
		GoogleSearch: true,
		MaxSteps:     deps.MaxSteps,
	}, deps.Generator, logger)
	if err != nil {
		return nil, err
	}

	summarize, err := agent.New(agent.Config{
		Name:        SummarizeAgentName,
		Description: "Use this agent to summarize text content.",
		Model:       deps.Model,
		Instruction: prompts.Summarize,
		MaxSteps:    deps.MaxSteps,
	}, deps.Generator, logger)
	if err != nil {
		return nil, err
	}

	var rootTools []agent.Tool
	if deps.GitHub != nil {
		remote, err := deps.GitHub.Tools(ctx)
		if err != nil {
			logger.Warn("GitHub MCP tools unavailable, continuing without them", zap.Error(err))
		} else {
			rootTools = append(rootTools, remote...)
		}
	}
	rootTools = append(rootTools,
		tools.DebugCode(deps.Checker),
		tools.RunCode(deps.Runner),
		agent.AsTool(search),
		agent.AsTool(summarize),
	)

	return agent.New(agent.Config{
		Name:        RootAgentName,
		Description: "An agent that provides Github repository information from the github API.",
		Model:       deps.Model,
		Instruction: prompts.Assistant,
		Tools:       rootTools,
		MaxSteps:    deps.MaxSteps,
	}, deps.Generator, logger)
}

// NewGenAIClient creates a Gemini API client from the model configuration.
func NewGenAIClient(ctx context.Context, cfg *config.Config) (*genai.Client, error) {
	if cfg.Model.APIKey == "" {
		return nil, errors.New("no Gemini API key configured: set GOOGLE_API_KEY or GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Model.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}
