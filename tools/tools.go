package tools

import (
	"context"
	"strings"

	"github.com/Overwatch47/SpectraScout/agent"
)

// Tool names shared by every surface that exposes the code tools.
const (
	DebugCodeName = "debug_code"
	RunCodeName   = "run_code"
)

// Descriptions shown to models and MCP clients.
const (
	DebugCodeDescription = "Analyze source code for syntax problems without executing it. " +
		"Returns either a success message or the first syntax error with its line and column."
	RunCodeDescription = "Execute Python code in an isolated sandbox and return its output " +
		"or the runtime error it raised."
)

// SyntaxChecker is satisfied by *syntaxcheck.Checker.
type SyntaxChecker interface {
	Check(ctx context.Context, language, code string) string
	Languages() []string
}

// CodeRunner is satisfied by *execution.Reporter.
type CodeRunner interface {
	Report(ctx context.Context, code string) string
}

// DebugCode returns the debug_code tool. It takes "code" and an optional
// "language".
func DebugCode(checker SyntaxChecker) agent.Tool {
	params := agent.ObjectSchema(map[string]string{
		"code":     "The source code to analyze.",
		"language": "Language of the code: " + strings.Join(checker.Languages(), ", ") + ". Defaults to python.",
	}, "code")

	return agent.NewFunctionTool(DebugCodeName, DebugCodeDescription, params,
		func(ctx context.Context, args map[string]any) (map[string]any, error) {
			code, err := agent.RequiredStringArg(args, "code")
			if err != nil {
				return nil, err
			}
			language, err := agent.OptionalStringArg(args, "language")
			if err != nil {
				return nil, err
			}
			return map[string]any{"result": checker.Check(ctx, language, code)}, nil
		})
}

// RunCode returns the run_code tool. It takes "code".
func RunCode(runner CodeRunner) agent.Tool {
	params := agent.ObjectSchema(map[string]string{
		"code": "The Python source code to execute.",
	}, "code")

	return agent.NewFunctionTool(RunCodeName, RunCodeDescription, params,
		func(ctx context.Context, args map[string]any) (map[string]any, error) {
			code, err := agent.RequiredStringArg(args, "code")
			if err != nil {
				return nil, err
			}
			return map[string]any{"result": runner.Report(ctx, code)}, nil
		})
}
