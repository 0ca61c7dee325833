package tools

import (
	"context"
	"io"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Overwatch47/SpectraScout/config"
	"github.com/Overwatch47/SpectraScout/execution"
	"github.com/Overwatch47/SpectraScout/sandbox"
	"github.com/Overwatch47/SpectraScout/syntaxcheck"
)

// Module provides the sandbox executor, a SyntaxChecker and a CodeRunner.
var Module = fx.Module("codetools",
	fx.Provide(
		NewSandboxExecutor,
		fx.Annotate(syntaxcheck.NewFromSandbox, fx.As(new(SyntaxChecker))),
		NewCodeRunner,
	),
)

// NewSandboxExecutor creates the configured executor and releases it on stop.
func NewSandboxExecutor(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (sandbox.SandboxExecutor, error) {
	executor, err := sandbox.NewExecutor(logger, cfg)
	if err != nil {
		return nil, err
	}
	if closer, ok := executor.(io.Closer); ok {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return closer.Close()
			},
		})
	}
	return executor, nil
}

// NewCodeRunner runs Python code on executor and reports the result as text.
func NewCodeRunner(executor sandbox.SandboxExecutor, cfg *config.Config, logger *zap.Logger) CodeRunner {
	return execution.NewReporter(execution.NewSandboxEngine(executor, cfg, logger), logger)
}
