package execution

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Overwatch47/SpectraScout/config"
	"github.com/Overwatch47/SpectraScout/sandbox"
)

// SandboxEngine runs code of a single language through a sandbox executor.
type SandboxEngine struct {
	executor sandbox.SandboxExecutor
	language string
	memoryMB int
	network  bool
	logger   *zap.Logger
}

// NewSandboxEngine creates the engine used by run_code. Code is run as Python,
// the language the assistant executes.
func NewSandboxEngine(executor sandbox.SandboxExecutor, cfg *config.Config, logger *zap.Logger) *SandboxEngine {
	return &SandboxEngine{
		executor: executor,
		language: sandbox.LanguagePython,
		memoryMB: cfg.Sandbox.MemoryMB,
		network:  cfg.Sandbox.NetworkEnabled,
		logger:   logger.Named("engine"),
	}
}

// ForLanguage returns a copy of the engine that runs code as language.
func (e *SandboxEngine) ForLanguage(language string) *SandboxEngine {
	clone := *e
	clone.language = language
	return &clone
}

// Run executes code and maps the process outcome onto a Result: a non-zero
// exit code becomes Error, carrying stderr or the exit status.
func (e *SandboxEngine) Run(ctx context.Context, code string) (Result, error) {
	res, err := e.executor.Execute(ctx, sandbox.ExecuteRequest{
		Language: e.language,
		Code:     code,
		MemoryMB: e.memoryMB,
		Network:  e.network,
	})
	if err != nil {
		return Result{}, fmt.Errorf("sandbox execution failed: %w", err)
	}

	e.logger.Info("code execution completed",
		zap.String("language", e.language),
		zap.Int("exit_code", res.ExitCode),
		zap.Bool("timed_out", res.TimedOut),
		zap.Duration("duration", res.Duration),
		zap.Int("stdout_len", len(res.Stdout)),
		zap.Int("stderr_len", len(res.Stderr)))

	if res.ExitCode != 0 {
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = fmt.Sprintf("exit status %d", res.ExitCode)
		}
		return Result{Error: msg, Output: res.Stdout}, nil
	}

	return Result{Output: res.Stdout}, nil
}
