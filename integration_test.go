package integration

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Overwatch47/SpectraScout/config"
	"github.com/Overwatch47/SpectraScout/execution"
	"github.com/Overwatch47/SpectraScout/logger"
	"github.com/Overwatch47/SpectraScout/mcpserver"
	"github.com/Overwatch47/SpectraScout/sandbox"
	"github.com/Overwatch47/SpectraScout/syntaxcheck"
)

// localConfig runs code on the host; these tests need python3 on PATH.
func localConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Transport: "stdio",
			HTTPPort:  8080,
		},
		Sandbox: config.SandboxConfig{
			Backend:            "local",
			TimeoutSec:         10,
			MemoryMB:           128,
			EnableLocalBackend: true,
		},
		Logging: config.LoggingConfig{
			Mode:  "development",
			Level: "info",
		},
		Languages: config.DefaultLanguages(),
	}
}

func requirePython(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}
}

// TestIntegrationConfigLoggerSandbox tests the integration between config, logger, and sandbox packages
func TestIntegrationConfigLoggerSandbox(t *testing.T) {
	t.Run("ConfigAndLoggerIntegration", func(t *testing.T) {
		cfg := localConfig()

		testLogger, err := logger.NewFromConfig(cfg)
		require.NoError(t, err)
		require.NotNil(t, testLogger)

		testLogger.Info("Integration test started")
		_ = logger.Sync(testLogger)
	})

	t.Run("ConfigLoggerSandboxFactoryIntegration", func(t *testing.T) {
		cfg := localConfig()

		executor, err := sandbox.NewExecutor(zaptest.NewLogger(t), cfg)
		require.NoError(t, err)
		assert.IsType(t, &sandbox.LocalExecutor{}, executor)
	})
}

func TestIntegrationCodeTools(t *testing.T) {
	requirePython(t)

	cfg := localConfig()
	log := zaptest.NewLogger(t)
	ctx := context.Background()

	executor, err := sandbox.NewExecutor(log, cfg)
	require.NoError(t, err)

	checker := syntaxcheck.NewFromSandbox(log, executor)
	reporter := execution.NewReporter(execution.NewSandboxEngine(executor, cfg, log), log)

	t.Run("DebugCodeValid", func(t *testing.T) {
		assert.Equal(t, "No syntax errors detected.", checker.Check(ctx, "python", "print('hello world')"))
	})

	t.Run("DebugCodeDoesNotExecute", func(t *testing.T) {
		assert.Equal(t, "No syntax errors detected.", checker.Check(ctx, "python", "raise SystemExit(3)"))
	})

	t.Run("DebugCodeSyntaxError", func(t *testing.T) {
		got := checker.Check(ctx, "python", "print('hi'")
		assert.True(t, strings.HasPrefix(got, "Syntax Error: "), got)
		assert.Contains(t, got, "at line 1, column ")
	})

	t.Run("DebugCodeIndentation", func(t *testing.T) {
		got := checker.Check(ctx, "python", "def f():\nreturn 1\n")
		assert.True(t, strings.HasPrefix(got, "Syntax Error: "), got)
		assert.Contains(t, got, "at line 2")
	})

	t.Run("RunCodeOutput", func(t *testing.T) {
		assert.Equal(t, "Output:\n4\n", reporter.Report(ctx, "print(2+2)"))
	})

	t.Run("RunCodeEmptyOutput", func(t *testing.T) {
		assert.Equal(t, "Output:\n", reporter.Report(ctx, "x = 1"))
	})

	t.Run("RunCodeRuntimeError", func(t *testing.T) {
		got := reporter.Report(ctx, "1/0")
		assert.True(t, strings.HasPrefix(got, "Runtime Error: "), got)
		assert.Contains(t, got, "ZeroDivisionError")
	})

	t.Run("MCPServer", func(t *testing.T) {
		server, err := mcpserver.New(cfg, log, checker, reporter)
		require.NoError(t, err)
		assert.NotNil(t, server.GetMCPServer())
	})
}
