package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Overwatch47/SpectraScout/execution"
	"github.com/Overwatch47/SpectraScout/syntaxcheck"
)

type recordingRunner struct {
	codes []string
}

func (r *recordingRunner) Report(_ context.Context, code string) string {
	r.codes = append(r.codes, code)
	return "Output:\n4"
}

func TestDebugCode(t *testing.T) {
	checker := syntaxcheck.NewChecker(zaptest.NewLogger(t), map[string]syntaxcheck.Parser{"go": syntaxcheck.GoParser{}})
	tool := DebugCode(checker)
	ctx := context.Background()

	decl := tool.Declaration()
	assert.Equal(t, "debug_code", decl.Name)
	schema, ok := decl.ParametersJsonSchema.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"code"}, schema["required"])

	t.Run("Valid", func(t *testing.T) {
		result, err := tool.Call(ctx, map[string]any{"code": "package main\n", "language": "go"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"result": "No syntax errors detected."}, result)
	})

	t.Run("Invalid", func(t *testing.T) {
		result, err := tool.Call(ctx, map[string]any{"code": "package main\nfunc main() {", "language": "go"})
		require.NoError(t, err)
		assert.Contains(t, result["result"], "Syntax Error: ")
	})

	t.Run("MissingCode", func(t *testing.T) {
		_, err := tool.Call(ctx, map[string]any{"language": "go"})
		require.Error(t, err)
	})

	t.Run("EmptyCodeReachesChecker", func(t *testing.T) {
		result, err := tool.Call(ctx, map[string]any{"code": "", "language": "go"})
		require.NoError(t, err)
		assert.Equal(t, checker.Check(ctx, "go", ""), result["result"])
		assert.Contains(t, result["result"], "Syntax Error: ")
	})

	t.Run("BadLanguageType", func(t *testing.T) {
		_, err := tool.Call(ctx, map[string]any{"code": "x", "language": 3})
		require.Error(t, err)
	})
}

func TestRunCode(t *testing.T) {
	ctx := context.Background()

	t.Run("Forwards", func(t *testing.T) {
		runner := &recordingRunner{}
		tool := RunCode(runner)
		assert.Equal(t, "run_code", tool.Declaration().Name)

		result, err := tool.Call(ctx, map[string]any{"code": "print(2+2)"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"result": "Output:\n4"}, result)
		assert.Equal(t, []string{"print(2+2)"}, runner.codes)
	})

	t.Run("EmptyCode", func(t *testing.T) {
		runner := &recordingRunner{}
		result, err := RunCode(runner).Call(ctx, map[string]any{"code": ""})
		require.NoError(t, err)
		assert.Equal(t, "Output:\n4", result["result"])
		assert.Equal(t, []string{""}, runner.codes)
	})

	t.Run("MissingCode", func(t *testing.T) {
		_, err := RunCode(&recordingRunner{}).Call(ctx, map[string]any{})
		require.Error(t, err)
	})

	t.Run("OverReporter", func(t *testing.T) {
		engine := execution.EngineFunc(func(context.Context, string) (execution.Result, error) {
			return execution.Result{Error: "ZeroDivisionError: division by zero"}, nil
		})
		tool := RunCode(execution.NewReporter(engine, zaptest.NewLogger(t)))

		result, err := tool.Call(ctx, map[string]any{"code": "1/0"})
		require.NoError(t, err)
		assert.Equal(t, "Runtime Error: ZeroDivisionError: division by zero", result["result"])
	})
}
