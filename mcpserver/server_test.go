package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Overwatch47/SpectraScout/config"
	"github.com/Overwatch47/SpectraScout/execution"
	"github.com/Overwatch47/SpectraScout/syntaxcheck"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Transport: "stdio",
			HTTPPort:  8080,
		},
		Sandbox: config.SandboxConfig{
			Backend:    "docker",
			TimeoutSec: 30,
			MemoryMB:   512,
		},
		Logging: config.LoggingConfig{
			Mode:  "production",
			Level: "info",
		},
		Languages: config.DefaultLanguages(),
	}
}

func newTestServer(t *testing.T, result execution.Result) *MCPServer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	checker := syntaxcheck.NewChecker(logger, map[string]syntaxcheck.Parser{
		"go": syntaxcheck.GoParser{},
	})
	engine := execution.EngineFunc(func(context.Context, string) (execution.Result, error) {
		return result, nil
	})

	server, err := New(testConfig(), logger, checker, execution.NewReporter(engine, logger))
	require.NoError(t, err)
	require.NotNil(t, server)
	return server
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args
	return request
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestNewMCPServer(t *testing.T) {
	server := newTestServer(t, execution.Result{})
	assert.NotNil(t, server.GetMCPServer())

	resp := server.GetMCPServer().HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded struct {
		Result struct {
			Tools []struct {
				Name        string `json:"name"`
				InputSchema struct {
					Required []string `json:"required"`
				} `json:"inputSchema"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	names := map[string][]string{}
	for _, tool := range decoded.Result.Tools {
		names[tool.Name] = tool.InputSchema.Required
	}
	assert.Equal(t, map[string][]string{
		"debug_code": {"code"},
		"run_code":   {"code"},
	}, names)
}

func TestDebugCode(t *testing.T) {
	server := newTestServer(t, execution.Result{})
	ctx := context.Background()

	t.Run("Valid", func(t *testing.T) {
		result, err := server.handleDebugCode(ctx, callRequest("debug_code", map[string]any{
			"code":     "package main\n\nfunc main() {}\n",
			"language": "go",
		}))
		require.NoError(t, err)
		assert.False(t, result.IsError)
		assert.Equal(t, "No syntax errors detected.", resultText(t, result))
	})

	t.Run("SyntaxError", func(t *testing.T) {
		result, err := server.handleDebugCode(ctx, callRequest("debug_code", map[string]any{
			"code":     "package main\nfunc main() {",
			"language": "go",
		}))
		require.NoError(t, err)
		assert.False(t, result.IsError)
		assert.Contains(t, resultText(t, result), "Syntax Error: ")
	})

	t.Run("SameAsChecker", func(t *testing.T) {
		src := "package main\nfunc main() { x := }\n"
		result, err := server.handleDebugCode(ctx, callRequest("debug_code", map[string]any{"code": src, "language": "go"}))
		require.NoError(t, err)
		assert.Equal(t, server.checker.Check(ctx, "go", src), resultText(t, result))
	})

	t.Run("MissingCode", func(t *testing.T) {
		result, err := server.handleDebugCode(ctx, callRequest("debug_code", map[string]any{}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "code parameter is required")
	})
}

func TestRunCode(t *testing.T) {
	ctx := context.Background()

	t.Run("Output", func(t *testing.T) {
		server := newTestServer(t, execution.Result{Output: "4"})
		result, err := server.handleRunCode(ctx, callRequest("run_code", map[string]any{"code": "print(2+2)"}))
		require.NoError(t, err)
		assert.False(t, result.IsError)
		assert.Equal(t, "Output:\n4", resultText(t, result))
	})

	t.Run("RuntimeError", func(t *testing.T) {
		server := newTestServer(t, execution.Result{Error: "ZeroDivisionError: division by zero"})
		result, err := server.handleRunCode(ctx, callRequest("run_code", map[string]any{"code": "1/0"}))
		require.NoError(t, err)
		assert.False(t, result.IsError)
		assert.Equal(t, "Runtime Error: ZeroDivisionError: division by zero", resultText(t, result))
	})

	t.Run("MissingCode", func(t *testing.T) {
		server := newTestServer(t, execution.Result{})
		result, err := server.handleRunCode(ctx, callRequest("run_code", nil))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}
