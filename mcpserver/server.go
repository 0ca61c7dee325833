package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/Overwatch47/SpectraScout/config"
	"github.com/Overwatch47/SpectraScout/tools"
)

// MCPServer represents the MCP server
type MCPServer struct {
	config    *config.Config
	logger    *zap.Logger
	checker   tools.SyntaxChecker
	runner    tools.CodeRunner
	mcpServer *server.MCPServer
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, checker tools.SyntaxChecker, runner tools.CodeRunner) (*MCPServer, error) {
	s := &MCPServer{
		config:  cfg,
		logger:  logger,
		checker: checker,
		runner:  runner,
	}

	// Log configuration parameters on startup
	logger.Info("configuration loaded",
		zap.String("server.transport", s.config.Server.Transport),
		zap.Int("server.http_port", s.config.Server.HTTPPort),
		zap.String("sandbox.backend", s.config.Sandbox.Backend),
		zap.Int("sandbox.timeout_sec", s.config.Sandbox.TimeoutSec),
		zap.Int("sandbox.memory_mb", s.config.Sandbox.MemoryMB),
		zap.Bool("sandbox.network_enabled", s.config.Sandbox.NetworkEnabled),
		zap.Bool("sandbox.enable_local_backend", s.config.Sandbox.EnableLocalBackend),
		zap.Strings("languages", checker.Languages()),
	)

	s.mcpServer = server.NewMCPServer("spectrascout-tools", "1.0.0", server.WithToolCapabilities(false))

	s.registerDebugCodeTool()
	s.registerRunCodeTool()

	return s, nil
}

// registerDebugCodeTool registers the debug_code tool
func (s *MCPServer) registerDebugCodeTool() {
	tool := mcp.Tool{
		Name:        tools.DebugCodeName,
		Description: tools.DebugCodeDescription,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Source code to analyze",
				},
				"language": map[string]any{
					"type":        "string",
					"description": "Language of the code, python when omitted",
					"enum":        s.checker.Languages(),
				},
			},
			Required: []string{"code"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleDebugCode)
}

// registerRunCodeTool registers the run_code tool
func (s *MCPServer) registerRunCodeTool() {
	tool := mcp.Tool{
		Name:        tools.RunCodeName,
		Description: tools.RunCodeDescription,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Python source code to execute",
				},
			},
			Required: []string{"code"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleRunCode)
}

// handleDebugCode handles the debug_code tool
func (s *MCPServer) handleDebugCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return errorResult(fmt.Sprintf("code parameter is required: %v", err)), nil
	}
	language := request.GetString("language", "")

	s.logger.Info("syntax check requested", zap.String("language", language), zap.Int("code_len", len(code)))

	return textResult(s.checker.Check(ctx, language, code)), nil
}

// handleRunCode handles the run_code tool
func (s *MCPServer) handleRunCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return errorResult(fmt.Sprintf("code parameter is required: %v", err)), nil
	}

	s.logger.Info("code execution requested", zap.Int("code_len", len(code)))

	return textResult(s.runner.Report(ctx, code)), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	result := textResult(text)
	result.IsError = true
	return result
}

// ServeStdio starts the server on stdio
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP starts the server on HTTP
func (s *MCPServer) ServeHTTP() error {
	port := s.config.Server.HTTPPort
	s.logger.Info("starting MCP server on HTTP", zap.Int("port", port))

	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	return httpServer.Start(fmt.Sprintf(":%d", port))
}

// Serve starts the transport selected by server.transport.
func (s *MCPServer) Serve() error {
	if s.config.Server.Transport == "http" {
		return s.ServeHTTP()
	}
	return s.ServeStdio()
}

// GetMCPServer returns the underlying MCP server for fx
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
