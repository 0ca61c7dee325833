package mcptoolset

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/Overwatch47/SpectraScout/agent"
)

const (
	clientName    = "spectrascout"
	clientVersion = "1.0.0"
)

// Client is the subset of the MCP client used by the toolset.
// *client.Client satisfies it.
type Client interface {
	Initialize(ctx context.Context, request mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// Options configures a connection to a remote MCP server.
type Options struct {
	URL     string
	Token   string
	Timeout time.Duration
	// Include limits the toolset to the named tools. Empty means all.
	Include []string
}

// Toolset exposes remote MCP tools as agent tools.
type Toolset struct {
	client  Client
	include map[string]struct{}
	logger  *zap.Logger

	mu          sync.Mutex
	initialized bool
	tools       []agent.Tool
}

// Connect dials a streamable HTTP MCP endpoint and performs the handshake.
func Connect(ctx context.Context, logger *zap.Logger, opts Options) (*Toolset, error) {
	httpOpts := []transport.StreamableHTTPCOption{
		transport.WithHTTPHeaders(map[string]string{"Authorization": authorization(opts.Token)}),
	}
	if opts.Timeout > 0 {
		httpOpts = append(httpOpts, transport.WithHTTPTimeout(opts.Timeout))
	}

	c, err := client.NewStreamableHttpClient(opts.URL, httpOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to start MCP client: %w", err)
	}

	ts := New(c, logger, opts.Include)
	if err := ts.initialize(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	logger.Info("connected to MCP server", zap.String("url", opts.URL))
	return ts, nil
}

// New wraps an existing client.
func New(c Client, logger *zap.Logger, include []string) *Toolset {
	var filter map[string]struct{}
	if len(include) > 0 {
		filter = make(map[string]struct{}, len(include))
		for _, name := range include {
			filter[name] = struct{}{}
		}
	}
	return &Toolset{
		client:  c,
		include: filter,
		logger:  logger.Named("mcptoolset"),
	}
}

// Tools lists the remote tools, once, and adapts them.
func (t *Toolset) Tools(ctx context.Context) ([]agent.Tool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tools != nil {
		return t.tools, nil
	}
	if err := t.initializeLocked(ctx); err != nil {
		return nil, err
	}

	var (
		request mcp.ListToolsRequest
		adapted = []agent.Tool{}
	)
	for {
		result, err := t.client.ListTools(ctx, request)
		if err != nil {
			return nil, fmt.Errorf("failed to list MCP tools: %w", err)
		}
		for i := range result.Tools {
			remote := result.Tools[i]
			if !t.included(remote.Name) {
				continue
			}
			tool, err := t.adapt(remote)
			if err != nil {
				return nil, err
			}
			adapted = append(adapted, tool)
		}
		if result.NextCursor == "" {
			break
		}
		request.Params.Cursor = result.NextCursor
	}

	t.logger.Info("loaded MCP tools", zap.Int("count", len(adapted)))
	t.tools = adapted
	return adapted, nil
}

// Close closes the underlying client.
func (t *Toolset) Close() error {
	return t.client.Close()
}

func (t *Toolset) initialize(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.initializeLocked(ctx)
}

func (t *Toolset) initializeLocked(ctx context.Context) error {
	if t.initialized {
		return nil
	}

	request := mcp.InitializeRequest{}
	request.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	request.Params.ClientInfo = mcp.Implementation{
		Name:    clientName,
		Version: clientVersion,
	}

	result, err := t.client.Initialize(ctx, request)
	if err != nil {
		return fmt.Errorf("failed to initialize MCP session: %w", err)
	}
	t.logger.Debug("MCP session initialized",
		zap.String("server", result.ServerInfo.Name),
		zap.String("protocol", result.ProtocolVersion))
	t.initialized = true
	return nil
}

func (t *Toolset) included(name string) bool {
	if t.include == nil {
		return true
	}
	_, ok := t.include[name]
	return ok
}

func (t *Toolset) adapt(remote mcp.Tool) (agent.Tool, error) {
	schema, err := inputSchema(remote)
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", remote.Name, err)
	}
	return agent.NewFunctionTool(remote.Name, remote.Description, schema, func(ctx context.Context, args map[string]any) (map[string]any, error) {
		return t.call(ctx, remote.Name, args)
	}), nil
}

func (t *Toolset) call(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args

	result, err := t.client.CallTool(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("MCP tool %s failed: %w", name, err)
	}

	text := resultText(result)
	if result.IsError {
		t.logger.Debug("MCP tool returned an error", zap.String("tool", name), zap.String("error", text))
		return map[string]any{"error": text}, nil
	}
	return map[string]any{"result": text}, nil
}

// inputSchema returns the tool's JSON schema as the model expects it,
// honouring a raw schema when the server sent one.
func inputSchema(tool mcp.Tool) (map[string]any, error) {
	raw, err := json.Marshal(tool)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool: %w", err)
	}
	var decoded struct {
		InputSchema map[string]any `json:"inputSchema"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode input schema: %w", err)
	}
	if decoded.InputSchema == nil {
		decoded.InputSchema = map[string]any{"type": "object"}
	}
	return decoded.InputSchema, nil
}

func resultText(result *mcp.CallToolResult) string {
	var parts []string
	for _, content := range result.Content {
		switch c := content.(type) {
		case mcp.TextContent:
			parts = append(parts, c.Text)
		case *mcp.TextContent:
			parts = append(parts, c.Text)
		}
	}
	if len(parts) == 0 && result.StructuredContent != nil {
		if b, err := json.Marshal(result.StructuredContent); err == nil {
			return string(b)
		}
	}
	return strings.Join(parts, "\n")
}

// authorization renders the Authorization header. A bare token is sent as a
// bearer token; values that already carry a scheme are sent unchanged.
func authorization(token string) string {
	if strings.Contains(token, " ") {
		return token
	}
	return "Bearer " + token
}
