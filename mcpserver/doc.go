// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The server exposes the two code tools to any MCP client:
//
//   - debug_code checks source code for syntax errors without running it.
//   - run_code executes Python code in the sandbox.
//
// Both return a single text content carrying the same strings the assistant
// sees. It uses the mark3labs/mcp-go library and supports stdio and
// streamable HTTP transports as configured.
//
// Usage:
//
//	server, err := mcpserver.New(config, logger, checker, reporter)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = server.ServeStdio() // or server.ServeHTTP()
package mcpserver
