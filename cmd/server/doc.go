// Package main is the entry point for the SpectraScout MCP tool server.
//
// The server exposes debug_code and run_code to MCP clients over stdio or
// streamable HTTP. Code runs in the sandbox backend selected in the
// configuration.
//
// The application uses Uber's fx framework for dependency injection and lifecycle
// management, with zap for structured logging and viper for configuration.
//
// Run with --print-config to print the effective configuration as YAML.
package main
