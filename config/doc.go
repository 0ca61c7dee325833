// Package config provides application configuration management.
//
// The config package loads the assistant's configuration from an optional
// config.yaml, a .env file and SPECTRASCOUT_* environment variables, applies
// defaults and validates the result. It covers the MCP tool server, the code
// sandbox, logging, per-language runtimes, the LLM, the GitHub MCP endpoint,
// session storage and the chat front end.
//
// Usage:
//
//	cfg, err := config.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Sandbox backend: %s\n", cfg.Sandbox.Backend)
package config
