// Package main is the entry point for the SpectraScout assistant.
//
// The assistant is a Gemini agent that checks companies and job offers,
// compares GitHub applicants and debugs or runs code. With chat.mode "repl"
// it reads messages from stdin; with "http" it serves the chat API on
// chat.http_port.
//
// GITHUB_AUTH_TOKEN enables the GitHub MCP tools and GOOGLE_API_KEY (or
// GEMINI_API_KEY) is required for the model. Both may live in a .env file.
package main
