// Package syntaxcheck implements the debug_code tool.
//
// A Checker parses source text without running it and describes the outcome
// as text. Grammar errors are data: they come back as
// "Syntax Error: <msg> at line <n>, column <m>" and anything else that goes
// wrong while parsing comes back as "Unexpected issue: <text>". Check never
// returns an error and never panics.
//
// Go source is parsed in process with go/parser. Python source is handed to
// CPython's own ast.parse inside the sandbox, so diagnostics match what the
// interpreter would report.
package syntaxcheck
