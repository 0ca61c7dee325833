// Package tools exposes the code tools to agents as function tools.
package tools
