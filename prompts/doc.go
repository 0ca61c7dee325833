// Package prompts holds the agent instructions, embedded at build time.
package prompts
