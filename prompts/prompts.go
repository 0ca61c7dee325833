package prompts

import (
	_ "embed"
)

// Assistant is the instruction of the root agent.
//
//go:embed assistant.md
var Assistant string

// Search is the instruction of the web search sub-agent.
//
//go:embed search.md
var Search string

// Summarize is the instruction of the summarizer sub-agent.
//
//go:embed summarize.md
var Summarize string
