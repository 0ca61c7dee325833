// Package assistant assembles the SpectraScout agents.
//
// The root agent, GithubRepoInfoAgent, answers users with the help of the
// GitHub MCP tools, the code tools and two sub-agents exposed as tools:
// SearchAgent, which only has Google Search, and SummarizeAgent, which has no
// tools at all.
package assistant
