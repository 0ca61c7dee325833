// Package mcptoolset adapts the tools of a remote MCP server into agent tools.
//
// The toolset connects over streamable HTTP, lists the remote tools once and
// forwards calls to them. Remote input schemas are passed to the model
// unchanged.
package mcptoolset
