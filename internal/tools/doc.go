// Package tools exposes glean's three file operations as MCP tools so that
// an agent can list Python files, infer a file's purpose and review it.
//
// The server speaks JSON-RPC over stdio. Results are plain text, except for
// ListPythonFiles which returns a JSON array of paths. Path problems such as
// a missing file are reported as ordinary text results; inference failures
// are reported as tool errors.
package tools
