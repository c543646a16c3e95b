// Glean is a local CLI that infers the purpose of Python source files and
// reviews them with LLM providers.
//
// Each file is read in fragments that fit the model's context. A running
// summary is folded across the fragments to infer what the program does, then
// every fragment is checked for errors and, when none are found, for coding
// convention violations.
//
// Usage:
//
//	glean list ./src                  # list Python files
//	glean purpose app.py              # infer what app.py does
//	glean comments app.py             # review app.py
//	glean analyze ./src --format json # purpose and review for every file
//	glean serve                       # MCP tool server on stdio
package main
