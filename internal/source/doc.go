// Package source finds Python files on disk and reads them for review.
//
// [ListPythonFiles] walks a directory (or, with GitTracked set, asks git for
// the tracked file list) and returns matching paths in sorted order. [Read]
// classifies a path as missing, a directory, or a regular file so callers can
// answer path errors without touching a model.
package source
