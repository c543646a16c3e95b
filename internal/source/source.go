package source

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultSuffixes selects Python source files.
var DefaultSuffixes = []string{".py"}

// DefaultExclude skips directories that never hold reviewable sources.
var DefaultExclude = []string{".git", "__pycache__", ".venv", "venv", "node_modules"}

// DefaultMaxFileBytes is the per-file size limit for Read.
const DefaultMaxFileBytes = 1 << 20 // 1MB

var (
	// ErrFileTooLarge is returned by Read for files over the size limit.
	ErrFileTooLarge = errors.New("file exceeds size limit")
	// ErrBinaryFile is returned by Read for files that are not text.
	ErrBinaryFile = errors.New("file is not text")
)

// Status classifies a path.
type Status int

const (
	StatusMissing Status = iota
	StatusDirectory
	StatusRegular
)

func (s Status) String() string {
	switch s {
	case StatusMissing:
		return "missing"
	case StatusDirectory:
		return "directory"
	case StatusRegular:
		return "regular"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// File is the full text of one source file.
type File struct {
	Path string
	Text string
}

// Options controls file enumeration.
type Options struct {
	// Suffixes are the file name endings to collect. Empty means DefaultSuffixes.
	Suffixes []string
	// Exclude holds glob patterns matched against both the relative path and
	// the base name of every entry. Nil means DefaultExclude.
	Exclude []string
	// GitTracked restricts results to files tracked by git.
	GitTracked bool
}

func (o Options) suffixes() []string {
	if len(o.Suffixes) == 0 {
		return DefaultSuffixes
	}
	return o.Suffixes
}

func (o Options) exclude() []string {
	if o.Exclude == nil {
		return DefaultExclude
	}
	return o.Exclude
}

// ListPythonFiles returns the Python files under path in sorted order.
// A directory is searched recursively. An existing file is returned on its
// own. A path that does not exist yields an empty list.
func ListPythonFiles(path string, opts Options) ([]string, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	if opts.GitTracked {
		files, err = trackedFiles(path, opts)
	} else {
		files, err = walkFiles(path, opts)
	}
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	if files == nil {
		files = []string{}
	}
	return files, nil
}

func walkFiles(root string, opts Options) ([]string, error) {
	exclude := opts.exclude()
	suffixes := opts.suffixes()

	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			rel = p
		}
		if excluded(filepath.ToSlash(rel), d.Name(), exclude) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !hasSuffix(d.Name(), suffixes) {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

// trackedFiles lists git-tracked files under root using `git ls-files`.
func trackedFiles(root string, opts Options) ([]string, error) {
	out, err := gitOutput(root, "ls-files", "-z")
	if err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	exclude := opts.exclude()
	suffixes := opts.suffixes()

	var files []string
	for _, rel := range strings.Split(out, "\x00") {
		if rel == "" {
			continue
		}
		if !hasSuffix(rel, suffixes) || excludedPath(rel, exclude) {
			continue
		}
		files = append(files, filepath.Join(root, filepath.FromSlash(rel)))
	}
	return files, nil
}

func hasSuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

func excluded(rel, name string, patterns []string) bool {
	return MatchesAny(rel, patterns) || MatchesAny(name, patterns)
}

// excludedPath reports whether any element of a slash-separated relative
// path is excluded.
func excludedPath(rel string, patterns []string) bool {
	if MatchesAny(rel, patterns) {
		return true
	}
	for _, elem := range strings.Split(rel, "/") {
		if MatchesAny(elem, patterns) {
			return true
		}
	}
	return false
}

// MatchesAny returns true if the path matches any of the given glob patterns.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

// Read classifies path and, for a regular file, returns its text.
// Missing paths and directories are reported through Status with a nil error.
// maxBytes <= 0 means DefaultMaxFileBytes.
func Read(path string, maxBytes int64) (File, Status, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return File{}, StatusMissing, nil
	}
	if err != nil {
		return File{}, StatusMissing, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, StatusDirectory, nil
	}

	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}
	if info.Size() > maxBytes {
		return File{}, StatusRegular, fmt.Errorf("%s (%d bytes, limit %d): %w", path, info.Size(), maxBytes, ErrFileTooLarge)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, StatusRegular, fmt.Errorf("reading %s: %w", path, err)
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return File{}, StatusRegular, fmt.Errorf("%s: %w", path, ErrBinaryFile)
	}
	return File{Path: path, Text: string(data)}, StatusRegular, nil
}

func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, string(exitErr.Stderr))
		}
		return "", err
	}
	return string(out), nil
}
