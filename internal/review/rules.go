package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/glean/internal/logging"
)

// DefaultConventions are used when no rules source is configured.
var DefaultConventions = []string{
	"Choose descriptive and meaningful names for variables, functions, and classes unless they are in loops.",
	"Use variable typing and type hints where needed.",
	"Document your code with docstrings and comments if its functionality is not already obvious.",
	"Avoid excessively using global variables in your code.",
}

// Rules represents a rules pack loaded from --rules.
type Rules struct {
	Conventions []string        `json:"conventions,omitempty" yaml:"conventions,omitempty"`
	Focus       []string        `json:"focus,omitempty" yaml:"focus,omitempty"`
	Required    []RequiredCheck `json:"required,omitempty" yaml:"required,omitempty"`

	// verbatim holds a plain-text rules file, used as-is.
	verbatim string
}

// RequiredCheck is a convention that should always be evaluated.
type RequiredCheck struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// DefaultRules returns the built-in conventions.
func DefaultRules() *Rules {
	return &Rules{Conventions: append([]string(nil), DefaultConventions...)}
}

// LoadRules loads the conventions used by the style pass.
//
// An empty path yields the defaults. A path that does not exist also yields
// the defaults, with a warning logged. Files ending in .json, .yaml or .yml
// are parsed as rules packs; any other file is used verbatim.
func LoadRules(ctx context.Context, path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.FromContext(ctx).Warn("rules file not found, using default conventions", "path", path)
		return DefaultRules(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var rules Rules
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &rules); err != nil {
			return nil, fmt.Errorf("parsing rules file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &rules); err != nil {
			return nil, fmt.Errorf("parsing rules file: %w", err)
		}
	default:
		rules.verbatim = string(data)
	}
	return &rules, nil
}

// String renders the rules as the constraints block of the style prompt.
func (r *Rules) String() string {
	if r == nil {
		return DefaultRules().String()
	}
	if r.verbatim != "" {
		return r.verbatim
	}

	var b strings.Builder
	n := 0
	for _, c := range r.Conventions {
		n++
		fmt.Fprintf(&b, "%d. %s\n", n, c)
	}
	for _, req := range r.Required {
		n++
		fmt.Fprintf(&b, "%d. [%s] %s\n", n, req.ID, req.Text)
	}
	if len(r.Focus) > 0 {
		fmt.Fprintf(&b, "\nFocus areas: %s.\n", strings.Join(r.Focus, ", "))
	}
	return b.String()
}
