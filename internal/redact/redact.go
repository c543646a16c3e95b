package redact

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Placeholder replaces every detected secret.
const Placeholder = "[REDACTED]"

// secretPatterns are regex heuristics for common secret types.
var secretPatterns = []*regexp.Regexp{
	// Generic API keys (long hex/base64 strings after common key patterns)
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`),
	// AWS access key IDs
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	// AWS secret access keys
	regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`),
	// Secrets, tokens and passwords assigned to string literals
	regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*[rb]?["']([^"']{8,})["']`),
	// Python keyword arguments: connect(password="...")
	regexp.MustCompile(`(?i)(password|passwd|api_key|token)\s*=\s*[rb]?["']([^"']{8,})["']`),
	// Database URLs with an inline password
	regexp.MustCompile(`(?i)(postgres(ql)?|mysql|mongodb(\+srv)?|redis|amqp)://[^:/\s"']+:[^@/\s"']+@`),
	// Bearer tokens
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	// JWTs (three base64 segments separated by dots)
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	// Private key blocks
	regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`),
	// GitHub tokens
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	// Slack tokens
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	// Anthropic API keys
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	// OpenAI API keys
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
	// Generic long hex strings that look like secrets (32+ chars in an assignment)
	regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`),
}

// Redactor scrubs secrets from file content.
type Redactor struct {
	patterns []*regexp.Regexp
	paths    []string
}

// New returns a Redactor using the built-in patterns. Files whose path
// matches one of paths are withheld entirely.
func New(paths ...string) *Redactor {
	return &Redactor{patterns: secretPatterns, paths: paths}
}

// Redact returns content with secrets replaced and the number of
// replacements made.
func (r *Redactor) Redact(path, content string) (string, int) {
	if ShouldRedactPath(path, r.paths) {
		return Placeholder + " (file content redacted by path policy)\n", 1
	}

	count := 0
	result := content
	for _, pat := range r.patterns {
		result = pat.ReplaceAllStringFunc(result, func(string) string {
			count++
			return Placeholder
		})
	}
	return result, count
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	out, _ := New().Redact("", text)
	return out
}

// ShouldRedactPath checks if a file path matches any of the redaction path patterns.
func ShouldRedactPath(path string, patterns []string) bool {
	if path == "" {
		return false
	}
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		// Also try matching just the filename for patterns like "**/.env"
		cleanPattern := strings.TrimPrefix(pattern, "**/")
		if cleanPattern != pattern {
			base := filepath.Base(path)
			matched, err = filepath.Match(cleanPattern, base)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}
