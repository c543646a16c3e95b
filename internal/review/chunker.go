package review

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultSizeBudget is the character budget used when neither a size budget
	// nor a context window is configured.
	DefaultSizeBudget = 6000
	// DefaultCharsPerToken approximates how many characters one token covers.
	DefaultCharsPerToken = 4
)

// ErrBudgetTooSmall is matched by a ConfigurationError when the template and
// system text leave no room for fragment content.
var ErrBudgetTooSmall = errors.New("size budget does not cover prompt overhead")

// ConfigurationError reports a size budget that cannot hold the fixed prompt
// overhead.
type ConfigurationError struct {
	Budget   int
	Overhead int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("size budget %d leaves no room for content (template and system text use %d)", e.Budget, e.Overhead)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrBudgetTooSmall
}

// Fragment is a contiguous slice of source text sent to one inference call.
type Fragment struct {
	Index  int
	Line   int // 1-based line the fragment starts on
	Offset int // byte offset into the source text
	Text   string
}

// Partition splits text into fragments whose rendered prompt (template plus
// fragment plus system text) never exceeds budget characters.
//
// The returned sequence is lazy and may be ranged over more than once.
// A ConfigurationError is returned before any fragment is produced when the
// template and system text alone consume the budget.
func Partition(text string, tmpl Template, budget int, system string) (iter.Seq[Fragment], error) {
	overhead := tmpl.Overhead() + utf8.RuneCountInString(system)
	effective := budget - overhead
	if effective <= 0 {
		return nil, &ConfigurationError{Budget: budget, Overhead: overhead}
	}
	return Split(text, effective), nil
}

// Split partitions text into fragments of at most limit characters.
// Lines are kept whole when they fit; a line longer than limit is cut into
// limit-sized pieces that are each emitted alone.
func Split(text string, limit int) iter.Seq[Fragment] {
	return func(yield func(Fragment) bool) {
		if text == "" || limit <= 0 {
			return
		}

		var current strings.Builder
		currentLen := 0
		idx := 0
		offset := 0    // byte offset of the next unconsumed line
		startOff := 0  // byte offset where current begins
		lineNo := 0    // line number of the line being consumed
		startLine := 1 // line number where current begins

		emit := func(s string, line, off int) bool {
			f := Fragment{Index: idx, Line: line, Offset: off, Text: s}
			idx++
			return yield(f)
		}

		flush := func() bool {
			if currentLen == 0 {
				return true
			}
			ok := emit(current.String(), startLine, startOff)
			current.Reset()
			currentLen = 0
			return ok
		}

		for line := range strings.Lines(text) {
			lineNo++
			n := utf8.RuneCountInString(line)

			if n > limit {
				// Oversized lines never share a fragment with their neighbours.
				if !flush() {
					return
				}
				rest := line
				off := offset
				for rest != "" {
					cut := byteIndexOfRune(rest, limit)
					if !emit(rest[:cut], lineNo, off) {
						return
					}
					off += cut
					rest = rest[cut:]
				}
				offset += len(line)
				continue
			}

			if currentLen+n > limit {
				if !flush() {
					return
				}
			}
			if currentLen == 0 {
				startOff = offset
				startLine = lineNo
			}
			current.WriteString(line)
			currentLen += n
			offset += len(line)
		}

		flush()
	}
}

// Fragments collects a fragment sequence into a slice.
func Fragments(seq iter.Seq[Fragment]) []Fragment {
	var out []Fragment
	for f := range seq {
		out = append(out, f)
	}
	return out
}

// TokenBudget derives a character budget from a model context window,
// keeping reserve tokens free for the model's response.
func TokenBudget(contextWindow, reserve, charsPerToken int) int {
	if contextWindow <= 0 {
		return 0
	}
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	usable := contextWindow - reserve
	if usable <= 0 {
		return 0
	}
	return usable * charsPerToken
}

// byteIndexOfRune returns the byte index just past the first n runes of s,
// or len(s) when s holds n runes or fewer.
func byteIndexOfRune(s string, n int) int {
	i := 0
	for count := 0; i < len(s) && count < n; count++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}
