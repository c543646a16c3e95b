package review

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// ContentPlaceholder marks where fragment text is substituted into a template.
const ContentPlaceholder = "{content}"

// Static fields that may be filled before fragment substitution.
const (
	PurposePlaceholder     = "{purpose}"
	ConstraintsPlaceholder = "{constraints}"
)

// ErrTemplatePlaceholder is returned when a template does not contain exactly
// one content placeholder.
var ErrTemplatePlaceholder = errors.New("template must contain exactly one " + ContentPlaceholder + " placeholder")

// Template is a prompt with a single slot for fragment content. The text on
// either side of the slot is stored separately so that filled values are never
// mistaken for the slot itself.
type Template struct {
	before string
	after  string
}

// NewTemplate parses text into a Template.
func NewTemplate(text string) (Template, error) {
	if strings.Count(text, ContentPlaceholder) != 1 {
		return Template{}, ErrTemplatePlaceholder
	}
	before, after, _ := strings.Cut(text, ContentPlaceholder)
	return Template{before: before, after: after}, nil
}

// MustTemplate is like NewTemplate but panics on error. It is intended for the
// built-in prompts.
func MustTemplate(text string) Template {
	t, err := NewTemplate(text)
	if err != nil {
		panic(err)
	}
	return t
}

// Fill returns a copy of t with each placeholder replaced by the value that
// follows it in oldnew. All pairs are substituted in a single pass, so a
// value is never rescanned for another placeholder.
func (t Template) Fill(oldnew ...string) Template {
	r := strings.NewReplacer(oldnew...)
	return Template{
		before: r.Replace(t.before),
		after:  r.Replace(t.after),
	}
}

// Render substitutes content into the template.
func (t Template) Render(content string) string {
	return t.before + content + t.after
}

// Overhead is the character count of the template rendered with no content.
func (t Template) Overhead() int {
	return utf8.RuneCountInString(t.before) + utf8.RuneCountInString(t.after)
}

const purposePromptText = `
##### SUMMARY SO FAR (ABOVE)
Using the summary above and the Python code fragment below, write a summary that infers what the program does so far.

Constraints:
1. Use at most 2 sentences.
2. Combine what the previous summary says with what the fragment shows.
3. State plainly what the program and its functions most likely do.
4. Mention important functions or lines when they help.
5. Reply with the summary only.

##### CODE FRAGMENT
{content}
#####
`

const errorsPromptText = `
Below are a summary of a Python file's purpose and a fragment taken from the middle of that file.
Check the fragment for fatal logical errors in core Python or the standard library.
Assume functions, classes and imports that are not part of core Python are defined and used correctly.

The fragment is cut out of a larger file: ignore indentation, missing returns or surrounding lines, and names that may be defined elsewhere.
Ignore spelling, naming and style.

If nothing in the fragment would stop the code from running correctly, reply with exactly "LGTM".

Otherwise reply ONLY with short bullet points, each containing:
<the error>
<the offending line(s)>
<the suggested replacement>

##### PURPOSE
{purpose}
#####
##### FRAGMENT
{content}
#####
`

const stylePromptText = `
Below are a summary of a Python file's purpose, a fragment of that file, and a list of conventions chosen by the user.
If the fragment generally follows the conventions (be lenient), reply with exactly "LGTM".
Ignore code that is cut off at the start or end of the fragment.

If part of the fragment clearly violates a convention, reply ONLY with 1-2 short bullet points, each containing:
<the violated convention>
<the offending line(s)>
<the suggested replacement>

Only report violations of the listed conventions.
##### CONVENTIONS
{constraints}
#####
##### PURPOSE
{purpose}
#####
##### FRAGMENT
{content}
#####
`

const (
	// DefaultPurposeSystem is the persona used while folding the running summary.
	DefaultPurposeSystem = "You are an AI that is an expert at deducing the purpose of a program. Your sole purpose is to deduce the purpose of a program given some supporting information."
	// DefaultReviewSystem is the persona used by both review passes.
	DefaultReviewSystem = "You are a helpful AI agent who follows user instructions perfectly and precisely."
)

// Prompts holds the templates and personas used by the engine.
type Prompts struct {
	Purpose       Template
	Errors        Template
	Style         Template
	PurposeSystem string
	ReviewSystem  string
}

// DefaultPrompts returns the built-in prompt set.
func DefaultPrompts() Prompts {
	return Prompts{
		Purpose:       MustTemplate(purposePromptText),
		Errors:        MustTemplate(errorsPromptText),
		Style:         MustTemplate(stylePromptText),
		PurposeSystem: DefaultPurposeSystem,
		ReviewSystem:  DefaultReviewSystem,
	}
}

// PromptFiles names optional files that replace the built-in templates.
type PromptFiles struct {
	PurposeFile   string
	ErrorsFile    string
	StyleFile     string
	PurposeSystem string
	ReviewSystem  string
}

// LoadPrompts starts from the defaults and replaces any template or persona
// provided in files.
func LoadPrompts(files PromptFiles) (Prompts, error) {
	p := DefaultPrompts()

	for _, slot := range []struct {
		path string
		dst  *Template
	}{
		{files.PurposeFile, &p.Purpose},
		{files.ErrorsFile, &p.Errors},
		{files.StyleFile, &p.Style},
	} {
		if slot.path == "" {
			continue
		}
		data, err := os.ReadFile(slot.path)
		if err != nil {
			return Prompts{}, fmt.Errorf("reading prompt file: %w", err)
		}
		t, err := NewTemplate(string(data))
		if err != nil {
			return Prompts{}, fmt.Errorf("prompt file %s: %w", slot.path, err)
		}
		*slot.dst = t
	}

	if files.PurposeSystem != "" {
		p.PurposeSystem = files.PurposeSystem
	}
	if files.ReviewSystem != "" {
		p.ReviewSystem = files.ReviewSystem
	}
	return p, nil
}
