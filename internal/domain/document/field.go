package document

import (
	"fmt"
	"regexp"
	"strings"
)

// Field names of the installer schema.
const (
	FieldName             = "name"
	FieldCodeName         = "code_name"
	FieldRelease          = "release"
	FieldTrustedChecksums = "trusted_checksums"
)

// strategy locates a field inside a document and encodes a new value for it.
type strategy interface {
	// pattern matches the field; submatch 1 is the replaceable span.
	pattern() *regexp.Regexp
	// encode turns a value into the text stored in the span.
	encode(value string) (string, error)
}

// field binds a schema name to its strategy.
type field struct {
	name string
	strategy
}

// span returns the byte range of the field's replaceable text.
// The field must match exactly once.
func (f field) span(text string) (int, int, error) {
	matches := f.pattern().FindAllStringSubmatchIndex(text, -1)

	switch len(matches) {
	case 0:
		return 0, 0, &FieldError{Field: f.name, Err: ErrFieldNotFound}
	case 1:
		return matches[0][2], matches[0][3], nil
	default:
		return 0, 0, &FieldError{
			Field: f.name,
			Err:   fmt.Errorf("%w (%d times)", ErrFieldAmbiguous, len(matches)),
		}
	}
}

func (f field) get(text string) (string, error) {
	start, end, err := f.span(text)
	if err != nil {
		return "", err
	}

	return text[start:end], nil
}

func (f field) set(text, value string) (string, error) {
	encoded, err := f.encode(value)
	if err != nil {
		return "", &FieldError{Field: f.name, Err: err}
	}

	start, end, err := f.span(text)
	if err != nil {
		return "", err
	}

	return text[:start] + encoded + text[end:], nil
}

// quotedAssignment is a shell assignment `key="value"` on its own line,
// optionally indented and prefixed by export/local/readonly/declare.
// Only the value between the quotes is replaced.
type quotedAssignment struct {
	re *regexp.Regexp
}

func newQuotedAssignment(key string) quotedAssignment {
	return quotedAssignment{
		re: regexp.MustCompile(`(?m)^[ \t]*(?:(?:export|local|readonly|declare)[ \t]+)?` +
			regexp.QuoteMeta(key) + `="([^"\n]*)"`),
	}
}

func (q quotedAssignment) pattern() *regexp.Regexp {
	return q.re
}

func (q quotedAssignment) encode(value string) (string, error) {
	if strings.ContainsAny(value, "\"\n") {
		return "", fmt.Errorf("%w: %q", ErrInvalidValue, value)
	}

	return value, nil
}

// heredocBlock is the TRUSTED_SHASUMS command substitution wrapping a
// `cat <<-EOF` heredoc. The whole block is replaced.
type heredocBlock struct {
	re *regexp.Regexp
}

func newHeredocBlock(variable string) heredocBlock {
	return heredocBlock{
		re: regexp.MustCompile(`(?ms)^[ \t]*(` + regexp.QuoteMeta(variable) +
			`="\$\(\n.*?\n[ \t]*EOF\n\)")`),
	}
}

func (h heredocBlock) pattern() *regexp.Regexp {
	return h.re
}

// encode renders newline-separated lines into the canonical block.
func (h heredocBlock) encode(value string) (string, error) {
	lines := strings.Split(value, "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) == "" || strings.TrimSpace(line) == heredocDelimiter {
			return "", fmt.Errorf("%w: blank or delimiter line in checksum block", ErrInvalidValue)
		}
	}

	var b strings.Builder

	b.WriteString(trustedChecksumsVariable)
	b.WriteString("=\"$(\n\tcat <<-" + heredocDelimiter + "\n")

	for _, line := range lines {
		b.WriteString("\t\t")
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\t" + heredocDelimiter + "\n)\"")

	return b.String(), nil
}

// bodyLines returns the heredoc body of a rendered or hand-written block.
func (h heredocBlock) bodyLines(block string) []string {
	var (
		lines  []string
		inBody bool
	)

	for line := range strings.Lines(block) {
		trimmed := strings.TrimSpace(line)

		switch {
		case !inBody && strings.Contains(trimmed, "<<"):
			inBody = true
		case inBody && trimmed == heredocDelimiter:
			return lines
		case inBody && trimmed != "":
			lines = append(lines, trimmed)
		}
	}

	return lines
}
