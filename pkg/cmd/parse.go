package cmd

import (
	"strings"
	"unicode"
)

// Parse splits a prefixed chat line into an invocation. Double-quoted spans
// stay one argument. ok is false when content does not start with prefix or
// names no command.
func Parse(prefix, content string) (inv *Invocation, ok bool) {
	content = strings.TrimSpace(content)
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return nil, false
	}
	fields := Split(content[len(prefix):])
	if len(fields) == 0 {
		return nil, false
	}
	return &Invocation{Name: strings.ToLower(fields[0]), Args: fields[1:]}, true
}

// Split breaks s on whitespace, keeping "quoted text" together.
func Split(s string) []string {
	var (
		out    []string
		cur    strings.Builder
		quoted bool
		open   bool
	)
	flush := func() {
		if open {
			out = append(out, cur.String())
			cur.Reset()
			open = false
		}
	}
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			open = true
		case unicode.IsSpace(r) && !quoted:
			flush()
		default:
			cur.WriteRune(r)
			open = true
		}
	}
	flush()
	return out
}
