// Package gag renders text in a "gagged" style. Every style is total: any input,
// including the empty string, produces output without error.
package gag

import (
	"errors"
	"fmt"
	"strings"
)

type Style int

const (
	None Style = iota
	Ball
	Dog
	Cat
	Baby
	Reverse
	Rot13
	Base64
	Morse
	Pet
)

// Ungag is the removal keyword accepted by the gag command. It is never a stored style.
const Ungag = "ungag"

var (
	ErrUngag        = errors.New("ungag is a removal keyword, not a style")
	ErrUnknownStyle = errors.New("unknown gag style")
)

type styleDef struct {
	name       string
	about      string
	transform  func(string) string
	decode     func(string) (string, bool)
	reversible bool
}

var table = [...]styleDef{
	None:    {name: "none", transform: identity},
	Ball:    {name: "ball", about: "muffled through a ball gag", transform: muffle},
	Dog:     {name: "dog", about: "every word becomes a bark", transform: barker(dogWords)},
	Cat:     {name: "cat", about: "every word becomes a meow", transform: barker(catWords)},
	Baby:    {name: "baby", about: "baby talk", transform: babyTalk},
	Reverse: {name: "reverse", about: "written backwards", transform: reverse, decode: decodeReverse, reversible: true},
	Rot13:   {name: "rot13", about: "rotated alphabet", transform: rot13, decode: decodeRot13, reversible: true},
	Base64:  {name: "base64", about: "encoded", transform: encodeBase64, decode: decodeBase64, reversible: true},
	Morse:   {name: "morse", about: "dots and dashes", transform: morse},
	Pet:     {name: "pet", about: "only approved phrases", transform: petPhrase},
}

func (s Style) valid() bool { return s > None && int(s) < len(table) }

func (s Style) String() string {
	if s < 0 || int(s) >= len(table) {
		return fmt.Sprintf("style(%d)", int(s))
	}
	return table[s].name
}

// About is a short human description.
func (s Style) About() string {
	if !s.valid() {
		return ""
	}
	return table[s].about
}

func (s Style) Reversible() bool { return s.valid() && table[s].reversible }

// Parse maps a style name to a Style. "ungag" yields ErrUngag.
func Parse(name string) (Style, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == Ungag {
		return None, ErrUngag
	}
	for i := range table {
		s := Style(i)
		if s.valid() && table[i].name == name {
			return s, nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownStyle, name)
}

// All returns every assignable style.
func All() []Style {
	out := make([]Style, 0, len(table)-1)
	for i := 1; i < len(table); i++ {
		out = append(out, Style(i))
	}
	return out
}

// Names lists assignable style names, for help text.
func Names() []string {
	all := All()
	out := make([]string, len(all))
	for i, s := range all {
		out[i] = s.String()
	}
	return out
}

// Transform renders text in style s. Unknown styles return text unchanged.
func Transform(s Style, text string) string {
	if !s.valid() {
		return text
	}
	return table[s].transform(text)
}

// Decode inverts a reversible style.
func Decode(s Style, text string) (string, bool) {
	if !s.Reversible() {
		return "", false
	}
	return table[s].decode(text)
}

func identity(s string) string { return s }
