// Package docs renders the README command catalogue from the command registry.
package docs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/keshon/server-warden/internal/command"
)

// CommandSections formats the catalogue as markdown, one heading per category.
func CommandSections(prefix string, sections []command.Section) string {
	var buf bytes.Buffer
	for i, sec := range sections {
		if i > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "### %s\n\n", sec.Category)
		for _, e := range sec.Entries {
			usage := ""
			if e.Usage != "" {
				usage = " " + e.Usage
			}
			fmt.Fprintf(&buf, "- **`%s%s%s`** %s", prefix, e.Name, usage, e.Description)
			if len(e.Aliases) > 0 {
				fmt.Fprintf(&buf, " (aliases: %s)", strings.Join(e.Aliases, ", "))
			}
			buf.WriteString("\n")
		}
	}
	return buf.String()
}

// Render executes tmpl with the catalogue available as {{.CommandSections}}.
func Render(w io.Writer, tmpl, prefix string, sections []command.Section) error {
	t, err := template.New("readme").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("parse readme template: %w", err)
	}
	data := struct {
		Prefix          string
		CommandSections string
	}{
		Prefix:          prefix,
		CommandSections: CommandSections(prefix, sections),
	}
	return t.Execute(w, data)
}

// UpdateReadme regenerates outPath from tmplPath.
func UpdateReadme(tmplPath, outPath, prefix string, sections []command.Section) error {
	raw, err := os.ReadFile(tmplPath)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := Render(&out, string(raw), prefix, sections); err != nil {
		return err
	}
	return os.WriteFile(outPath, out.Bytes(), 0o644)
}
