package docs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/server-warden/internal/command"
	"github.com/keshon/server-warden/pkg/cmd"
)

func TestCommandSections(t *testing.T) {
	out := CommandSections("!", []command.Section{
		{Category: "A", Entries: []command.Entry{{Name: "bal", Usage: "[@member]", Description: "Show balance", Aliases: []string{"wallet"}}}},
		{Category: "B", Entries: []command.Entry{{Name: "daily", Description: "Claim"}}},
	})
	assert.Equal(t, "### A\n\n- **`!bal [@member]`** Show balance (aliases: wallet)\n\n### B\n\n- **`!daily`** Claim\n", out)
}

func TestUpdateReadmeUsesRegistry(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "README.md.tmpl")
	out := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(tmpl, []byte("# Warden\n\nPrefix {{.Prefix}}\n\n{{.CommandSections}}"), 0o644))

	require.NoError(t, UpdateReadme(tmpl, out, "!", command.Sections(cmd.DefaultRegistry.GetAll())))
	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.HasPrefix(text, "# Warden\n\nPrefix !"))
	assert.Contains(t, text, "### "+command.CategoryRestraints)
	assert.Contains(t, text, "`!enforce")
	assert.Less(t, strings.Index(text, command.CategoryInfo), strings.Index(text, command.CategoryManagement))
}

func TestRenderRejectsBadTemplate(t *testing.T) {
	assert.Error(t, Render(&strings.Builder{}, "{{.Missing", "!", nil))
}
