// Command build-readme regenerates README.md from README.md.tmpl and the registered commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keshon/server-warden/internal/command"
	"github.com/keshon/server-warden/internal/docs"
	"github.com/keshon/server-warden/pkg/cmd"
)

func main() {
	var tmplPath, outPath, prefix string
	root := &cobra.Command{
		Use:          "build-readme",
		Short:        "Regenerate README.md from the command registry",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(c *cobra.Command, _ []string) error {
			sections := command.Sections(cmd.DefaultRegistry.GetAll())
			if err := docs.UpdateReadme(tmplPath, outPath, prefix, sections); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "wrote %s\n", outPath)
			return nil
		},
	}
	root.Flags().StringVar(&tmplPath, "template", "README.md.tmpl", "Template path")
	root.Flags().StringVar(&outPath, "out", "README.md", "Output path")
	root.Flags().StringVar(&prefix, "prefix", "!", "Command prefix shown in the catalogue")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
