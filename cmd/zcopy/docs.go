package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

var docsCmd = &cobra.Command{
	Use:    "gen-docs",
	Short:  "Generate man pages or markdown for zcopy",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   runGenDocs,
}

func init() {
	docsCmd.Flags().String("dir", "docs", "output directory")
	docsCmd.Flags().String("format", "man", "output format (man or markdown)")
}

func runGenDocs(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("dir")       //nolint:errcheck // flag name is hardcoded
	format, _ := cmd.Flags().GetString("format") //nolint:errcheck // flag name is hardcoded

	var gen func(*cobra.Command) error
	switch format {
	case "man":
		gen = func(root *cobra.Command) error {
			return doc.GenManTree(root, &doc.GenManHeader{
				Title:   "ZCOPY",
				Section: "1",
				Source:  "zcopy " + version,
			}, dir)
		}
	case "markdown":
		gen = func(root *cobra.Command) error { return doc.GenMarkdownTree(root, dir) }
	default:
		return fmt.Errorf("unknown format %q (use man or markdown)", format)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return gen(cmd.Root())
}
