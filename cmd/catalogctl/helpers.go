package main

import (
	"github.com/spf13/cobra"
)

// emit writes v as JSON when --json is set, otherwise the rendered lines.
func (c *commandContext) emit(cmd *cobra.Command, v any, render func(colorize bool) []string) error {
	if c.jsonOutput() {
		return writeJSON(cmd, v)
	}
	out := cmd.OutOrStdout()
	printLines(out, render(shouldColorize(out)))
	return nil
}
